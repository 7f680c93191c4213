package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/ihab-ag/baro-ai/internal/budget"
	"github.com/ihab-ag/baro-ai/internal/confirm"
	"github.com/ihab-ag/baro-ai/internal/ledger"
	"github.com/ihab-ag/baro-ai/internal/nlu"
)

// handleCommand dispatches a resolved non-destructive command.
func (r *Router) handleCommand(ctx context.Context, sess Session, intent *nlu.Intent) *Result {
	switch intent.Command {
	case "balance":
		return r.cmdBalance(sess)
	case "history":
		return r.cmdHistory(sess)
	case "months":
		return r.cmdMonths(sess)
	case "month":
		return r.cmdMonth(sess, intent.Args)
	case "categories":
		return r.cmdCategories(sess)
	case "catstats":
		return r.cmdCatStats(sess, intent.Args)
	case "budgets":
		return r.cmdBudgets(ctx, sess)
	case "budget_status":
		return r.cmdBudgetStatus(ctx, sess)
	case "budget_create":
		return r.cmdBudgetCreate(ctx, sess, intent.Args)
	case "accounts":
		return r.cmdAccounts(ctx, sess)
	case "account_add":
		return r.cmdAccountAdd(ctx, sess, intent.Args)
	case "account_use":
		return r.cmdAccountUse(ctx, sess, intent.Args)
	case "export":
		return r.cmdExport(sess)
	case "export_month":
		return r.cmdExportMonth(sess, intent.Args)
	default:
		return textResult(formatNotUnderstood())
	}
}

func (r *Router) cmdBalance(sess Session) *Result {
	return textResult(formatBalance(sess.Ledger().Balance(), sess.Ledger().CurrentAccount()))
}

func (r *Router) cmdHistory(sess Session) *Result {
	return textResult(formatHistory(sess.Ledger().RecentTransactions(historyLimit)))
}

func (r *Router) cmdMonths(sess Session) *Result {
	return textResult(formatMonths(sess.Ledger().AllMonths()))
}

func (r *Router) cmdMonth(sess Session, args nlu.CommandArgs) *Result {
	month, res := r.resolveMonthArg(sess, args)
	if res != nil {
		return res
	}
	return textResult(formatMonthTransactions(month.Name, sess.Ledger().TransactionsByMonth(month.Year, month.Month)))
}

func (r *Router) cmdCategories(sess Session) *Result {
	return textResult(formatCategories(sess.Ledger().AllCategories()))
}

func (r *Router) cmdCatStats(sess Session, args nlu.CommandArgs) *Result {
	month, res := r.resolveMonthArg(sess, args)
	if res != nil {
		return res
	}
	return textResult(formatCategoryStats(month.Name, sess.Ledger().CategoryStatsForMonth(month.Year, month.Month)))
}

func (r *Router) cmdBudgets(ctx context.Context, sess Session) *Result {
	year, month := r.currentMonth()
	budgets, err := sess.Budgets().Budgets(ctx, year, month)
	if err != nil {
		return errorResult(fmt.Sprintf("❌ Error: %v", err))
	}
	return textResult(formatBudgets(ledger.MonthName(year, month), budgets))
}

func (r *Router) cmdBudgetStatus(ctx context.Context, sess Session) *Result {
	year, month := r.currentMonth()
	statuses, err := sess.Budgets().MonthStatus(ctx, year, month, sess.Ledger().TransactionsByMonth(year, month))
	if err != nil {
		return errorResult(fmt.Sprintf("❌ Error: %v", err))
	}
	return textResult(formatBudgetStatus(ledger.MonthName(year, month), statuses))
}

// cmdBudgetCreate sets a budget for the current month. When a budget with
// the same key already exists the replacement is parked behind confirmation.
func (r *Router) cmdBudgetCreate(ctx context.Context, sess Session, args nlu.CommandArgs) *Result {
	if args.Amount == nil || !args.Amount.IsPositive() {
		return errorResult("❌ Please include a budget amount, e.g. \"set budget $500\".")
	}
	year, month := r.currentMonth()
	category := budget.NormalizeCategory(args.Category)
	monthName := ledger.MonthName(year, month)

	existing, err := sess.Budgets().Existing(ctx, year, month, category, ledger.KindExpense)
	if err != nil {
		return errorResult(fmt.Sprintf("❌ Error: %v", err))
	}
	if len(existing) > 0 {
		r.confirms.Begin(sess.UserID(), &confirm.Action{
			Kind: confirm.KindBudgetReplace,
			BudgetReplace: &confirm.BudgetReplace{
				Amount:   *args.Amount,
				Year:     year,
				Month:    month,
				Category: category,
				Kind:     string(ledger.KindExpense),
			},
		})
		return confirmResult(formatBudgetReplacePrompt(*args.Amount, category, monthName, existing))
	}

	created, err := sess.Budgets().Create(ctx, year, month, category, *args.Amount, ledger.KindExpense)
	if err != nil {
		return errorResult(fmt.Sprintf("❌ Error: %v", err))
	}
	return textResult(formatBudgetCreated(created, monthName))
}

func (r *Router) cmdAccounts(ctx context.Context, sess Session) *Result {
	accounts, err := sess.Ledger().Accounts(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("❌ Error: %v", err))
	}
	return textResult(formatAccounts(accounts, sess.Ledger().CurrentAccount()))
}

func (r *Router) cmdAccountAdd(ctx context.Context, sess Session, args nlu.CommandArgs) *Result {
	name := ledger.NormalizeAccount(args.Name)
	if strings.TrimSpace(args.Name) == "" {
		return errorResult("❌ Please name the account, e.g. \"add account bank\".")
	}
	sess.Ledger().EnsureAccountExists(ctx, name)
	return textResult(fmt.Sprintf("✅ Account %q added.\n🏦 Current account: %s", name, sess.Ledger().CurrentAccount()))
}

func (r *Router) cmdAccountUse(ctx context.Context, sess Session, args nlu.CommandArgs) *Result {
	if strings.TrimSpace(args.Name) == "" {
		return errorResult("❌ Please name the account, e.g. \"use bank account\".")
	}
	if err := sess.Ledger().SetCurrentAccount(ctx, args.Name); err != nil {
		return errorResult(fmt.Sprintf("❌ Error: %v", err))
	}
	return textResult(fmt.Sprintf("✅ Switched to account %q.", sess.Ledger().CurrentAccount()))
}

func (r *Router) cmdExport(sess Session) *Result {
	csv := sess.Ledger().ExportCSV()
	if csv == "" {
		return textResult("📜 No transactions to export.")
	}
	return &Result{
		OK:   true,
		Text: "💾 Here is your full transaction export.",
		Attachment: &Attachment{
			Filename: "transactions.csv",
			MIMEType: "text/csv",
			Data:     []byte(csv),
		},
	}
}

func (r *Router) cmdExportMonth(sess Session, args nlu.CommandArgs) *Result {
	month, res := r.resolveMonthArg(sess, args)
	if res != nil {
		return res
	}
	csv := sess.Ledger().ExportMonthCSV(month.Year, month.Month)
	if csv == "" {
		return textResult(fmt.Sprintf("📅 No transactions in %s to export.", month.Name))
	}
	filename := fmt.Sprintf("transactions-%04d-%02d.csv", month.Year, month.Month+1)
	return &Result{
		OK:   true,
		Text: fmt.Sprintf("💾 Here is your export for %s.", month.Name),
		Attachment: &Attachment{
			Filename: filename,
			MIMEType: "text/csv",
			Data:     []byte(csv),
		},
	}
}

// resolveMonthArg turns an optional 1-based month index into a concrete
// month, defaulting to the current one.
func (r *Router) resolveMonthArg(sess Session, args nlu.CommandArgs) (ledger.Month, *Result) {
	if args.Index == nil {
		year, month := r.currentMonth()
		return ledger.Month{Year: year, Month: month, Name: ledger.MonthName(year, month)}, nil
	}
	month, ok := monthByIndex(sess.Ledger(), *args.Index)
	if !ok {
		return ledger.Month{}, errorResult(fmt.Sprintf("❌ Month #%d not found. Use \"show months\" to list them.", *args.Index))
	}
	return month, nil
}

func (r *Router) currentMonth() (year, month int) {
	now := r.now()
	return now.Year(), int(now.Month()) - 1
}
