package command

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ihab-ag/baro-ai/internal/budget"
	"github.com/ihab-ag/baro-ai/internal/ledger"
	"github.com/ihab-ag/baro-ai/internal/storage"
)

const historyLimit = 10

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func formatGreeting() string {
	return "👋 Welcome to Baro AI! I track your money from plain chat.\n" +
		"Tell me things like \"spent 20 on lunch\" or \"got paid 500\", " +
		"or type `help` to see everything I understand."
}

func formatHelp() string {
	return "📚 *Baro AI Commands:*\n\n" +
		"💬 *Transaction Commands (Natural Language):*\n" +
		"• \"Received $500 salary\" - Add income\n" +
		"• \"Spent $50 on groceries\" - Add expense\n" +
		"• \"Paid $30 for lunch\" - Add expense\n\n" +
		"📊 *View Commands (Natural Language):*\n" +
		"• \"show balance\" or \"what's my balance?\"\n" +
		"• \"show history\" or \"list transactions\"\n" +
		"• \"show months\" or \"list months\"\n" +
		"• \"show month 1\" or \"january transactions\"\n" +
		"• \"show categories\" or \"list categories\"\n" +
		"• \"category stats for month 1\"\n" +
		"• \"show budgets\" or \"list budgets\"\n" +
		"• \"budget status\" or \"how am I doing with budgets?\"\n\n" +
		"🏦 *Account Commands (Natural Language):*\n" +
		"• \"show accounts\" or \"list accounts\"\n" +
		"• \"create account bank\" or \"add account card\"\n" +
		"• \"switch to bank\" or \"use bank account\"\n\n" +
		"💰 *Budget Commands (Natural Language):*\n" +
		"• \"set budget $500\" or \"budget $500 for groceries\"\n\n" +
		"💾 *Export Commands (Natural Language):*\n" +
		"• \"export data\" or \"download transactions\"\n" +
		"• \"export month 1\" or \"download january\"\n\n" +
		"🗑️ *Delete Commands (Explicit Only):*\n" +
		"• `delete 12345` - Delete transaction by ID\n" +
		"• `clear month 1` - Clear all transactions for month #1\n" +
		"• `clear` - Delete all transactions\n" +
		"• `clear all data` - Delete EVERYTHING (transactions, budgets, accounts)\n\n" +
		"ℹ️ Just talk naturally - the AI understands!"
}

func formatTransactionAdded(txn *ledger.Transaction, balance decimal.Decimal) string {
	action := "Added income"
	if txn.Kind == ledger.KindExpense {
		action = "Added expense"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "✅ %s: %s - %s\n", action, money(txn.Amount), txn.Description)
	if txn.Category != "" {
		fmt.Fprintf(&b, "🏷️ Category: %s\n", txn.Category)
	}
	fmt.Fprintf(&b, "🏦 Account: %s\n", txn.Account)
	fmt.Fprintf(&b, "💰 Balance: %s", money(balance))
	return b.String()
}

func formatBalance(balance decimal.Decimal, account string) string {
	return fmt.Sprintf("💰 Balance: %s\n🏦 Current account: %s", money(balance), account)
}

func formatHistory(txns []*ledger.Transaction) string {
	if len(txns) == 0 {
		return "📜 No transactions yet."
	}
	var b strings.Builder
	b.WriteString("📜 *Recent transactions:*\n")
	for _, txn := range txns {
		sign := "+"
		if txn.Kind == ledger.KindExpense {
			sign = "-"
		}
		fmt.Fprintf(&b, "• [%d] %s %s%s - %s", txn.ID, txn.Timestamp.Format("Jan 02"), sign, money(txn.Amount), txn.Description)
		if txn.Category != "" {
			fmt.Fprintf(&b, " (%s)", txn.Category)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nUse `delete <id>` to remove one.")
	return b.String()
}

func formatMonths(months []ledger.Month) string {
	if len(months) == 0 {
		return "📅 No months with transactions yet."
	}
	var b strings.Builder
	b.WriteString("📅 *Months with activity:*\n")
	for i, m := range months {
		fmt.Fprintf(&b, "%d. %s\n", i+1, m.Name)
	}
	b.WriteString("\nUse \"show month <number>\" to see one.")
	return b.String()
}

func formatMonthTransactions(name string, txns []*ledger.Transaction) string {
	if len(txns) == 0 {
		return fmt.Sprintf("📅 No transactions in %s.", name)
	}
	income, expense := decimal.Zero, decimal.Zero
	var b strings.Builder
	fmt.Fprintf(&b, "📅 *%s:*\n", name)
	for _, txn := range txns {
		sign := "+"
		if txn.Kind == ledger.KindExpense {
			sign = "-"
			expense = expense.Add(txn.Amount)
		} else {
			income = income.Add(txn.Amount)
		}
		fmt.Fprintf(&b, "• [%d] %s %s%s - %s\n", txn.ID, txn.Timestamp.Format("Jan 02"), sign, money(txn.Amount), txn.Description)
	}
	fmt.Fprintf(&b, "\n📈 Income: %s | 📉 Expenses: %s | Net: %s",
		money(income), money(expense), money(income.Sub(expense)))
	return b.String()
}

func formatCategories(categories []string) string {
	if len(categories) == 0 {
		return "🏷️ No categories yet. Mention one when adding a transaction."
	}
	var b strings.Builder
	b.WriteString("🏷️ *Categories:*\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "• %s\n", c)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatCategoryStats(name string, stats []ledger.CategoryStats) string {
	if len(stats) == 0 {
		return fmt.Sprintf("📊 No category activity in %s.", name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Category stats for %s:*\n", name)
	for _, s := range stats {
		fmt.Fprintf(&b, "• %s: in %s, out %s, net %s\n", s.Category, money(s.Income), money(s.Expense), money(s.Net))
	}
	return strings.TrimRight(b.String(), "\n")
}

func budgetScope(category *string) string {
	if category == nil {
		return "overall spending"
	}
	return fmt.Sprintf("%q", *category)
}

func formatBudgets(name string, budgets []budget.Budget) string {
	if len(budgets) == 0 {
		return fmt.Sprintf("💰 No budgets set for %s. Try \"set budget $500\".", name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "💰 *Budgets for %s:*\n", name)
	for _, bg := range budgets {
		fmt.Fprintf(&b, "• [%d] %s: %s (%s)\n", bg.ID, budgetScope(bg.Category), money(bg.Amount), bg.Kind)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatBudgetStatus(name string, statuses []budget.Status) string {
	if len(statuses) == 0 {
		return fmt.Sprintf("💰 No budgets set for %s. Try \"set budget $500\".", name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Budget status for %s:*\n", name)
	for _, s := range statuses {
		icon := "🟢"
		if s.Exceeded {
			icon = "🔴"
		} else if s.Percentage >= 80 {
			icon = "🟡"
		}
		fmt.Fprintf(&b, "%s %s: %s of %s (%d%%), remaining %s\n",
			icon, budgetScope(s.Budget.Category), money(s.Actual), money(s.Budget.Amount), s.Percentage, money(s.Remaining))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatBudgetCreated(b budget.Budget, monthName string) string {
	return fmt.Sprintf("✅ Budget set: %s for %s this month (%s).", money(b.Amount), budgetScope(b.Category), monthName)
}

func formatBudgetReplacePrompt(amount decimal.Decimal, category *string, monthName string, existing []budget.Budget) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ A budget for %s already exists in %s:\n", budgetScope(category), monthName)
	for _, bg := range existing {
		fmt.Fprintf(&b, "• %s\n", money(bg.Amount))
	}
	fmt.Fprintf(&b, "Replace it with %s? Reply `yes` / `replace` to confirm or `no` to cancel.", money(amount))
	return b.String()
}

func formatAccounts(accounts []string, current string) string {
	var b strings.Builder
	b.WriteString("🏦 *Accounts:*\n")
	for _, a := range accounts {
		marker := ""
		if a == current {
			marker = " ← current"
		}
		fmt.Fprintf(&b, "• %s%s\n", a, marker)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatClearMonthPrompt(monthName string, count int) string {
	return fmt.Sprintf("⚠️ This will delete %d transaction(s) from %s.\nReply `yes` to confirm or `no` to cancel.", count, monthName)
}

func formatClearHistoryPrompt(count int) string {
	return fmt.Sprintf("⚠️ This will delete ALL %d transaction(s).\nReply `yes clear all` or `confirm clear` to confirm, `no` to cancel.", count)
}

func formatClearAllDataPrompt(counts storage.DataCounts) string {
	return fmt.Sprintf("🚨 This will delete EVERYTHING: %d transaction(s), %d budget(s), %d account(s).\n"+
		"Reply `yes delete everything`, `confirm delete all` or `yes wipe all` to confirm, `no` to cancel.",
		counts.Transactions, counts.Budgets, counts.Accounts)
}

func formatCancelled() string {
	return "❌ Cancelled. Nothing was changed."
}

func formatNotUnderstood() string {
	return "🤔 I couldn't extract a transaction or command from that.\n" +
		"Try something like \"spent 20 on lunch\", or type `help`."
}
