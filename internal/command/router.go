// Package command routes inbound chat messages: explicit keyword commands
// and confirmation replies are handled directly, everything else goes
// through the language-model resolver. Destructive operations only ever
// trigger from explicit typed phrases and always pass the confirmation gate.
package command

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ihab-ag/baro-ai/internal/confirm"
	"github.com/ihab-ag/baro-ai/internal/ledger"
	"github.com/ihab-ag/baro-ai/internal/nlu"
)

// IntentResolver classifies a free-form message.
type IntentResolver interface {
	Resolve(ctx context.Context, message string) (*nlu.Intent, error)
}

// Router is the message-handling pipeline. Safe for concurrent use.
type Router struct {
	sessions SessionProvider
	resolver IntentResolver
	confirms *confirm.Manager
	log      zerolog.Logger
	now      func() time.Time
}

func NewRouter(sessions SessionProvider, resolver IntentResolver, confirms *confirm.Manager, log zerolog.Logger) *Router {
	return &Router{
		sessions: sessions,
		resolver: resolver,
		confirms: confirms,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var (
	greetingRe     = regexp.MustCompile(`(?i)^(/start|start|hi|hello|hey)$`)
	helpRe         = regexp.MustCompile(`(?i)^(help|commands|/help)$`)
	deleteRe       = regexp.MustCompile(`(?i)^delete\s+(\d+)$`)
	clearRe        = regexp.MustCompile(`(?i)^clear( all)?$`)
	clearMonthRe   = regexp.MustCompile(`(?i)^clear\s+month\s+(\d+)$`)
	clearAllDataRe = regexp.MustCompile(`(?i)^(clear all data|delete all data|reset all|wipe all)$`)
)

// HandleMessage processes one chat message end to end and always returns a
// usable reply; failures inside handlers become error replies, never panics.
func (r *Router) HandleMessage(ctx context.Context, req Request) (result *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Str("user_id", req.UserID).Msg("message handler panicked")
			MessagesHandled.WithLabelValues("panic").Inc()
			result = errorResult("❌ Something went wrong processing your message. Please try again.")
		}
	}()

	text := strings.TrimSpace(req.Text)
	if req.UserID == "" || text == "" {
		MessagesHandled.WithLabelValues("error").Inc()
		return errorResult(formatNotUnderstood())
	}

	sess, err := r.sessions.Session(ctx, req.UserID)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", req.UserID).Msg("acquiring session failed")
		MessagesHandled.WithLabelValues("error").Inc()
		return errorResult("❌ Error: could not load your session.")
	}
	if err := sess.Ledger().EnsureLoaded(ctx); err != nil {
		r.log.Error().Err(err).Str("user_id", req.UserID).Msg("loading ledger failed")
		MessagesHandled.WithLabelValues("error").Inc()
		return errorResult("❌ Error: could not load your data.")
	}

	result = r.dispatch(ctx, sess, text)
	outcome := "ok"
	if !result.OK {
		outcome = "error"
	}
	MessagesHandled.WithLabelValues(outcome).Inc()
	return result
}

func (r *Router) dispatch(ctx context.Context, sess Session, text string) *Result {
	if greetingRe.MatchString(text) {
		return textResult(formatGreeting())
	}
	if helpRe.MatchString(text) {
		return textResult(formatHelp())
	}

	// A pending destructive action consumes the next message first.
	if _, ok := r.confirms.Pending(sess.UserID()); ok {
		action, outcome := r.confirms.Resolve(sess.UserID(), text)
		switch outcome {
		case confirm.Confirmed:
			ConfirmationsResolved.WithLabelValues("confirmed").Inc()
			return r.executeConfirmed(ctx, sess, action)
		case confirm.Cancelled:
			ConfirmationsResolved.WithLabelValues("cancelled").Inc()
			return textResult(formatCancelled())
		default:
			// Unrelated message is handled normally below; the action
			// stays pending until confirmed, cancelled, or replaced.
			ConfirmationsResolved.WithLabelValues("passthrough").Inc()
		}
	}

	// Destructive operations match explicit typed phrases only.
	if res := r.handleDestructive(ctx, sess, text); res != nil {
		return res
	}

	intent, err := r.resolver.Resolve(ctx, text)
	if err != nil {
		r.log.Warn().Err(err).Str("user_id", sess.UserID()).Msg("intent resolution failed")
		return errorResult("❌ Error: I couldn't process that right now. Please try again.")
	}
	IntentsResolved.WithLabelValues(string(intent.Type)).Inc()

	switch intent.Type {
	case nlu.IntentTransaction:
		return r.handleTransaction(ctx, sess, intent.Transaction)
	case nlu.IntentCommand:
		return r.handleCommand(ctx, sess, intent)
	default:
		return textResult(formatNotUnderstood())
	}
}

func (r *Router) handleDestructive(ctx context.Context, sess Session, text string) *Result {
	if m := deleteRe.FindStringSubmatch(text); m != nil {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return errorResult("❌ Invalid transaction ID.")
		}
		found, err := sess.Ledger().DeleteTransaction(ctx, id)
		if err != nil {
			return errorResult(fmt.Sprintf("❌ Error: %v", err))
		}
		if !found {
			return errorResult(fmt.Sprintf("❌ Transaction %d not found.", id))
		}
		return textResult(fmt.Sprintf("🗑️ Deleted transaction %d.\n💰 Balance: %s", id, money(sess.Ledger().Balance())))
	}

	if clearAllDataRe.MatchString(text) {
		counts := sess.Ledger().DataCounts(ctx)
		if counts.Transactions == 0 && counts.Budgets == 0 && counts.Accounts == 0 {
			return textResult("📜 Nothing to delete.")
		}
		r.confirms.Begin(sess.UserID(), &confirm.Action{
			Kind:         confirm.KindClearAllData,
			ClearAllData: &confirm.ClearAllData{Counts: counts},
		})
		return confirmResult(formatClearAllDataPrompt(counts))
	}

	if m := clearMonthRe.FindStringSubmatch(text); m != nil {
		index, _ := strconv.Atoi(m[1])
		month, ok := monthByIndex(sess.Ledger(), index)
		if !ok {
			return errorResult(fmt.Sprintf("❌ Month #%d not found. Use \"show months\" to list them.", index))
		}
		count := len(sess.Ledger().TransactionsByMonth(month.Year, month.Month))
		if count == 0 {
			return textResult(fmt.Sprintf("📅 No transactions in %s.", month.Name))
		}
		r.confirms.Begin(sess.UserID(), &confirm.Action{
			Kind: confirm.KindClearMonth,
			ClearMonth: &confirm.ClearMonth{
				Year: month.Year, Month: month.Month, MonthName: month.Name, Count: count,
			},
		})
		return confirmResult(formatClearMonthPrompt(month.Name, count))
	}

	if clearRe.MatchString(text) {
		count := len(sess.Ledger().RecentTransactions(0))
		if count == 0 {
			return textResult("📜 No transactions to clear.")
		}
		r.confirms.Begin(sess.UserID(), &confirm.Action{
			Kind:         confirm.KindClearHistory,
			ClearHistory: &confirm.ClearHistory{Count: count},
		})
		return confirmResult(formatClearHistoryPrompt(count))
	}

	return nil
}

func (r *Router) executeConfirmed(ctx context.Context, sess Session, action *confirm.Action) *Result {
	switch action.Kind {
	case confirm.KindBudgetReplace:
		br := action.BudgetReplace
		created, err := sess.Budgets().Create(ctx, br.Year, br.Month, br.Category, br.Amount, ledger.Kind(br.Kind))
		if err != nil {
			return errorResult("❌ Failed to update budget.")
		}
		return textResult(fmt.Sprintf("✅ Budget updated: %s for %s this month (%s).",
			money(created.Amount), budgetScope(created.Category), ledger.MonthName(br.Year, br.Month)))

	case confirm.KindClearMonth:
		cm := action.ClearMonth
		count, err := sess.Ledger().ClearMonth(ctx, cm.Year, cm.Month)
		if err != nil {
			return errorResult(fmt.Sprintf("❌ Error: %v", err))
		}
		return textResult(fmt.Sprintf("🗑️ Cleared %d transaction(s) from %s.\n💰 Balance: %s",
			count, cm.MonthName, money(sess.Ledger().Balance())))

	case confirm.KindClearHistory:
		count, err := sess.Ledger().ClearHistory(ctx)
		if err != nil {
			return errorResult(fmt.Sprintf("❌ Error: %v", err))
		}
		return textResult(fmt.Sprintf("✅ Cleared %d transactions from database and memory.\n💰 Balance reset to %s",
			count, money(sess.Ledger().Balance())))

	case confirm.KindClearAllData:
		counts, err := sess.Ledger().ClearAllData(ctx)
		if err != nil {
			return errorResult(fmt.Sprintf("❌ Error: %v", err))
		}
		return textResult(fmt.Sprintf("🧹 All data deleted: %d transaction(s), %d budget(s), %d account(s).\nYou have a fresh start.",
			counts.Transactions, counts.Budgets, counts.Accounts))

	default:
		return errorResult("❌ Unknown pending action.")
	}
}

func (r *Router) handleTransaction(ctx context.Context, sess Session, txn *nlu.TransactionIntent) *Result {
	var (
		added *ledger.Transaction
		err   error
	)
	if txn.Kind == ledger.KindIncome {
		added, err = sess.Ledger().AddIncome(ctx, txn.Amount, txn.Description, txn.Category, txn.Account)
	} else {
		added, err = sess.Ledger().AddExpense(ctx, txn.Amount, txn.Description, txn.Category, txn.Account)
	}
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidAmount) {
			return errorResult("❌ Invalid amount. Please provide a valid number.")
		}
		return errorResult(fmt.Sprintf("❌ Error: %v", err))
	}
	return textResult(formatTransactionAdded(added, sess.Ledger().Balance()))
}

// monthByIndex maps a 1-based position in the "show months" listing to the
// month itself.
func monthByIndex(l Ledger, index int) (ledger.Month, bool) {
	months := l.AllMonths()
	if index < 1 || index > len(months) {
		return ledger.Month{}, false
	}
	return months[index-1], true
}
