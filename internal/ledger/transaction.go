// Package ledger holds the per-user in-memory projection of transactions and
// derived balance, the views computed from it, and CSV export.
package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a transaction's direction.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// ParseKind validates a kind name coming from untrusted input.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindIncome:
		return KindIncome, nil
	case KindExpense:
		return KindExpense, nil
	default:
		return "", ErrUnknownKind
	}
}

// DefaultAccount is the account every user implicitly has.
const DefaultAccount = "cash"

// NormalizeAccount trims and lower-cases an account name; empty input maps
// to the default account.
func NormalizeAccount(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultAccount
	}
	return name
}

// Transaction is one immutable ledger record. Amount is always positive;
// Kind decides the sign of its balance effect.
type Transaction struct {
	ID          int64
	Kind        Kind
	Amount      decimal.Decimal
	Description string
	Category    string
	Account     string
	Timestamp   time.Time // UTC
}

// Signed returns the transaction's balance effect: positive for income,
// negative for expense.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Kind == KindExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Month identifies one calendar month with transactions. Month is 0-indexed
// (January = 0), the convention the stored budgets and the chat frontend use.
type Month struct {
	Year  int
	Month int
	Name  string
}

// MonthName renders a 0-indexed year/month as e.g. "January 2024".
func MonthName(year, month int) string {
	return time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// MonthBounds returns the UTC instants [firstOfMonth, firstOfNextMonth) for
// a 0-indexed month. The same bounds are used for the in-memory filter and
// the range filter sent to the backing store.
func MonthBounds(year, month int) (from, to time.Time) {
	from = time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// CategoryStats aggregates one category's activity within a month.
type CategoryStats struct {
	Category string
	Income   decimal.Decimal
	Expense  decimal.Decimal
	Net      decimal.Decimal
}
