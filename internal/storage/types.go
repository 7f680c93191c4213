// Package storage defines the row-store contract the ledger persists through.
// Implementations only need per-row insert/select/delete with equality and
// range filters; no transactions or joins are relied upon.
package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRow is one persisted transaction, scoped by user.
type TransactionRow struct {
	ID          int64
	UserID      string
	Amount      decimal.Decimal
	Description string
	Kind        string // "income" or "expense"
	Category    string
	Account     string
	Timestamp   time.Time // UTC
}

// BudgetRow is one persisted budget constraint.
// Month is 0-indexed (January = 0), matching the wire format the chat
// frontend has always used.
type BudgetRow struct {
	ID       int64
	UserID   string
	Year     int
	Month    int
	Category *string // nil for the overall budget
	Amount   decimal.Decimal
	Kind     string // "income" or "expense"
}

// AccountRow is one named account for a user.
type AccountRow struct {
	ID     int64
	UserID string
	Name   string
}

// DataCounts reports per-entity row counts for a user.
type DataCounts struct {
	Transactions int64
	Budgets      int64
	Accounts     int64
}
