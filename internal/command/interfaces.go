package command

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ihab-ag/baro-ai/internal/budget"
	"github.com/ihab-ag/baro-ai/internal/ledger"
	"github.com/ihab-ag/baro-ai/internal/storage"
)

// Ledger is what the router needs from a user's transaction tracker.
type Ledger interface {
	EnsureLoaded(ctx context.Context) error
	AddIncome(ctx context.Context, amount decimal.Decimal, description, category, account string) (*ledger.Transaction, error)
	AddExpense(ctx context.Context, amount decimal.Decimal, description, category, account string) (*ledger.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) (bool, error)
	ClearHistory(ctx context.Context) (int, error)
	ClearMonth(ctx context.Context, year, month int) (int, error)
	ClearAllData(ctx context.Context) (storage.DataCounts, error)
	DataCounts(ctx context.Context) storage.DataCounts

	Balance() decimal.Decimal
	RecentTransactions(limit int) []*ledger.Transaction
	TransactionsByMonth(year, month int) []*ledger.Transaction
	AllCategories() []string
	AllMonths() []ledger.Month
	CategoryStatsForMonth(year, month int) []ledger.CategoryStats

	CurrentAccount() string
	SetCurrentAccount(ctx context.Context, name string) error
	EnsureAccountExists(ctx context.Context, name string)
	Accounts(ctx context.Context) ([]string, error)

	ExportCSV() string
	ExportMonthCSV(year, month int) string
}

// Budgets is what the router needs from a user's budget engine.
type Budgets interface {
	Existing(ctx context.Context, year, month int, category *string, kind ledger.Kind) ([]budget.Budget, error)
	Create(ctx context.Context, year, month int, category *string, amount decimal.Decimal, kind ledger.Kind) (budget.Budget, error)
	Budgets(ctx context.Context, year, month int) ([]budget.Budget, error)
	MonthStatus(ctx context.Context, year, month int, monthTxns []*ledger.Transaction) ([]budget.Status, error)
}

// Session groups the per-user state the router operates on.
type Session interface {
	UserID() string
	Ledger() Ledger
	Budgets() Budgets
}

// SessionProvider hands out (creating if needed) the session for a user.
type SessionProvider interface {
	Session(ctx context.Context, userID string) (Session, error)
}
