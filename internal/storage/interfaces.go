package storage

import (
	"context"
	"time"
)

// Store is the durable backing store for transactions, budgets and accounts.
// All operations are scoped by user ID. Implementations must be safe for
// concurrent use; callers never rely on cross-row atomicity.
type Store interface {
	// InsertTransaction persists a transaction and returns its assigned ID.
	InsertTransaction(ctx context.Context, row *TransactionRow) (int64, error)

	// ListTransactions returns up to limit transactions for a user ordered
	// by timestamp descending. limit <= 0 means no limit.
	ListTransactions(ctx context.Context, userID string, limit int) ([]*TransactionRow, error)

	// DeleteTransaction removes one transaction by ID.
	DeleteTransaction(ctx context.Context, userID string, id int64) error

	// DeleteAllTransactions removes every transaction for a user and
	// returns the number of rows removed.
	DeleteAllTransactions(ctx context.Context, userID string) (int64, error)

	// DeleteTransactionsInRange removes transactions with
	// from <= timestamp < to and returns the number removed.
	DeleteTransactionsInRange(ctx context.Context, userID string, from, to time.Time) (int64, error)

	// InsertBudget persists a budget and returns its assigned ID.
	InsertBudget(ctx context.Context, row *BudgetRow) (int64, error)

	// ListBudgets returns all budgets for a user in a given year/month.
	ListBudgets(ctx context.Context, userID string, year, month int) ([]*BudgetRow, error)

	// DeleteBudget removes one budget by ID.
	DeleteBudget(ctx context.Context, userID string, id int64) error

	// DeleteBudgetsByKey removes budgets matching the uniqueness key
	// (year, month, category-or-nil, kind) and returns the number removed.
	DeleteBudgetsByKey(ctx context.Context, userID string, year, month int, category *string, kind string) (int64, error)

	// DeleteAllBudgets removes every budget for a user.
	DeleteAllBudgets(ctx context.Context, userID string) (int64, error)

	// UpsertAccount records an account name for a user; idempotent.
	UpsertAccount(ctx context.Context, userID, name string) error

	// ListAccounts returns the account names recorded for a user.
	ListAccounts(ctx context.Context, userID string) ([]string, error)

	// DeleteAllAccounts removes every account row for a user.
	DeleteAllAccounts(ctx context.Context, userID string) (int64, error)

	// CountUserData reports how many rows of each entity a user has.
	CountUserData(ctx context.Context, userID string) (DataCounts, error)

	// Close releases any underlying resources.
	Close() error
}
