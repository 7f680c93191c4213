// Package sqlite implements the ledger's backing store on SQLite.
// The driver is modernc.org/sqlite (pure Go, no CGO), so a single static
// binary carries its own persistence.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/ihab-ag/baro-ai/internal/storage"
)

// Store is a storage.Store backed by a SQLite database file.
type Store struct {
	db *sql.DB
}

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     TEXT NOT NULL,
			amount      TEXT NOT NULL,
			description TEXT NOT NULL,
			kind        TEXT NOT NULL,
			category    TEXT NOT NULL DEFAULT '',
			account     TEXT NOT NULL DEFAULT 'cash',
			timestamp   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS budgets (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id  TEXT NOT NULL,
			year     INTEGER NOT NULL,
			month    INTEGER NOT NULL,
			category TEXT,
			amount   TEXT NOT NULL,
			kind     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_budgets_user ON budgets(user_id, year, month)`,

		`CREATE TABLE IF NOT EXISTS accounts (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			name    TEXT NOT NULL,
			UNIQUE(user_id, name)
		)`,
	}
}

// Open opens (creating if needed) the SQLite database at path and applies
// the schema migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("Open: opening database: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent users.
	db.SetMaxOpenConns(1)

	for _, stmt := range Migrations() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("Open: applying migration: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// timeLayout is fixed-width so the TEXT comparisons in range deletes order
// chronologically. RFC3339Nano trims trailing zeros and would not.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// InsertTransaction implements storage.Store.
func (s *Store) InsertTransaction(ctx context.Context, row *storage.TransactionRow) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, amount, description, kind, category, account, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, row.UserID, row.Amount.String(), row.Description, row.Kind, row.Category, row.Account, row.Timestamp.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("InsertTransaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("InsertTransaction: last insert id: %w", err)
	}
	return id, nil
}

// ListTransactions implements storage.Store.
func (s *Store) ListTransactions(ctx context.Context, userID string, limit int) ([]*storage.TransactionRow, error) {
	query := `
		SELECT id, user_id, amount, description, kind, category, account, timestamp
		FROM transactions WHERE user_id = ?
		ORDER BY timestamp DESC, id DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	defer rows.Close()

	var result []*storage.TransactionRow
	for rows.Next() {
		row, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func scanTransaction(rows *sql.Rows) (*storage.TransactionRow, error) {
	var row storage.TransactionRow
	var amount, ts string
	if err := rows.Scan(&row.ID, &row.UserID, &amount, &row.Description, &row.Kind, &row.Category, &row.Account, &ts); err != nil {
		return nil, err
	}
	var err error
	if row.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	if row.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
		return nil, fmt.Errorf("parsing timestamp %q: %w", ts, err)
	}
	return &row, nil
}

// DeleteTransaction implements storage.Store.
func (s *Store) DeleteTransaction(ctx context.Context, userID string, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	return nil
}

// DeleteAllTransactions implements storage.Store.
func (s *Store) DeleteAllTransactions(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("DeleteAllTransactions: %w", err)
	}
	return res.RowsAffected()
}

// DeleteTransactionsInRange implements storage.Store.
// The range is [from, to) against the same UTC instants the in-memory
// projection filters by.
func (s *Store) DeleteTransactionsInRange(ctx context.Context, userID string, from, to time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM transactions WHERE user_id = ? AND timestamp >= ? AND timestamp < ?
	`, userID, from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("DeleteTransactionsInRange: %w", err)
	}
	return res.RowsAffected()
}

// InsertBudget implements storage.Store.
func (s *Store) InsertBudget(ctx context.Context, row *storage.BudgetRow) (int64, error) {
	var category any
	if row.Category != nil {
		category = *row.Category
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, year, month, category, amount, kind)
		VALUES (?, ?, ?, ?, ?, ?)
	`, row.UserID, row.Year, row.Month, category, row.Amount.String(), row.Kind)
	if err != nil {
		return 0, fmt.Errorf("InsertBudget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("InsertBudget: last insert id: %w", err)
	}
	return id, nil
}

// ListBudgets implements storage.Store.
func (s *Store) ListBudgets(ctx context.Context, userID string, year, month int) ([]*storage.BudgetRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, year, month, category, amount, kind
		FROM budgets WHERE user_id = ? AND year = ? AND month = ?
		ORDER BY id
	`, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("ListBudgets: %w", err)
	}
	defer rows.Close()

	var result []*storage.BudgetRow
	for rows.Next() {
		var row storage.BudgetRow
		var category sql.NullString
		var amount string
		if err := rows.Scan(&row.ID, &row.UserID, &row.Year, &row.Month, &category, &amount, &row.Kind); err != nil {
			return nil, fmt.Errorf("ListBudgets: %w", err)
		}
		if category.Valid {
			cat := category.String
			row.Category = &cat
		}
		if row.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("ListBudgets: parsing amount %q: %w", amount, err)
		}
		result = append(result, &row)
	}
	return result, rows.Err()
}

// DeleteBudget implements storage.Store.
func (s *Store) DeleteBudget(ctx context.Context, userID string, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("DeleteBudget: %w", err)
	}
	return nil
}

// DeleteBudgetsByKey implements storage.Store.
func (s *Store) DeleteBudgetsByKey(ctx context.Context, userID string, year, month int, category *string, kind string) (int64, error) {
	var res sql.Result
	var err error
	if category == nil {
		res, err = s.db.ExecContext(ctx, `
			DELETE FROM budgets WHERE user_id = ? AND year = ? AND month = ? AND category IS NULL AND kind = ?
		`, userID, year, month, kind)
	} else {
		res, err = s.db.ExecContext(ctx, `
			DELETE FROM budgets WHERE user_id = ? AND year = ? AND month = ? AND category = ? AND kind = ?
		`, userID, year, month, *category, kind)
	}
	if err != nil {
		return 0, fmt.Errorf("DeleteBudgetsByKey: %w", err)
	}
	return res.RowsAffected()
}

// DeleteAllBudgets implements storage.Store.
func (s *Store) DeleteAllBudgets(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("DeleteAllBudgets: %w", err)
	}
	return res.RowsAffected()
}

// UpsertAccount implements storage.Store.
func (s *Store) UpsertAccount(ctx context.Context, userID, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (user_id, name) VALUES (?, ?)
		ON CONFLICT(user_id, name) DO NOTHING
	`, userID, name)
	if err != nil {
		return fmt.Errorf("UpsertAccount: %w", err)
	}
	return nil
}

// ListAccounts implements storage.Store.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM accounts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("ListAccounts: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteAllAccounts implements storage.Store.
func (s *Store) DeleteAllAccounts(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("DeleteAllAccounts: %w", err)
	}
	return res.RowsAffected()
}

// CountUserData implements storage.Store.
func (s *Store) CountUserData(ctx context.Context, userID string) (storage.DataCounts, error) {
	var counts storage.DataCounts
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE user_id = ?`, userID).Scan(&counts.Transactions); err != nil {
		return counts, fmt.Errorf("CountUserData: transactions: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM budgets WHERE user_id = ?`, userID).Scan(&counts.Budgets); err != nil {
		return counts, fmt.Errorf("CountUserData: budgets: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE user_id = ?`, userID).Scan(&counts.Accounts); err != nil {
		return counts, fmt.Errorf("CountUserData: accounts: %w", err)
	}
	return counts, nil
}
