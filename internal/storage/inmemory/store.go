// Package inmemory provides an in-memory implementation of storage.Store.
// It backs tests, the local REPL, and degraded operation when no database
// is configured. Data is lost on process restart.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ihab-ag/baro-ai/internal/storage"
)

// Store is an in-memory implementation of storage.Store.
// It is safe for concurrent use.
type Store struct {
	mu           sync.RWMutex
	nextID       int64
	transactions map[string][]*storage.TransactionRow
	budgets      map[string][]*storage.BudgetRow
	accounts     map[string][]*storage.AccountRow
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		nextID:       1,
		transactions: make(map[string][]*storage.TransactionRow),
		budgets:      make(map[string][]*storage.BudgetRow),
		accounts:     make(map[string][]*storage.AccountRow),
	}
}

func (s *Store) allocID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// InsertTransaction implements storage.Store.
func (s *Store) InsertTransaction(ctx context.Context, row *storage.TransactionRow) (int64, error) {
	if row.UserID == "" {
		return 0, fmt.Errorf("InsertTransaction: user ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rowCopy := *row
	rowCopy.ID = s.allocID()
	s.transactions[row.UserID] = append(s.transactions[row.UserID], &rowCopy)

	return rowCopy.ID, nil
}

// ListTransactions implements storage.Store.
// Rows come back ordered by timestamp descending, ties by insertion order.
func (s *Store) ListTransactions(ctx context.Context, userID string, limit int) ([]*storage.TransactionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.transactions[userID]
	result := make([]*storage.TransactionRow, 0, len(rows))
	for _, row := range rows {
		rowCopy := *row
		result = append(result, &rowCopy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// DeleteTransaction implements storage.Store.
func (s *Store) DeleteTransaction(ctx context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.transactions[userID]
	for i, row := range rows {
		if row.ID == id {
			s.transactions[userID] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// DeleteAllTransactions implements storage.Store.
func (s *Store) DeleteAllTransactions(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := int64(len(s.transactions[userID]))
	delete(s.transactions, userID)
	return count, nil
}

// DeleteTransactionsInRange implements storage.Store.
func (s *Store) DeleteTransactionsInRange(ctx context.Context, userID string, from, to time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*storage.TransactionRow
	var removed int64
	for _, row := range s.transactions[userID] {
		if !row.Timestamp.Before(from) && row.Timestamp.Before(to) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	s.transactions[userID] = kept
	return removed, nil
}

// InsertBudget implements storage.Store.
func (s *Store) InsertBudget(ctx context.Context, row *storage.BudgetRow) (int64, error) {
	if row.UserID == "" {
		return 0, fmt.Errorf("InsertBudget: user ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rowCopy := *row
	if row.Category != nil {
		cat := *row.Category
		rowCopy.Category = &cat
	}
	rowCopy.ID = s.allocID()
	s.budgets[row.UserID] = append(s.budgets[row.UserID], &rowCopy)

	return rowCopy.ID, nil
}

// ListBudgets implements storage.Store.
func (s *Store) ListBudgets(ctx context.Context, userID string, year, month int) ([]*storage.BudgetRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*storage.BudgetRow
	for _, row := range s.budgets[userID] {
		if row.Year != year || row.Month != month {
			continue
		}
		rowCopy := *row
		if row.Category != nil {
			cat := *row.Category
			rowCopy.Category = &cat
		}
		result = append(result, &rowCopy)
	}
	return result, nil
}

// DeleteBudget implements storage.Store.
func (s *Store) DeleteBudget(ctx context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.budgets[userID]
	for i, row := range rows {
		if row.ID == id {
			s.budgets[userID] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// DeleteBudgetsByKey implements storage.Store.
func (s *Store) DeleteBudgetsByKey(ctx context.Context, userID string, year, month int, category *string, kind string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*storage.BudgetRow
	var removed int64
	for _, row := range s.budgets[userID] {
		if row.Year == year && row.Month == month && row.Kind == kind && sameCategory(row.Category, category) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	s.budgets[userID] = kept
	return removed, nil
}

// DeleteAllBudgets implements storage.Store.
func (s *Store) DeleteAllBudgets(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := int64(len(s.budgets[userID]))
	delete(s.budgets, userID)
	return count, nil
}

// UpsertAccount implements storage.Store.
func (s *Store) UpsertAccount(ctx context.Context, userID, name string) error {
	if userID == "" {
		return fmt.Errorf("UpsertAccount: user ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.accounts[userID] {
		if strings.EqualFold(row.Name, name) {
			return nil
		}
	}
	s.accounts[userID] = append(s.accounts[userID], &storage.AccountRow{
		ID:     s.allocID(),
		UserID: userID,
		Name:   name,
	})
	return nil
}

// ListAccounts implements storage.Store.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	for _, row := range s.accounts[userID] {
		names = append(names, row.Name)
	}
	return names, nil
}

// DeleteAllAccounts implements storage.Store.
func (s *Store) DeleteAllAccounts(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := int64(len(s.accounts[userID]))
	delete(s.accounts, userID)
	return count, nil
}

// CountUserData implements storage.Store.
func (s *Store) CountUserData(ctx context.Context, userID string) (storage.DataCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return storage.DataCounts{
		Transactions: int64(len(s.transactions[userID])),
		Budgets:      int64(len(s.budgets[userID])),
		Accounts:     int64(len(s.accounts[userID])),
	}, nil
}

// Close implements storage.Store. It is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func sameCategory(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return strings.EqualFold(*a, *b)
}
