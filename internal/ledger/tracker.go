package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ihab-ag/baro-ai/internal/logger"
	"github.com/ihab-ag/baro-ai/internal/storage"
)

// loadLimit bounds how many rows a projection load pulls from the store.
const loadLimit = 1000

// Tracker owns one user's ledger projection: the transaction list, the
// aggregate balance derived from it, and the session's current account.
//
// The invariant balance == sum(income) - sum(expense) over the held
// transactions holds after every mutation. Mutations are serialized by a
// per-user mutex. A store failure never corrupts the in-memory projection;
// the tracker degrades to memory-only operation with locally assigned IDs.
type Tracker struct {
	userID string
	store  storage.Store
	log    zerolog.Logger

	mu             sync.Mutex
	loaded         bool
	loading        chan struct{}
	balance        decimal.Decimal
	transactions   []*Transaction // insertion order, oldest first after load
	currentAccount string
}

// NewTracker creates an empty projection for a user. Nothing is read from
// the store until EnsureLoaded.
func NewTracker(userID string, store storage.Store, log zerolog.Logger) *Tracker {
	return &Tracker{
		userID:         userID,
		store:          store,
		log:            logger.WithUser(log, userID),
		balance:        decimal.Zero,
		currentAccount: DefaultAccount,
	}
}

// UserID returns the user this projection belongs to.
func (t *Tracker) UserID() string { return t.userID }

// EnsureLoaded guarantees the projection reflects the backing store at least
// once. Concurrent calls collapse into a single underlying load: the first
// caller loads, late callers wait on it. A store failure is logged and the
// tracker proceeds empty (memory-only mode); only context cancellation is
// returned as an error.
func (t *Tracker) EnsureLoaded(ctx context.Context) error {
	t.mu.Lock()
	if t.loaded {
		t.mu.Unlock()
		return nil
	}
	if t.loading != nil {
		done := t.loading
		t.mu.Unlock()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	done := make(chan struct{})
	t.loading = done
	t.mu.Unlock()

	rows, err := t.store.ListTransactions(ctx, t.userID, loadLimit)

	t.mu.Lock()
	defer t.mu.Unlock()
	defer close(done)
	t.loading = nil
	t.loaded = true

	if err != nil {
		t.log.Warn().Err(err).Msg("loading transactions failed, continuing memory-only")
		return nil
	}

	// The store returns newest-first; the projection keeps insertion order
	// oldest-first.
	t.transactions = t.transactions[:0]
	t.balance = decimal.Zero
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		txn := &Transaction{
			ID:          row.ID,
			Kind:        Kind(row.Kind),
			Amount:      row.Amount,
			Description: row.Description,
			Category:    row.Category,
			Account:     row.Account,
			Timestamp:   row.Timestamp,
		}
		t.transactions = append(t.transactions, txn)
		t.balance = t.balance.Add(txn.Signed())
	}

	t.log.Debug().Int("count", len(t.transactions)).Str("balance", t.balance.String()).Msg("projection loaded")
	return nil
}

// AddIncome records an income transaction and returns it with its assigned ID.
func (t *Tracker) AddIncome(ctx context.Context, amount decimal.Decimal, description, category, account string) (*Transaction, error) {
	return t.add(ctx, KindIncome, amount, description, category, account)
}

// AddExpense records an expense transaction and returns it with its assigned ID.
func (t *Tracker) AddExpense(ctx context.Context, amount decimal.Decimal, description, category, account string) (*Transaction, error) {
	return t.add(ctx, KindExpense, amount, description, category, account)
}

func (t *Tracker) add(ctx context.Context, kind Kind, amount decimal.Decimal, description, category, account string) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if err := t.EnsureLoaded(ctx); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if account == "" {
		account = t.currentAccount
	}
	txn := &Transaction{
		Kind:        kind,
		Amount:      amount,
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
		Account:     NormalizeAccount(account),
		Timestamp:   time.Now().UTC(),
	}

	// Persist first: the balance effect is applied exactly once regardless
	// of whether the store accepted the row.
	id, err := t.store.InsertTransaction(ctx, &storage.TransactionRow{
		UserID:      t.userID,
		Amount:      txn.Amount,
		Description: txn.Description,
		Kind:        string(txn.Kind),
		Category:    txn.Category,
		Account:     txn.Account,
		Timestamp:   txn.Timestamp,
	})
	if err != nil {
		// Degraded mode: keep the transaction in memory under a locally
		// unique ID so the user is not blocked by a store outage.
		id = time.Now().UnixMilli()
		t.log.Warn().Err(err).Int64("fallback_id", id).Msg("persisting transaction failed, assigned local ID")
	}
	txn.ID = id

	t.transactions = append(t.transactions, txn)
	t.balance = t.balance.Add(txn.Signed())
	return txn, nil
}

// DeleteTransaction removes one transaction by ID and reverses its balance
// effect. Deleting an unknown ID is a no-op reported through the boolean.
func (t *Tracker) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	if err := t.EnsureLoaded(ctx); err != nil {
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for i, txn := range t.transactions {
		if txn.ID != id {
			continue
		}
		t.balance = t.balance.Sub(txn.Signed())
		t.transactions = append(t.transactions[:i], t.transactions[i+1:]...)
		if err := t.store.DeleteTransaction(ctx, t.userID, id); err != nil {
			t.log.Warn().Err(err).Int64("id", id).Msg("deleting transaction from store failed")
		}
		return true, nil
	}
	return false, nil
}

// ClearHistory deletes all of the user's transactions and resets the balance.
// It returns how many transactions were removed.
func (t *Tracker) ClearHistory(ctx context.Context) (int, error) {
	if err := t.EnsureLoaded(ctx); err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	count := len(t.transactions)
	if _, err := t.store.DeleteAllTransactions(ctx, t.userID); err != nil {
		t.log.Warn().Err(err).Msg("clearing transactions from store failed")
	}
	t.transactions = nil
	t.balance = decimal.Zero
	return count, nil
}

// ClearMonth deletes only the transactions whose timestamp falls in
// [firstOfMonth, firstOfNextMonth) UTC and adjusts the balance by exactly
// the removed subset's net effect. month is 0-indexed.
func (t *Tracker) ClearMonth(ctx context.Context, year, month int) (int, error) {
	if err := t.EnsureLoaded(ctx); err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	from, to := MonthBounds(year, month)
	var kept []*Transaction
	removed := 0
	for _, txn := range t.transactions {
		if !txn.Timestamp.Before(from) && txn.Timestamp.Before(to) {
			t.balance = t.balance.Sub(txn.Signed())
			removed++
			continue
		}
		kept = append(kept, txn)
	}
	t.transactions = kept

	if removed > 0 {
		if _, err := t.store.DeleteTransactionsInRange(ctx, t.userID, from, to); err != nil {
			t.log.Warn().Err(err).Int("year", year).Int("month", month).Msg("clearing month from store failed")
		}
	}
	return removed, nil
}

// ClearAllData wipes the user's transactions, budgets and accounts, resets
// the projection, and reports what was deleted.
func (t *Tracker) ClearAllData(ctx context.Context) (storage.DataCounts, error) {
	if err := t.EnsureLoaded(ctx); err != nil {
		return storage.DataCounts{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var counts storage.DataCounts
	counts.Transactions = int64(len(t.transactions))

	if n, err := t.store.DeleteAllTransactions(ctx, t.userID); err != nil {
		t.log.Warn().Err(err).Msg("wiping transactions failed")
	} else {
		counts.Transactions = n
	}
	if n, err := t.store.DeleteAllBudgets(ctx, t.userID); err != nil {
		t.log.Warn().Err(err).Msg("wiping budgets failed")
	} else {
		counts.Budgets = n
	}
	if n, err := t.store.DeleteAllAccounts(ctx, t.userID); err != nil {
		t.log.Warn().Err(err).Msg("wiping accounts failed")
	} else {
		counts.Accounts = n
	}

	t.transactions = nil
	t.balance = decimal.Zero
	t.currentAccount = DefaultAccount
	return counts, nil
}

// DataCounts reports how many rows of each entity the user currently has,
// falling back to the in-memory transaction count when the store is
// unreachable.
func (t *Tracker) DataCounts(ctx context.Context) storage.DataCounts {
	counts, err := t.store.CountUserData(ctx, t.userID)
	if err != nil {
		t.log.Warn().Err(err).Msg("counting user data failed, using projection")
		t.mu.Lock()
		counts = storage.DataCounts{Transactions: int64(len(t.transactions))}
		t.mu.Unlock()
	}
	return counts
}

// Balance returns the aggregate balance across all accounts.
func (t *Tracker) Balance() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balance
}

// RecentTransactions returns up to limit transactions ordered newest-first;
// equal timestamps keep insertion order.
func (t *Tracker) RecentTransactions(limit int) []*Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := make([]*Transaction, len(t.transactions))
	copy(result, t.transactions)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result
}

// TransactionsByMonth returns the transactions falling in the given
// 0-indexed month, in insertion order.
func (t *Tracker) TransactionsByMonth(year, month int) []*Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()

	from, to := MonthBounds(year, month)
	var result []*Transaction
	for _, txn := range t.transactions {
		if !txn.Timestamp.Before(from) && txn.Timestamp.Before(to) {
			result = append(result, txn)
		}
	}
	return result
}

// AllCategories returns the distinct non-empty categories in first-use order.
func (t *Tracker) AllCategories() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[string]bool)
	var result []string
	for _, txn := range t.transactions {
		if txn.Category == "" || seen[txn.Category] {
			continue
		}
		seen[txn.Category] = true
		result = append(result, txn.Category)
	}
	return result
}

// AllMonths returns the distinct year-month pairs with transactions, most
// recent first.
func (t *Tracker) AllMonths() []Month {
	t.mu.Lock()
	defer t.mu.Unlock()

	type key struct{ year, month int }
	seen := make(map[key]bool)
	var result []Month
	for _, txn := range t.transactions {
		ts := txn.Timestamp
		k := key{ts.Year(), int(ts.Month()) - 1}
		if seen[k] {
			continue
		}
		seen[k] = true
		result = append(result, Month{Year: k.year, Month: k.month, Name: MonthName(k.year, k.month)})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year > result[j].Year
		}
		return result[i].Month > result[j].Month
	})
	return result
}

// CategoryStatsForMonth aggregates income/expense/net per category for one
// 0-indexed month, sorted by |net| descending. Transactions without a
// category are grouped under "uncategorized".
func (t *Tracker) CategoryStatsForMonth(year, month int) []CategoryStats {
	byCategory := make(map[string]*CategoryStats)
	var order []string
	for _, txn := range t.TransactionsByMonth(year, month) {
		cat := txn.Category
		if cat == "" {
			cat = "uncategorized"
		}
		stats, ok := byCategory[cat]
		if !ok {
			stats = &CategoryStats{Category: cat, Income: decimal.Zero, Expense: decimal.Zero, Net: decimal.Zero}
			byCategory[cat] = stats
			order = append(order, cat)
		}
		if txn.Kind == KindIncome {
			stats.Income = stats.Income.Add(txn.Amount)
		} else {
			stats.Expense = stats.Expense.Add(txn.Amount)
		}
		stats.Net = stats.Income.Sub(stats.Expense)
	}

	result := make([]CategoryStats, 0, len(order))
	for _, cat := range order {
		result = append(result, *byCategory[cat])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Net.Abs().GreaterThan(result[j].Net.Abs())
	})
	return result
}

// CurrentAccount returns the session's current account name.
func (t *Tracker) CurrentAccount() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentAccount
}

// SetCurrentAccount switches the session's current account, recording the
// name in the store. The selection itself lives only in process memory.
func (t *Tracker) SetCurrentAccount(ctx context.Context, name string) error {
	name = NormalizeAccount(name)
	t.EnsureAccountExists(ctx, name)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentAccount = name
	return nil
}

// EnsureAccountExists records an account name idempotently. Store errors
// are logged, never fatal.
func (t *Tracker) EnsureAccountExists(ctx context.Context, name string) {
	name = NormalizeAccount(name)
	if err := t.store.UpsertAccount(ctx, t.userID, name); err != nil {
		t.log.Warn().Err(err).Str("account", name).Msg("recording account failed")
	}
}

// Accounts lists the user's account names: always "cash" first, then the
// rest sorted. When the store is unreachable the list is derived from the
// transaction history instead.
func (t *Tracker) Accounts(ctx context.Context) ([]string, error) {
	names, err := t.store.ListAccounts(ctx, t.userID)
	if err != nil {
		t.log.Warn().Err(err).Msg("listing accounts failed, deriving from history")
		names = nil
		t.mu.Lock()
		for _, txn := range t.transactions {
			names = append(names, txn.Account)
		}
		t.mu.Unlock()
	}
	names = append(names, t.CurrentAccount())

	seen := map[string]bool{DefaultAccount: true}
	var extra []string
	for _, name := range names {
		name = NormalizeAccount(name)
		if seen[name] {
			continue
		}
		seen[name] = true
		extra = append(extra, name)
	}
	sort.Strings(extra)
	return append([]string{DefaultAccount}, extra...), nil
}
