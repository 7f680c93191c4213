package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ihab-ag/baro-ai/internal/logger"
	"github.com/ihab-ag/baro-ai/internal/storage"
	"github.com/ihab-ag/baro-ai/internal/storage/inmemory"
)

func newTestTracker(t *testing.T) (*Tracker, *inmemory.Store) {
	t.Helper()
	store := inmemory.NewStore()
	return NewTracker("u1", store, logger.NewWithLevel("error")), store
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// checkInvariant verifies balance == sum(income) - sum(expense) over the
// projection's current transactions.
func checkInvariant(t *testing.T, tr *Tracker) {
	t.Helper()
	want := decimal.Zero
	for _, txn := range tr.RecentTransactions(0) {
		want = want.Add(txn.Signed())
	}
	if !tr.Balance().Equal(want) {
		t.Fatalf("balance invariant broken: balance = %s, recomputed = %s", tr.Balance(), want)
	}
}

func TestAddIncomeExpenseBalance(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	if _, err := tr.AddIncome(ctx, dec("500"), "salary", "", ""); err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	checkInvariant(t, tr)

	if _, err := tr.AddExpense(ctx, dec("45"), "groceries", "groceries", ""); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	checkInvariant(t, tr)

	if got := tr.Balance().StringFixed(2); got != "455.00" {
		t.Errorf("Balance = %s, want 455.00", got)
	}
}

func TestAddRejectsNonPositiveAmount(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	for _, amount := range []string{"0", "-10"} {
		if _, err := tr.AddExpense(ctx, dec(amount), "bad", "", ""); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("AddExpense(%s) error = %v, want ErrInvalidAmount", amount, err)
		}
	}
	if got := len(tr.RecentTransactions(0)); got != 0 {
		t.Errorf("rejected amounts must not be recorded, got %d transactions", got)
	}
}

func TestDeleteTransaction(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	txn, err := tr.AddIncome(ctx, dec("100"), "to delete", "", "")
	if err != nil {
		t.Fatalf("AddIncome: %v", err)
	}

	found, err := tr.DeleteTransaction(ctx, txn.ID)
	if err != nil || !found {
		t.Fatalf("DeleteTransaction = (%v, %v), want (true, nil)", found, err)
	}
	checkInvariant(t, tr)
	if !tr.Balance().IsZero() {
		t.Errorf("Balance = %s, want 0", tr.Balance())
	}

	// Unknown ID is a no-op, not an error.
	found, err = tr.DeleteTransaction(ctx, 99999)
	if err != nil || found {
		t.Errorf("DeleteTransaction(unknown) = (%v, %v), want (false, nil)", found, err)
	}
}

func TestClearHistory(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	tr.AddIncome(ctx, dec("100"), "a", "", "")
	tr.AddExpense(ctx, dec("30"), "b", "", "")

	count, err := tr.ClearHistory(ctx)
	if err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if !tr.Balance().IsZero() || len(tr.RecentTransactions(0)) != 0 {
		t.Error("projection must be empty after ClearHistory")
	}
}

func TestClearMonthBoundaries(t *testing.T) {
	store := inmemory.NewStore()
	ctx := context.Background()

	// Seed the store directly so timestamps land in specific months.
	seed := func(amount string, kind string, ts time.Time) {
		store.InsertTransaction(ctx, &storage.TransactionRow{
			UserID: "u1", Amount: dec(amount), Kind: kind, Account: "cash", Timestamp: ts,
		})
	}
	seed("100", "income", time.Date(2024, time.January, 5, 10, 0, 0, 0, time.UTC))
	seed("40", "expense", time.Date(2024, time.January, 31, 23, 59, 59, 0, time.UTC))
	seed("25", "expense", time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC))

	tr := NewTracker("u1", store, logger.NewWithLevel("error"))
	if err := tr.EnsureLoaded(ctx); err != nil {
		t.Fatalf("EnsureLoaded: %v", err)
	}
	before := tr.Balance() // 100 - 40 - 25 = 35

	count, err := tr.ClearMonth(ctx, 2024, 0) // January (0-indexed)
	if err != nil {
		t.Fatalf("ClearMonth: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	checkInvariant(t, tr)

	// Balance reduced by exactly the January net (100 - 40 = 60).
	if want := before.Sub(dec("60")); !tr.Balance().Equal(want) {
		t.Errorf("Balance = %s, want %s", tr.Balance(), want)
	}

	// The February transaction survives, in memory and in the store.
	if got := len(tr.RecentTransactions(0)); got != 1 {
		t.Fatalf("remaining transactions = %d, want 1", got)
	}
	rows, _ := store.ListTransactions(ctx, "u1", 0)
	if len(rows) != 1 {
		t.Errorf("store rows = %d, want 1", len(rows))
	}
}

func TestClearAllData(t *testing.T) {
	tr, store := newTestTracker(t)
	ctx := context.Background()
	groceries := "groceries"

	tr.AddIncome(ctx, dec("100"), "a", "", "")
	store.InsertBudget(ctx, &storage.BudgetRow{UserID: "u1", Year: 2024, Month: 0, Category: &groceries, Amount: dec("500"), Kind: "expense"})
	tr.EnsureAccountExists(ctx, "bank")
	tr.SetCurrentAccount(ctx, "bank")

	counts, err := tr.ClearAllData(ctx)
	if err != nil {
		t.Fatalf("ClearAllData: %v", err)
	}
	if counts.Transactions != 1 || counts.Budgets != 1 || counts.Accounts != 1 {
		t.Errorf("counts = %+v, want 1/1/1", counts)
	}
	if !tr.Balance().IsZero() {
		t.Errorf("Balance = %s, want 0", tr.Balance())
	}
	if tr.CurrentAccount() != DefaultAccount {
		t.Errorf("CurrentAccount = %q, want %q", tr.CurrentAccount(), DefaultAccount)
	}
}

// countingStore wraps an inmemory store and counts load calls so tests can
// observe EnsureLoaded's de-duplication.
type countingStore struct {
	*inmemory.Store
	loads atomic.Int64
	gate  chan struct{}
}

func (c *countingStore) ListTransactions(ctx context.Context, userID string, limit int) ([]*storage.TransactionRow, error) {
	c.loads.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	return c.Store.ListTransactions(ctx, userID, limit)
}

func TestEnsureLoadedCollapsesConcurrentLoads(t *testing.T) {
	cs := &countingStore{Store: inmemory.NewStore(), gate: make(chan struct{})}
	tr := NewTracker("u1", cs, logger.NewWithLevel("error"))
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.EnsureLoaded(ctx)
		}()
	}

	// Let all callers pile up behind the in-flight load, then release it.
	time.Sleep(20 * time.Millisecond)
	close(cs.gate)
	wg.Wait()

	if got := cs.loads.Load(); got != 1 {
		t.Errorf("underlying loads = %d, want 1", got)
	}

	// Subsequent calls are free.
	tr.EnsureLoaded(ctx)
	if got := cs.loads.Load(); got != 1 {
		t.Errorf("underlying loads after reload = %d, want 1", got)
	}
}

// failingStore rejects all writes to exercise degraded (memory-only) mode.
type failingStore struct {
	*inmemory.Store
}

var errStoreDown = errors.New("store unreachable")

func (f *failingStore) InsertTransaction(ctx context.Context, row *storage.TransactionRow) (int64, error) {
	return 0, errStoreDown
}

func (f *failingStore) ListAccounts(ctx context.Context, userID string) ([]string, error) {
	return nil, errStoreDown
}

func TestDegradedModeAssignsLocalID(t *testing.T) {
	tr := NewTracker("u1", &failingStore{Store: inmemory.NewStore()}, logger.NewWithLevel("error"))
	ctx := context.Background()

	txn, err := tr.AddIncome(ctx, dec("50"), "offline income", "", "")
	if err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	if txn.ID == 0 {
		t.Error("expected a locally assigned fallback ID")
	}
	if got := tr.Balance().StringFixed(2); got != "50.00" {
		t.Errorf("Balance = %s, want 50.00 (no duplicate balance effect)", got)
	}
	checkInvariant(t, tr)
}

func TestAccountsFallsBackToHistory(t *testing.T) {
	tr := NewTracker("u1", &failingStore{Store: inmemory.NewStore()}, logger.NewWithLevel("error"))
	ctx := context.Background()

	tr.AddExpense(ctx, dec("10"), "coffee", "", "card")

	accounts, err := tr.Accounts(ctx)
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	if accounts[0] != DefaultAccount {
		t.Errorf("accounts[0] = %q, want %q first", accounts[0], DefaultAccount)
	}
	found := false
	for _, name := range accounts {
		if name == "card" {
			found = true
		}
	}
	if !found {
		t.Errorf("accounts = %v, want to include card derived from history", accounts)
	}
}

func TestAccountDefaultsAndNormalization(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	txn, _ := tr.AddExpense(ctx, dec("5"), "snack", "", "")
	if txn.Account != DefaultAccount {
		t.Errorf("Account = %q, want %q", txn.Account, DefaultAccount)
	}

	tr.SetCurrentAccount(ctx, "  Bank ")
	if tr.CurrentAccount() != "bank" {
		t.Errorf("CurrentAccount = %q, want bank", tr.CurrentAccount())
	}

	txn, _ = tr.AddExpense(ctx, dec("5"), "snack", "", "")
	if txn.Account != "bank" {
		t.Errorf("Account = %q, want the session's current account", txn.Account)
	}
}

func TestRecentTransactionsOrderAndTies(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	first, _ := tr.AddIncome(ctx, dec("1"), "first", "", "")
	second, _ := tr.AddIncome(ctx, dec("2"), "second", "", "")

	recent := tr.RecentTransactions(10)
	if len(recent) != 2 {
		t.Fatalf("len = %d, want 2", len(recent))
	}
	// Newest first; with identical timestamps insertion order is kept.
	if recent[0].Timestamp.Equal(recent[1].Timestamp) {
		if recent[0].ID != first.ID {
			t.Errorf("tie must keep insertion order, got %d first", recent[0].ID)
		}
	} else if recent[0].ID != second.ID {
		t.Errorf("expected newest transaction first, got %d", recent[0].ID)
	}
}

func TestAllMonthsSortedMostRecentFirst(t *testing.T) {
	store := inmemory.NewStore()
	ctx := context.Background()
	for _, ts := range []time.Time{
		time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC),
	} {
		store.InsertTransaction(ctx, &storage.TransactionRow{UserID: "u1", Amount: dec("1"), Kind: "expense", Account: "cash", Timestamp: ts})
	}
	tr := NewTracker("u1", store, logger.NewWithLevel("error"))
	tr.EnsureLoaded(ctx)

	months := tr.AllMonths()
	if len(months) != 3 {
		t.Fatalf("len(months) = %d, want 3", len(months))
	}
	if months[0].Name != "February 2024" || months[1].Name != "January 2024" || months[2].Name != "December 2023" {
		t.Errorf("months = %v, want most recent first", months)
	}
}

func TestCategoryStatsSortedByAbsNet(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	now := time.Now().UTC()

	tr.AddExpense(ctx, dec("10"), "coffee", "dining", "")
	tr.AddExpense(ctx, dec("300"), "rent", "housing", "")
	tr.AddIncome(ctx, dec("50"), "refund", "dining", "")

	stats := tr.CategoryStatsForMonth(now.Year(), int(now.Month())-1)
	if len(stats) != 2 {
		t.Fatalf("len(stats) = %d, want 2", len(stats))
	}
	if stats[0].Category != "housing" {
		t.Errorf("stats[0] = %q, want housing (largest |net|)", stats[0].Category)
	}
	if !stats[1].Net.Equal(dec("40")) {
		t.Errorf("dining net = %s, want 40", stats[1].Net)
	}
}
