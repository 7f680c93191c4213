package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ihab-ag/baro-ai/internal/storage"
)

func txRow(userID string, amount string, ts time.Time) *storage.TransactionRow {
	return &storage.TransactionRow{
		UserID:      userID,
		Amount:      decimal.RequireFromString(amount),
		Description: "test",
		Kind:        "expense",
		Account:     "cash",
		Timestamp:   ts,
	}
}

func TestInsertAndListTransactions(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)

	id1, err := s.InsertTransaction(ctx, txRow("u1", "10", base))
	if err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}
	id2, err := s.InsertTransaction(ctx, txRow("u1", "20", base.Add(time.Hour)))
	if err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}
	if id1 == id2 {
		t.Errorf("assigned IDs must differ, both %d", id1)
	}

	rows, err := s.ListTransactions(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if !rows[0].Timestamp.After(rows[1].Timestamp) {
		t.Error("rows not ordered by timestamp descending")
	}

	// Other users see nothing.
	rows, _ = s.ListTransactions(ctx, "u2", 0)
	if len(rows) != 0 {
		t.Errorf("expected no rows for u2, got %d", len(rows))
	}
}

func TestListTransactionsLimit(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if _, err := s.InsertTransaction(ctx, txRow("u1", "1", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("InsertTransaction: %v", err)
		}
	}

	rows, err := s.ListTransactions(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("len(rows) = %d, want 3", len(rows))
	}
}

func TestDeleteTransactionsInRange(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	jan := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, time.February, 2, 0, 0, 0, 0, time.UTC)
	boundary := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	s.InsertTransaction(ctx, txRow("u1", "5", jan))
	s.InsertTransaction(ctx, txRow("u1", "6", jan.Add(time.Hour)))
	s.InsertTransaction(ctx, txRow("u1", "7", feb))

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	removed, err := s.DeleteTransactionsInRange(ctx, "u1", from, boundary)
	if err != nil {
		t.Fatalf("DeleteTransactionsInRange: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	rows, _ := s.ListTransactions(ctx, "u1", 0)
	if len(rows) != 1 || !rows[0].Timestamp.Equal(feb) {
		t.Errorf("expected only the February row to survive, got %d rows", len(rows))
	}
}

func TestDeleteBudgetsByKey(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	groceries := "groceries"

	s.InsertBudget(ctx, &storage.BudgetRow{UserID: "u1", Year: 2024, Month: 0, Category: &groceries, Amount: decimal.NewFromInt(500), Kind: "expense"})
	s.InsertBudget(ctx, &storage.BudgetRow{UserID: "u1", Year: 2024, Month: 0, Amount: decimal.NewFromInt(1000), Kind: "expense"})
	s.InsertBudget(ctx, &storage.BudgetRow{UserID: "u1", Year: 2024, Month: 1, Category: &groceries, Amount: decimal.NewFromInt(300), Kind: "expense"})

	removed, err := s.DeleteBudgetsByKey(ctx, "u1", 2024, 0, &groceries, "expense")
	if err != nil {
		t.Fatalf("DeleteBudgetsByKey: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	// The overall (nil category) budget must survive a categorized delete.
	rows, _ := s.ListBudgets(ctx, "u1", 2024, 0)
	if len(rows) != 1 || rows[0].Category != nil {
		t.Errorf("expected only the overall budget for 2024-0, got %d rows", len(rows))
	}
}

func TestUpsertAccountIdempotent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	s.UpsertAccount(ctx, "u1", "bank")
	s.UpsertAccount(ctx, "u1", "bank")
	s.UpsertAccount(ctx, "u1", "Bank")

	names, err := s.ListAccounts(ctx, "u1")
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(names) != 1 {
		t.Errorf("len(names) = %d, want 1", len(names))
	}
}

func TestCountUserData(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Now().UTC()

	s.InsertTransaction(ctx, txRow("u1", "10", base))
	s.InsertTransaction(ctx, txRow("u1", "20", base))
	s.InsertBudget(ctx, &storage.BudgetRow{UserID: "u1", Year: 2024, Month: 0, Amount: decimal.NewFromInt(100), Kind: "expense"})
	s.UpsertAccount(ctx, "u1", "cash")

	counts, err := s.CountUserData(ctx, "u1")
	if err != nil {
		t.Fatalf("CountUserData: %v", err)
	}
	want := storage.DataCounts{Transactions: 2, Budgets: 1, Accounts: 1}
	if counts != want {
		t.Errorf("CountUserData = %+v, want %+v", counts, want)
	}
}
