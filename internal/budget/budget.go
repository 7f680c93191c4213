// Package budget manages per-month spending and income limits and reports
// how actual activity tracks against them.
package budget

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ihab-ag/baro-ai/internal/ledger"
	"github.com/ihab-ag/baro-ai/internal/logger"
	"github.com/ihab-ag/baro-ai/internal/storage"
)

var ErrInvalidAmount = errors.New("budget amount must be positive")

// Budget is a limit for one month, either overall (Category == nil) or
// scoped to a single category.
type Budget struct {
	ID       int64
	Year     int
	Month    int
	Category *string
	Amount   decimal.Decimal
	Kind     ledger.Kind
}

// Status pairs a budget with the month's actual activity.
type Status struct {
	Budget     Budget
	Actual     decimal.Decimal
	Remaining  decimal.Decimal
	Percentage int
	Exceeded   bool
}

// Engine owns all budget operations for one user.
type Engine struct {
	userID string
	store  storage.Store
	log    zerolog.Logger
}

func NewEngine(userID string, store storage.Store, log zerolog.Logger) *Engine {
	return &Engine{userID: userID, store: store, log: logger.WithUser(log, userID)}
}

// NormalizeCategory lowercases and trims a category, returning nil for an
// empty or "overall" category so budgets on the whole month share one key.
func NormalizeCategory(category string) *string {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" || c == "overall" || c == "all" {
		return nil
	}
	return &c
}

// Existing returns the budgets that would be replaced by creating a budget
// with the given key. Used to decide whether creation needs confirmation.
func (e *Engine) Existing(ctx context.Context, year, month int, category *string, kind ledger.Kind) ([]Budget, error) {
	rows, err := e.store.ListBudgets(ctx, e.userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("Existing: list budgets: %w", err)
	}
	var out []Budget
	for _, row := range rows {
		if row.Kind == string(kind) && sameCategory(row.Category, category) {
			out = append(out, fromRow(row))
		}
	}
	return out, nil
}

// Create sets a budget for the given key, replacing any existing budget with
// the same year, month, category and kind. The caller is expected to have
// routed the replacement through confirmation first.
func (e *Engine) Create(ctx context.Context, year, month int, category *string, amount decimal.Decimal, kind ledger.Kind) (Budget, error) {
	if !amount.IsPositive() {
		return Budget{}, ErrInvalidAmount
	}

	removed, err := e.store.DeleteBudgetsByKey(ctx, e.userID, year, month, category, string(kind))
	if err != nil {
		return Budget{}, fmt.Errorf("Create: delete previous: %w", err)
	}
	if removed > 0 {
		e.log.Debug().Int64("replaced", removed).Int("year", year).Int("month", month).Msg("budget replaced")
	}

	row := &storage.BudgetRow{
		UserID:   e.userID,
		Year:     year,
		Month:    month,
		Category: category,
		Amount:   amount,
		Kind:     string(kind),
	}
	id, err := e.store.InsertBudget(ctx, row)
	if err != nil {
		return Budget{}, fmt.Errorf("Create: insert: %w", err)
	}
	row.ID = id
	return fromRow(row), nil
}

// Budgets lists the budgets set for a month, overall budgets first, then by
// category name.
func (e *Engine) Budgets(ctx context.Context, year, month int) ([]Budget, error) {
	rows, err := e.store.ListBudgets(ctx, e.userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("Budgets: %w", err)
	}
	out := make([]Budget, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return budgetKeyLess(out[i], out[j])
	})
	return out, nil
}

// MonthStatus computes, for every budget in the month, the actual amount the
// month's transactions put against it. Overall budgets come first, then the
// rest ordered by largest absolute remaining.
func (e *Engine) MonthStatus(ctx context.Context, year, month int, monthTxns []*ledger.Transaction) ([]Status, error) {
	budgets, err := e.Budgets(ctx, year, month)
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return nil, nil
	}

	statuses := make([]Status, 0, len(budgets))
	for _, b := range budgets {
		actual := decimal.Zero
		for _, txn := range monthTxns {
			if txn.Kind != b.Kind {
				continue
			}
			if b.Category != nil && !strings.EqualFold(txn.Category, *b.Category) {
				continue
			}
			actual = actual.Add(txn.Amount)
		}

		remaining := b.Amount.Sub(actual)
		pct := 0
		if b.Amount.IsPositive() {
			pct = int(actual.Div(b.Amount).Mul(decimal.NewFromInt(100)).IntPart())
		}
		statuses = append(statuses, Status{
			Budget:     b,
			Actual:     actual,
			Remaining:  remaining,
			Percentage: pct,
			Exceeded:   b.Kind == ledger.KindExpense && actual.GreaterThan(b.Amount),
		})
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		bi, bj := statuses[i].Budget, statuses[j].Budget
		if (bi.Category == nil) != (bj.Category == nil) {
			return bi.Category == nil
		}
		return statuses[i].Remaining.Abs().GreaterThan(statuses[j].Remaining.Abs())
	})
	return statuses, nil
}

// Delete removes one budget by ID. Deleting an unknown ID is a no-op to
// keep parity with the store semantics.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	if err := e.store.DeleteBudget(ctx, e.userID, id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

// DeleteAll removes every budget the user has, returning the count.
func (e *Engine) DeleteAll(ctx context.Context) (int, error) {
	count, err := e.store.DeleteAllBudgets(ctx, e.userID)
	if err != nil {
		return 0, fmt.Errorf("DeleteAll: %w", err)
	}
	return int(count), nil
}

func fromRow(row *storage.BudgetRow) Budget {
	return Budget{
		ID:       row.ID,
		Year:     row.Year,
		Month:    row.Month,
		Category: row.Category,
		Amount:   row.Amount,
		Kind:     ledger.Kind(row.Kind),
	}
}

func sameCategory(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return strings.EqualFold(*a, *b)
}

func budgetKeyLess(a, b Budget) bool {
	if (a.Category == nil) != (b.Category == nil) {
		return a.Category == nil
	}
	if a.Category == nil {
		return a.ID < b.ID
	}
	return *a.Category < *b.Category
}
