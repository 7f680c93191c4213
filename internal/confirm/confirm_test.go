package confirm

import (
	"testing"

	"github.com/shopspring/decimal"
)

func pendingClearHistory() *Action {
	return &Action{Kind: KindClearHistory, ClearHistory: &ClearHistory{Count: 3}}
}

func TestResolveNoPending(t *testing.T) {
	m := NewManager()
	action, outcome := m.Resolve("u1", "yes")
	if action != nil || outcome != Passthrough {
		t.Errorf("Resolve without pending = (%v, %v), want (nil, Passthrough)", action, outcome)
	}
}

func TestResolveOutcomes(t *testing.T) {
	tests := []struct {
		name  string
		kind  ActionKind
		reply string
		want  Outcome
	}{
		{"generic yes", KindClearMonth, "yes", Confirmed},
		{"generic confirm", KindClearMonth, "Confirm", Confirmed},
		{"short y", KindClearMonth, "y", Confirmed},
		{"whitespace tolerated", KindClearMonth, "  yes  ", Confirmed},
		{"no", KindClearMonth, "no", Cancelled},
		{"cancel", KindClearMonth, "cancel", Cancelled},
		{"skip", KindClearMonth, "skip", Cancelled},
		{"ignore", KindClearMonth, "ignore", Cancelled},
		{"unrelated message", KindClearMonth, "add 20 for lunch", Passthrough},
		{"yes embedded in sentence", KindClearMonth, "yes please do it", Passthrough},

		{"budget replace keyword", KindBudgetReplace, "replace", Confirmed},
		{"budget yes replace", KindBudgetReplace, "yes replace", Confirmed},

		{"history explicit", KindClearHistory, "yes clear all", Confirmed},
		{"history confirm clear", KindClearHistory, "confirm clear", Confirmed},
		{"history bare yes refused", KindClearHistory, "yes", Passthrough},
		{"history bare confirm refused", KindClearHistory, "confirm", Passthrough},

		{"all data explicit", KindClearAllData, "yes delete everything", Confirmed},
		{"all data confirm delete", KindClearAllData, "confirm delete all", Confirmed},
		{"all data wipe", KindClearAllData, "yes wipe all", Confirmed},
		{"all data bare yes refused", KindClearAllData, "yes", Passthrough},
		{"all data short y refused", KindClearAllData, "y", Passthrough},
		{"wrong explicit for kind", KindClearMonth, "yes delete everything", Passthrough},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			m.Begin("u1", &Action{Kind: tt.kind})
			action, outcome := m.Resolve("u1", tt.reply)
			if outcome != tt.want {
				t.Fatalf("outcome = %v, want %v", outcome, tt.want)
			}
			if action == nil || action.Kind != tt.kind {
				t.Errorf("action = %v, want the pending %s action back", action, tt.kind)
			}
		})
	}
}

func TestPassthroughKeepsPending(t *testing.T) {
	m := NewManager()
	m.Begin("u1", pendingClearHistory())

	// An unrelated message is answered on its own merits; the action
	// stays armed.
	if _, outcome := m.Resolve("u1", "what's my balance"); outcome != Passthrough {
		t.Fatalf("outcome = %v, want Passthrough", outcome)
	}
	if _, ok := m.Pending("u1"); !ok {
		t.Fatal("passthrough must leave the pending slot in place")
	}

	action, outcome := m.Resolve("u1", "yes clear all")
	if outcome != Confirmed || action == nil || action.Kind != KindClearHistory {
		t.Errorf("late confirmation = (%v, %v), want the parked action confirmed", action, outcome)
	}
	if _, ok := m.Pending("u1"); ok {
		t.Error("confirmation must clear the pending slot")
	}
}

func TestResolveClearsPendingOnCancel(t *testing.T) {
	m := NewManager()
	m.Begin("u1", pendingClearHistory())

	if _, outcome := m.Resolve("u1", "no"); outcome != Cancelled {
		t.Fatalf("outcome = %v, want Cancelled", outcome)
	}
	if action, outcome := m.Resolve("u1", "yes"); action != nil || outcome != Passthrough {
		t.Error("a yes after cancellation must not confirm anything")
	}
}

func TestBeginReplacesPending(t *testing.T) {
	m := NewManager()
	m.Begin("u1", pendingClearHistory())
	m.Begin("u1", &Action{
		Kind: KindBudgetReplace,
		BudgetReplace: &BudgetReplace{
			Amount: decimal.RequireFromString("300"),
			Year:   2024, Month: 0, Kind: "expense",
		},
	})

	action, outcome := m.Resolve("u1", "replace")
	if outcome != Confirmed || action.Kind != KindBudgetReplace {
		t.Errorf("Resolve = (%v, %v), want the most recent pending action confirmed", action, outcome)
	}
}

func TestPendingIsPerUser(t *testing.T) {
	m := NewManager()
	m.Begin("u1", pendingClearHistory())

	if _, ok := m.Pending("u2"); ok {
		t.Error("u2 must not see u1's pending action")
	}
	if action, outcome := m.Resolve("u2", "yes"); action != nil || outcome != Passthrough {
		t.Error("u2's yes must not confirm u1's action")
	}
	if _, ok := m.Pending("u1"); !ok {
		t.Error("u1's pending action must survive u2's traffic")
	}
}

func TestCancel(t *testing.T) {
	m := NewManager()
	if m.Cancel("u1") {
		t.Error("Cancel with nothing pending must report false")
	}
	m.Begin("u1", pendingClearHistory())
	if !m.Cancel("u1") {
		t.Error("Cancel with pending must report true")
	}
	if _, ok := m.Pending("u1"); ok {
		t.Error("pending slot must be empty after Cancel")
	}
}
