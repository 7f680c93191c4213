package nlu

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ihab-ag/baro-ai/internal/ledger"
	"github.com/ihab-ag/baro-ai/internal/logger"
)

type fakeOracle struct {
	output string
	err    error
}

func (f *fakeOracle) Extract(ctx context.Context, message string) (string, error) {
	return f.output, f.err
}

func resolve(t *testing.T, output, message string) *Intent {
	t.Helper()
	r := NewResolver(&fakeOracle{output: output}, logger.NewWithLevel("error"))
	intent, err := r.Resolve(context.Background(), message)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return intent
}

func TestResolveTransaction(t *testing.T) {
	intent := resolve(t,
		`{"transaction":{"type":"expense","amount":45,"description":"groceries","category":"groceries"}}`,
		"spent 45 on groceries")

	if intent.Type != IntentTransaction {
		t.Fatalf("Type = %s, want transaction", intent.Type)
	}
	txn := intent.Transaction
	if txn.Kind != ledger.KindExpense || !txn.Amount.Equal(decimal.NewFromInt(45)) {
		t.Errorf("transaction = %+v", txn)
	}
	if txn.Category != "groceries" {
		t.Errorf("category = %q", txn.Category)
	}
}

func TestResolveLegacyFlatShape(t *testing.T) {
	intent := resolve(t,
		`{"type":"income","amount":20,"description":"got paid"}`,
		"i got paid 20")
	if intent.Type != IntentTransaction || intent.Transaction.Kind != ledger.KindIncome {
		t.Fatalf("flat payload not accepted: %+v", intent)
	}
}

func TestResolveStringAmountWithCurrency(t *testing.T) {
	intent := resolve(t,
		`{"transaction":{"type":"expense","amount":"$1,250.50","description":"rent"}}`,
		"paid rent")
	if intent.Type != IntentTransaction {
		t.Fatalf("Type = %s, want transaction", intent.Type)
	}
	if !intent.Transaction.Amount.Equal(decimal.RequireFromString("1250.50")) {
		t.Errorf("amount = %s, want 1250.50", intent.Transaction.Amount)
	}
}

func TestResolveDescriptionFallsBackToMessage(t *testing.T) {
	intent := resolve(t,
		`{"transaction":{"type":"expense","amount":5}}`,
		"coffee 5")
	if intent.Transaction.Description != "coffee 5" {
		t.Errorf("description = %q, want the raw message", intent.Transaction.Description)
	}
}

func TestResolveCommand(t *testing.T) {
	intent := resolve(t,
		`{"intent":{"type":"command","command":"budget_create","args":{"amount":500,"category":"groceries"}}}`,
		"set a 500 grocery budget")

	if intent.Type != IntentCommand || intent.Command != "budget_create" {
		t.Fatalf("intent = %+v", intent)
	}
	if intent.Args.Amount == nil || !intent.Args.Amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("amount arg = %v, want 500", intent.Args.Amount)
	}
	if intent.Args.Category != "groceries" {
		t.Errorf("category arg = %q", intent.Args.Category)
	}
}

func TestResolveCommandIndexArg(t *testing.T) {
	intent := resolve(t,
		`{"intent":{"type":"command","command":"month","args":{"index":2}}}`,
		"show month 2")
	if intent.Args.Index == nil || *intent.Args.Index != 2 {
		t.Errorf("index arg = %v, want 2", intent.Args.Index)
	}
}

func TestResolveRejectsCommandsOutsideAllowlist(t *testing.T) {
	// Even if the model proposes a destructive command, it never executes.
	for _, cmd := range []string{"delete_all", "clear", "drop_database", "delete"} {
		intent := resolve(t,
			`{"intent":{"type":"command","command":"`+cmd+`"}}`,
			"remove everything")
		if intent.Type != IntentNone {
			t.Errorf("command %q slipped through the allowlist: %+v", cmd, intent)
		}
	}
}

func TestResolveMarkdownFencedOutput(t *testing.T) {
	intent := resolve(t,
		"```json\n{\"intent\":{\"type\":\"command\",\"command\":\"balance\"}}\n```",
		"balance please")
	if intent.Type != IntentCommand || intent.Command != "balance" {
		t.Errorf("fenced output not handled: %+v", intent)
	}
}

func TestResolveProseAroundJSON(t *testing.T) {
	intent := resolve(t,
		`Sure! Here is the result: {"intent":{"type":"command","command":"history"}} hope that helps`,
		"show history")
	if intent.Type != IntentCommand || intent.Command != "history" {
		t.Errorf("surrounding prose not stripped: %+v", intent)
	}
}

func TestResolveDegradesToNone(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"garbage", "not json at all"},
		{"explicit none", `{"intent":{"type":"none"}}`},
		{"missing kind", `{"transaction":{"amount":10,"description":"x"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := resolve(t, tt.output, "hello")
			if intent.Type != IntentNone {
				t.Errorf("Type = %s, want none", intent.Type)
			}
		})
	}
}

func TestResolveBadAmountStaysTransaction(t *testing.T) {
	// A clearly typed transaction with a bad amount must reach the ledger
	// so the user gets an invalid-amount reply, not "couldn't understand".
	tests := []struct {
		name   string
		output string
	}{
		{"zero amount", `{"transaction":{"type":"expense","amount":0,"description":"x"}}`},
		{"negative amount", `{"transaction":{"type":"expense","amount":-5,"description":"x"}}`},
		{"null amount", `{"transaction":{"type":"expense","amount":null,"description":"x"}}`},
		{"unparseable amount", `{"transaction":{"type":"expense","amount":"lots","description":"x"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := resolve(t, tt.output, "hello")
			if intent.Type != IntentTransaction {
				t.Fatalf("Type = %s, want transaction", intent.Type)
			}
			if intent.Transaction.Amount.IsPositive() {
				t.Errorf("amount = %s, want non-positive", intent.Transaction.Amount)
			}
		})
	}
}

func TestResolveOracleError(t *testing.T) {
	r := NewResolver(&fakeOracle{err: errors.New("quota exceeded")}, logger.NewWithLevel("error"))
	if _, err := r.Resolve(context.Background(), "hi"); err == nil {
		t.Fatal("expected the oracle error to surface")
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"brace in string", `noise {"a":"}"} trailing`, `{"a":"}"}`},
		{"nested", `{"a":{"b":2}} extra`, `{"a":{"b":2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.in); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
