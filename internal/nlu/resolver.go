// Package nlu turns free-form chat messages into structured intents using a
// language model as the extraction oracle, with strict validation on top: the
// model is never trusted to name a destructive operation.
package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ihab-ag/baro-ai/internal/ledger"
)

// Oracle produces the model's raw text for one chat message.
type Oracle interface {
	Extract(ctx context.Context, message string) (string, error)
}

// IntentType is the top-level classification of a message.
type IntentType string

const (
	IntentTransaction IntentType = "transaction"
	IntentCommand     IntentType = "command"
	IntentNone        IntentType = "none"
)

// CommandArgs are the optional structured arguments a command may carry.
type CommandArgs struct {
	Index    *int
	Name     string
	Amount   *decimal.Decimal
	Category string
}

// TransactionIntent is an extracted transaction awaiting validation by the
// ledger.
type TransactionIntent struct {
	Kind        ledger.Kind
	Amount      decimal.Decimal
	Description string
	Category    string
	Account     string
}

// Intent is the validated result of resolving one message.
type Intent struct {
	Type        IntentType
	Command     string
	Args        CommandArgs
	Transaction *TransactionIntent
}

// allowedCommands is the closed set of commands the model may propose.
// Anything outside it, destructive or not, is discarded.
var allowedCommands = map[string]bool{
	"balance":       true,
	"history":       true,
	"months":        true,
	"month":         true,
	"categories":    true,
	"catstats":      true,
	"budgets":       true,
	"budget_status": true,
	"budget_create": true,
	"accounts":      true,
	"account_add":   true,
	"account_use":   true,
	"export":        true,
	"export_month":  true,
}

// Resolver runs the oracle and validates its output.
type Resolver struct {
	oracle Oracle
	log    zerolog.Logger
}

func NewResolver(oracle Oracle, log zerolog.Logger) *Resolver {
	return &Resolver{oracle: oracle, log: log}
}

// payload mirrors the JSON shape the prompt asks for. The flat legacy shape
// (transaction fields at the top level) is also accepted.
type payload struct {
	Intent *struct {
		Type    string `json:"type"`
		Command string `json:"command"`
		Args    *struct {
			Index    *float64        `json:"index"`
			Name     string          `json:"name"`
			Amount   json.RawMessage `json:"amount"`
			Category string          `json:"category"`
		} `json:"args"`
	} `json:"intent"`
	Transaction *transactionPayload `json:"transaction"`
	transactionPayload
}

type transactionPayload struct {
	Type        string          `json:"type"`
	Amount      json.RawMessage `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Account     string          `json:"account"`
}

// Resolve classifies one message. Oracle or parse failures degrade to
// IntentNone rather than erroring; the frontend treats that as "could not
// understand".
func (r *Resolver) Resolve(ctx context.Context, message string) (*Intent, error) {
	raw, err := r.oracle.Extract(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("Resolve: oracle: %w", err)
	}

	var p payload
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &p); err != nil {
		r.log.Warn().Err(err).Str("raw", truncate(raw, 200)).Msg("oracle returned unparseable output")
		return &Intent{Type: IntentNone}, nil
	}

	if p.Intent != nil && p.Intent.Type == string(IntentCommand) {
		return r.resolveCommand(&p), nil
	}

	// The prompt's nested transaction shape, or the legacy flat one.
	txn := p.Transaction
	if txn == nil {
		txn = &p.transactionPayload
	}
	return r.resolveTransaction(txn, message), nil
}

func (r *Resolver) resolveCommand(p *payload) *Intent {
	name := strings.ToLower(strings.TrimSpace(p.Intent.Command))
	if !allowedCommands[name] {
		r.log.Warn().Str("command", name).Msg("oracle proposed a command outside the allowlist")
		return &Intent{Type: IntentNone}
	}

	intent := &Intent{Type: IntentCommand, Command: name}
	if args := p.Intent.Args; args != nil {
		if args.Index != nil {
			idx := int(*args.Index)
			intent.Args.Index = &idx
		}
		intent.Args.Name = strings.TrimSpace(args.Name)
		intent.Args.Category = strings.TrimSpace(args.Category)
		if amount, ok := coerceAmount(args.Amount); ok {
			intent.Args.Amount = &amount
		}
	}
	return intent
}

func (r *Resolver) resolveTransaction(txn *transactionPayload, message string) *Intent {
	kind, err := ledger.ParseKind(txn.Type)
	if err != nil {
		return &Intent{Type: IntentNone}
	}
	// A clearly typed transaction with a missing or bad amount still goes
	// through as zero; the ledger rejects it with its invalid-amount reply
	// instead of a generic "could not understand".
	amount, _ := coerceAmount(txn.Amount)

	description := strings.TrimSpace(txn.Description)
	if description == "" {
		description = strings.TrimSpace(message)
	}
	return &Intent{
		Type: IntentTransaction,
		Transaction: &TransactionIntent{
			Kind:        kind,
			Amount:      amount,
			Description: description,
			Category:    strings.ToLower(strings.TrimSpace(txn.Category)),
			Account:     strings.TrimSpace(txn.Account),
		},
	}
}

var nonNumericRe = regexp.MustCompile(`[^0-9.\-]`)

// coerceAmount accepts the amount as a JSON number or as a string, stripping
// currency symbols and separators from the latter.
func coerceAmount(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Decimal{}, false
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		d, derr := decimal.NewFromString(num.String())
		return d, derr == nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return decimal.Decimal{}, false
	}
	s = nonNumericRe.ReplaceAllString(s, "")
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	return d, err == nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
