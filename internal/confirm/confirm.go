// Package confirm implements the two-phase gate in front of destructive
// operations. A destructive request parks a tagged pending action; a later
// message from that user either confirms it, cancels it, or falls through
// to ordinary handling with the action still pending. The pending slot is
// only cleared by an explicit confirm or cancel, by a replacement, or by
// process restart.
package confirm

import (
	"regexp"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ihab-ag/baro-ai/internal/storage"
)

// ActionKind tags what a pending action will do when confirmed.
type ActionKind string

const (
	KindBudgetReplace ActionKind = "budget_replace"
	KindClearMonth    ActionKind = "clear_month"
	KindClearHistory  ActionKind = "clear_history"
	KindClearAllData  ActionKind = "clear_all_data"
)

// BudgetReplace carries everything needed to re-run the budget creation once
// the user approves overwriting the existing budget.
type BudgetReplace struct {
	Amount   decimal.Decimal
	Year     int
	Month    int
	Category *string
	Kind     string
}

// ClearMonth identifies the month whose transactions will be removed.
type ClearMonth struct {
	Year      int
	Month     int
	MonthName string
	Count     int
}

// ClearHistory records how many transactions a full history wipe covers.
type ClearHistory struct {
	Count int
}

// ClearAllData records the row counts a full reset will destroy, shown back
// to the user before they commit.
type ClearAllData struct {
	Counts storage.DataCounts
}

// Action is one parked destructive operation. Exactly one of the payload
// fields matching Kind is set.
type Action struct {
	Kind          ActionKind
	BudgetReplace *BudgetReplace
	ClearMonth    *ClearMonth
	ClearHistory  *ClearHistory
	ClearAllData  *ClearAllData
}

// Outcome classifies the user's reply to a pending action.
type Outcome int

const (
	// Confirmed means the reply matched the action's affirmative phrasing.
	Confirmed Outcome = iota
	// Cancelled means the reply explicitly declined.
	Cancelled
	// Passthrough means the reply was about something else. The action
	// stays pending and the message is handled normally.
	Passthrough
)

var (
	negativeRe = regexp.MustCompile(`^(no|cancel|skip|ignore)$`)

	// Generic approval covers budget replacement and single-month clears.
	// The full wipes demand their exact phrasings; a bare yes is not
	// enough to destroy everything.
	affirmativeRe = map[ActionKind]*regexp.Regexp{
		KindBudgetReplace: regexp.MustCompile(`^(yes|confirm|y|replace|yes replace)$`),
		KindClearMonth:    regexp.MustCompile(`^(yes|confirm|y)$`),
		KindClearHistory:  regexp.MustCompile(`^(yes clear all|confirm clear)$`),
		KindClearAllData:  regexp.MustCompile(`^(yes delete everything|confirm delete all|yes wipe all)$`),
	}
)

// Manager holds at most one pending action per user. Any new destructive
// request replaces whatever was pending.
type Manager struct {
	mu      sync.Mutex
	pending map[string]*Action
}

func NewManager() *Manager {
	return &Manager{pending: make(map[string]*Action)}
}

// Begin parks an action for the user, replacing any previous pending one.
func (m *Manager) Begin(userID string, action *Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[userID] = action
}

// Pending reports whether the user has a parked action, without consuming it.
func (m *Manager) Pending(userID string) (*Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.pending[userID]
	return a, ok
}

// Resolve tests the user's reply against their pending action. When no
// action is pending it returns (nil, Passthrough) so the caller handles the
// message normally. A confirming or cancelling reply clears the slot; any
// other reply leaves the action pending so the user can interleave
// unrelated messages without losing it.
func (m *Manager) Resolve(userID, reply string) (*Action, Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	action, ok := m.pending[userID]
	if !ok {
		return nil, Passthrough
	}

	normalized := strings.ToLower(strings.TrimSpace(reply))
	if negativeRe.MatchString(normalized) {
		delete(m.pending, userID)
		return action, Cancelled
	}
	if re, ok := affirmativeRe[action.Kind]; ok && re.MatchString(normalized) {
		delete(m.pending, userID)
		return action, Confirmed
	}
	return action, Passthrough
}

// Cancel drops the user's pending action if any, reporting whether one
// existed.
func (m *Manager) Cancel(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[userID]
	delete(m.pending, userID)
	return ok
}
