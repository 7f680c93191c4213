// Package session owns per-user runtime state: the transaction tracker and
// budget engine bound to one user, created lazily on first contact and
// evicted after inactivity. The backing store keeps the data, so eviction
// only drops warm caches.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ihab-ag/baro-ai/internal/budget"
	"github.com/ihab-ag/baro-ai/internal/command"
	"github.com/ihab-ag/baro-ai/internal/ledger"
	"github.com/ihab-ag/baro-ai/internal/storage"
)

// DefaultTTL is how long an idle session stays resident.
const DefaultTTL = 30 * time.Minute

const sweepInterval = time.Minute

// Session is one user's resident state.
type Session struct {
	id       string
	userID   string
	tracker  *ledger.Tracker
	budgets  *budget.Engine
	lastSeen time.Time
}

// ID returns the session's unique identifier, fresh per residency.
func (s *Session) ID() string { return s.id }

// UserID implements command.Session.
func (s *Session) UserID() string { return s.userID }

// Ledger implements command.Session.
func (s *Session) Ledger() command.Ledger { return s.tracker }

// Budgets implements command.Session.
func (s *Session) Budgets() command.Budgets { return s.budgets }

// Manager creates and caches sessions. It implements
// command.SessionProvider.
type Manager struct {
	store storage.Store
	log   zerolog.Logger
	ttl   time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	now func() time.Time
}

func NewManager(store storage.Store, log zerolog.Logger, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:    store,
		log:      log,
		ttl:      ttl,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Session returns the user's resident session, creating one on first
// contact. Each call refreshes the idle timer.
func (m *Manager) Session(ctx context.Context, userID string) (command.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		s.lastSeen = m.now()
		return s, nil
	}

	s := &Session{
		id:       uuid.NewString(),
		userID:   userID,
		tracker:  ledger.NewTracker(userID, m.store, m.log),
		budgets:  budget.NewEngine(userID, m.store, m.log),
		lastSeen: m.now(),
	}
	m.sessions[userID] = s
	m.log.Debug().Str("user_id", userID).Str("session_id", s.id).Msg("session created")
	return s, nil
}

// Count reports how many sessions are resident.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Run sweeps idle sessions until the context is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, userID)
			m.log.Debug().Str("user_id", userID).Str("session_id", s.id).Msg("idle session evicted")
		}
	}
}
