package service

import (
	"fmt"
	"sync"
	"time"

	"medgate/pkg/domain"
	"medgate/pkg/platform/sentinel"
)

// Store keeps one Manager per browser session for the HTTP adapter.
//
// Error Contract:
//   - Get returns an error wrapping sentinel.ErrNotFound for unknown or expired ids.
type Store struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*storedSession
	newFn    func() *Manager
	ttl      time.Duration
	now      func() time.Time
}

type storedSession struct {
	manager   *Manager
	expiresAt time.Time
}

// expired reports whether the entry lapsed as of now. A zero expiry never lapses.
func (e *storedSession) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && e.expiresAt.Before(now)
}

type StoreOption func(*Store)

// WithSessionTTL expires sessions ttl after creation or their last Refresh.
// Zero keeps sessions until deleted.
func WithSessionTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = ttl
	}
}

func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore builds managers with newFn on Create.
func NewStore(newFn func() *Manager, opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[domain.SessionID]*storedSession),
		newFn:    newFn,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Create() (domain.SessionID, *Manager) {
	id := domain.NewSessionID()
	m := s.newFn()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &storedSession{manager: m, expiresAt: s.expiry()}
	return id, m
}

func (s *Store) Get(id domain.SessionID) (*Manager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.sessions[id]; ok && !e.expired(s.now()) {
		return e.manager, nil
	}
	return nil, fmt.Errorf("session %s: %w", id, sentinel.ErrNotFound)
}

// Refresh restarts the session's expiry window, typically when a new token is
// issued for it.
func (s *Store) Refresh(id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok || e.expired(s.now()) {
		return fmt.Errorf("session %s: %w", id, sentinel.ErrNotFound)
	}
	e.expiresAt = s.expiry()
	return nil
}

// Delete drops the session. Unknown ids are ignored.
func (s *Store) Delete(id domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// DeleteExpired removes every session that expired as of now and returns how
// many were dropped. now is injected so sweeps are testable.
func (s *Store) DeleteExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, e := range s.sessions {
		if e.expired(now) {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) expiry() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.ttl)
}
