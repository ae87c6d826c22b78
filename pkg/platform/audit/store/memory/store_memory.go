package memory

import (
	"context"
	"sync"

	"medgate/pkg/domain"
	audit "medgate/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[domain.IdentityID][]audit.Event
	order  []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[domain.IdentityID][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.IdentityID] = append(s.events[event.IdentityID], event)
	s.order = append(s.order, event)
	return nil
}

func (s *InMemoryStore) ListByIdentity(_ context.Context, identityID domain.IdentityID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[identityID]...), nil
}

// ListRecent returns up to limit events across all identities, newest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.order) {
		limit = len(s.order)
	}
	out := make([]audit.Event, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.order[i])
	}
	return out, nil
}
