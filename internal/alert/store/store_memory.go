package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"medgate/internal/alert/models"
	"medgate/pkg/domain"
	"medgate/pkg/platform/sentinel"
)

// Error Contract:
// - ErrNotFound when the requested alert does not exist
// - ErrConflict when an identity already holds a non-terminal alert
// - validate errors from Execute are returned unchanged
// Every returned *Alert is a copy; callers never share memory with the store.
type InMemoryAlertStore struct {
	mu     sync.RWMutex
	alerts map[domain.AlertID]*models.Alert
	// open indexes the single non-terminal alert per identity.
	open map[domain.IdentityID]domain.AlertID
}

func New() *InMemoryAlertStore {
	return &InMemoryAlertStore{
		alerts: make(map[domain.AlertID]*models.Alert),
		open:   make(map[domain.IdentityID]domain.AlertID),
	}
}

// CreateIfNoneOpen inserts alert unless its subject already has a
// non-terminal alert.
func (s *InMemoryAlertStore) CreateIfNoneOpen(_ context.Context, alert *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.open[alert.SubjectIdentityID]; ok {
		return fmt.Errorf("identity already has open alert %s: %w", existing, sentinel.ErrConflict)
	}
	s.alerts[alert.ID] = alert.Clone()
	if !alert.Status.IsTerminal() {
		s.open[alert.SubjectIdentityID] = alert.ID
	}
	return nil
}

func (s *InMemoryAlertStore) FindByID(_ context.Context, id domain.AlertID) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.alerts[id]; ok {
		return a.Clone(), nil
	}
	return nil, fmt.Errorf("alert not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryAlertStore) FindOpenByIdentity(_ context.Context, identityID domain.IdentityID) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.open[identityID]; ok {
		return s.alerts[id].Clone(), nil
	}
	return nil, fmt.Errorf("no open alert: %w", sentinel.ErrNotFound)
}

// ListByIdentity returns the identity's alerts, most recent first.
func (s *InMemoryAlertStore) ListByIdentity(_ context.Context, identityID domain.IdentityID) ([]*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Alert, 0)
	for _, a := range s.alerts {
		if a.SubjectIdentityID == identityID {
			out = append(out, a.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Execute runs validate then mutate on the stored alert under the write lock.
// If validate fails the alert is left untouched and the error is returned.
func (s *InMemoryAlertStore) Execute(_ context.Context, id domain.AlertID, validate func(*models.Alert) error, mutate func(*models.Alert)) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return nil, fmt.Errorf("alert not found: %w", sentinel.ErrNotFound)
	}
	if err := validate(a); err != nil {
		return a.Clone(), err
	}
	mutate(a)
	if a.Status.IsTerminal() && s.open[a.SubjectIdentityID] == a.ID {
		delete(s.open, a.SubjectIdentityID)
	}
	return a.Clone(), nil
}

// CountOpen returns the number of non-terminal alerts.
func (s *InMemoryAlertStore) CountOpen(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.open)
}
