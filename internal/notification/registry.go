// Package notification holds per-user notification feeds.
package notification

import (
	"log/slog"
	"sync"
	"time"

	"medgate/internal/platform/metrics"
	"medgate/pkg/domain"
)

// Registry is one ordered feed, most recent first.
type Registry struct {
	mu      sync.RWMutex
	items   []Notification
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithClock overrides the time source used to stamp new entries.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add prepends n, assigning an id, kind and timestamp when absent.
func (r *Registry) Add(n Notification) Notification {
	r.fill(&n)

	r.mu.Lock()
	r.items = append([]Notification{n}, r.items...)
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.IncrementNotificationsAdded()
	}
	return n.clone()
}

func (r *Registry) fill(n *Notification) {
	if n.ID.IsNil() {
		n.ID = domain.NewNotificationID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now()
	}
	if n.Kind == "" {
		n.Kind = KindInfo
	}
}

// MarkRead flags the entry as read. Unknown ids are ignored.
func (r *Registry) MarkRead(id domain.NotificationID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Read = true
			return true
		}
	}
	return false
}

// MarkAllRead flags every entry and returns how many changed.
func (r *Registry) MarkAllRead() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := 0
	for i := range r.items {
		if !r.items[i].Read {
			r.items[i].Read = true
			changed++
		}
	}
	return changed
}

func (r *Registry) UnreadCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, it := range r.items {
		if !it.Read {
			n++
		}
	}
	return n
}

// List returns a copy of the feed, most recent first.
func (r *Registry) List() []Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Notification, len(r.items))
	for i, it := range r.items {
		out[i] = it.clone()
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// SeedIfEmpty installs ns in the given order when the feed has no entries.
// It reports whether seeding happened; a non-empty feed is left untouched.
func (r *Registry) SeedIfEmpty(ns []Notification) bool {
	r.mu.Lock()
	if len(r.items) > 0 {
		r.mu.Unlock()
		return false
	}
	seeded := make([]Notification, len(ns))
	for i, n := range ns {
		r.fill(&n)
		seeded[i] = n
	}
	r.items = seeded
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Debug("seeded notification feed", "count", len(seeded))
	}
	return true
}
