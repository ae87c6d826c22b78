// Package guard decides whether a page may render for the current session.
// It must run before any page handler so a redirected request does no work.
package guard

import (
	"context"
	"log/slog"
	"sync"

	"medgate/internal/authz"
	"medgate/internal/platform/metrics"
	"medgate/internal/session/models"
	"medgate/pkg/platform/audit"
	"medgate/pkg/requestcontext"
)

type Reason string

const (
	ReasonAllowed         Reason = "allowed"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonRoleNotAllowed  Reason = "role_not_allowed"
	ReasonUnknownRoute    Reason = "unknown_route"
)

// Decision is the outcome of one guard evaluation. Redirect is empty when
// Allowed is true.
type Decision struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
	Reason   Reason `json:"reason"`
}

// Routes resolves page paths to their allowed roles.
type Routes interface {
	Lookup(path string) (authz.Route, bool)
}

// SessionSource is the read side of a session manager.
type SessionSource interface {
	Snapshot() models.Snapshot
	Subscribe(fn func(models.Snapshot)) func()
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Evaluate applies the guard rules to a snapshot:
// no identity goes to the public landing, a role outside the route's set (or
// an undeclared route) goes to the default landing.
func Evaluate(snap models.Snapshot, routes Routes, path string) Decision {
	if !snap.IsAuthenticated() {
		return Decision{Redirect: authz.PublicLanding, Reason: ReasonUnauthenticated}
	}
	route, ok := routes.Lookup(path)
	if !ok {
		return Decision{Redirect: authz.DefaultLanding, Reason: ReasonUnknownRoute}
	}
	if !authz.CanAccess(route.Roles, snap.Identity.Role) {
		return Decision{Redirect: authz.DefaultLanding, Reason: ReasonRoleNotAllowed}
	}
	return Decision{Allowed: true, Reason: ReasonAllowed}
}

// Guard wraps Evaluate with logging, metrics and audit of denials.
type Guard struct {
	routes         Routes
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
}

type Option func(*Guard)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(g *Guard) {
		g.auditPublisher = publisher
	}
}

func New(routes Routes, opts ...Option) *Guard {
	g := &Guard{routes: routes}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check evaluates path against the session's current snapshot.
func (g *Guard) Check(ctx context.Context, session SessionSource, path string) Decision {
	snap := session.Snapshot()
	d := Evaluate(snap, g.routes, path)
	g.record(ctx, snap, path, d)
	return d
}

// Watch evaluates path now and again after every session change, until the
// returned stop func is called. Deliveries are serialized and each one reads
// the session's latest snapshot, so the last decision fn sees is current.
func (g *Guard) Watch(ctx context.Context, session SessionSource, path string, fn func(Decision)) (stop func()) {
	var mu sync.Mutex
	mu.Lock()
	defer mu.Unlock()

	stop = session.Subscribe(func(models.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		snap := session.Snapshot()
		if snap.Loading {
			return
		}
		d := Evaluate(snap, g.routes, path)
		g.record(ctx, snap, path, d)
		fn(d)
	})
	fn(g.Check(ctx, session, path))
	return stop
}

func (g *Guard) record(ctx context.Context, snap models.Snapshot, path string, d Decision) {
	if g.metrics != nil {
		g.metrics.IncrementGuardDecision(string(d.Reason))
	}
	if d.Allowed {
		return
	}
	if g.logger != nil {
		g.logger.InfoContext(ctx, "page access redirected",
			"path", path,
			"reason", string(d.Reason),
			"redirect", d.Redirect,
			"role", snap.Role().String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if g.auditPublisher == nil || snap.Identity == nil {
		return
	}
	if err := g.auditPublisher.Emit(ctx, audit.Event{
		IdentityID: snap.Identity.ID,
		Subject:    path,
		Action:     string(audit.EventAccessDenied),
		Reason:     string(d.Reason),
	}); err != nil && g.logger != nil {
		g.logger.ErrorContext(ctx, "failed to emit audit event", "error", err)
	}
}
