package guard

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medgate/internal/authz"
	"medgate/internal/platform/metrics"
	"medgate/internal/session/models"
	"medgate/pkg/domain"
	"medgate/pkg/platform/audit"
)

// stubSession lets tests push snapshots the way a session manager does.
type stubSession struct {
	mu   sync.Mutex
	snap models.Snapshot
	subs []func(models.Snapshot)
}

func (s *stubSession) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *stubSession) Subscribe(fn func(models.Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs[idx] = nil
	}
}

func (s *stubSession) set(snap models.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	subs := append([]func(models.Snapshot){}, s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		if fn != nil {
			fn(snap)
		}
	}
}

func signedIn(role domain.Role) models.Snapshot {
	return models.Snapshot{Identity: &models.Identity{ID: domain.NewIdentityID(), Role: role}}
}

type recordingPublisher struct {
	events []audit.Event
}

func (p *recordingPublisher) Emit(_ context.Context, e audit.Event) error {
	p.events = append(p.events, e)
	return nil
}

func TestEvaluate(t *testing.T) {
	routes := authz.NewRouteTable(authz.DefaultRoutes())

	tests := []struct {
		name string
		snap models.Snapshot
		path string
		want Decision
	}{
		{"anonymous goes to public landing", models.Snapshot{}, "/pages/inventory",
			Decision{Redirect: authz.PublicLanding, Reason: ReasonUnauthenticated}},
		{"anonymous on unknown route goes to public landing", models.Snapshot{}, "/pages/nope",
			Decision{Redirect: authz.PublicLanding, Reason: ReasonUnauthenticated}},
		{"loading without identity is still anonymous", models.Snapshot{Loading: true}, "/pages/dashboard",
			Decision{Redirect: authz.PublicLanding, Reason: ReasonUnauthenticated}},
		{"wrong role goes to default landing", signedIn(domain.RolePatient), "/pages/inventory",
			Decision{Redirect: authz.DefaultLanding, Reason: ReasonRoleNotAllowed}},
		{"unknown route goes to default landing", signedIn(domain.RoleAdmin), "/pages/nope",
			Decision{Redirect: authz.DefaultLanding, Reason: ReasonUnknownRoute}},
		{"allowed role proceeds", signedIn(domain.RolePharmacy), "/pages/inventory",
			Decision{Allowed: true, Reason: ReasonAllowed}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.snap, routes, tt.path))
		})
	}
}

func TestGuard_CheckRecordsDenials(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	pub := &recordingPublisher{}
	g := New(authz.NewRouteTable(authz.DefaultRoutes()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(m),
		WithAuditPublisher(pub),
	)
	session := &stubSession{snap: signedIn(domain.RoleAccountant)}

	d := g.Check(context.Background(), session, "/pages/staff")

	assert.False(t, d.Allowed)
	require.Len(t, pub.events, 1)
	assert.Equal(t, string(audit.EventAccessDenied), pub.events[0].Action)
	assert.Equal(t, "/pages/staff", pub.events[0].Subject)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardDecisions.WithLabelValues("role_not_allowed")))

	g.Check(context.Background(), &stubSession{}, "/pages/staff")
	assert.Len(t, pub.events, 1, "anonymous redirects are not audited")
}

func TestGuard_WatchReevaluatesOnSessionChange(t *testing.T) {
	g := New(authz.NewRouteTable(authz.DefaultRoutes()))
	session := &stubSession{}

	var decisions []Decision
	stop := g.Watch(context.Background(), session, "/pages/billing", func(d Decision) {
		decisions = append(decisions, d)
	})

	session.set(models.Snapshot{Loading: true})
	session.set(signedIn(domain.RoleAccountant))
	session.set(models.Snapshot{})
	stop()
	session.set(signedIn(domain.RoleAccountant))

	require.Len(t, decisions, 3)
	assert.Equal(t, ReasonUnauthenticated, decisions[0].Reason)
	assert.True(t, decisions[1].Allowed)
	assert.Equal(t, ReasonUnauthenticated, decisions[2].Reason)
}

// shiftingSession signs in from another goroutine while the first Snapshot
// call is still returning the anonymous state.
type shiftingSession struct {
	stubSession
	once    sync.Once
	changed chan struct{}
}

func (s *shiftingSession) Snapshot() models.Snapshot {
	snap := s.stubSession.Snapshot()
	s.once.Do(func() {
		go func() {
			defer close(s.changed)
			s.set(signedIn(domain.RoleAccountant))
		}()
		select {
		case <-s.changed:
		case <-time.After(20 * time.Millisecond):
		}
	})
	return snap
}

func TestGuard_WatchDeliversLatestDecisionLast(t *testing.T) {
	g := New(authz.NewRouteTable(authz.DefaultRoutes()))
	session := &shiftingSession{changed: make(chan struct{})}

	var (
		mu        sync.Mutex
		decisions []Decision
		inFlight  atomic.Int32
		overlaps  atomic.Int32
	)
	stop := g.Watch(context.Background(), session, "/pages/billing", func(d Decision) {
		if inFlight.Add(1) > 1 {
			overlaps.Add(1)
		}
		defer inFlight.Add(-1)
		time.Sleep(time.Millisecond)
		mu.Lock()
		decisions = append(decisions, d)
		mu.Unlock()
	})
	defer stop()
	<-session.changed

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, decisions)
	assert.True(t, decisions[len(decisions)-1].Allowed, "latest signed-in state must win")
	assert.Zero(t, overlaps.Load())
}

func TestGuard_Middleware(t *testing.T) {
	g := New(authz.NewRouteTable(authz.DefaultRoutes()))
	var current SessionSource
	handlerRan := false
	h := g.Middleware(func(*http.Request) SessionSource { return current })(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			handlerRan = true
			w.WriteHeader(http.StatusOK)
		}),
	)

	t.Run("anonymous request is redirected before the handler", func(t *testing.T) {
		handlerRan = false
		current = nil
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/pages/dashboard", nil))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, authz.PublicLanding, rr.Header().Get("Location"))
		assert.False(t, handlerRan)
	})

	t.Run("wrong role is redirected to the default landing", func(t *testing.T) {
		handlerRan = false
		current = &stubSession{snap: signedIn(domain.RolePatient)}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/pages/admin", nil))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, authz.DefaultLanding, rr.Header().Get("Location"))
		assert.False(t, handlerRan)
	})

	t.Run("allowed role reaches the handler", func(t *testing.T) {
		handlerRan = false
		current = &stubSession{snap: signedIn(domain.RoleAdmin)}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/pages/admin", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, handlerRan)
	})
}
