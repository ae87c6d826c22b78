package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"medgate/internal/platform/metrics"
	"medgate/internal/session/models"
	"medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
	"medgate/pkg/platform/audit"
	"medgate/pkg/requestcontext"
)

// CredentialVerifier resolves credentials into an identity. Failures should be
// *models.AuthError; anything else is reported to callers as a network error.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (*models.Identity, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// ErrLoginInProgress is returned when a login is attempted while another is
// still waiting on the verifier.
var ErrLoginInProgress = dErrors.New(dErrors.CodeConflict, "login already in progress")

const defaultLoginTimeout = 5 * time.Second

// Manager holds one session: the current identity and the loading flag.
type Manager struct {
	verifier       CredentialVerifier
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	tracer         trace.Tracer
	loginTimeout   time.Duration

	mu       sync.RWMutex
	identity *models.Identity
	loading  bool

	obsMu     sync.Mutex
	observers map[int]func(models.Snapshot)
	nextObs   int
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(m *Manager) {
		m.auditPublisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) {
		m.tracer = tracer
	}
}

// WithLoginTimeout bounds each verifier call. Non-positive values are ignored.
func WithLoginTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.loginTimeout = d
		}
	}
}

func NewManager(verifier CredentialVerifier, opts ...Option) *Manager {
	m := &Manager{
		verifier:     verifier,
		loginTimeout: defaultLoginTimeout,
		observers:    make(map[int]func(models.Snapshot)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tracer == nil {
		m.tracer = otel.Tracer("medgate/session")
	}
	return m
}

// Login verifies credentials and, on success, replaces the current identity.
// A failed login leaves the session exactly as it was.
func (m *Manager) Login(ctx context.Context, creds models.Credentials) (*models.Identity, error) {
	ctx, span := m.tracer.Start(ctx, "session.Login")
	defer span.End()

	creds = creds.Normalize()
	if creds.Email == "" || creds.Password == "" {
		err := models.NewAuthError(models.InvalidCredentials, errors.New("email and password are required"))
		m.recordLoginFailure(ctx, span, creds.Email, err)
		return nil, err
	}

	m.mu.Lock()
	if m.loading {
		m.mu.Unlock()
		span.SetStatus(codes.Error, "login in progress")
		return nil, ErrLoginInProgress
	}
	m.loading = true
	loadingSnap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(loadingSnap)

	identity, verr := m.verify(ctx, creds)

	m.mu.Lock()
	m.loading = false
	if verr == nil {
		identity.LastLoginAt = requestcontext.Now(ctx)
		m.identity = identity
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)

	if verr != nil {
		m.recordLoginFailure(ctx, span, creds.Email, verr)
		return nil, verr
	}

	span.SetAttributes(
		attribute.String("identity.id", identity.ID.String()),
		attribute.String("identity.role", identity.Role.String()),
	)
	m.logAudit(ctx, audit.EventLoginSucceeded, identity.ID, identity.Email, "")
	m.incrementLogin("success")

	out := *identity
	return &out, nil
}

// verify calls the verifier under the login timeout and normalizes its errors.
func (m *Manager) verify(ctx context.Context, creds models.Credentials) (*models.Identity, error) {
	verifyCtx, cancel := context.WithTimeout(ctx, m.loginTimeout)
	defer cancel()

	start := time.Now()
	identity, err := m.verifier.Verify(verifyCtx, creds.Email, creds.Password)
	m.observeLoginDuration(time.Since(start))

	if err != nil {
		if ae, ok := models.AsAuthError(err); ok {
			return nil, ae
		}
		return nil, models.NewAuthError(models.NetworkError, err)
	}
	if identity == nil || !identity.Role.IsValid() {
		return nil, models.NewAuthError(models.NetworkError, errors.New("verifier returned an unusable identity"))
	}
	out := *identity
	return &out, nil
}

// Logout clears the identity. Calling it on an empty session is a no-op.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	prev := m.identity
	m.identity = nil
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if prev == nil {
		return
	}
	m.notify(snap)
	m.logAudit(ctx, audit.EventLogout, prev.ID, prev.Email, "")
	if m.metrics != nil {
		m.metrics.IncrementLogout()
	}
}

// Current returns a copy of the identity, or nil when anonymous.
func (m *Manager) Current() *models.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return nil
	}
	out := *m.identity
	return &out
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity != nil
}

func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

func (m *Manager) Snapshot() models.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Subscribe registers fn for every committed change. The returned func removes it.
func (m *Manager) Subscribe(fn func(models.Snapshot)) func() {
	m.obsMu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	m.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.obsMu.Lock()
			delete(m.observers, id)
			m.obsMu.Unlock()
		})
	}
}

func (m *Manager) snapshotLocked() models.Snapshot {
	snap := models.Snapshot{Loading: m.loading}
	if m.identity != nil {
		id := *m.identity
		snap.Identity = &id
	}
	return snap
}

func (m *Manager) notify(snap models.Snapshot) {
	m.obsMu.Lock()
	fns := make([]func(models.Snapshot), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.obsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (m *Manager) recordLoginFailure(ctx context.Context, span trace.Span, email string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, "login failed")

	reason := string(models.NetworkError)
	if ae, ok := models.AsAuthError(err); ok {
		reason = string(ae.Kind)
	}
	if m.logger != nil {
		m.logger.WarnContext(ctx, "login failed",
			"email", email,
			"reason", reason,
			"error", err,
		)
	}
	m.logAudit(ctx, audit.EventLoginFailed, domain.IdentityID{}, email, reason)
	m.incrementLogin(reason)
}

func (m *Manager) logAudit(ctx context.Context, event audit.AuditEvent, identityID domain.IdentityID, subject, reason string) {
	if m.logger != nil {
		args := []any{"event", string(event), "log_type", "audit", "subject", subject}
		if !identityID.IsNil() {
			args = append(args, "identity_id", identityID.String())
		}
		if requestID := requestcontext.RequestID(ctx); requestID != "" {
			args = append(args, "request_id", requestID)
		}
		m.logger.InfoContext(ctx, string(event), args...)
	}
	if m.auditPublisher == nil {
		return
	}
	if err := m.auditPublisher.Emit(ctx, audit.Event{
		IdentityID: identityID,
		Subject:    subject,
		Action:     string(event),
		Reason:     reason,
	}); err != nil && m.logger != nil {
		m.logger.ErrorContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}

func (m *Manager) incrementLogin(outcome string) {
	if m.metrics != nil {
		m.metrics.IncrementLogin(outcome)
	}
}

func (m *Manager) observeLoginDuration(d time.Duration) {
	if m.metrics != nil {
		m.metrics.ObserveLoginDuration(float64(d.Milliseconds()))
	}
}
