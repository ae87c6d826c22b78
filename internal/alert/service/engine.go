package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"medgate/internal/alert/models"
	"medgate/internal/platform/metrics"
	"medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
	"medgate/pkg/platform/audit"
	"medgate/pkg/platform/sentinel"
	tags "medgate/pkg/platform/strings"
	"medgate/pkg/requestcontext"
)

type Store interface {
	CreateIfNoneOpen(ctx context.Context, alert *models.Alert) error
	FindByID(ctx context.Context, id domain.AlertID) (*models.Alert, error)
	FindOpenByIdentity(ctx context.Context, identityID domain.IdentityID) (*models.Alert, error)
	ListByIdentity(ctx context.Context, identityID domain.IdentityID) ([]*models.Alert, error)
	Execute(ctx context.Context, id domain.AlertID, validate func(*models.Alert) error, mutate func(*models.Alert)) (*models.Alert, error)
	CountOpen(ctx context.Context) int
}

// Scheduler runs deferred transitions. Tasks are grouped by alert id so a
// terminal transition can drop all of them at once.
type Scheduler interface {
	Schedule(key string, delay time.Duration, fn func())
	Cancel(key string) int
	Stop()
	// Wait blocks until callbacks already running have returned.
	Wait()
}

// Locator is a one-shot position lookup. It is not retried.
type Locator interface {
	Locate(ctx context.Context) (models.Location, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Observer receives every committed status change in commit order, outside
// the engine and store locks. Deliveries are serialized, so an observer must
// not call back into the engine synchronously.
type Observer interface {
	OnAlertChange(ctx context.Context, change models.StatusChange)
}

type ObserverFunc func(ctx context.Context, change models.StatusChange)

func (f ObserverFunc) OnAlertChange(ctx context.Context, change models.StatusChange) {
	f(ctx, change)
}

// Config holds the lifecycle timing and the degraded-mode location.
type Config struct {
	// DispatchDelay and OnSceneDelay are both measured from trigger time.
	DispatchDelay time.Duration
	OnSceneDelay  time.Duration
	LocateTimeout time.Duration
	Fallback      models.Location
}

func (c Config) Validate() error {
	if c.DispatchDelay <= 0 {
		return errors.New("dispatch delay must be positive")
	}
	if c.OnSceneDelay <= c.DispatchDelay {
		return errors.New("on-scene delay must exceed dispatch delay")
	}
	return c.Fallback.Validate()
}

// Engine drives the emergency alert lifecycle.
type Engine struct {
	store     Store
	scheduler Scheduler
	cfg       Config

	locator        Locator
	observers      []Observer
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	tracer         trace.Tracer
	clock          func() time.Time

	// mu serializes every store commit together with the scheduling it
	// implies, so a task is never scheduled for an alert that was already
	// closed.
	mu sync.Mutex
	// deliverMu is taken before mu is released, which keeps observer
	// delivery in commit order.
	deliverMu sync.Mutex
}

type Option func(*Engine)

func WithLocator(l Locator) Option {
	return func(e *Engine) {
		e.locator = l
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, o)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(e *Engine) {
		e.auditPublisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithClock sets the time source for deferred transitions and for calls whose
// context carries no request time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.clock = now
		}
	}
}

func New(store Store, scheduler Scheduler, cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid alert engine config")
	}
	e := &Engine{store: store, scheduler: scheduler, cfg: cfg, clock: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer("medgate/alert")
	}
	return e, nil
}

// Trigger opens a new alert for the identity and schedules its automatic
// progression. At most one non-terminal alert per identity is allowed.
func (e *Engine) Trigger(ctx context.Context, req models.TriggerRequest) (*models.Alert, error) {
	ctx, span := e.tracer.Start(ctx, "alert.Trigger")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid trigger")
		return nil, err
	}
	span.SetAttributes(attribute.String("identity.id", req.IdentityID.String()))

	if open, err := e.store.FindOpenByIdentity(ctx, req.IdentityID); err == nil {
		return nil, e.rejectDuplicate(ctx, span, req.IdentityID, open.ID)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check open alerts")
	}

	location, fallback := e.resolveLocation(ctx, req)
	now := e.now(ctx)
	alert := &models.Alert{
		ID:                 domain.NewAlertID(),
		SubjectIdentityID:  req.IdentityID,
		Type:               req.Type,
		Severity:           req.Severity,
		Location:           location,
		LocationFallback:   fallback,
		Description:        req.Description,
		Status:             models.StatusActive,
		RespondersNotified: tags.DedupeAndTrim(models.InitialResponders()),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	e.mu.Lock()
	if err := e.store.CreateIfNoneOpen(ctx, alert); err != nil {
		e.mu.Unlock()
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, e.rejectDuplicate(ctx, span, req.IdentityID, domain.AlertID{})
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store alert")
	}
	id := alert.ID
	// On-scene is scheduled by the dispatch callback once dispatch commits.
	e.scheduler.Schedule(id.String(), e.cfg.DispatchDelay, func() {
		e.advance(id, models.StatusActive, models.StatusDispatched)
	})
	e.unlockAndPublish(ctx, models.StatusChange{Alert: alert.Clone()})

	span.SetAttributes(
		attribute.String("alert.id", id.String()),
		attribute.Bool("alert.location_fallback", fallback),
	)
	e.logAudit(ctx, audit.EventAlertTriggered, alert, "")
	e.recordTransition(ctx, models.StatusActive)

	return alert.Clone(), nil
}

func (e *Engine) rejectDuplicate(ctx context.Context, span trace.Span, identityID domain.IdentityID, openID domain.AlertID) error {
	span.SetStatus(codes.Error, "duplicate trigger")
	if e.logger != nil {
		e.logger.WarnContext(ctx, "rejected duplicate alert trigger",
			"identity_id", identityID.String(),
			"open_alert_id", openID.String(),
		)
	}
	e.emit(ctx, audit.Event{
		IdentityID: identityID,
		Subject:    openID.String(),
		Action:     string(audit.EventAlertRejected),
		Reason:     "open_alert_exists",
	})
	return dErrors.New(dErrors.CodeConflict, "an emergency alert is already in progress")
}

// resolveLocation prefers the caller's position, then the locator, then the
// configured fallback. It reports whether the fallback was used.
func (e *Engine) resolveLocation(ctx context.Context, req models.TriggerRequest) (models.Location, bool) {
	if req.Location != nil {
		return *req.Location, false
	}
	if e.locator != nil {
		locateCtx := ctx
		if e.cfg.LocateTimeout > 0 {
			var cancel context.CancelFunc
			locateCtx, cancel = context.WithTimeout(ctx, e.cfg.LocateTimeout)
			defer cancel()
		}
		loc, err := e.locator.Locate(locateCtx)
		if err == nil {
			if verr := loc.Validate(); verr == nil {
				return loc, false
			}
			err = errors.New("locator returned out of range position")
		}
		if e.logger != nil {
			e.logger.WarnContext(ctx, "location unavailable, using fallback",
				"identity_id", req.IdentityID.String(),
				"error", err,
			)
		}
	}
	if e.metrics != nil {
		e.metrics.IncrementLocationFallback()
	}
	return e.cfg.Fallback, true
}

var errStale = fmt.Errorf("stale transition: %w", sentinel.ErrInvalidState)

// advance is the deferred transition body. The predecessor check runs under
// the store lock; a mismatch means a cancel or resolve got there first.
// A committed dispatch schedules the on-scene step for the remaining delay.
func (e *Engine) advance(id domain.AlertID, from, to models.Status) {
	ctx := context.Background()
	e.mu.Lock()
	updated, err := e.store.Execute(ctx, id,
		func(a *models.Alert) error {
			if a.Status != from {
				return errStale
			}
			return nil
		},
		func(a *models.Alert) {
			a.Status = to
			a.UpdatedAt = e.clock()
			if to == models.StatusDispatched {
				a.RespondersNotified = tags.AppendUnique(a.RespondersNotified, models.ResponderAmbulanceUnit)
			}
		},
	)
	if err != nil {
		e.mu.Unlock()
		if errors.Is(err, errStale) {
			current := models.Status("")
			if updated != nil {
				current = updated.Status
			}
			if e.logger != nil {
				e.logger.WarnContext(ctx, "skipped stale alert transition",
					"alert_id", id.String(),
					"expected", from.String(),
					"status", current.String(),
					"target", to.String(),
				)
			}
			if e.metrics != nil {
				e.metrics.IncrementStaleTransition()
			}
			return
		}
		if e.logger != nil {
			e.logger.ErrorContext(ctx, "deferred alert transition failed", "alert_id", id.String(), "error", err)
		}
		return
	}

	if to == models.StatusDispatched {
		e.scheduler.Schedule(id.String(), e.cfg.OnSceneDelay-e.cfg.DispatchDelay, func() {
			e.advance(id, models.StatusDispatched, models.StatusOnScene)
		})
	}
	e.unlockAndPublish(ctx, models.StatusChange{Alert: updated.Clone(), From: from})

	event := audit.EventAlertDispatched
	if to == models.StatusOnScene {
		event = audit.EventAlertOnScene
	}
	e.logAudit(ctx, event, updated, "")
	e.recordTransition(ctx, to)
}

// Cancel moves a non-terminal alert to cancelled and drops its pending
// transitions. Unknown or already terminal alerts are returned unchanged.
func (e *Engine) Cancel(ctx context.Context, id domain.AlertID) (*models.Alert, error) {
	return e.terminate(ctx, id, models.StatusCancelled, audit.EventAlertCancelled)
}

// Resolve is the administrative completion path. Same no-op rules as Cancel.
func (e *Engine) Resolve(ctx context.Context, id domain.AlertID) (*models.Alert, error) {
	return e.terminate(ctx, id, models.StatusResolved, audit.EventAlertResolved)
}

func (e *Engine) terminate(ctx context.Context, id domain.AlertID, to models.Status, event audit.AuditEvent) (*models.Alert, error) {
	var from models.Status

	e.mu.Lock()
	updated, err := e.store.Execute(ctx, id,
		func(a *models.Alert) error {
			if !a.Status.CanTransitionTo(to) {
				return sentinel.ErrInvalidState
			}
			return nil
		},
		func(a *models.Alert) {
			from = a.Status
			a.Status = to
			a.UpdatedAt = e.now(ctx)
		},
	)
	if err != nil {
		e.mu.Unlock()
	} else {
		e.scheduler.Cancel(id.String())
		e.unlockAndPublish(ctx, models.StatusChange{Alert: updated.Clone(), From: from})
	}

	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		if e.logger != nil {
			e.logger.InfoContext(ctx, "ignoring transition for unknown alert", "alert_id", id.String(), "target", to.String())
		}
		return nil, nil
	case errors.Is(err, sentinel.ErrInvalidState):
		return updated, nil
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update alert")
	}

	e.logAudit(ctx, event, updated, string(from))
	e.recordTransition(ctx, to)
	return updated, nil
}

// ActiveAlertFor returns the identity's non-terminal alert, or nil.
func (e *Engine) ActiveAlertFor(ctx context.Context, identityID domain.IdentityID) (*models.Alert, error) {
	a, err := e.store.FindOpenByIdentity(ctx, identityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active alert")
	}
	return a, nil
}

// History returns every alert of the identity, most recent first.
func (e *Engine) History(ctx context.Context, identityID domain.IdentityID) ([]*models.Alert, error) {
	alerts, err := e.store.ListByIdentity(ctx, identityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list alerts")
	}
	return alerts, nil
}

func (e *Engine) Get(ctx context.Context, id domain.AlertID) (*models.Alert, error) {
	a, err := e.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "alert not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load alert")
	}
	return a, nil
}

// Close drops every pending transition and waits for transitions already
// running. Open alerts keep their last status.
func (e *Engine) Close() {
	e.mu.Lock()
	e.scheduler.Stop()
	e.mu.Unlock()
	e.scheduler.Wait()
}

// unlockAndPublish must be called with e.mu held. It releases e.mu only after
// taking deliverMu, so a later commit cannot be delivered first.
func (e *Engine) unlockAndPublish(ctx context.Context, change models.StatusChange) {
	e.deliverMu.Lock()
	e.mu.Unlock()
	defer e.deliverMu.Unlock()
	for _, o := range e.observers {
		o.OnAlertChange(ctx, models.StatusChange{Alert: change.Alert.Clone(), From: change.From})
	}
}

// now prefers the request-scoped time and falls back to the engine clock.
func (e *Engine) now(ctx context.Context) time.Time {
	if t, ok := requestcontext.TimeFrom(ctx); ok {
		return t
	}
	return e.clock()
}

func (e *Engine) recordTransition(ctx context.Context, to models.Status) {
	if e.metrics == nil {
		return
	}
	e.metrics.IncrementAlertTransition(to.String())
	e.metrics.SetActiveAlerts(e.store.CountOpen(ctx))
}

func (e *Engine) logAudit(ctx context.Context, event audit.AuditEvent, a *models.Alert, from string) {
	if e.logger != nil {
		args := []any{
			"event", string(event),
			"log_type", "audit",
			"alert_id", a.ID.String(),
			"identity_id", a.SubjectIdentityID.String(),
			"status", a.Status.String(),
		}
		if from != "" {
			args = append(args, "from", from)
		}
		if requestID := requestcontext.RequestID(ctx); requestID != "" {
			args = append(args, "request_id", requestID)
		}
		e.logger.InfoContext(ctx, string(event), args...)
	}
	e.emit(ctx, audit.Event{
		IdentityID: a.SubjectIdentityID,
		Subject:    a.ID.String(),
		Action:     string(event),
		Reason:     from,
	})
}

func (e *Engine) emit(ctx context.Context, event audit.Event) {
	if e.auditPublisher == nil {
		return
	}
	if err := e.auditPublisher.Emit(ctx, event); err != nil && e.logger != nil {
		e.logger.ErrorContext(ctx, "failed to emit audit event", "event", event.Action, "error", err)
	}
}
