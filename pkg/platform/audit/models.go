package audit

import (
	"context"
	"time"

	"medgate/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategorySecurity covers authentication and access events.
	CategorySecurity EventCategory = "security"
	// CategoryClinical covers emergency-incident lifecycle events that must be
	// reconstructable after the fact.
	CategoryClinical EventCategory = "clinical"
	// CategoryOperations covers routine activity that can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category   EventCategory
	Timestamp  time.Time
	IdentityID domain.IdentityID
	Subject    string
	Action     string
	Reason     string
	RequestID  string
	// ActorID tracks who performed the action when different from IdentityID,
	// e.g. an admin resolving another identity's alert.
	ActorID string
}

type AuditEvent string

const (
	EventLoginSucceeded AuditEvent = "login_succeeded"
	EventLoginFailed    AuditEvent = "login_failed"
	EventLogout         AuditEvent = "logout"
	EventAccessDenied   AuditEvent = "access_denied"

	EventAlertTriggered  AuditEvent = "alert_triggered"
	EventAlertDispatched AuditEvent = "alert_dispatched"
	EventAlertOnScene    AuditEvent = "alert_on_scene"
	EventAlertResolved   AuditEvent = "alert_resolved"
	EventAlertCancelled  AuditEvent = "alert_cancelled"
	EventAlertRejected   AuditEvent = "alert_rejected"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventLoginSucceeded: CategorySecurity,
	EventLoginFailed:    CategorySecurity,
	EventLogout:         CategorySecurity,
	EventAccessDenied:   CategorySecurity,

	EventAlertTriggered:  CategoryClinical,
	EventAlertDispatched: CategoryClinical,
	EventAlertOnScene:    CategoryClinical,
	EventAlertResolved:   CategoryClinical,
	EventAlertCancelled:  CategoryClinical,
	EventAlertRejected:   CategoryClinical,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByIdentity(ctx context.Context, identityID domain.IdentityID) ([]Event, error)
}
