package models

import (
	"slices"
	"time"

	"medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
)

// Status is the lifecycle position of an emergency alert.
type Status string

const (
	StatusActive     Status = "active"
	StatusDispatched Status = "dispatched"
	StatusOnScene    Status = "on-scene"
	StatusResolved   Status = "resolved"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusCancelled
}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusDispatched, StatusOnScene, StatusResolved, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// CanTransitionTo encodes the state machine:
// active -> dispatched -> on-scene -> resolved, any non-terminal -> cancelled,
// and any non-terminal -> resolved as the administrative completion path.
func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	switch next {
	case StatusDispatched:
		return s == StatusActive
	case StatusOnScene:
		return s == StatusDispatched
	case StatusResolved, StatusCancelled:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityModerate, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Location is where the incident was reported from.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// Validate rejects coordinates outside the WGS84 range.
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 || l.Longitude < -180 || l.Longitude > 180 {
		return dErrors.New(dErrors.CodeValidation, "location coordinates out of range")
	}
	return nil
}

// Responder tags.
const (
	ResponderEmergencyServices = "emergency-services"
	ResponderHospitalER        = "hospital-er"
	ResponderEmergencyContacts = "emergency-contacts"
	ResponderAmbulanceUnit     = "ambulance-unit"
)

// InitialResponders are notified on every trigger.
func InitialResponders() []string {
	return []string{ResponderEmergencyServices, ResponderHospitalER, ResponderEmergencyContacts}
}

// Alert is one emergency incident. Alerts are never removed; they end in a
// terminal status.
type Alert struct {
	ID                 domain.AlertID    `json:"id"`
	SubjectIdentityID  domain.IdentityID `json:"subject_identity_id"`
	Type               string            `json:"type"`
	Severity           Severity          `json:"severity"`
	Location           Location          `json:"location"`
	LocationFallback   bool              `json:"location_fallback"`
	Description        string            `json:"description,omitempty"`
	Status             Status            `json:"status"`
	RespondersNotified []string          `json:"responders_notified"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// Clone returns a deep copy safe to hand out of a store.
func (a *Alert) Clone() *Alert {
	if a == nil {
		return nil
	}
	out := *a
	out.RespondersNotified = slices.Clone(a.RespondersNotified)
	return &out
}

// TriggerRequest starts a new alert. A nil Location asks the engine to resolve
// one through its locator.
type TriggerRequest struct {
	IdentityID  domain.IdentityID
	Type        string
	Severity    Severity
	Description string
	Location    *Location
}

const (
	DefaultType     = "medical"
	DefaultSeverity = SeverityHigh
)

// Normalize fills defaults for omitted type and severity.
func (r *TriggerRequest) Normalize() {
	if r.Type == "" {
		r.Type = DefaultType
	}
	if r.Severity == "" {
		r.Severity = DefaultSeverity
	}
}

func (r *TriggerRequest) Validate() error {
	if r.IdentityID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "identity is required")
	}
	if !r.Severity.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid severity")
	}
	if r.Location != nil {
		if err := r.Location.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// StatusChange is published to observers after every committed transition.
// From is empty for a newly triggered alert.
type StatusChange struct {
	Alert *Alert
	From  Status
}
