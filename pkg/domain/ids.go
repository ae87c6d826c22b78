package domain

import (
	"github.com/google/uuid"

	dErrors "medgate/pkg/domain-errors"
)

// Typed identifiers keep identities, alerts, notifications and sessions from
// being passed where another kind of id is expected.
type (
	IdentityID     uuid.UUID
	AlertID        uuid.UUID
	NotificationID uuid.UUID
	SessionID      uuid.UUID
)

func NewIdentityID() IdentityID         { return IdentityID(uuid.New()) }
func NewAlertID() AlertID               { return AlertID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }
func NewSessionID() SessionID           { return SessionID(uuid.New()) }

func (i IdentityID) String() string     { return uuid.UUID(i).String() }
func (i AlertID) String() string        { return uuid.UUID(i).String() }
func (i NotificationID) String() string { return uuid.UUID(i).String() }
func (i SessionID) String() string      { return uuid.UUID(i).String() }

func (i IdentityID) IsNil() bool     { return uuid.UUID(i) == uuid.Nil }
func (i AlertID) IsNil() bool        { return uuid.UUID(i) == uuid.Nil }
func (i NotificationID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i SessionID) IsNil() bool      { return uuid.UUID(i) == uuid.Nil }

// MarshalText lets typed ids serialize as plain uuid strings in JSON.
func (i IdentityID) MarshalText() ([]byte, error)     { return uuid.UUID(i).MarshalText() }
func (i AlertID) MarshalText() ([]byte, error)        { return uuid.UUID(i).MarshalText() }
func (i NotificationID) MarshalText() ([]byte, error) { return uuid.UUID(i).MarshalText() }
func (i SessionID) MarshalText() ([]byte, error)      { return uuid.UUID(i).MarshalText() }

func (i *IdentityID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i *AlertID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i *NotificationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i *SessionID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(i).UnmarshalText(b) }

func ParseIdentityID(s string) (IdentityID, error) {
	u, err := parseUUID(s, "identity")
	return IdentityID(u), err
}

func ParseAlertID(s string) (AlertID, error) {
	u, err := parseUUID(s, "alert")
	return AlertID(u), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s, "notification")
	return NotificationID(u), err
}

func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session")
	return SessionID(u), err
}

// parseUUID rejects empty, malformed and nil UUIDs with CodeInvalidInput.
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be nil")
	}
	return u, nil
}
