package notification

import (
	"time"

	"medgate/pkg/domain"
)

type Kind string

const (
	KindInfo  Kind = "info"
	KindAlert Kind = "alert"
)

// Notification is one entry of a user's feed. Entries are appended and
// marked read; they are never deleted.
type Notification struct {
	ID        domain.NotificationID `json:"id"`
	Message   string                `json:"message"`
	Read      bool                  `json:"read"`
	CreatedAt time.Time             `json:"created_at"`
	Kind      Kind                  `json:"kind"`
	AlertID   *domain.AlertID       `json:"alert_id,omitempty"`
}

func (n Notification) clone() Notification {
	if n.AlertID != nil {
		id := *n.AlertID
		n.AlertID = &id
	}
	return n
}
