package notification

import (
	"context"
	"fmt"

	"medgate/internal/alert/models"
)

var alertMessages = map[models.Status]string{
	models.StatusActive:     "Emergency alert sent. Responders are being notified.",
	models.StatusDispatched: "An ambulance unit has been dispatched to %s.",
	models.StatusOnScene:    "Responders have arrived on scene.",
	models.StatusResolved:   "Your emergency alert has been resolved.",
	models.StatusCancelled:  "Your emergency alert was cancelled.",
}

// AlertObserver writes alert status changes into the subject's inbox.
type AlertObserver struct {
	inboxes *Inboxes
}

func NewAlertObserver(inboxes *Inboxes) *AlertObserver {
	return &AlertObserver{inboxes: inboxes}
}

func (o *AlertObserver) OnAlertChange(_ context.Context, change models.StatusChange) {
	a := change.Alert
	if a == nil {
		return
	}
	msg, ok := alertMessages[a.Status]
	if !ok {
		return
	}
	if a.Status == models.StatusDispatched {
		msg = fmt.Sprintf(msg, a.Location.Address)
	}
	id := a.ID
	o.inboxes.For(a.SubjectIdentityID).Add(Notification{
		Message:   msg,
		Kind:      KindAlert,
		AlertID:   &id,
		CreatedAt: a.UpdatedAt,
	})
}
