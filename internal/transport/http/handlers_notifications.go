package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medgate/internal/notification"
	"medgate/pkg/domain"
	"medgate/pkg/platform/httputil"
	authmw "medgate/pkg/platform/middleware/auth"
	"medgate/pkg/requestcontext"
)

type NotificationHandler struct {
	sessions  SessionStore
	inboxes   *notification.Inboxes
	validator authmw.TokenValidator
	logger    *slog.Logger
}

func NewNotificationHandler(sessions SessionStore, inboxes *notification.Inboxes, validator authmw.TokenValidator, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{sessions: sessions, inboxes: inboxes, validator: validator, logger: logger}
}

func (h *NotificationHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireSession(h.validator, h.logger))
		r.Get("/notifications", h.handleList)
		r.Post("/notifications/read-all", h.handleMarkAllRead)
		r.Post("/notifications/{id}/read", h.handleMarkRead)
	})
}

type notificationsResponse struct {
	Notifications []notification.Notification `json:"notifications"`
	UnreadCount   int                         `json:"unread_count"`
}

func (h *NotificationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.sessions)
	if !ok {
		return
	}
	feed := h.inboxes.For(identity.ID)
	httputil.WriteJSON(w, http.StatusOK, notificationsResponse{
		Notifications: feed.List(),
		UnreadCount:   feed.UnreadCount(),
	})
}

// handleMarkRead answers 204 for unknown ids as well; marking is idempotent.
func (h *NotificationHandler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.sessions)
	if !ok {
		return
	}
	id, err := domain.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !h.inboxes.For(identity.ID).MarkRead(id) {
		h.logger.DebugContext(r.Context(), "mark read for unknown notification",
			"notification_id", id.String(),
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.sessions)
	if !ok {
		return
	}
	marked := h.inboxes.For(identity.ID).MarkAllRead()
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"marked": marked})
}
