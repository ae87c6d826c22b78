package httptransport

//go:generate mockgen -source=handlers_alerts.go -destination=mocks/alert-mocks.go -package=mocks AlertService

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	alertModels "medgate/internal/alert/models"
	"medgate/internal/session/models"
	"medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
	"medgate/pkg/platform/httputil"
	authmw "medgate/pkg/platform/middleware/auth"
	"medgate/pkg/requestcontext"
)

type AlertService interface {
	Trigger(ctx context.Context, req alertModels.TriggerRequest) (*alertModels.Alert, error)
	Cancel(ctx context.Context, id domain.AlertID) (*alertModels.Alert, error)
	Resolve(ctx context.Context, id domain.AlertID) (*alertModels.Alert, error)
	ActiveAlertFor(ctx context.Context, identityID domain.IdentityID) (*alertModels.Alert, error)
	History(ctx context.Context, identityID domain.IdentityID) ([]*alertModels.Alert, error)
	Get(ctx context.Context, id domain.AlertID) (*alertModels.Alert, error)
}

// responderRoles may resolve any alert and cancel alerts they do not own.
var responderRoles = []domain.Role{domain.RoleDoctor, domain.RoleAdmin}

type AlertHandler struct {
	sessions  SessionStore
	alerts    AlertService
	validator authmw.TokenValidator
	logger    *slog.Logger
}

func NewAlertHandler(sessions SessionStore, alerts AlertService, validator authmw.TokenValidator, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{sessions: sessions, alerts: alerts, validator: validator, logger: logger}
}

func (h *AlertHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireSession(h.validator, h.logger))
		r.Post("/emergency/alerts", h.handleTrigger)
		r.Get("/emergency/alerts", h.handleHistory)
		r.Get("/emergency/alerts/active", h.handleActive)
		r.Post("/emergency/alerts/{id}/cancel", h.handleCancel)
		r.Post("/emergency/alerts/{id}/resolve", h.handleResolve)
	})
}

type triggerRequest struct {
	Type        string                `json:"type"`
	Severity    string                `json:"severity"`
	Description string                `json:"description"`
	Location    *alertModels.Location `json:"location"`
}

type alertResponse struct {
	Alert *alertModels.Alert `json:"alert"`
}

func (h *AlertHandler) handleTrigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r, h.sessions)
	if !ok {
		return
	}

	var req triggerRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	alert, err := h.alerts.Trigger(ctx, alertModels.TriggerRequest{
		IdentityID:  identity.ID,
		Type:        req.Type,
		Severity:    alertModels.Severity(req.Severity),
		Description: req.Description,
		Location:    req.Location,
	})
	if err != nil {
		h.logError(ctx, "failed to trigger alert", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, alertResponse{Alert: alert})
}

func (h *AlertHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.sessions)
	if !ok {
		return
	}
	alerts, err := h.alerts.History(r.Context(), identity.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func (h *AlertHandler) handleActive(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.sessions)
	if !ok {
		return
	}
	alert, err := h.alerts.ActiveAlertFor(r.Context(), identity.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, alertResponse{Alert: alert})
}

func (h *AlertHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.terminate(w, r, false, h.alerts.Cancel)
}

func (h *AlertHandler) handleResolve(w http.ResponseWriter, r *http.Request) {
	h.terminate(w, r, true, h.alerts.Resolve)
}

// terminate checks ownership and delegates. Unknown alerts answer 204 since
// the engine treats them as a no-op.
func (h *AlertHandler) terminate(w http.ResponseWriter, r *http.Request, staffOnly bool,
	op func(context.Context, domain.AlertID) (*alertModels.Alert, error)) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r, h.sessions)
	if !ok {
		return
	}
	id, err := domain.ParseAlertID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	existing, err := h.alerts.Get(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		httputil.WriteError(w, err)
		return
	}
	if !canTerminate(identity, existing, staffOnly) {
		h.logger.WarnContext(ctx, "alert transition forbidden",
			"alert_id", id.String(),
			"identity_id", identity.ID.String(),
			"role", identity.Role.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "not allowed to modify this alert"))
		return
	}

	updated, err := op(ctx, id)
	if err != nil {
		h.logError(ctx, "failed to update alert", err)
		httputil.WriteError(w, err)
		return
	}
	if updated == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, alertResponse{Alert: updated})
}

func canTerminate(identity *models.Identity, alert *alertModels.Alert, staffOnly bool) bool {
	if slices.Contains(responderRoles, identity.Role) {
		return true
	}
	return !staffOnly && alert.SubjectIdentityID == identity.ID
}

func (h *AlertHandler) logError(ctx context.Context, msg string, err error) {
	level := slog.LevelError
	if dErrors.HasCode(err, dErrors.CodeConflict) || dErrors.HasCode(err, dErrors.CodeValidation) || dErrors.HasCode(err, dErrors.CodeBadRequest) {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
}
