package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"medgate/internal/session/models"
	"medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
	"medgate/pkg/platform/httputil"
	authmw "medgate/pkg/platform/middleware/auth"
	"medgate/pkg/platform/middleware/metadata"
	"medgate/pkg/requestcontext"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	GenerateSessionToken(sessionID domain.SessionID, expiresIn time.Duration) (string, error)
}

type AuthHandler struct {
	sessions     SessionStore
	tokens       TokenIssuer
	tokenTTL     time.Duration
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthHandler(sessions SessionStore, tokens TokenIssuer, tokenTTL time.Duration, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions:     sessions,
		tokens:       tokens,
		tokenTTL:     tokenTTL,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)
	r.Get("/auth/me", h.handleMe)
}

type loginResponse struct {
	Token     string           `json:"token"`
	ExpiresIn int              `json:"expires_in"`
	Identity  *models.Identity `json:"identity"`
}

type sessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	Loading       bool             `json:"loading"`
	Identity      *models.Identity `json:"identity,omitempty"`
	DisplayName   string           `json:"display_name,omitempty"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var creds models.Credentials
	if err := httputil.DecodeJSON(r, &creds); err != nil {
		h.logger.WarnContext(ctx, "invalid login request", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	creds = creds.Normalize()
	if creds.Email != "" && (!govalidator.IsEmail(creds.Email) || !govalidator.StringLength(creds.Email, "3", "254")) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid email"))
		return
	}

	sessionID := requestcontext.SessionID(ctx)
	manager := currentSession(h.sessions, r)
	created := false
	if manager == nil {
		sessionID, manager = h.sessions.Create()
		created = true
	}

	identity, err := manager.Login(ctx, creds)
	if err != nil {
		if created {
			h.sessions.Delete(sessionID)
		}
		h.writeLoginError(w, err)
		return
	}

	token, err := h.tokens.GenerateSessionToken(sessionID, h.tokenTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue session token", "request_id", requestID, "error", err)
		manager.Logout(ctx)
		h.sessions.Delete(sessionID)
		httputil.WriteError(w, err)
		return
	}
	if err := h.sessions.Refresh(sessionID); err != nil {
		h.logger.ErrorContext(ctx, "failed to refresh session", "request_id", requestID, "error", err)
		manager.Logout(ctx)
		h.sessions.Delete(sessionID)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to start session"))
		return
	}

	h.logger.InfoContext(ctx, "session started",
		"identity_id", identity.ID.String(),
		"role", identity.Role.String(),
		"device", metadata.DeviceLabel(requestcontext.UserAgent(ctx)),
		"client_ip", requestcontext.ClientIP(ctx),
		"request_id", requestID,
	)
	http.SetCookie(w, &http.Cookie{
		Name:     authmw.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresIn: int(h.tokenTTL.Seconds()),
		Identity:  identity,
	})
}

func (h *AuthHandler) writeLoginError(w http.ResponseWriter, err error) {
	if ae, ok := models.AsAuthError(err); ok {
		switch ae.Kind {
		case models.InvalidCredentials:
			httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{
				"error":             string(ae.Kind),
				"error_description": "Invalid email or password",
			})
		default:
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error":             string(models.NetworkError),
				"error_description": "Identity service unavailable, try again",
			})
		}
		return
	}
	httputil.WriteError(w, err)
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if manager := currentSession(h.sessions, r); manager != nil {
		manager.Logout(ctx)
		h.sessions.Delete(requestcontext.SessionID(ctx))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authmw.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	manager := currentSession(h.sessions, r)
	if manager == nil {
		httputil.WriteJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	snap := manager.Snapshot()
	resp := sessionResponse{
		Authenticated: snap.IsAuthenticated(),
		Loading:       snap.Loading,
		Identity:      snap.Identity,
	}
	if snap.Identity != nil {
		resp.DisplayName = snap.Identity.DisplayName()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
