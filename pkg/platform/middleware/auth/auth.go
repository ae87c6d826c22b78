package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"medgate/pkg/domain"
	"medgate/pkg/requestcontext"
)

// CookieName carries the session token for browser clients.
const CookieName = "medgate_session"

// TokenValidator validates signed session tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims are the claims the middleware needs from a validated token.
type TokenClaims struct {
	SessionID string
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// TokenFromRequest reads the bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Authenticate attaches the session id of a valid token to the context and
// otherwise passes the request through untouched. Whether an anonymous
// request may proceed is the page guard's decision, not this middleware's.
func Authenticate(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			sessionID, err := sessionFromToken(validator, token)
			if err != nil {
				logger.WarnContext(ctx, "ignoring invalid session token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithSessionID(ctx, sessionID)))
		})
	}
}

// RequireSession rejects requests without a valid session token.
func RequireSession(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := TokenFromRequest(r)
			if token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing session token")
				return
			}
			sessionID, err := sessionFromToken(validator, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithSessionID(ctx, sessionID)))
		})
	}
}

func sessionFromToken(validator TokenValidator, token string) (domain.SessionID, error) {
	claims, err := validator.ValidateToken(token)
	if err != nil {
		return domain.SessionID{}, err
	}
	return domain.ParseSessionID(claims.SessionID)
}
