package httptransport

import (
	"net/http"

	"medgate/internal/guard"
	"medgate/internal/session/models"
	sessionservice "medgate/internal/session/service"
	"medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
	"medgate/pkg/platform/httputil"
	"medgate/pkg/requestcontext"
)

// SessionStore maps session ids carried by tokens to session managers.
type SessionStore interface {
	Create() (domain.SessionID, *sessionservice.Manager)
	Get(id domain.SessionID) (*sessionservice.Manager, error)
	Refresh(id domain.SessionID) error
	Delete(id domain.SessionID)
}

// currentSession returns the request's session manager, or nil for an
// anonymous request or a session that no longer exists.
func currentSession(sessions SessionStore, r *http.Request) *sessionservice.Manager {
	id := requestcontext.SessionID(r.Context())
	if id.IsNil() {
		return nil
	}
	m, err := sessions.Get(id)
	if err != nil {
		return nil
	}
	return m
}

// currentRole is "" for anonymous requests.
func currentRole(sessions SessionStore, r *http.Request) domain.Role {
	if m := currentSession(sessions, r); m != nil {
		return m.Snapshot().Role()
	}
	return ""
}

// requireIdentity writes a 401 and returns false when the request has no
// authenticated identity.
func requireIdentity(w http.ResponseWriter, r *http.Request, sessions SessionStore) (*models.Identity, bool) {
	if m := currentSession(sessions, r); m != nil {
		if identity := m.Current(); identity != nil {
			return identity, true
		}
	}
	httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
	return nil, false
}

// GuardResolver adapts the session store for guard.Middleware. It returns an
// untyped nil for anonymous requests.
func GuardResolver(sessions SessionStore) guard.SessionResolver {
	return func(r *http.Request) guard.SessionSource {
		m := currentSession(sessions, r)
		if m == nil {
			return nil
		}
		return m
	}
}
