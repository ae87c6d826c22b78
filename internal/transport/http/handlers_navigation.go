package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medgate/internal/authz"
	"medgate/internal/navigation"
	"medgate/pkg/platform/httputil"
)

type NavigationHandler struct {
	sessions SessionStore
	routes   *authz.RouteTable
}

func NewNavigationHandler(sessions SessionStore, routes *authz.RouteTable) *NavigationHandler {
	return &NavigationHandler{sessions: sessions, routes: routes}
}

func (h *NavigationHandler) Register(r chi.Router) {
	r.Get("/navigation", h.handleTree)
	r.Get("/navigation/routes", h.handleRoutes)
}

// handleTree returns the menu for the caller's role. Anonymous callers get an
// empty menu.
func (h *NavigationHandler) handleTree(w http.ResponseWriter, r *http.Request) {
	items := navigation.For(h.routes, currentRole(h.sessions, r))
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *NavigationHandler) handleRoutes(w http.ResponseWriter, r *http.Request) {
	routes := h.routes.Allowed(currentRole(h.sessions, r))
	if routes == nil {
		routes = []authz.Route{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"routes": routes})
}
