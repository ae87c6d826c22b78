package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medgate/internal/authz"
	"medgate/internal/guard"
	"medgate/internal/notification"
	"medgate/pkg/platform/httputil"
	"medgate/pkg/requestcontext"
)

// PageHandler serves placeholder payloads for every declared page. The guard
// middleware runs first, so a redirected request never reaches these handlers.
type PageHandler struct {
	sessions SessionStore
	routes   *authz.RouteTable
	guard    *guard.Guard
	inboxes  *notification.Inboxes
}

func NewPageHandler(sessions SessionStore, routes *authz.RouteTable, g *guard.Guard, inboxes *notification.Inboxes) *PageHandler {
	return &PageHandler{sessions: sessions, routes: routes, guard: g, inboxes: inboxes}
}

func (h *PageHandler) Register(r chi.Router) {
	r.Get(authz.PublicLanding, h.handleLanding)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Middleware(GuardResolver(h.sessions)))
		r.Get("/pages/{page}", h.handlePage)
	})
}

type pageResponse struct {
	Title       string `json:"title"`
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	UnreadCount int    `json:"unread_count"`
}

func (h *PageHandler) handleLanding(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"title": "MedGate",
		"login": "/auth/login",
	})
}

func (h *PageHandler) handlePage(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.sessions)
	if !ok {
		return
	}
	route, _ := h.routes.Lookup(r.URL.Path)
	feed := h.inboxes.For(identity.ID)
	if route.Path == authz.DefaultLanding {
		feed.SeedIfEmpty(notification.DefaultSeed(requestcontext.Now(r.Context())))
	}
	httputil.WriteJSON(w, http.StatusOK, pageResponse{
		Title:       route.Title,
		Path:        route.Path,
		DisplayName: identity.DisplayName(),
		Role:        identity.Role.String(),
		UnreadCount: feed.UnreadCount(),
	})
}
