package guard

import (
	"net/http"
)

// SessionResolver finds the session for a request. A nil source means an
// anonymous visitor.
type SessionResolver func(r *http.Request) SessionSource

// Middleware redirects with 303 See Other before next runs when the guard
// denies the request. The route path is taken from r.URL.Path.
func (g *Guard) Middleware(resolve SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := resolve(r)
			if session == nil {
				session = anonymous{}
			}
			d := g.Check(r.Context(), session, r.URL.Path)
			if !d.Allowed {
				http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
