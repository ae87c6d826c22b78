// Package httptransport is the thin JSON adapter over the medgate core. It
// holds no business rules: handlers translate requests into service calls and
// domain errors into status codes.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "medgate/pkg/platform/middleware/auth"
	"medgate/pkg/platform/middleware/metadata"
	"medgate/pkg/platform/middleware/request"
	"medgate/pkg/platform/middleware/requesttime"
)

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter installs the shared middleware chain and every registrar.
// metricsHandler may be nil.
func NewRouter(logger *slog.Logger, validator authmw.TokenValidator, metricsHandler http.Handler, registrars ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(logger))
	r.Use(authmw.Authenticate(validator, logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}
	for _, reg := range registrars {
		reg.Register(r)
	}
	return r
}
