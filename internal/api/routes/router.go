package routes

import (
	"net/http"

	"github.com/zatekoja/clinicdesk/backend/internal/api/handlers"
	"github.com/zatekoja/clinicdesk/backend/internal/api/middleware"
	"github.com/zatekoja/clinicdesk/backend/internal/application/loaders"
	"github.com/zatekoja/clinicdesk/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux               *http.ServeMux
	resolutionHandler *handlers.ResolutionHandler
	resolver          loaders.Resolver
	allowedOrigins    []string
	metrics           *observability.Metrics
}

// NewRouter creates a new router. resolver backs the per-request dataloaders.
func NewRouter(
	resolutionHandler *handlers.ResolutionHandler,
	resolver loaders.Resolver,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		resolutionHandler: resolutionHandler,
		resolver:          resolver,
		allowedOrigins:    allowedOrigins,
		metrics:           metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	r.mux.HandleFunc("GET /api/resolve", r.resolutionHandler.Resolve)
	r.mux.HandleFunc("GET /api/records", r.resolutionHandler.Records)
	r.mux.HandleFunc("GET /api/appointments", r.resolutionHandler.Appointments)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoadersMiddleware(r.resolver)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so preflights never reach the handlers
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
