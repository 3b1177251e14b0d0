package routes

import (
	"net/http"

	"github.com/mahmoodhamdi/lg-branchs/internal/api/handlers"
	"github.com/mahmoodhamdi/lg-branchs/internal/api/middleware"
	"github.com/mahmoodhamdi/lg-branchs/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	branchHandler   *handlers.BranchHandler
	geocodeHandler  *handlers.GeocodeHandler
	messagesHandler *handlers.MessagesHandler
	cacheHandler    *handlers.CacheHandler

	// assets is optional; nil when no asset origin is configured
	assets http.Handler

	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// Options holds the router dependencies
type Options struct {
	BranchHandler   *handlers.BranchHandler
	GeocodeHandler  *handlers.GeocodeHandler
	MessagesHandler *handlers.MessagesHandler
	CacheHandler    *handlers.CacheHandler
	Assets          http.Handler
	CacheMiddleware *middleware.CacheMiddleware
	AllowedOrigins  []string
	Metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(opts Options) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		branchHandler:   opts.BranchHandler,
		geocodeHandler:  opts.GeocodeHandler,
		messagesHandler: opts.MessagesHandler,
		cacheHandler:    opts.CacheHandler,
		assets:          opts.Assets,
		cacheMiddleware: opts.CacheMiddleware,
		allowedOrigins:  opts.AllowedOrigins,
		metrics:         opts.Metrics,
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

	// Branch endpoints
	r.mux.HandleFunc("GET /api/branches", r.branchHandler.ListBranches)
	r.mux.HandleFunc("POST /api/branches/nearest", r.branchHandler.NearestBranches)
	r.mux.HandleFunc("POST /api/branches/locate", r.branchHandler.LocateBranches)
	r.mux.HandleFunc("GET /api/governorates", r.branchHandler.ListGovernorates)

	r.mux.HandleFunc("GET /api/reverse-geocode", r.geocodeHandler.ReverseGeocode)
	r.mux.HandleFunc("GET /api/messages", r.messagesHandler.GetMessages)

	if r.cacheHandler != nil {
		r.mux.HandleFunc("DELETE /api/cache", r.cacheHandler.ClearCache)
	}

	if r.assets != nil {
		r.mux.Handle("/assets/", http.StripPrefix("/assets", r.assets))
	}

	// last wrapper runs first; CORS stays outermost so cached responses get its headers
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
