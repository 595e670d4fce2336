package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"cftrigger/internal/api/handlers"
	"cftrigger/internal/api/middleware"
	"cftrigger/internal/codefresh"
	"cftrigger/internal/config"
	"cftrigger/internal/engine"
	"cftrigger/internal/logger"
)

// Version is reported by the index route
const Version = "1.0.0"

// Dependencies are the services behind the routes.
// History and DB may be nil when the database is disabled.
// NewAuthenticator defaults to a Codefresh client built from the
// configured endpoint with the candidate token.
type Dependencies struct {
	Runner           handlers.Runner
	Codefresh        handlers.Codefresh
	NewAuthenticator handlers.AuthenticatorFactory
	History          handlers.History
	DB               handlers.Pinger
}

// Router represents the API router
type Router struct {
	mux            chi.Router
	allowedOrigins []string
}

// NewRouter creates a new Router instance
func NewRouter(cfg config.Config, deps Dependencies) *Router {
	r := &Router{allowedOrigins: cfg.Server.AllowedOrigins}

	codefreshHandler := handlers.NewCodefreshHandler(deps.Runner)
	newAuthenticator := deps.NewAuthenticator
	if newAuthenticator == nil {
		newAuthenticator = func(token string) engine.Authenticator {
			cf := cfg.Codefresh
			cf.Token = token
			return codefresh.NewClient(cf)
		}
	}
	servicesHandler := handlers.NewServicesHandler(deps.Codefresh, cfg.Codefresh.Username, newAuthenticator)
	invocationHandler := handlers.NewInvocationHandler(deps.History)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	authMiddleware := middleware.NewAuthMiddleware(cfg.API)

	mux := chi.NewRouter()
	mux.Use(chimiddleware.Recoverer)
	mux.Use(middleware.RequestIDMiddleware)
	mux.Use(middleware.LimitBodySize(cfg.Server.MaxBodySize))
	mux.Use(r.corsMiddleware)

	// Public routes
	mux.Get("/", index)
	mux.Get("/health", healthHandler.Health)

	// Protected routes
	mux.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(authMiddleware.Middleware)

		v1.Post("/trigger/codefresh", codefreshHandler.TriggerCodefreshBuild)
		v1.Get("/services", servicesHandler.ListServices)
		v1.Post("/connection/test", servicesHandler.TestConnection)

		v1.Route("/invocations", func(inv chi.Router) {
			inv.Get("/", invocationHandler.GetInvocations)
			inv.Get("/{id}", invocationHandler.GetInvocation)
		})
	})

	r.mux = mux
	return r
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"message": "cftrigger API",
		"version": Version,
		"endpoints": []string{
			"/health - Health check",
			"/api/v1/trigger/codefresh - Trigger a Codefresh build and wait for it",
			"/api/v1/services - List Codefresh services",
			"/api/v1/connection/test - Test the Codefresh credential",
			"/api/v1/invocations - Get invocation history",
		},
	}); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// corsMiddleware handles CORS headers and preflight requests
func (r *Router) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		origin := req.Header.Get("Origin")

		if len(r.allowedOrigins) == 0 {
			// Empty allowed origins means allow all
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			if !r.isValidOrigin(origin) {
				logger.Warn("Invalid origin format", "origin", origin, "request_id", middleware.GetRequestID(req))
			} else if r.isOriginAllowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			} else {
				logger.Warn("Origin not allowed", "origin", origin, "request_id", middleware.GetRequestID(req))
			}
		}
		// Same-origin requests carry no Origin header and pass through without CORS headers

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, req)
	})
}

// isValidOrigin validates the origin format (must be http:// or https://)
func (r *Router) isValidOrigin(origin string) bool {
	return strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://")
}

// isOriginAllowed checks if the given origin is in the allowed list
func (r *Router) isOriginAllowed(origin string) bool {
	for _, allowed := range r.allowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}
