package server

import (
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MahdiBaghbani/ocmgate/internal/api"
)

// apiAuthRequired gates everything under /api except the health probe.
func apiAuthRequired(path string) bool {
	if path == "/api/healthz" {
		return false
	}
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// setupRoutes builds the router: federation endpoints are public (and rate
// limited), the local API sits behind Basic auth.
func (s *Server) setupRoutes() chi.Router {
	r := chi.NewRouter()

	// Order matters: RequestID first so the request logger can pick it up,
	// access log wraps the response writer, Recoverer writes through the
	// wrapper so panics still produce a logged 500.
	r.Use(middleware.RequestID)
	r.Use(requestLoggerMiddleware(s.logger, s.proxies))
	r.Use(accessLogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(rateLimitMiddleware(s.deps.RateCounter, s.cfg.Federation.RateLimitPerMinute, s.proxies, s.logger))
	r.Use(api.NewAuthGate(api.AuthGateConfig{
		RequireAuth: apiAuthRequired,
		Auth:        s.deps.Auth,
		Users:       s.deps.Users,
		Log:         s.logger,
	}))

	// Discovery must live at the host root.
	r.Get("/.well-known/ocm", s.deps.WellKnown.ServeHTTP)
	r.Get("/ocm-provider", s.deps.WellKnown.ServeHTTP)

	r.Route("/ocm", func(r chi.Router) {
		r.Post("/shares", s.deps.Shares.CreateShare)
		r.Post("/notifications", s.deps.Notifications.ProcessNotification)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", api.HealthHandler)
		r.Route("/shares", func(r chi.Router) {
			r.Get("/", s.deps.LocalShares.HandleList)
			r.Get("/{shareId}", s.deps.LocalShares.HandleGet)
			r.Post("/{shareId}/accept", s.deps.LocalShares.HandleAccept)
			r.Post("/{shareId}/decline", s.deps.LocalShares.HandleDecline)
		})
	})

	return r
}
