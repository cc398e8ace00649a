package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashdown-labs/sentinel-core/internal/portal"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Setup/settings portal page (embedded via go:embed)
	r.Handle("/portal/*", http.StripPrefix("/portal", portal.Handler()))
	r.Handle("/portal", http.RedirectHandler("/portal/", http.StatusMovedPermanently))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/portal/", http.StatusMovedPermanently)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required; lockout applies inside)
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)
		r.Post("/auth/logout", s.handleLogout)

		// Token-in-body endpoints, validated per handler to match the form-post flow
		r.Post("/config/mode", s.handleSetMode)
		r.Post("/config/slots", s.handleSaveSlots)
		r.Post("/system/reset", s.handleReset)
		r.Post("/auth/ws-ticket", s.handleWSTicket)

		// Cookie/bearer-guarded reads
		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)
			r.Get("/config", s.handleGetConfig)
			r.Get("/status", s.handleStatus)
			r.Get("/audit", s.handleAudit)
		})

		// WebSocket (auth via single-use ticket, validated in handler)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
