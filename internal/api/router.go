package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/opsdeck-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// Route guards mirror the dashboard's access table: incidents require
// cybersec_eng, datasets require data_analyst, tickets require it_ops, the
// assistant admits any role holder, and user management plus settings are
// admin only. Admin passes every guard.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	r.Use(s.sessionMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints. Logout is deliberately unguarded so a stale
		// token still gets a clean 204.
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireRoles(auth.RequireAuthenticated()))
			r.Get("/auth/me", s.handleMe)
		})

		// Role-gated operational areas
		r.Group(func(r chi.Router) {
			r.Use(s.requireRoles(auth.RequireAny(auth.RoleCyberSecEng)))
			r.Get("/incidents", s.handleIncidents)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.requireRoles(auth.RequireAny(auth.RoleDataAnalyst)))
			r.Get("/datasets", s.handleDatasets)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.requireRoles(auth.RequireAny(auth.RoleITOps)))
			r.Get("/tickets", s.handleTickets)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.requireRoles(auth.RequireAny(auth.RoleCyberSecEng, auth.RoleDataAnalyst, auth.RoleITOps)))
			r.Get("/assistant", s.handleAssistant)
		})

		// Admin surfaces
		r.Group(func(r chi.Router) {
			r.Use(s.requireRoles(auth.RequireAny(auth.RoleAdmin)))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleCreateUser)

				r.Route("/{username}", func(r chi.Router) {
					r.Put("/roles", s.handleUpdateRoles)
					r.Put("/password", s.handleChangePassword)
					r.Delete("/", s.handleDeleteUser)
				})
			})

			r.Get("/audit", s.handleListAudit)

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", s.handleGetSettings)
				r.Route("/assistant/{provider}", func(r chi.Router) {
					r.Put("/key", s.handleSetProviderKey)
					r.Delete("/key", s.handleClearProviderKey)
				})
			})
		})
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
