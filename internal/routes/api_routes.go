package routes

import (
	"github.com/go-chi/chi/v5"

	"prosocial/zen-core/internal/api"
	"prosocial/zen-core/internal/middleware"
)

// RegisterAPIRoutes registers the setup-status surface and the admin
// rule management endpoints
func RegisterAPIRoutes(r chi.Router, deps *api.Dependencies, jwtSecret []byte) {

	// Studio-facing surface, consumed by the onboarding frontend
	r.Route("/api/studio/{slug}/setup-status", func(studio chi.Router) {
		studio.Use(middleware.RateLimitMiddleware)

		studio.Get("/", api.GetSetupStatusHandler(deps.Services.SetupStatus))
		studio.Get("/log", api.GetProgressLogHandler(deps.Services.SetupStatus))

		// Revalidation mutates persisted state and needs a session token
		studio.Group(func(authed chi.Router) {
			authed.Use(middleware.StudioAuthMiddleware(jwtSecret))
			authed.Post("/", api.RevalidateSetupStatusHandler(deps.Services.SetupStatus))
		})
	})

	// Admin rule management
	r.Route("/api/v1/admin/setup", func(admin chi.Router) {
		admin.Use(middleware.AdminKeyMiddleware(deps.Repo.Keys))

		admin.Get("/rules", api.ListRulesHandler(deps.Services.Rules))
		admin.Post("/rules", api.UpsertRuleHandler(deps.Services.Rules))
	})
}
