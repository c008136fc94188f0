// internal/app/features/subscriptions/routes.go
package subscriptions

import (
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// AdminRoutes is mounted at /api/admin/subscriptions.
func AdminRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeGet)
	r.Patch("/{id}/status", h.HandleSetStatus)
	r.Delete("/{id}", h.HandleDelete)
	return r
}

// StudentRoutes is mounted at /api/student/subscription.
func StudentRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleStudent))
	r.Get("/", h.ServeCurrent)
	return r
}

// PlanRoutes is mounted at /api/plans. Public.
func PlanRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServePlans)
	return r
}
