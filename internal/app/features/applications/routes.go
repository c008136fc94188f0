// internal/app/features/applications/routes.go
package applications

import (
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes is the public submit endpoint, mounted at /api/applications.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleSubmit)
	return r
}

// AdminRoutes is the review queue, mounted at /api/admin/applications.
func AdminRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeGet)
	r.Post("/{id}/approve", h.HandleApprove)
	r.Post("/{id}/reject", h.HandleReject)
	return r
}
