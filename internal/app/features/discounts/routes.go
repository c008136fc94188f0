// internal/app/features/discounts/routes.go
package discounts

import (
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// AdminRoutes is mounted at /api/admin/discounts.
func AdminRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeGet)
	r.Patch("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	return r
}

// Routes is mounted at /api/discounts. Validation is public so the checkout
// form can preview a price before signing in.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/validate", h.HandleValidate)
	return r
}
