package parent

import (
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /api/parent. Report downloads live in the reports
// feature under the same prefix.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleParent))
	r.Get("/dashboard", h.ServeDashboard)
	r.Get("/notifications", h.ServeNotifications)
	r.Post("/notifications/read-all", h.HandleReadAll)
	r.Post("/notifications/{id}/read", h.HandleRead)
	return r
}
