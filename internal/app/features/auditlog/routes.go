// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit trail under /api/admin/audit-events. Admins only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))
	r.Get("/", h.ServeList)
	return r
}
