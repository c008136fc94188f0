// internal/app/features/reports/routes.go
package reports

import (
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// TeacherRoutes is mounted at /api/teacher/reports. Which students a
// teacher may see is checked in the handler.
func TeacherRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleTeacher, models.RoleAdmin))
	r.Get("/students/{id}/pdf", h.ServeStudentPDF)
	return r
}

// ParentRoutes is mounted at /api/parent/reports.
func ParentRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleParent))
	r.Get("/children/{id}/pdf", h.ServeChildPDF)
	return r
}
