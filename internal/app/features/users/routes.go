// internal/app/features/users/routes.go
package users

import (
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /api/admin. Admins only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))

	r.Get("/teachers", h.ServeTeachers)
	r.Patch("/teachers/{id}/toggle-active", h.HandleToggleTeacher)
	r.Get("/students", h.ServeStudents)
	r.Post("/students/{id}/teacher", h.HandleAssignTeacher)
	r.Get("/parents", h.ServeParents)
	r.Post("/parents/{id}/children", h.HandleLinkChild)

	r.Post("/users", h.HandleCreate)
	r.Delete("/users/{id}", h.HandleDelete)

	r.Get("/stats", h.ServeStats)
	return r
}
