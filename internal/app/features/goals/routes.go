// internal/app/features/goals/routes.go
package goals

import (
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// TeacherRoutes is mounted at /api/teacher/goals.
func TeacherRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleTeacher))
	r.Get("/", h.ServeTeacherList)
	r.Post("/", h.HandleCreate)
	r.Delete("/{id}", h.HandleDelete)
	return r
}

// StudentRoutes is mounted at /api/student/goals.
func StudentRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleStudent))
	r.Get("/", h.ServeStudentList)
	r.Patch("/{id}/progress", h.HandleProgress)
	return r
}
