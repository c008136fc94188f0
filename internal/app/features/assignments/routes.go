// internal/app/features/assignments/routes.go
package assignments

import (
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// TeacherRoutes is mounted at /api/teacher/assignments.
func TeacherRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleTeacher))
	r.Get("/", h.ServeTeacherList)
	r.Post("/", h.HandleCreate)
	r.Patch("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Post("/{id}/grade", h.HandleGrade)
	return r
}

// StudentRoutes is mounted at /api/student/assignments.
func StudentRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleStudent))
	r.Get("/", h.ServeStudentList)
	r.Post("/{id}/submit", h.HandleSubmit)
	return r
}
