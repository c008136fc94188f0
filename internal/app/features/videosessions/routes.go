package videosessions

import (
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// TeacherRoutes is mounted at /api/teacher/video-sessions.
func TeacherRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleTeacher))
	r.Get("/", h.ServeTeacherList)
	r.Post("/", h.HandleCreate)
	r.Post("/{id}/start", h.HandleStart)
	r.Post("/{id}/end", h.HandleEnd)
	r.Post("/{id}/cancel", h.HandleCancel)
	return r
}

// StudentRoutes is mounted at /api/student/video-sessions.
func StudentRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleStudent))
	r.Get("/", h.ServeUpcoming)
	r.Post("/{id}/join", h.HandleJoin)
	r.Post("/{id}/leave", h.HandleLeave)
	return r
}
