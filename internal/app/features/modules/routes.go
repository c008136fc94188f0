package modules

import (
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// AuthorRoutes is mounted at /api/teacher/modules for teachers and admins.
func AuthorRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleTeacher, models.RoleAdmin))
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeGet)
	r.Patch("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	return r
}

// StudentRoutes is mounted at /api/student/modules.
func StudentRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleStudent))
	r.Get("/", h.ServeCatalog)
	r.Get("/recommendations", h.ServeRecommendations)
	r.Post("/{id}/start", h.HandleStart)
	r.Post("/{id}/complete", h.HandleComplete)
	return r
}
