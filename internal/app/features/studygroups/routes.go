package studygroups

import (
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /api/student/study-groups.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleStudent))
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Post("/{id}/join", h.HandleJoin)
	r.Post("/{id}/leave", h.HandleLeave)
	r.Post("/{id}/invite", h.HandleInvite)
	r.Get("/{id}/posts", h.ServePosts)
	r.Post("/{id}/posts", h.HandlePost)
	r.Post("/posts/{id}/like", h.HandleLike)
	r.Post("/posts/{id}/comments", h.HandleComment)
	return r
}
