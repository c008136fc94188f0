package gamification

import (
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /api/student. It owns /gamification and /leaderboard.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleStudent))
	r.Get("/gamification", h.ServeProfile)
	r.Get("/leaderboard", h.ServeLeaderboard)
	return r
}
