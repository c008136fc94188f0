// internal/app/features/login/routes.go
package login

import (
	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /api/auth.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.HandleLogin)
	r.Post("/token", h.HandleToken)
	r.With(sm.RequireSignedIn).Get("/me", h.ServeMe)
	return r
}
