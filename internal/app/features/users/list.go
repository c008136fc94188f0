// internal/app/features/users/list.go
package users

import (
	"net/http"
	"strings"

	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
)

// listRole returns a handler that pages users of one role.
// GET /api/admin/teachers | /students | /parents ?page=&limit=&q=
func (h *Handler) listRole(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := paging.Parse(r)
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list "+role+"s")
		defer cancel()

		f := userstore.ListFilter{Role: role, Query: strings.TrimSpace(r.URL.Query().Get("q"))}
		items, total, err := h.Users.List(ctx, f, p)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "list users failed", err, "A database error occurred.")
			return
		}
		respond.JSON(w, http.StatusOK, paging.NewPage(items, p, total))
	}
}

func (h *Handler) ServeTeachers(w http.ResponseWriter, r *http.Request) {
	h.listRole(models.RoleTeacher)(w, r)
}

func (h *Handler) ServeStudents(w http.ResponseWriter, r *http.Request) {
	h.listRole(models.RoleStudent)(w, r)
}

func (h *Handler) ServeParents(w http.ResponseWriter, r *http.Request) {
	h.listRole(models.RoleParent)(w, r)
}
