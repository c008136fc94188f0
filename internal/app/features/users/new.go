// internal/app/features/users/new.go
package users

import (
	"errors"
	"net/http"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/store/audit"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"github.com/Elqomdes/hedeflynet/internal/app/system/normalize"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createUserInput struct {
	FullName  string   `json:"full_name" validate:"required,max=120" label:"Full name"`
	Email     string   `json:"email" validate:"required,email,max=254" label:"Email"`
	Password  string   `json:"password" validate:"required,min=8,max=128" label:"Password"`
	Role      string   `json:"role" validate:"required,role" label:"Role"`
	Phone     string   `json:"phone" validate:"omitempty,max=32" label:"Phone"`
	Subjects  []string `json:"subjects" validate:"max=20,dive,max=60" label:"Subjects"`
	TeacherID string   `json:"teacher_id" validate:"omitempty,objectid" label:"Teacher"`
}

// HandleCreate creates a user of any role.
// POST /api/admin/users
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createUserInput
	if !shared.Bind(w, r, &in) {
		return
	}
	u := models.User{
		FullName: in.FullName,
		Email:    in.Email,
		Role:     in.Role,
		Phone:    in.Phone,
		IsActive: true,
	}
	if u.Role == models.RoleTeacher {
		u.Subjects = normalize.Subjects(in.Subjects)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create user")
	defer cancel()

	if in.TeacherID != "" {
		if u.Role != models.RoleStudent {
			respond.Error(w, http.StatusBadRequest, "Only students have a teacher.")
			return
		}
		tid, _ := primitive.ObjectIDFromHex(in.TeacherID)
		if _, err := h.Users.GetByIDAndRole(ctx, tid, models.RoleTeacher); err != nil {
			respond.Error(w, http.StatusBadRequest, "Teacher not found.")
			return
		}
		u.TeacherID = &tid
	}

	created, err := h.Users.Create(ctx, u, in.Password)
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		respond.Error(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, userstore.ErrWeakPassword), errors.Is(err, userstore.ErrBadRole):
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "create user failed", err, "Unable to create user.")
		return
	}

	h.AuditLog.Admin(ctx, r, shared.UserID(r), audit.EventUserCreated, &created.ID, map[string]string{"role": created.Role})
	h.invalidateStats(ctx)
	respond.JSON(w, http.StatusCreated, created)
}
