// Package modulepolicy decides who may edit the adaptive-learning catalog.
//
// Admins edit every module; teachers edit the modules they created.
package modulepolicy

import (
	"net/http"

	"github.com/Elqomdes/hedeflynet/internal/app/system/authz"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
)

// CanEdit reports whether the caller may change or delete m.
func CanEdit(r *http.Request, m *models.LearningModule) bool {
	if m == nil {
		return false
	}
	if authz.IsAdmin(r) {
		return true
	}
	role, _, uid, ok := authz.UserCtx(r)
	return ok && role == models.RoleTeacher && m.CreatedBy == uid
}
