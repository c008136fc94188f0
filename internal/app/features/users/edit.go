// internal/app/features/users/edit.go
package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/store/audit"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/app/system/txn"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type toggleResponse struct {
	ID       primitive.ObjectID `json:"id"`
	IsActive bool               `json:"is_active"`
}

// HandleToggleTeacher flips a teacher's active flag and returns the new value.
// PATCH /api/admin/teachers/{id}/toggle-active
func (h *Handler) HandleToggleTeacher(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid teacher ID.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "toggle teacher")
	defer cancel()

	active, err := h.Users.ToggleActive(ctx, id, models.RoleTeacher)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogNotFound(w, r, "toggle: teacher not found", "Teacher not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "toggle teacher failed", err, "Unable to update teacher.")
		return
	}
	event := audit.EventUserDisabled
	if active {
		event = audit.EventUserEnabled
	}
	h.AuditLog.Admin(ctx, r, shared.UserID(r), event, &id, nil)
	respond.JSON(w, http.StatusOK, toggleResponse{ID: id, IsActive: active})
}

type assignTeacherInput struct {
	TeacherID string `json:"teacher_id" validate:"required,objectid" label:"Teacher"`
}

// HandleAssignTeacher assigns a student to a teacher.
// POST /api/admin/students/{id}/teacher
func (h *Handler) HandleAssignTeacher(w http.ResponseWriter, r *http.Request) {
	studentID, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid student ID.")
		return
	}
	var in assignTeacherInput
	if !shared.Bind(w, r, &in) {
		return
	}
	teacherID, _ := shared.ParseID(in.TeacherID)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "assign teacher")
	defer cancel()

	if _, err := h.Users.GetByIDAndRole(ctx, teacherID, models.RoleTeacher); errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, http.StatusBadRequest, "Teacher not found.")
		return
	} else if err != nil {
		h.ErrLog.LogServerError(w, r, "assign: load teacher failed", err, "")
		return
	}
	if err := h.Users.AssignTeacher(ctx, studentID, teacherID); errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogNotFound(w, r, "assign: student not found", "Student not found.")
		return
	} else if err != nil {
		h.ErrLog.LogServerError(w, r, "assign teacher failed", err, "")
		return
	}
	h.AuditLog.Admin(ctx, r, shared.UserID(r), audit.EventStudentAssigned, &studentID,
		map[string]string{"teacher_id": teacherID.Hex()})

	u, err := h.Users.GetByID(ctx, studentID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "assign: reload student failed", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

type linkChildInput struct {
	StudentID string `json:"student_id" validate:"required,objectid" label:"Student"`
}

// HandleLinkChild links a parent to a student.
// POST /api/admin/parents/{id}/children
func (h *Handler) HandleLinkChild(w http.ResponseWriter, r *http.Request) {
	parentID, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid parent ID.")
		return
	}
	var in linkChildInput
	if !shared.Bind(w, r, &in) {
		return
	}
	studentID, _ := shared.ParseID(in.StudentID)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "link child")
	defer cancel()

	if _, err := h.Users.GetByIDAndRole(ctx, studentID, models.RoleStudent); errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, http.StatusBadRequest, "Student not found.")
		return
	} else if err != nil {
		h.ErrLog.LogServerError(w, r, "link: load student failed", err, "")
		return
	}
	if err := h.Users.LinkChild(ctx, parentID, studentID); errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogNotFound(w, r, "link: parent not found", "Parent not found.")
		return
	} else if err != nil {
		h.ErrLog.LogServerError(w, r, "link child failed", err, "")
		return
	}
	h.AuditLog.Admin(ctx, r, shared.UserID(r), audit.EventParentLinked, &parentID,
		map[string]string{"student_id": studentID.Hex()})
	h.Dash.Invalidate(ctx, parentID)

	u, err := h.Users.GetByID(ctx, parentID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "link: reload parent failed", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// HandleDelete removes a user together with their subscriptions. A student
// also loses their assignments, goals, gamification record, module progress,
// study group memberships, group posts and video session seats.
// DELETE /api/admin/users/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid user ID.")
		return
	}
	actor := shared.UserID(r)
	if id == actor {
		respond.Error(w, http.StatusBadRequest, "You cannot delete your own account.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete user")
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogNotFound(w, r, "delete: user not found", "User not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete: load user failed", err, "")
		return
	}

	// Parents are read before the delete unlinks them.
	affected := []primitive.ObjectID{id}
	if u.Role == models.RoleStudent {
		parents, err := h.Users.ParentsOf(ctx, id)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "delete: load parents failed", err, "")
			return
		}
		for _, p := range parents {
			affected = append(affected, p.ID)
		}
	}

	err = txn.Run(ctx, h.Client, h.Log, func(ctx context.Context) error {
		if _, err := h.Subscriptions.DeleteForUser(ctx, id); err != nil {
			return err
		}
		if u.Role == models.RoleStudent {
			if _, err := h.Assignments.DeleteForStudent(ctx, id); err != nil {
				return err
			}
			if _, err := h.Goals.DeleteForStudent(ctx, id); err != nil {
				return err
			}
			if _, err := h.Gamification.Delete(ctx, id); err != nil {
				return err
			}
			if _, err := h.Progress.DeleteForUser(ctx, id); err != nil {
				return err
			}
			if _, err := h.VideoSessions.RemoveParticipant(ctx, id); err != nil {
				return err
			}
			if err := h.Posts.RemoveAuthor(ctx, id); err != nil {
				return err
			}
			emptied, err := h.StudyGroups.RemoveUser(ctx, id)
			if err != nil {
				return err
			}
			for _, gid := range emptied {
				if _, err := h.Posts.DeleteForGroup(ctx, gid); err != nil {
					return err
				}
			}
		}
		_, err := h.Users.Delete(ctx, id)
		return err
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete user failed", err, "Unable to delete user.")
		return
	}

	h.AuditLog.Admin(ctx, r, actor, audit.EventUserDeleted, &id, map[string]string{"role": u.Role, "email": u.Email})
	h.invalidateStats(ctx)
	h.Dash.Invalidate(ctx, affected...)
	respond.NoContent(w)
}
