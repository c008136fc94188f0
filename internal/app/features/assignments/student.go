// internal/app/features/assignments/student.go
package assignments

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/services/gamification"
	assignmentstore "github.com/Elqomdes/hedeflynet/internal/app/store/assignments"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ServeStudentList pages the caller's assignments by due date.
// GET /api/student/assignments?status=&page=&limit=
func (h *Handler) ServeStudentList(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if !validStatus(status) {
		respond.Error(w, http.StatusBadRequest, "Unknown assignment status.")
		return
	}
	studentID := shared.UserID(r)
	p := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list student assignments")
	defer cancel()

	items, total, err := h.Assignments.List(ctx, assignmentstore.Filter{StudentID: &studentID, Status: status}, p)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list assignments failed", err, "A database error occurred.")
		return
	}
	respond.JSON(w, http.StatusOK, paging.NewPage(items, p, total))
}

type submitInput struct {
	Content string `json:"content" validate:"required,max=20000" label:"Content"`
}

type submitResponse struct {
	Assignment *models.Assignment         `json:"assignment"`
	Streak     *gamification.StreakResult `json:"streak,omitempty"`
	Awarded    []string                   `json:"awarded,omitempty"`
}

// HandleSubmit hands in a pending assignment and counts as daily activity.
// POST /api/student/assignments/{id}/submit
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid assignment ID.")
		return
	}
	var in submitInput
	if !shared.Bind(w, r, &in) {
		return
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		respond.Error(w, http.StatusBadRequest, "Content is required.")
		return
	}
	studentID := shared.UserID(r)
	now := h.now()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "submit assignment")
	defer cancel()

	a, err := h.Assignments.Submit(ctx, id, studentID, content, now)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.ErrLog.LogNotFound(w, r, "submit: assignment not found for student", "Assignment not found.")
		return
	case errors.Is(err, assignmentstore.ErrInvalidTransition):
		respond.Error(w, http.StatusConflict, "This assignment has already been submitted.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "submit assignment failed", err, "Unable to submit assignment.")
		return
	}

	out := submitResponse{Assignment: a}
	if streak, err := h.Game.RecordActivity(ctx, studentID, now); err != nil {
		h.Log.Warn("submit: streak update failed", zap.String("user_id", studentID.Hex()), zap.Error(err))
	} else {
		out.Streak = streak
	}
	if res, err := h.Game.Award(ctx, studentID, "first_submission"); err != nil {
		h.Log.Warn("submit: achievement award failed", zap.String("user_id", studentID.Hex()), zap.Error(err))
	} else {
		out.Awarded = res.Awarded
	}
	h.Dash.InvalidateForStudent(ctx, studentID)

	respond.JSON(w, http.StatusOK, out)
}
