// internal/app/features/assignments/teacher.go
package assignments

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/services/gamification"
	"github.com/Elqomdes/hedeflynet/internal/app/services/notifier"
	assignmentstore "github.com/Elqomdes/hedeflynet/internal/app/store/assignments"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type createInput struct {
	StudentIDs  []string `json:"student_ids" validate:"required,min=1,max=200,dive,objectid" label:"Students"`
	Title       string   `json:"title" validate:"required,max=200" label:"Title"`
	Description string   `json:"description" validate:"max=5000" label:"Description"`
	Subject     string   `json:"subject" validate:"required,max=60" label:"Subject"`
	DueDate     string   `json:"due_date" validate:"required" label:"Due date"`
	MaxScore    int      `json:"max_score" validate:"required,min=1,max=1000" label:"Max score"`
}

// HandleCreate sets one assignment per listed student.
// POST /api/teacher/assignments
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ids, err := shared.ParseIDs(in.StudentIDs)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid student ID.")
		return
	}
	due, err := shared.ParseTime(in.DueDate)
	if err != nil || due == nil {
		respond.Error(w, http.StatusBadRequest, "Due date must be RFC 3339 or YYYY-MM-DD.")
		return
	}
	teacherID := shared.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create assignments")
	defer cancel()

	ok, err := h.Users.TeacherOwnsAll(ctx, teacherID, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create assignments: ownership check failed", err, "")
		return
	}
	if !ok {
		h.ErrLog.LogForbidden(w, r, "create assignments: student not assigned to teacher", "You can only set work for your own students.")
		return
	}

	out, err := h.Assignments.CreateForStudents(ctx, models.Assignment{
		TeacherID:   teacherID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Subject:     in.Subject,
		DueDate:     *due,
		MaxScore:    in.MaxScore,
	}, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create assignments failed", err, "Unable to create assignments.")
		return
	}
	for _, sid := range ids {
		h.Dash.InvalidateForStudent(ctx, sid)
	}
	h.Log.Info("assignments created", zap.String("teacher_id", teacherID.Hex()), zap.Int("count", len(out)))
	respond.JSON(w, http.StatusCreated, map[string]any{"assignments": out})
}

func validStatus(s string) bool {
	switch s {
	case "", models.AssignmentPending, models.AssignmentSubmitted, models.AssignmentGraded:
		return true
	}
	return false
}

// ServeTeacherList pages the caller's assignments.
// GET /api/teacher/assignments?student_id=&status=&page=&limit=
func (h *Handler) ServeTeacherList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := strings.TrimSpace(q.Get("status"))
	if !validStatus(status) {
		respond.Error(w, http.StatusBadRequest, "Unknown assignment status.")
		return
	}
	sid, err := shared.OptionalID(q.Get("student_id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid student ID.")
		return
	}
	teacherID := shared.UserID(r)
	p := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list teacher assignments")
	defer cancel()

	items, total, err := h.Assignments.List(ctx, assignmentstore.Filter{TeacherID: &teacherID, StudentID: sid, Status: status}, p)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list assignments failed", err, "A database error occurred.")
		return
	}
	respond.JSON(w, http.StatusOK, paging.NewPage(items, p, total))
}

type editInput struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200" label:"Title"`
	Description *string `json:"description" validate:"omitempty,max=5000" label:"Description"`
	Subject     *string `json:"subject" validate:"omitempty,min=1,max=60" label:"Subject"`
	DueDate     *string `json:"due_date" label:"Due date"`
	MaxScore    *int    `json:"max_score" validate:"omitempty,min=1,max=1000" label:"Max score"`
}

// HandleUpdate edits an ungraded assignment.
// PATCH /api/teacher/assignments/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid assignment ID.")
		return
	}
	var in editInput
	if !shared.Bind(w, r, &in) {
		return
	}
	e := assignmentstore.Edit{Title: in.Title, Description: in.Description, Subject: in.Subject, MaxScore: in.MaxScore}
	if in.DueDate != nil {
		due, err := shared.ParseTime(*in.DueDate)
		if err != nil || due == nil {
			respond.Error(w, http.StatusBadRequest, "Due date must be RFC 3339 or YYYY-MM-DD.")
			return
		}
		e.DueDate = due
	}
	teacherID := shared.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update assignment")
	defer cancel()

	if h.ownAssignment(ctx, w, r, id, teacherID) == nil {
		return
	}
	a, err := h.Assignments.Update(ctx, id, teacherID, e)
	switch {
	case errors.Is(err, assignmentstore.ErrGraded):
		respond.Error(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, mongo.ErrNoDocuments):
		h.ErrLog.LogNotFound(w, r, "update: assignment vanished", "Assignment not found.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "update assignment failed", err, "Unable to update assignment.")
		return
	}
	respond.JSON(w, http.StatusOK, a)
}

// HandleDelete removes an assignment.
// DELETE /api/teacher/assignments/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid assignment ID.")
		return
	}
	teacherID := shared.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete assignment")
	defer cancel()

	a := h.ownAssignment(ctx, w, r, id, teacherID)
	if a == nil {
		return
	}
	if _, err := h.Assignments.Delete(ctx, id, teacherID); err != nil {
		h.ErrLog.LogServerError(w, r, "delete assignment failed", err, "Unable to delete assignment.")
		return
	}
	h.Dash.InvalidateForStudent(ctx, a.StudentID)
	respond.NoContent(w)
}

type gradeInput struct {
	Score    *int   `json:"score" validate:"required,min=0" label:"Score"`
	Feedback string `json:"feedback" validate:"max=5000" label:"Feedback"`
}

type gradeResponse struct {
	Assignment      *models.Assignment   `json:"assignment"`
	XP              *gamification.Result `json:"xp,omitempty"`
	ParentsNotified int                  `json:"parents_notified"`
}

// HandleGrade scores a submitted assignment, awards the student XP in
// proportion to the score and notifies linked parents. The grade stands even
// if the follow-up rewards fail; those failures are logged.
// POST /api/teacher/assignments/{id}/grade
func (h *Handler) HandleGrade(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid assignment ID.")
		return
	}
	var in gradeInput
	if !shared.Bind(w, r, &in) {
		return
	}
	teacherID := shared.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "grade assignment")
	defer cancel()

	if h.ownAssignment(ctx, w, r, id, teacherID) == nil {
		return
	}
	a, err := h.Assignments.Grade(ctx, id, teacherID, *in.Score, strings.TrimSpace(in.Feedback), h.now())
	switch {
	case errors.Is(err, assignmentstore.ErrScoreRange):
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, assignmentstore.ErrInvalidTransition):
		respond.Error(w, http.StatusConflict, "Only submitted assignments can be graded.")
		return
	case errors.Is(err, mongo.ErrNoDocuments):
		h.ErrLog.LogNotFound(w, r, "grade: assignment vanished", "Assignment not found.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "grade assignment failed", err, "Unable to grade assignment.")
		return
	}

	out := gradeResponse{Assignment: a}
	if res, err := h.Game.AddExperience(ctx, a.StudentID, gamification.GradeXP(*a.Score, a.MaxScore), "grade"); err != nil {
		h.Log.Error("grade: xp award failed", zap.String("assignment_id", id.Hex()), zap.Error(err))
	} else {
		out.XP = res
	}

	name := ""
	if s, err := h.Users.GetByID(ctx, a.StudentID); err == nil {
		name = s.FullName
	}
	parents, err := h.Notify.NotifyParents(ctx, notifier.Graded(name, *a))
	if err != nil {
		h.Log.Error("grade: parent notification failed", zap.String("assignment_id", id.Hex()), zap.Error(err))
	}
	out.ParentsNotified = len(parents)
	h.Dash.InvalidateForStudent(ctx, a.StudentID)

	respond.JSON(w, http.StatusOK, out)
}
