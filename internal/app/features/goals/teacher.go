// internal/app/features/goals/teacher.go
package goals

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	goalstore "github.com/Elqomdes/hedeflynet/internal/app/store/goals"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

type createInput struct {
	StudentID   string  `json:"student_id" validate:"required,objectid" label:"Student"`
	Title       string  `json:"title" validate:"required,max=200" label:"Title"`
	Description string  `json:"description" validate:"max=2000" label:"Description"`
	TargetValue float64 `json:"target_value" validate:"gt=0" label:"Target value"`
	Unit        string  `json:"unit" validate:"max=40" label:"Unit"`
	TargetDate  string  `json:"target_date" label:"Target date"`
}

// HandleCreate sets a goal for one of the caller's students.
// POST /api/teacher/goals
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if !shared.Bind(w, r, &in) {
		return
	}
	studentID, _ := shared.ParseID(in.StudentID)
	target, err := shared.ParseTime(in.TargetDate)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Target date must be RFC 3339 or YYYY-MM-DD.")
		return
	}
	teacherID := shared.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create goal")
	defer cancel()

	ok, err := h.Users.IsTeacherOf(ctx, teacherID, studentID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create goal: ownership check failed", err, "")
		return
	}
	if !ok {
		h.ErrLog.LogForbidden(w, r, "create goal: student not assigned to teacher", "You can only set goals for your own students.")
		return
	}

	g, err := h.Goals.Create(ctx, models.Goal{
		TeacherID:   teacherID,
		StudentID:   studentID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		TargetValue: in.TargetValue,
		Unit:        strings.TrimSpace(in.Unit),
		TargetDate:  target,
	})
	if errors.Is(err, goalstore.ErrBadTarget) {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create goal failed", err, "Unable to create goal.")
		return
	}
	h.Dash.InvalidateForStudent(ctx, studentID)
	respond.JSON(w, http.StatusCreated, g)
}

// ServeTeacherList lists the caller's goals, optionally for one student.
// GET /api/teacher/goals?student_id=&status=
func (h *Handler) ServeTeacherList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sid, err := shared.OptionalID(q.Get("student_id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid student ID.")
		return
	}
	status := strings.TrimSpace(q.Get("status"))
	if status != "" && status != models.GoalActive && status != models.GoalCompleted {
		respond.Error(w, http.StatusBadRequest, "Unknown goal status.")
		return
	}
	teacherID := shared.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list teacher goals")
	defer cancel()

	goals, err := h.Goals.List(ctx, goalstore.Filter{TeacherID: &teacherID, StudentID: sid, Status: status})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list goals failed", err, "A database error occurred.")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"goals": withProgress(goals)})
}

// HandleDelete removes one of the caller's goals.
// DELETE /api/teacher/goals/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid goal ID.")
		return
	}
	teacherID := shared.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete goal")
	defer cancel()

	g, err := h.Goals.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogNotFound(w, r, "delete: goal not found", "Goal not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete: load goal failed", err, "")
		return
	}
	if g.TeacherID != teacherID {
		h.ErrLog.LogForbidden(w, r, "delete goal: not the owner", "")
		return
	}
	if _, err := h.Goals.Delete(ctx, id, teacherID); err != nil {
		h.ErrLog.LogServerError(w, r, "delete goal failed", err, "Unable to delete goal.")
		return
	}
	h.Dash.InvalidateForStudent(ctx, g.StudentID)
	respond.NoContent(w)
}

type goalView struct {
	models.Goal
	Progress float64 `json:"progress"`
}

func withProgress(goals []models.Goal) []goalView {
	out := make([]goalView, 0, len(goals))
	for _, g := range goals {
		out = append(out, goalView{Goal: g, Progress: round1(g.Progress())})
	}
	return out
}
