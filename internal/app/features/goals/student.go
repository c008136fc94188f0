// internal/app/features/goals/student.go
package goals

import (
	"errors"
	"math"
	"net/http"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/services/gamification"
	"github.com/Elqomdes/hedeflynet/internal/app/services/notifier"
	goalstore "github.com/Elqomdes/hedeflynet/internal/app/store/goals"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func round1(x float64) float64 { return math.Round(x*10) / 10 }

// ServeStudentList lists the caller's goals.
// GET /api/student/goals
func (h *Handler) ServeStudentList(w http.ResponseWriter, r *http.Request) {
	studentID := shared.UserID(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list student goals")
	defer cancel()

	goals, err := h.Goals.List(ctx, goalstore.Filter{StudentID: &studentID})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list goals failed", err, "A database error occurred.")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"goals": withProgress(goals)})
}

type progressInput struct {
	CurrentValue *float64 `json:"current_value" validate:"required,min=0" label:"Current value"`
}

type progressResponse struct {
	Goal      goalView             `json:"goal"`
	Completed bool                 `json:"just_completed"`
	XP        *gamification.Result `json:"xp,omitempty"`
}

// HandleProgress records the caller's progress on a goal. Crossing the
// target completes the goal, awards XP once and notifies parents.
// PATCH /api/student/goals/{id}/progress
func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid goal ID.")
		return
	}
	var in progressInput
	if !shared.Bind(w, r, &in) {
		return
	}
	studentID := shared.UserID(r)
	now := h.now()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "goal progress")
	defer cancel()

	g, done, err := h.Goals.UpdateProgress(ctx, id, studentID, *in.CurrentValue, now)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogNotFound(w, r, "progress: goal not found for student", "Goal not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update goal progress failed", err, "Unable to update goal.")
		return
	}

	out := progressResponse{Goal: goalView{Goal: *g, Progress: round1(g.Progress())}, Completed: done}
	if _, err := h.Game.RecordActivity(ctx, studentID, now); err != nil {
		h.Log.Warn("progress: streak update failed", zap.String("user_id", studentID.Hex()), zap.Error(err))
	}
	if done {
		res, err := h.Game.AddExperience(ctx, studentID, gamification.GoalXP, "goal")
		if err != nil {
			h.Log.Error("progress: goal xp failed", zap.String("goal_id", id.Hex()), zap.Error(err))
		} else {
			out.XP = res
		}
		if _, err := h.Game.Award(ctx, studentID, "first_goal"); err != nil {
			h.Log.Warn("progress: achievement award failed", zap.String("user_id", studentID.Hex()), zap.Error(err))
		}
		name := ""
		if s, err := h.Users.GetByID(ctx, studentID); err == nil {
			name = s.FullName
		}
		if _, err := h.Notify.NotifyParents(ctx, notifier.GoalCompleted(name, *g)); err != nil {
			h.Log.Error("progress: parent notification failed", zap.String("goal_id", id.Hex()), zap.Error(err))
		}
	}
	h.Dash.InvalidateForStudent(ctx, studentID)
	respond.JSON(w, http.StatusOK, out)
}
