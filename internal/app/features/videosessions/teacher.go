package videosessions

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/services/notifier"
	videosessionstore "github.com/Elqomdes/hedeflynet/internal/app/store/videosessions"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type createInput struct {
	StudentIDs      []string `json:"student_ids" validate:"required,min=1,max=50,dive,objectid" label:"Students"`
	Title           string   `json:"title" validate:"required,max=200" label:"Title"`
	Description     string   `json:"description" validate:"max=2000" label:"Description"`
	ScheduledAt     string   `json:"scheduled_at" validate:"required" label:"Scheduled time"`
	DurationMinutes int      `json:"duration_minutes" validate:"required,min=15,max=240" label:"Duration"`
}

// HandleCreate schedules a session for some of the caller's students and
// tells their parents.
// POST /api/teacher/video-sessions
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
	at, err := shared.ParseTime(in.ScheduledAt)
	if err != nil || at == nil {
		respond.Error(w, http.StatusBadRequest, "Scheduled time must be RFC 3339 or YYYY-MM-DD.")
		return
	}
	if at.Before(h.now()) {
		respond.Error(w, http.StatusBadRequest, "Sessions must be scheduled in the future.")
		return
	}
	teacherID := shared.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create video session")
	defer cancel()

	ok, err := h.Users.TeacherOwnsAll(ctx, teacherID, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "video session: ownership check failed", err, "")
		return
	}
	if !ok {
		h.ErrLog.LogForbidden(w, r, "video session: student not assigned to teacher", "You can only invite your own students.")
		return
	}

	v, err := h.Sessions.Create(ctx, models.VideoSession{
		TeacherID:       teacherID,
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		ScheduledAt:     *at,
		DurationMinutes: in.DurationMinutes,
	}, ids)
	if errors.Is(err, videosessionstore.ErrBadDuration) {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create video session failed", err, "Unable to schedule session.")
		return
	}
	h.Log.Info("video session scheduled",
		zap.String("session_id", v.ID.Hex()),
		zap.String("teacher_id", teacherID.Hex()),
		zap.Int("invited", len(v.Participants)))

	names, err := h.Users.GetMany(ctx, ids)
	if err != nil {
		h.Log.Warn("video session: load student names failed", zap.Error(err))
	}
	for _, p := range v.Participants {
		ev := notifier.SessionScheduled(p.UserID, names[p.UserID].FullName, v)
		if _, err := h.Notify.NotifyParents(ctx, ev); err != nil {
			h.Log.Error("video session: parent notification failed", zap.String("student_id", p.UserID.Hex()), zap.Error(err))
		}
	}
	h.refreshDashboards(ctx, &v)
	respond.JSON(w, http.StatusCreated, v)
}

func validStatus(s string) bool {
	switch s {
	case "", models.VideoScheduled, models.VideoLive, models.VideoCompleted, models.VideoCancelled:
		return true
	}
	return false
}

// GET /api/teacher/video-sessions?status=&page=&limit=
func (h *Handler) ServeTeacherList(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if !validStatus(status) {
		respond.Error(w, http.StatusBadRequest, "Unknown session status.")
		return
	}
	p := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list video sessions")
	defer cancel()

	items, total, err := h.Sessions.ListForTeacher(ctx, shared.UserID(r), status, p)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list video sessions failed", err, "A database error occurred.")
		return
	}
	respond.JSON(w, http.StatusOK, paging.NewPage(items, p, total))
}

// POST /api/teacher/video-sessions/{id}/start
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "start", func(ctx context.Context, id, teacherID primitive.ObjectID) (*models.VideoSession, error) {
		return h.Sessions.Start(ctx, id, teacherID, h.now())
	})
}

// POST /api/teacher/video-sessions/{id}/end
func (h *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "end", func(ctx context.Context, id, teacherID primitive.ObjectID) (*models.VideoSession, error) {
		return h.Sessions.End(ctx, id, teacherID, h.now())
	})
}

// POST /api/teacher/video-sessions/{id}/cancel
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel", func(ctx context.Context, id, teacherID primitive.ObjectID) (*models.VideoSession, error) {
		return h.Sessions.Cancel(ctx, id, teacherID)
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op string, apply func(ctx context.Context, id, teacherID primitive.ObjectID) (*models.VideoSession, error)) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid session ID.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, op+" video session")
	defer cancel()
	v, err := apply(ctx, id, shared.UserID(r))
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.ErrLog.LogNotFound(w, r, op+": session not found for teacher", "Session not found.")
		return
	case errors.Is(err, videosessionstore.ErrInvalidTransition):
		h.ErrLog.LogConflict(w, r, op+": invalid session transition", err, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, op+" video session failed", err, "Unable to update session.")
		return
	}
	h.Log.Info("video session "+op, zap.String("session_id", id.Hex()), zap.String("status", v.Status))
	if v.Status != models.VideoLive {
		h.refreshDashboards(ctx, v)
	}
	respond.JSON(w, http.StatusOK, v)
}
