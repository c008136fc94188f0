package videosessions

import (
	"errors"
	"net/http"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	videosessionstore "github.com/Elqomdes/hedeflynet/internal/app/store/videosessions"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ServeUpcoming lists live and future sessions the caller is invited to.
// GET /api/student/video-sessions
func (h *Handler) ServeUpcoming(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "upcoming video sessions")
	defer cancel()

	items, err := h.Sessions.Upcoming(ctx, shared.UserID(r), h.now())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list upcoming sessions failed", err, "A database error occurred.")
		return
	}
	if items == nil {
		items = []models.VideoSession{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"sessions": items})
}

// HandleJoin marks the caller as attending. Joining counts as a day of
// activity for the streak.
// POST /api/student/video-sessions/{id}/join
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid session ID.")
		return
	}
	uid := shared.UserID(r)
	now := h.now()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "join video session")
	defer cancel()

	v, err := h.Sessions.Join(ctx, id, uid, now)
	if h.attendanceError(w, r, err) {
		return
	}
	if _, err := h.Game.RecordActivity(ctx, uid, now); err != nil {
		h.Log.Warn("join: streak update failed", zap.String("user_id", uid.Hex()), zap.Error(err))
	}
	h.Dash.InvalidateForStudent(ctx, uid)
	respond.JSON(w, http.StatusOK, map[string]any{"session": v, "room_id": v.RoomID})
}

// POST /api/student/video-sessions/{id}/leave
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid session ID.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "leave video session")
	defer cancel()

	v, err := h.Sessions.Leave(ctx, id, shared.UserID(r), h.now())
	if h.attendanceError(w, r, err) {
		return
	}
	respond.JSON(w, http.StatusOK, v)
}

func (h *Handler) attendanceError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, mongo.ErrNoDocuments):
		h.ErrLog.LogNotFound(w, r, "video session not found", "Session not found.")
	case errors.Is(err, videosessionstore.ErrNotInvited):
		h.ErrLog.LogForbidden(w, r, "video session: caller not invited", err.Error())
	case errors.Is(err, videosessionstore.ErrSessionClosed), errors.Is(err, videosessionstore.ErrNotJoined):
		h.ErrLog.LogConflict(w, r, "video session attendance rejected", err, err.Error())
	default:
		h.ErrLog.LogServerError(w, r, "video session attendance failed", err, "Unable to update attendance.")
	}
	return true
}
