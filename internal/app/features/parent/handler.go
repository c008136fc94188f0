// Package parent serves the parent dashboard and the notification inbox.
package parent

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/services/parentdash"
	notificationstore "github.com/Elqomdes/hedeflynet/internal/app/store/notifications"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Notes *notificationstore.Store
	Dash  *parentdash.Service

	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger

	now func() time.Time
}

func NewHandler(db *mongo.Database, dash *parentdash.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Notes:  notificationstore.New(db),
		Dash:   dash,
		ErrLog: errLog,
		Log:    logger,
		now:    time.Now,
	}
}

// ServeDashboard returns one progress summary per linked child.
// GET /api/parent/dashboard
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "parent dashboard")
	defer cancel()

	d, err := h.Dash.Dashboard(ctx, shared.UserID(r))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "build parent dashboard failed", err, "Unable to load dashboard.")
		return
	}
	respond.JSON(w, http.StatusOK, d)
}

// ServeNotifications pages the caller's notifications, newest first.
// GET /api/parent/notifications?unread=true&page=&limit=
func (h *Handler) ServeNotifications(w http.ResponseWriter, r *http.Request) {
	unread := false
	if s := r.URL.Query().Get("unread"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "unread must be true or false.")
			return
		}
		unread = v
	}
	p := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list notifications")
	defer cancel()

	items, total, err := h.Notes.List(ctx, shared.UserID(r), unread, p)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list notifications failed", err, "A database error occurred.")
		return
	}
	respond.JSON(w, http.StatusOK, paging.NewPage(items, p, total))
}

// POST /api/parent/notifications/{id}/read
func (h *Handler) HandleRead(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid notification ID.")
		return
	}
	parentID := shared.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "mark notification read")
	defer cancel()

	n, err := h.Notes.MarkRead(ctx, id, parentID, h.now())
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogNotFound(w, r, "notification not found for parent", "Notification not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "mark notification read failed", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, n)
}

// POST /api/parent/notifications/read-all
func (h *Handler) HandleReadAll(w http.ResponseWriter, r *http.Request) {
	parentID := shared.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "mark all notifications read")
	defer cancel()

	n, err := h.Notes.MarkAllRead(ctx, parentID, h.now())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "mark all notifications read failed", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"marked": n})
}
