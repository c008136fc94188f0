// Package videosessions schedules coaching calls and tracks who attended.
// Media is handled by the client; the server only owns the room ID and the
// session lifecycle.
package videosessions

import (
	"context"
	"time"

	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	"github.com/Elqomdes/hedeflynet/internal/app/services/gamification"
	"github.com/Elqomdes/hedeflynet/internal/app/services/notifier"
	"github.com/Elqomdes/hedeflynet/internal/app/services/parentdash"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	videosessionstore "github.com/Elqomdes/hedeflynet/internal/app/store/videosessions"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Sessions *videosessionstore.Store
	Users    *userstore.Store

	Game   *gamification.Service
	Notify *notifier.Service
	Dash   *parentdash.Service

	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger

	now func() time.Time
}

func NewHandler(db *mongo.Database, game *gamification.Service, notify *notifier.Service, dash *parentdash.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Sessions: videosessionstore.New(db),
		Users:    userstore.New(db),
		Game:     game,
		Notify:   notify,
		Dash:     dash,
		ErrLog:   errLog,
		Log:      logger,
		now:      time.Now,
	}
}

// refreshDashboards drops cached parent dashboards for every invitee, since
// they show the upcoming session count.
func (h *Handler) refreshDashboards(ctx context.Context, v *models.VideoSession) {
	for _, p := range v.Participants {
		h.Dash.InvalidateForStudent(ctx, p.UserID)
	}
}
