// internal/app/features/goals/handler.go
package goals

import (
	"time"

	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	"github.com/Elqomdes/hedeflynet/internal/app/services/gamification"
	"github.com/Elqomdes/hedeflynet/internal/app/services/notifier"
	"github.com/Elqomdes/hedeflynet/internal/app/services/parentdash"
	goalstore "github.com/Elqomdes/hedeflynet/internal/app/store/goals"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Goals *goalstore.Store
	Users *userstore.Store

	Game   *gamification.Service
	Notify *notifier.Service
	Dash   *parentdash.Service

	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger

	now func() time.Time
}

func NewHandler(db *mongo.Database, game *gamification.Service, notify *notifier.Service, dash *parentdash.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Goals:  goalstore.New(db),
		Users:  userstore.New(db),
		Game:   game,
		Notify: notify,
		Dash:   dash,
		ErrLog: errLog,
		Log:    logger,
		now:    time.Now,
	}
}
