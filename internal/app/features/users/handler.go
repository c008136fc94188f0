// internal/app/features/users/handler.go
package users

import (
	"context"
	"time"

	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/services/parentdash"
	applicationstore "github.com/Elqomdes/hedeflynet/internal/app/store/applications"
	assignmentstore "github.com/Elqomdes/hedeflynet/internal/app/store/assignments"
	gamificationstore "github.com/Elqomdes/hedeflynet/internal/app/store/gamification"
	goalstore "github.com/Elqomdes/hedeflynet/internal/app/store/goals"
	poststore "github.com/Elqomdes/hedeflynet/internal/app/store/posts"
	progressstore "github.com/Elqomdes/hedeflynet/internal/app/store/progress"
	studygroupstore "github.com/Elqomdes/hedeflynet/internal/app/store/studygroups"
	subscriptionstore "github.com/Elqomdes/hedeflynet/internal/app/store/subscriptions"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	videosessionstore "github.com/Elqomdes/hedeflynet/internal/app/store/videosessions"
	"github.com/Elqomdes/hedeflynet/internal/app/system/auditlog"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respcache"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves admin user management and platform stats.
type Handler struct {
	Client        *mongo.Client
	Users         *userstore.Store
	Subscriptions *subscriptionstore.Store
	Applications  *applicationstore.Store
	Assignments   *assignmentstore.Store
	Goals         *goalstore.Store
	Gamification  *gamificationstore.Store
	Progress      *progressstore.Store
	StudyGroups   *studygroupstore.Store
	Posts         *poststore.Store
	VideoSessions *videosessionstore.Store

	Dash     *parentdash.Service
	Cache    respcache.Cache
	CacheTTL time.Duration

	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, dash *parentdash.Service, cache respcache.Cache, cacheTTL time.Duration, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Client:        db.Client(),
		Users:         userstore.New(db),
		Subscriptions: subscriptionstore.New(db),
		Applications:  applicationstore.New(db),
		Assignments:   assignmentstore.New(db),
		Goals:         goalstore.New(db),
		Gamification:  gamificationstore.New(db),
		Progress:      progressstore.New(db),
		StudyGroups:   studygroupstore.New(db),
		Posts:         poststore.New(db),
		VideoSessions: videosessionstore.New(db),
		Dash:          dash,
		Cache:         cache,
		CacheTTL:      cacheTTL,
		AuditLog:      audit,
		ErrLog:        errLog,
		Log:           logger,
	}
}

func (h *Handler) invalidateStats(ctx context.Context) {
	shared.Invalidate(ctx, h.Cache, h.Log, shared.AdminStatsKey)
}
