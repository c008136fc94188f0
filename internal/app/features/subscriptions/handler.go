// internal/app/features/subscriptions/handler.go
package subscriptions

import (
	"time"

	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	"github.com/Elqomdes/hedeflynet/internal/app/services/billing"
	subscriptionstore "github.com/Elqomdes/hedeflynet/internal/app/store/subscriptions"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"github.com/Elqomdes/hedeflynet/internal/app/system/auditlog"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respcache"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Subscriptions *subscriptionstore.Store
	Users         *userstore.Store
	Billing       *billing.Service
	Cache         respcache.Cache

	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger

	now func() time.Time
}

func NewHandler(db *mongo.Database, svc *billing.Service, cache respcache.Cache, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Subscriptions: subscriptionstore.New(db),
		Users:         userstore.New(db),
		Billing:       svc,
		Cache:         cache,
		AuditLog:      audit,
		ErrLog:        errLog,
		Log:           logger,
		now:           time.Now,
	}
}
