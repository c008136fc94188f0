// internal/app/features/applications/handler.go
package applications

import (
	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	applicationstore "github.com/Elqomdes/hedeflynet/internal/app/store/applications"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"github.com/Elqomdes/hedeflynet/internal/app/system/auditlog"
	"github.com/Elqomdes/hedeflynet/internal/app/system/mailer"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respcache"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves teacher applications: the public submit endpoint and the
// admin review queue.
type Handler struct {
	Client       *mongo.Client
	Applications *applicationstore.Store
	Users        *userstore.Store

	Mail     mailer.Sender
	SiteName string
	LoginURL string
	Cache    respcache.Cache

	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger

	// tempPassword generates the password handed to an approved teacher.
	tempPassword func() string
}

func NewHandler(db *mongo.Database, mail mailer.Sender, siteName, loginURL string, cache respcache.Cache, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Client:       db.Client(),
		Applications: applicationstore.New(db),
		Users:        userstore.New(db),
		Mail:         mail,
		SiteName:     siteName,
		LoginURL:     loginURL,
		Cache:        cache,
		AuditLog:     audit,
		ErrLog:       errLog,
		Log:          logger,
		tempPassword: newTempPassword,
	}
}
