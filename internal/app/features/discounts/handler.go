// internal/app/features/discounts/handler.go
package discounts

import (
	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	"github.com/Elqomdes/hedeflynet/internal/app/services/billing"
	discountstore "github.com/Elqomdes/hedeflynet/internal/app/store/discounts"
	"github.com/Elqomdes/hedeflynet/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Discounts *discountstore.Store
	Billing   *billing.Service

	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, svc *billing.Service, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Discounts: discountstore.New(db),
		Billing:   svc,
		AuditLog:  audit,
		ErrLog:    errLog,
		Log:       logger,
	}
}
