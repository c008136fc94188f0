// internal/app/features/modules/handler.go
package modules

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	"github.com/Elqomdes/hedeflynet/internal/app/policy/modulepolicy"
	"github.com/Elqomdes/hedeflynet/internal/app/services/adaptive"
	modulestore "github.com/Elqomdes/hedeflynet/internal/app/store/modules"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the learning-module catalog: authoring for teachers and
// admins, progress and recommendations for students.
type Handler struct {
	Modules  *modulestore.Store
	Adaptive *adaptive.Service

	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, svc *adaptive.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Modules:  modulestore.New(db),
		Adaptive: svc,
		ErrLog:   errLog,
		Log:      logger,
	}
}

// editable loads a module the caller may change: admins edit anything,
// teachers only what they wrote. It writes the error response and returns
// nil on failure.
func (h *Handler) editable(ctx context.Context, w http.ResponseWriter, r *http.Request, id primitive.ObjectID) *models.LearningModule {
	m, err := h.Modules.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogNotFound(w, r, "module not found", "Module not found.")
		return nil
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load module failed", err, "")
		return nil
	}
	if !modulepolicy.CanEdit(r, m) {
		h.ErrLog.LogForbidden(w, r, "module belongs to another author", "You can only change modules you created.")
		return nil
	}
	return m
}

// catalogError maps store validation failures to a 400.
func catalogError(err error) (string, bool) {
	switch {
	case errors.Is(err, modulestore.ErrBadDifficulty),
		errors.Is(err, modulestore.ErrSelfPrereq),
		errors.Is(err, modulestore.ErrUnknownPrereq):
		return err.Error(), true
	}
	return "", false
}

func isNotFound(err error) bool { return errors.Is(err, mongo.ErrNoDocuments) }
