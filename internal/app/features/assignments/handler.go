// internal/app/features/assignments/handler.go
package assignments

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	"github.com/Elqomdes/hedeflynet/internal/app/services/gamification"
	"github.com/Elqomdes/hedeflynet/internal/app/services/notifier"
	"github.com/Elqomdes/hedeflynet/internal/app/services/parentdash"
	assignmentstore "github.com/Elqomdes/hedeflynet/internal/app/store/assignments"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves teacher and student assignment endpoints.
type Handler struct {
	Assignments *assignmentstore.Store
	Users       *userstore.Store

	Game   *gamification.Service
	Notify *notifier.Service
	Dash   *parentdash.Service

	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger

	now func() time.Time
}

func NewHandler(db *mongo.Database, game *gamification.Service, notify *notifier.Service, dash *parentdash.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Assignments: assignmentstore.New(db),
		Users:       userstore.New(db),
		Game:        game,
		Notify:      notify,
		Dash:        dash,
		ErrLog:      errLog,
		Log:         logger,
		now:         time.Now,
	}
}

var errNotOwner = errors.New("assignment belongs to another teacher")

// ownAssignment loads an assignment and checks teacherID set it. It writes
// the error response and returns nil on failure.
func (h *Handler) ownAssignment(ctx context.Context, w http.ResponseWriter, r *http.Request, id, teacherID primitive.ObjectID) *models.Assignment {
	a, err := h.Assignments.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogNotFound(w, r, "assignment not found", "Assignment not found.")
		return nil
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load assignment failed", err, "")
		return nil
	}
	if a.TeacherID != teacherID {
		h.ErrLog.LogForbidden(w, r, errNotOwner.Error(), "")
		return nil
	}
	return a
}
