// internal/app/features/studygroups/handler.go
package studygroups

import (
	"context"
	"net/http"

	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	poststore "github.com/Elqomdes/hedeflynet/internal/app/store/posts"
	studygroupstore "github.com/Elqomdes/hedeflynet/internal/app/store/studygroups"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves study groups and the posts inside them.
type Handler struct {
	Groups *studygroupstore.Store
	Posts  *poststore.Store
	Users  *userstore.Store

	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Groups: studygroupstore.New(db),
		Posts:  poststore.New(db),
		Users:  userstore.New(db),
		ErrLog: errLog,
		Log:    logger,
	}
}

// requireMember writes a 403 and returns false unless userID belongs to the
// group. A missing group reads the same as a group the caller cannot see.
func (h *Handler) requireMember(ctx context.Context, w http.ResponseWriter, r *http.Request, groupID, userID primitive.ObjectID) bool {
	ok, err := h.Groups.IsMember(ctx, groupID, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "membership check failed", err, "")
		return false
	}
	if !ok {
		h.ErrLog.LogForbidden(w, r, "study group: caller is not a member", "Only group members can do that.")
		return false
	}
	return true
}
