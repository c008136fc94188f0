// Package gamification serves a student's XP profile and the leaderboard.
package gamification

import (
	"net/http"

	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	gamesvc "github.com/Elqomdes/hedeflynet/internal/app/services/gamification"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const leaderboardDefault = 10

type Handler struct {
	Game   *gamesvc.Service
	Users  *userstore.Store
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, game *gamesvc.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Game: game, Users: userstore.New(db), ErrLog: errLog, Log: logger}
}

// ServeProfile returns the caller's profile, creating an empty one on first
// visit.
// GET /api/student/gamification
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "gamification profile")
	defer cancel()

	v, err := h.Game.Profile(ctx, shared.UserID(r))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load gamification profile failed", err, "Unable to load progress.")
		return
	}
	respond.JSON(w, http.StatusOK, v)
}

type leaderRow struct {
	Rank     int                `json:"rank"`
	UserID   primitive.ObjectID `json:"user_id"`
	FullName string             `json:"full_name"`
	XP       int64              `json:"xp"`
	Level    int                `json:"level"`
	IsMe     bool               `json:"is_me"`
}

// ServeLeaderboard lists the top profiles by XP.
// GET /api/student/leaderboard?limit=
func (h *Handler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := paging.ParseLimit(r, leaderboardDefault)
	me := shared.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "leaderboard")
	defer cancel()

	profiles, err := h.Game.Leaderboard(ctx, limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load leaderboard failed", err, "Unable to load leaderboard.")
		return
	}
	ids := make([]primitive.ObjectID, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}
	names, err := h.Users.GetMany(ctx, ids)
	if err != nil {
		// Names are decoration; the ranking still stands.
		h.Log.Warn("leaderboard: load names failed", zap.Error(err))
	}

	rows := make([]leaderRow, 0, len(profiles))
	for i, p := range profiles {
		rows = append(rows, leaderRow{
			Rank:     i + 1,
			UserID:   p.UserID,
			FullName: names[p.UserID].FullName,
			XP:       p.XP,
			Level:    p.Level,
			IsMe:     p.UserID == me,
		})
	}
	respond.JSON(w, http.StatusOK, map[string]any{"leaderboard": rows})
}
