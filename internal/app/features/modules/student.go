package modules

import (
	"errors"
	"net/http"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/services/adaptive"
	progressstore "github.com/Elqomdes/hedeflynet/internal/app/store/progress"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const recommendationsDefault = 5

// ServeCatalog lists published modules with the caller's progress.
// GET /api/student/modules?subject=
func (h *Handler) ServeCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "module catalog")
	defer cancel()

	entries, err := h.Adaptive.Catalog(ctx, shared.UserID(r), r.URL.Query().Get("subject"))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load catalog failed", err, "Unable to load modules.")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"modules": entries})
}

// GET /api/student/modules/recommendations?limit=
func (h *Handler) ServeRecommendations(w http.ResponseWriter, r *http.Request) {
	limit := paging.ParseLimit(r, recommendationsDefault)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "module recommendations")
	defer cancel()

	recs, err := h.Adaptive.Recommendations(ctx, shared.UserID(r), limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load recommendations failed", err, "Unable to load recommendations.")
		return
	}
	if recs == nil {
		recs = []adaptive.Recommendation{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

// HandleStart marks a module in progress.
// POST /api/student/modules/{id}/start
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid module ID.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "start module")
	defer cancel()

	p, err := h.Adaptive.Start(ctx, shared.UserID(r), id)
	if h.progressError(w, r, err) {
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

type completeInput struct {
	Score *int `json:"score" validate:"required,min=0,max=100" label:"Score"`
}

// HandleComplete records a finished module. XP is awarded on the first
// completion only.
// POST /api/student/modules/{id}/complete
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid module ID.")
		return
	}
	var in completeInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "complete module")
	defer cancel()

	res, err := h.Adaptive.Complete(ctx, shared.UserID(r), id, *in.Score)
	if h.progressError(w, r, err) {
		return
	}
	if res.FirstTime {
		h.Log.Info("module completed",
			zap.String("module_id", id.Hex()),
			zap.String("user_id", shared.UserID(r).Hex()),
			zap.Int("score", *in.Score))
	}
	respond.JSON(w, http.StatusOK, res)
}

// progressError writes the response for a failed start or complete and
// reports whether it did.
func (h *Handler) progressError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return false
	case isNotFound(err):
		h.ErrLog.LogNotFound(w, r, "module not found or unpublished", "Module not found.")
	case errors.Is(err, adaptive.ErrLocked):
		h.ErrLog.LogConflict(w, r, "module locked", err, err.Error())
	case errors.Is(err, progressstore.ErrScoreRange):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.ErrLog.LogServerError(w, r, "module progress failed", err, "Unable to save progress.")
	}
	return true
}
