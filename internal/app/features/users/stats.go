// internal/app/features/users/stats.go
package users

import (
	"context"
	"net/http"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respcache"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
)

type statsResponse struct {
	Teachers            int64     `json:"teachers"`
	Students            int64     `json:"students"`
	Parents             int64     `json:"parents"`
	Admins              int64     `json:"admins"`
	ActiveSubscriptions int64     `json:"active_subscriptions"`
	PendingApplications int64     `json:"pending_applications"`
	GeneratedAt         time.Time `json:"generated_at"`
}

func (h *Handler) loadStats(ctx context.Context) (statsResponse, error) {
	counts, err := h.Users.CountByRole(ctx)
	if err != nil {
		return statsResponse{}, err
	}
	subs, err := h.Subscriptions.CountActive(ctx)
	if err != nil {
		return statsResponse{}, err
	}
	pending, err := h.Applications.CountPending(ctx)
	if err != nil {
		return statsResponse{}, err
	}
	return statsResponse{
		Teachers:            counts[models.RoleTeacher],
		Students:            counts[models.RoleStudent],
		Parents:             counts[models.RoleParent],
		Admins:              counts[models.RoleAdmin],
		ActiveSubscriptions: subs,
		PendingApplications: pending,
		GeneratedAt:         time.Now().UTC(),
	}, nil
}

// ServeStats returns platform counters.
// GET /api/admin/stats
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin stats")
	defer cancel()

	stats, err := respcache.GetOrLoad(ctx, h.Cache, shared.AdminStatsKey, h.CacheTTL, h.loadStats)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load stats failed", err, "A database error occurred.")
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}
