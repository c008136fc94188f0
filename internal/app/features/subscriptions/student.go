// internal/app/features/subscriptions/student.go
package subscriptions

import (
	"errors"
	"net/http"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

type currentResponse struct {
	Subscription  *models.Subscription `json:"subscription"`
	DaysRemaining int                  `json:"days_remaining"`
}

// ServeCurrent returns the caller's active subscription, or a null
// subscription when there is none.
// GET /api/student/subscription
func (h *Handler) ServeCurrent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "current subscription")
	defer cancel()

	now := h.now().UTC()
	sub, err := h.Subscriptions.ActiveForUser(ctx, shared.UserID(r), now)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.JSON(w, http.StatusOK, currentResponse{})
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load current subscription failed", err, "")
		return
	}
	days := int(sub.EndDate.Sub(now).Hours() / 24)
	respond.JSON(w, http.StatusOK, currentResponse{Subscription: sub, DaysRemaining: days})
}

// ServePlans lists the plans and their list prices.
// GET /api/plans
func (h *Handler) ServePlans(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{"plans": models.Plans()})
}
