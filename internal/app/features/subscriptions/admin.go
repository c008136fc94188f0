// internal/app/features/subscriptions/admin.go
package subscriptions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/services/billing"
	"github.com/Elqomdes/hedeflynet/internal/app/store/audit"
	subscriptionstore "github.com/Elqomdes/hedeflynet/internal/app/store/subscriptions"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

type createInput struct {
	UserID       string `json:"user_id" validate:"required,objectid" label:"User"`
	PlanType     string `json:"plan_type" validate:"required,plantype" label:"Plan type"`
	StartDate    string `json:"start_date" label:"Start date"`
	DiscountCode string `json:"discount_code" validate:"omitempty,max=40" label:"Discount code"`
}

// HandleCreate subscribes a user to a plan, redeeming the discount code if
// one is given. A rejected code fails the whole request.
// POST /api/admin/subscriptions
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if !shared.Bind(w, r, &in) {
		return
	}
	userID, _ := shared.ParseID(in.UserID)
	startDate, err := shared.ParseTime(in.StartDate)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Start date must be RFC 3339 or YYYY-MM-DD.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create subscription")
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, http.StatusBadRequest, "User not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "subscribe: load user failed", err, "")
		return
	}

	actor := shared.UserID(r)
	sub, err := h.Billing.Subscribe(ctx, billing.SubscribeInput{
		UserID:       u.ID,
		PlanType:     in.PlanType,
		StartDate:    startDate,
		DiscountCode: in.DiscountCode,
		CreatedBy:    &actor,
	})
	switch {
	case billing.IsDiscountRejection(err):
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, billing.ErrUnknownPlan):
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "create subscription failed", err, "Unable to create subscription.")
		return
	}

	h.AuditLog.Admin(ctx, r, actor, audit.EventSubscriptionCreated, &u.ID,
		map[string]string{"subscription_id": sub.ID.Hex(), "plan_type": sub.PlanType, "discount_code": sub.DiscountCode})
	shared.Invalidate(ctx, h.Cache, h.Log, shared.AdminStatsKey)
	respond.JSON(w, http.StatusCreated, sub)
}

// ServeList pages subscriptions, newest first.
// GET /api/admin/subscriptions?status=&user_id=&page=&limit=
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f subscriptionstore.ListFilter
	if s := strings.TrimSpace(q.Get("status")); s != "" {
		if !models.ValidSubscriptionStatus(s) {
			respond.Error(w, http.StatusBadRequest, subscriptionstore.ErrBadStatus.Error())
			return
		}
		f.Status = s
	}
	uid, err := shared.OptionalID(q.Get("user_id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid user ID.")
		return
	}
	f.UserID = uid
	p := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list subscriptions")
	defer cancel()

	items, total, err := h.Subscriptions.List(ctx, f, p)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list subscriptions failed", err, "A database error occurred.")
		return
	}
	respond.JSON(w, http.StatusOK, paging.NewPage(items, p, total))
}

// ServeGet returns one subscription.
// GET /api/admin/subscriptions/{id}
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid subscription ID.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get subscription")
	defer cancel()

	sub, err := h.Subscriptions.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogNotFound(w, r, "subscription not found", "Subscription not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "get subscription failed", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, sub)
}

type statusInput struct {
	Status string `json:"status" validate:"required,oneof=active cancelled expired" label:"Status"`
}

// HandleSetStatus moves a subscription to another status.
// PATCH /api/admin/subscriptions/{id}/status
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid subscription ID.")
		return
	}
	var in statusInput
	if !shared.Bind(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set subscription status")
	defer cancel()

	sub, err := h.Subscriptions.SetStatus(ctx, id, in.Status)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.ErrLog.LogNotFound(w, r, "set status: subscription not found", "Subscription not found.")
		return
	case errors.Is(err, subscriptionstore.ErrBadStatus):
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, subscriptionstore.ErrSameStatus), errors.Is(err, subscriptionstore.ErrStatusChanged):
		respond.Error(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "set subscription status failed", err, "Unable to update subscription.")
		return
	}

	h.AuditLog.Admin(ctx, r, shared.UserID(r), audit.EventSubscriptionStatus, &sub.UserID,
		map[string]string{"subscription_id": id.Hex(), "status": sub.Status})
	shared.Invalidate(ctx, h.Cache, h.Log, shared.AdminStatsKey)
	respond.JSON(w, http.StatusOK, sub)
}

// HandleDelete removes a subscription.
// DELETE /api/admin/subscriptions/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid subscription ID.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete subscription")
	defer cancel()

	sub, err := h.Subscriptions.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogNotFound(w, r, "delete: subscription not found", "Subscription not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete: load subscription failed", err, "")
		return
	}
	if _, err := h.Subscriptions.Delete(ctx, id); err != nil {
		h.ErrLog.LogServerError(w, r, "delete subscription failed", err, "Unable to delete subscription.")
		return
	}

	h.AuditLog.Admin(ctx, r, shared.UserID(r), audit.EventSubscriptionDeleted, &sub.UserID,
		map[string]string{"subscription_id": id.Hex()})
	shared.Invalidate(ctx, h.Cache, h.Log, shared.AdminStatsKey)
	respond.NoContent(w)
}
