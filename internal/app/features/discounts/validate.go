// internal/app/features/discounts/validate.go
package discounts

import (
	"net/http"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/services/billing"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
)

type validateInput struct {
	Code     string `json:"code" validate:"required,max=40" label:"Code"`
	PlanType string `json:"plan_type" validate:"required,plantype" label:"Plan type"`
}

type validateResponse struct {
	Valid          bool   `json:"valid"`
	Reason         string `json:"reason,omitempty"`
	Price          int64  `json:"price"`
	DiscountAmount int64  `json:"discount_amount"`
	FinalPrice     int64  `json:"final_price"`
}

// HandleValidate previews a code against a plan without redeeming it.
// An unusable code is a 200 with valid=false and the reason.
// POST /api/discounts/validate
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var in validateInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "validate discount")
	defer cancel()

	q, err := h.Billing.Preview(ctx, in.Code, in.PlanType)
	if billing.IsDiscountRejection(err) {
		plan, _ := models.LookupPlan(in.PlanType)
		respond.JSON(w, http.StatusOK, validateResponse{Reason: err.Error(), Price: plan.Price, FinalPrice: plan.Price})
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "validate discount failed", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, validateResponse{
		Valid:          true,
		Price:          q.Price,
		DiscountAmount: q.DiscountAmount,
		FinalPrice:     q.FinalPrice,
	})
}
