package discounts_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/app/features/discounts"
	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	"github.com/Elqomdes/hedeflynet/internal/app/services/billing"
	discountstore "github.com/Elqomdes/hedeflynet/internal/app/store/discounts"
	subscriptionstore "github.com/Elqomdes/hedeflynet/internal/app/store/subscriptions"
	"github.com/Elqomdes/hedeflynet/internal/app/system/indexes"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/Elqomdes/hedeflynet/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*discounts.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	logger := zap.NewNop()
	svc := billing.New(subscriptionstore.New(db), discountstore.New(db), nil, logger)
	return discounts.NewHandler(db, svc, nil, uierrors.NewErrorLogger(logger), logger), testutil.NewFixtures(t, db)
}

func TestHandleCreate(t *testing.T) {
	h, _ := newTestHandler(t)
	admin := testutil.AdminUser()

	post := func(body map[string]any) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		h.HandleCreate(rec, testutil.NewAuthenticatedRequest(t, http.MethodPost, "/api/admin/discounts", body, admin))
		return rec
	}

	rec := post(map[string]any{"code": "spring26", "type": "percentage", "value": 15, "applicable_plans": []string{models.Plan6Months}})
	rec.AssertStatus(t, http.StatusCreated)
	var d models.Discount
	rec.DecodeJSON(t, &d)
	if d.Code != "SPRING26" || !d.IsActive || d.CurrentUses != 0 {
		t.Errorf("discount = %+v", d)
	}

	post(map[string]any{"code": "SPRING26", "type": "fixed", "value": 100}).AssertStatus(t, http.StatusConflict)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"percentage over 100", map[string]any{"code": "BIG", "type": "percentage", "value": 101}},
		{"unknown type", map[string]any{"code": "ODD", "type": "bogo", "value": 1}},
		{"unknown plan", map[string]any{"code": "PLAN", "type": "fixed", "value": 1, "applicable_plans": []string{"2_weeks"}}},
		{"window reversed", map[string]any{"code": "WIN", "type": "fixed", "value": 1, "valid_from": "2026-05-01", "valid_until": "2026-04-01"}},
		{"bad date", map[string]any{"code": "DATE", "type": "fixed", "value": 1, "valid_from": "May 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post(tt.body).AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestHandleUpdate_Partial(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	d := fx.CreateDiscount(ctx, "SUMMER", models.DiscountPercentage, 10, 5)

	patch := func(body map[string]any) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		req := testutil.NewAuthenticatedRequest(t, http.MethodPatch, "/", body, testutil.AdminUser())
		h.HandleUpdate(rec, testutil.WithChiURLParam(req, "id", d.ID.Hex()))
		return rec
	}

	rec := patch(map[string]any{"value": 25, "is_active": false})
	rec.AssertStatus(t, http.StatusOK)
	var out models.Discount
	rec.DecodeJSON(t, &out)
	if out.Value != 25 || out.IsActive || out.Code != "SUMMER" || out.MaxUses != 5 {
		t.Errorf("updated = %+v", out)
	}

	patch(map[string]any{"value": 150}).AssertStatus(t, http.StatusBadRequest)
	patch(map[string]any{"current_uses": 0}).AssertStatus(t, http.StatusBadRequest)
}

func TestHandleDelete(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	d := fx.CreateDiscount(ctx, "GONE", models.DiscountFixed, 100, 0)

	del := func() *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		req := testutil.NewAuthenticatedRequest(t, http.MethodDelete, "/", nil, testutil.AdminUser())
		h.HandleDelete(rec, testutil.WithChiURLParam(req, "id", d.ID.Hex()))
		return rec
	}
	del().AssertStatus(t, http.StatusNoContent)
	del().AssertStatus(t, http.StatusNotFound)
}

func TestHandleValidate(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateDiscount(ctx, "TEN", models.DiscountPercentage, 10, 1)
	fx.CreateDiscount(ctx, "USED", models.DiscountFixed, 100, 1)
	if _, err := h.Discounts.Redeem(ctx, "USED", models.Plan3Months, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}

	type result struct {
		Valid          bool   `json:"valid"`
		Reason         string `json:"reason"`
		DiscountAmount int64  `json:"discount_amount"`
		FinalPrice     int64  `json:"final_price"`
	}
	check := func(code, plan string) (int, result) {
		rec := testutil.NewRecorder()
		h.HandleValidate(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/discounts/validate", map[string]string{"code": code, "plan_type": plan}))
		var res result
		if rec.Code == http.StatusOK {
			rec.DecodeJSON(t, &res)
		}
		return rec.Code, res
	}

	if code, res := check("ten", models.Plan12Months); code != http.StatusOK || !res.Valid || res.DiscountAmount != 48000 || res.FinalPrice != 432000 {
		t.Errorf("TEN: %d %+v", code, res)
	}
	// Previewing twice does not consume the single use.
	if _, res := check("TEN", models.Plan12Months); !res.Valid {
		t.Error("preview consumed a use")
	}
	if _, res := check("USED", models.Plan3Months); res.Valid || res.Reason != discountstore.ErrExhausted.Error() || res.FinalPrice != 150000 {
		t.Errorf("USED: %+v", res)
	}
	if _, res := check("MISSING", models.Plan3Months); res.Valid || res.Reason != discountstore.ErrUnknownCode.Error() {
		t.Errorf("MISSING: %+v", res)
	}
	if code, _ := check("TEN", "weekly"); code != http.StatusBadRequest {
		t.Errorf("unknown plan status = %d", code)
	}
}
