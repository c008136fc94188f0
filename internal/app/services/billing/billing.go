// Package billing prices subscription plans and creates subscriptions,
// redeeming discount codes along the way.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	discountstore "github.com/Elqomdes/hedeflynet/internal/app/store/discounts"
	subscriptionstore "github.com/Elqomdes/hedeflynet/internal/app/store/subscriptions"
	"github.com/Elqomdes/hedeflynet/internal/app/system/metrics"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrUnknownPlan is returned for a plan type outside the price table.
var ErrUnknownPlan = errors.New("unknown plan type")

// Quote is the price breakdown for one plan.
type Quote struct {
	PlanType       string `json:"plan_type"`
	Months         int    `json:"months"`
	Price          int64  `json:"price"`
	DiscountCode   string `json:"discount_code,omitempty"`
	DiscountAmount int64  `json:"discount_amount"`
	FinalPrice     int64  `json:"final_price"`
}

// QuotePlan prices planType with an optional discount. The final price is
// never negative.
func QuotePlan(planType string, d *models.Discount) (Quote, error) {
	p, ok := models.LookupPlan(planType)
	if !ok {
		return Quote{}, ErrUnknownPlan
	}
	q := Quote{PlanType: p.Type, Months: p.Months, Price: p.Price, FinalPrice: p.Price}
	if d != nil {
		q.DiscountCode = d.Code
		q.DiscountAmount = d.Amount(p.Price)
		q.FinalPrice = p.Price - q.DiscountAmount
	}
	return q, nil
}

type Service struct {
	subs      *subscriptionstore.Store
	discounts *discountstore.Store
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
}

func New(subs *subscriptionstore.Store, discounts *discountstore.Store, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{subs: subs, discounts: discounts, metrics: m, log: logger, now: time.Now}
}

// Preview prices planType with code without consuming a use. A code that
// cannot be used returns one of the discountstore reason errors.
func (s *Service) Preview(ctx context.Context, code, planType string) (Quote, error) {
	if _, ok := models.LookupPlan(planType); !ok {
		return Quote{}, ErrUnknownPlan
	}
	d, err := s.discounts.GetByCode(ctx, code)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Quote{}, discountstore.ErrUnknownCode
	}
	if err != nil {
		return Quote{}, err
	}
	if err := discountstore.Check(*d, planType, s.now().UTC()); err != nil {
		return Quote{}, err
	}
	return QuotePlan(planType, d)
}

// SubscribeInput describes a subscription to create.
type SubscribeInput struct {
	UserID       primitive.ObjectID
	PlanType     string
	StartDate    *time.Time // nil means now
	DiscountCode string
	CreatedBy    *primitive.ObjectID
}

// Subscribe redeems the discount (if any) and creates the subscription.
// A failed redemption fails the call; if the insert fails after a
// redemption, the use is released again.
func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) (models.Subscription, error) {
	plan, ok := models.LookupPlan(in.PlanType)
	if !ok {
		return models.Subscription{}, ErrUnknownPlan
	}
	now := s.now().UTC()
	start := now
	if in.StartDate != nil {
		start = in.StartDate.UTC()
	}

	var d *models.Discount
	if code := strings.TrimSpace(in.DiscountCode); code != "" {
		var err error
		d, err = s.discounts.Redeem(ctx, code, plan.Type, now)
		if err != nil {
			s.metrics.Redemption(outcome(err))
			return models.Subscription{}, err
		}
		s.metrics.Redemption("redeemed")
	}

	q, _ := QuotePlan(plan.Type, d)
	sub, err := s.subs.Create(ctx, models.Subscription{
		UserID:         in.UserID,
		PlanType:       plan.Type,
		Status:         models.SubscriptionActive,
		StartDate:      start,
		EndDate:        plan.EndDate(start),
		Price:          q.Price,
		DiscountCode:   q.DiscountCode,
		DiscountAmount: q.DiscountAmount,
		FinalPrice:     q.FinalPrice,
		CreatedBy:      in.CreatedBy,
	})
	if err != nil {
		if d != nil {
			if rerr := s.discounts.Release(ctx, d.ID); rerr != nil {
				s.log.Error("failed to release discount use",
					zap.String("code", d.Code), zap.Error(rerr))
			}
		}
		return models.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}

	s.log.Info("subscription created",
		zap.String("subscription_id", sub.ID.Hex()),
		zap.String("user_id", in.UserID.Hex()),
		zap.String("plan", plan.Type),
		zap.Int64("final_price", sub.FinalPrice))
	return sub, nil
}

// outcome labels a failed redemption for metrics.
func outcome(err error) string {
	switch {
	case errors.Is(err, discountstore.ErrUnknownCode):
		return "unknown"
	case errors.Is(err, discountstore.ErrExhausted):
		return "exhausted"
	case errors.Is(err, discountstore.ErrExpired), errors.Is(err, discountstore.ErrNotYetValid):
		return "out_of_window"
	case errors.Is(err, discountstore.ErrInactive):
		return "inactive"
	case errors.Is(err, discountstore.ErrPlanNotApplicable):
		return "plan"
	}
	return "error"
}

// IsDiscountRejection reports whether err is a reason a code was refused,
// as opposed to an infrastructure failure.
func IsDiscountRejection(err error) bool {
	for _, reason := range []error{
		discountstore.ErrUnknownCode, discountstore.ErrInactive, discountstore.ErrNotYetValid,
		discountstore.ErrExpired, discountstore.ErrExhausted, discountstore.ErrPlanNotApplicable,
	} {
		if errors.Is(err, reason) {
			return true
		}
	}
	return false
}

// ExpireDue marks lapsed active subscriptions expired. It is run by the
// subscription sweep worker.
func (s *Service) ExpireDue(ctx context.Context) (int64, error) {
	return s.subs.ExpireDue(ctx, s.now().UTC())
}
