package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription statuses.
const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

// ValidSubscriptionStatus reports whether s is a known subscription status.
func ValidSubscriptionStatus(s string) bool {
	switch s {
	case SubscriptionActive, SubscriptionCancelled, SubscriptionExpired:
		return true
	}
	return false
}

// Subscription is a time-bounded plan purchased for a user.
type Subscription struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	PlanType string             `bson:"plan_type" json:"plan_type"`
	Status   string             `bson:"status" json:"status"`

	StartDate time.Time `bson:"start_date" json:"start_date"`
	EndDate   time.Time `bson:"end_date" json:"end_date"`

	// Amounts are stored in minor currency units (kuruş / cents).
	Price          int64  `bson:"price" json:"price"`
	DiscountCode   string `bson:"discount_code,omitempty" json:"discount_code,omitempty"`
	DiscountAmount int64  `bson:"discount_amount" json:"discount_amount"`
	FinalPrice     int64  `bson:"final_price" json:"final_price"`

	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}
