package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Discount types.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Discount is a redeemable code that lowers a subscription price.
//
// MaxUses == 0 means unlimited. ApplicablePlans empty means every plan.
type Discount struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code            string             `bson:"code" json:"code"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Type            string             `bson:"type" json:"type"`
	Value           int64              `bson:"value" json:"value"` // percent, or minor units for fixed
	MaxUses         int                `bson:"max_uses" json:"max_uses"`
	CurrentUses     int                `bson:"current_uses" json:"current_uses"`
	ValidFrom       *time.Time         `bson:"valid_from,omitempty" json:"valid_from,omitempty"`
	ValidUntil      *time.Time         `bson:"valid_until,omitempty" json:"valid_until,omitempty"`
	ApplicablePlans []string           `bson:"applicable_plans,omitempty" json:"applicable_plans,omitempty"`
	IsActive        bool               `bson:"is_active" json:"is_active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Amount returns how much the discount takes off price, never more than price.
func (d Discount) Amount(price int64) int64 {
	var off int64
	switch d.Type {
	case DiscountPercentage:
		off = price * d.Value / 100
	case DiscountFixed:
		off = d.Value
	}
	if off < 0 {
		return 0
	}
	if off > price {
		return price
	}
	return off
}

// AppliesTo reports whether the discount can be used for planType.
func (d Discount) AppliesTo(planType string) bool {
	if len(d.ApplicablePlans) == 0 {
		return true
	}
	for _, p := range d.ApplicablePlans {
		if p == planType {
			return true
		}
	}
	return false
}
