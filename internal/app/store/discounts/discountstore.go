package discountstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/app/system/normalize"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Reasons a code cannot be used. Redeem and Check return exactly one of these.
var (
	ErrUnknownCode       = errors.New("discount code not found")
	ErrInactive          = errors.New("discount code is not active")
	ErrNotYetValid       = errors.New("discount code is not valid yet")
	ErrExpired           = errors.New("discount code has expired")
	ErrExhausted         = errors.New("discount code has reached its usage limit")
	ErrPlanNotApplicable = errors.New("discount code does not apply to this plan")
)

// Errors from Create/Update.
var (
	ErrDuplicateCode = errors.New("a discount with this code already exists")
	ErrBadType       = errors.New(`type must be "percentage"|"fixed"`)
	ErrBadValue      = errors.New("value must be positive and a percentage may not exceed 100")
	ErrBadWindow     = errors.New("valid_until must be after valid_from")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("discounts")}
}

func validate(d models.Discount) error {
	switch d.Type {
	case models.DiscountPercentage:
		if d.Value <= 0 || d.Value > 100 {
			return ErrBadValue
		}
	case models.DiscountFixed:
		if d.Value <= 0 {
			return ErrBadValue
		}
	default:
		return ErrBadType
	}
	if d.MaxUses < 0 {
		return ErrBadValue
	}
	if d.ValidFrom != nil && d.ValidUntil != nil && !d.ValidUntil.After(*d.ValidFrom) {
		return ErrBadWindow
	}
	return nil
}

// Create inserts a discount. The code is upper-cased and CurrentUses starts at 0.
func (s *Store) Create(ctx context.Context, d models.Discount) (models.Discount, error) {
	d.ID = primitive.NewObjectID()
	d.Code = normalize.Code(d.Code)
	d.CurrentUses = 0
	if err := validate(d); err != nil {
		return models.Discount{}, err
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, d); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Discount{}, ErrDuplicateCode
		}
		return models.Discount{}, err
	}
	return d, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Discount, error) {
	var d models.Discount
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetByCode looks a discount up by its (case-insensitive) code.
func (s *Store) GetByCode(ctx context.Context, code string) (*models.Discount, error) {
	var d models.Discount
	if err := s.c.FindOne(ctx, bson.M{"code": normalize.Code(code)}).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns discounts ordered by code.
func (s *Store) List(ctx context.Context, activeOnly bool, p paging.Params) ([]models.Discount, int64, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, filter, p.FindOptions(bson.D{{Key: "code", Value: 1}}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.Discount
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update replaces the editable fields of d. CurrentUses is never written here
// so an edit cannot race a redemption.
func (s *Store) Update(ctx context.Context, d models.Discount) (*models.Discount, error) {
	d.Code = normalize.Code(d.Code)
	if err := validate(d); err != nil {
		return nil, err
	}
	set := bson.M{
		"code":        d.Code,
		"description": d.Description,
		"type":        d.Type,
		"value":       d.Value,
		"max_uses":    d.MaxUses,
		"is_active":   d.IsActive,
		"updated_at":  time.Now().UTC(),
	}
	unset := bson.M{}
	setOrUnset := func(field string, v any, present bool) {
		if present {
			set[field] = v
		} else {
			unset[field] = ""
		}
	}
	setOrUnset("valid_from", d.ValidFrom, d.ValidFrom != nil)
	setOrUnset("valid_until", d.ValidUntil, d.ValidUntil != nil)
	setOrUnset("applicable_plans", d.ApplicablePlans, len(d.ApplicablePlans) > 0)

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var out models.Discount
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": d.ID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return &out, nil
}

// Delete removes a discount. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Check reports why d cannot be used for planType at now, or nil if it can.
// It mirrors the filter Redeem applies inside the database.
func Check(d models.Discount, planType string, now time.Time) error {
	switch {
	case !d.IsActive:
		return ErrInactive
	case d.ValidFrom != nil && now.Before(*d.ValidFrom):
		return ErrNotYetValid
	case d.ValidUntil != nil && now.After(*d.ValidUntil):
		return ErrExpired
	case !d.AppliesTo(planType):
		return ErrPlanNotApplicable
	case d.MaxUses > 0 && d.CurrentUses >= d.MaxUses:
		return ErrExhausted
	}
	return nil
}

// usableFilter matches code only while every rule in Check passes.
func usableFilter(code, planType string, now time.Time) bson.M {
	return bson.M{
		"code":      code,
		"is_active": true,
		"$and": bson.A{
			bson.M{"$or": bson.A{bson.M{"valid_from": nil}, bson.M{"valid_from": bson.M{"$lte": now}}}},
			bson.M{"$or": bson.A{bson.M{"valid_until": nil}, bson.M{"valid_until": bson.M{"$gte": now}}}},
			bson.M{"$or": bson.A{
				bson.M{"applicable_plans": bson.M{"$exists": false}},
				bson.M{"applicable_plans": bson.M{"$size": 0}},
				bson.M{"applicable_plans": planType},
			}},
			bson.M{"$or": bson.A{
				bson.M{"max_uses": 0},
				bson.M{"$expr": bson.M{"$lt": bson.A{"$current_uses", "$max_uses"}}},
			}},
		},
	}
}

// Redeem consumes one use of code for planType. The validity rules and the
// increment are a single findOneAndUpdate, so concurrent redemptions can never
// push current_uses past max_uses. When nothing matches, the discount is
// re-read to report which rule failed.
func (s *Store) Redeem(ctx context.Context, code, planType string, now time.Time) (*models.Discount, error) {
	code = normalize.Code(code)
	now = now.UTC()

	var d models.Discount
	err := s.c.FindOneAndUpdate(ctx,
		usableFilter(code, planType, now),
		bson.M{"$inc": bson.M{"current_uses": 1}, "$set": bson.M{"updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err == nil {
		return &d, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("redeem discount: %w", err)
	}

	cur, gerr := s.GetByCode(ctx, code)
	if errors.Is(gerr, mongo.ErrNoDocuments) {
		return nil, ErrUnknownCode
	}
	if gerr != nil {
		return nil, gerr
	}
	if reason := Check(*cur, planType, now); reason != nil {
		return nil, reason
	}
	// It became usable between the two reads; report the most likely cause.
	return nil, ErrExhausted
}

// Release gives back one use, for when the purchase that redeemed it fails.
func (s *Store) Release(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "current_uses": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"current_uses": -1}, "$set": bson.M{"updated_at": time.Now().UTC()}})
	return err
}
