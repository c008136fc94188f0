package subscriptionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrBadStatus is returned for a status outside active|cancelled|expired.
	ErrBadStatus = errors.New(`status must be "active"|"cancelled"|"expired"`)
	// ErrSameStatus is returned when the subscription already has the requested status.
	ErrSameStatus = errors.New("subscription already has this status")
	// ErrStatusChanged is returned when another request changed the status first.
	ErrStatusChanged = errors.New("subscription status was changed concurrently")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("subscriptions")}
}

// Create inserts a subscription. Status defaults to active.
func (s *Store) Create(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	sub.ID = primitive.NewObjectID()
	if sub.Status == "" {
		sub.Status = models.SubscriptionActive
	}
	if !models.ValidSubscriptionStatus(sub.Status) {
		return models.Subscription{}, ErrBadStatus
	}
	now := time.Now().UTC()
	sub.StartDate = sub.StartDate.UTC()
	sub.EndDate = sub.EndDate.UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, sub); err != nil {
		return models.Subscription{}, err
	}
	return sub, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Status string
	UserID *primitive.ObjectID
}

// List returns subscriptions newest first.
func (s *Store) List(ctx context.Context, f ListFilter, p paging.Params) ([]models.Subscription, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.UserID != nil {
		filter["user_id"] = *f.UserID
	}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, filter, p.FindOptions(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.Subscription
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// SetStatus changes a subscription's status. The update filter carries the
// status that was read, so two concurrent changes cannot both succeed.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, next string) (*models.Subscription, error) {
	if !models.ValidSubscriptionStatus(next) {
		return nil, ErrBadStatus
	}
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status == next {
		return nil, ErrSameStatus
	}

	var out models.Subscription
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": cur.Status},
		bson.M{"$set": bson.M{"status": next, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrStatusChanged
	}
	if err != nil {
		return nil, fmt.Errorf("set subscription status: %w", err)
	}
	return &out, nil
}

// ExpireDue marks active subscriptions whose end date has passed as expired.
func (s *Store) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"status": models.SubscriptionActive, "end_date": bson.M{"$lt": now.UTC()}},
		bson.M{"$set": bson.M{"status": models.SubscriptionExpired, "updated_at": now.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ActiveForUser returns the active, unexpired subscription that ends last.
// Returns mongo.ErrNoDocuments when the user has none.
func (s *Store) ActiveForUser(ctx context.Context, userID primitive.ObjectID, now time.Time) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.c.FindOne(ctx,
		bson.M{"user_id": userID, "status": models.SubscriptionActive, "end_date": bson.M{"$gt": now.UTC()}},
		options.FindOne().SetSort(bson.D{{Key: "end_date", Value: -1}}),
	).Decode(&sub)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CountActive returns the number of active subscriptions.
func (s *Store) CountActive(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": models.SubscriptionActive})
}

// Delete removes a subscription. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteForUser removes every subscription held by userID.
func (s *Store) DeleteForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
