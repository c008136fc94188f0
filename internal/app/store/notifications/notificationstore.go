package notificationstore

import (
	"context"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("parent_notifications")}
}

// CreateMany inserts notifications, filling IDs and timestamps.
func (s *Store) CreateMany(ctx context.Context, ns []models.ParentNotification) ([]models.ParentNotification, error) {
	if len(ns) == 0 {
		return ns, nil
	}
	now := time.Now().UTC()
	docs := make([]any, len(ns))
	for i := range ns {
		ns[i].ID = primitive.NewObjectID()
		ns[i].Read = false
		ns[i].ReadAt = nil
		ns[i].CreatedAt = now
		docs[i] = ns[i]
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return ns, nil
}

// List returns a parent's notifications newest first.
func (s *Store) List(ctx context.Context, parentID primitive.ObjectID, unreadOnly bool, p paging.Params) ([]models.ParentNotification, int64, error) {
	filter := bson.M{"parent_id": parentID}
	if unreadOnly {
		filter["read"] = false
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
	var out []models.ParentNotification
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CountUnread returns how many notifications the parent has not read.
func (s *Store) CountUnread(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"parent_id": parentID, "read": false})
}

// MarkRead marks one of the parent's notifications read. Marking an
// already-read notification keeps its original read_at.
func (s *Store) MarkRead(ctx context.Context, id, parentID primitive.ObjectID, now time.Time) (*models.ParentNotification, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"read":    true,
			"read_at": bson.M{"$ifNull": bson.A{"$read_at", now.UTC()}},
		}}},
	}
	var n models.ParentNotification
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "parent_id": parentID},
		pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&n)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkAllRead marks every unread notification of the parent read.
func (s *Store) MarkAllRead(ctx context.Context, parentID primitive.ObjectID, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"parent_id": parentID, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": now.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// DeleteOlderThan removes notifications created before cutoff.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
