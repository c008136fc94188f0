package progressstore

import (
	"context"
	"errors"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrScoreRange is returned for a completion score outside 0..100.
var ErrScoreRange = errors.New("score must be between 0 and 100")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("module_progress")}
}

func key(userID, moduleID primitive.ObjectID) bson.M {
	return bson.M{"user_id": userID, "module_id": moduleID}
}

// Start records that a user opened a module. Starting again leaves the
// record (including a completion) untouched.
func (s *Store) Start(ctx context.Context, userID, moduleID primitive.ObjectID, now time.Time) (*models.ModuleProgress, error) {
	now = now.UTC()
	update := bson.M{"$setOnInsert": bson.M{
		"_id":        primitive.NewObjectID(),
		"status":     models.ProgressInProgress,
		"started_at": now,
		"updated_at": now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var p models.ModuleProgress
	err := s.c.FindOneAndUpdate(ctx, key(userID, moduleID), update, opts).Decode(&p)
	if err != nil && wafflemongo.IsDup(err) {
		err = s.c.FindOneAndUpdate(ctx, key(userID, moduleID), update, opts).Decode(&p)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Complete marks a module completed with score. firstTime is true when the
// module had not been completed before, so rewards are granted once.
func (s *Store) Complete(ctx context.Context, userID, moduleID primitive.ObjectID, score int, now time.Time) (p *models.ModuleProgress, firstTime bool, err error) {
	if score < 0 || score > 100 {
		return nil, false, ErrScoreRange
	}
	now = now.UTC()
	update := bson.M{
		"$set": bson.M{
			"status":       models.ProgressCompleted,
			"score":        score,
			"completed_at": now,
			"updated_at":   now,
		},
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "started_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)

	var before models.ModuleProgress
	err = s.c.FindOneAndUpdate(ctx, key(userID, moduleID), update, opts).Decode(&before)
	if err != nil && wafflemongo.IsDup(err) {
		err = s.c.FindOneAndUpdate(ctx, key(userID, moduleID), update, opts).Decode(&before)
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		// Upserted: there was no previous record.
		before = models.ModuleProgress{UserID: userID, ModuleID: moduleID, StartedAt: now}
	case err != nil:
		return nil, false, err
	}

	firstTime = before.Status != models.ProgressCompleted
	after := before
	after.Status = models.ProgressCompleted
	after.Score = &score
	after.CompletedAt = &now
	after.UpdatedAt = now
	return &after, firstTime, nil
}

// ForUser returns every progress record of a user keyed by module ID.
func (s *Store) ForUser(ctx context.Context, userID primitive.ObjectID) (map[primitive.ObjectID]models.ModuleProgress, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := map[primitive.ObjectID]models.ModuleProgress{}
	for cur.Next(ctx) {
		var p models.ModuleProgress
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out[p.ModuleID] = p
	}
	return out, cur.Err()
}

// CountCompleted counts modules the user completed in [from, to]. Nil bounds are open.
func (s *Store) CountCompleted(ctx context.Context, userID primitive.ObjectID, from, to *time.Time) (int64, error) {
	q := bson.M{"user_id": userID, "status": models.ProgressCompleted}
	if from != nil || to != nil {
		r := bson.M{}
		if from != nil {
			r["$gte"] = from.UTC()
		}
		if to != nil {
			r["$lte"] = to.UTC()
		}
		q["completed_at"] = r
	}
	return s.c.CountDocuments(ctx, q)
}

// DeleteForModule removes all progress on a deleted module.
func (s *Store) DeleteForModule(ctx context.Context, moduleID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"module_id": moduleID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteForUser removes a deleted student's module progress.
func (s *Store) DeleteForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
