package gamificationstore

import (
	"context"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("gamification_profiles")}
}

// onInsert holds the defaults of a new profile; user_id comes from the filter.
func onInsert(now time.Time) bson.M {
	return bson.M{
		"_id":            primitive.NewObjectID(),
		"level":          1,
		"current_streak": 0,
		"longest_streak": 0,
		"achievements":   bson.A{},
		"created_at":     now,
	}
}

// upsert runs a findOneAndUpdate that creates the profile on first touch.
// Two first touches racing on the unique user_id index retry once.
func (s *Store) upsert(ctx context.Context, userID primitive.ObjectID, update bson.M) (*models.GamificationProfile, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var p models.GamificationProfile
	err := s.c.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&p)
	if err != nil && wafflemongo.IsDup(err) {
		err = s.c.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&p)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get returns the user's profile, creating an empty one if none exists.
func (s *Store) Get(ctx context.Context, userID primitive.ObjectID) (*models.GamificationProfile, error) {
	now := time.Now().UTC()
	ins := onInsert(now)
	ins["xp"] = int64(0)
	ins["updated_at"] = now
	return s.upsert(ctx, userID, bson.M{"$setOnInsert": ins})
}

// Find returns the profile without creating one. Returns mongo.ErrNoDocuments if absent.
func (s *Store) Find(ctx context.Context, userID primitive.ObjectID) (*models.GamificationProfile, error) {
	var p models.GamificationProfile
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddXP increments xp and returns the updated profile.
func (s *Store) AddXP(ctx context.Context, userID primitive.ObjectID, amount int64) (*models.GamificationProfile, error) {
	now := time.Now().UTC()
	return s.upsert(ctx, userID, bson.M{
		"$inc":         bson.M{"xp": amount},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": onInsert(now),
	})
}

// RaiseLevel sets level only if it is higher than the stored one. It reports
// whether the stored level changed, so exactly one caller sees each level-up.
func (s *Store) RaiseLevel(ctx context.Context, userID primitive.ObjectID, level int) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": userID, "level": bson.M{"$lt": level}},
		bson.M{"$set": bson.M{"level": level, "updated_at": time.Now().UTC()}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// Award adds an achievement unless the user already holds that code.
// It reports whether the achievement was newly added.
func (s *Store) Award(ctx context.Context, userID primitive.ObjectID, code string, at time.Time) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": userID, "achievements.code": bson.M{"$ne": code}},
		bson.M{
			"$push": bson.M{"achievements": models.EarnedAchievement{Code: code, EarnedAt: at.UTC()}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// SetStreak stores new streak values, but only if last_activity_date still
// holds prevLast. A false return means another request recorded activity first.
func (s *Store) SetStreak(ctx context.Context, userID primitive.ObjectID, prevLast *time.Time, current, longest int, last time.Time) (bool, error) {
	filter := bson.M{"user_id": userID}
	if prevLast == nil {
		filter["last_activity_date"] = nil
	} else {
		filter["last_activity_date"] = prevLast.UTC()
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"current_streak":     current,
		"longest_streak":     longest,
		"last_activity_date": last.UTC(),
		"updated_at":         time.Now().UTC(),
	}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// Leaderboard returns the top profiles by XP.
func (s *Store) Leaderboard(ctx context.Context, limit int64) ([]models.GamificationProfile, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "xp", Value: -1}, {Key: "user_id", Value: 1}}).
		SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.GamificationProfile
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ForUsers returns profiles keyed by user ID.
func (s *Store) ForUsers(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]models.GamificationProfile, error) {
	out := make(map[primitive.ObjectID]models.GamificationProfile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var p models.GamificationProfile
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out[p.UserID] = p
	}
	return out, cur.Err()
}

// Delete removes a user's profile.
func (s *Store) Delete(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
