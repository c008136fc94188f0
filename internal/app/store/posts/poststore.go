package poststore

import (
	"context"
	"errors"
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
	return &Store{c: db.Collection("group_posts")}
}

// Create inserts a post. Content must already be sanitized.
func (s *Store) Create(ctx context.Context, groupID, authorID primitive.ObjectID, content string) (models.GroupPost, error) {
	now := time.Now().UTC()
	p := models.GroupPost{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		AuthorID:  authorID,
		Content:   content,
		LikedBy:   []primitive.ObjectID{},
		Comments:  []models.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.GroupPost{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.GroupPost, error) {
	var p models.GroupPost
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListForGroup returns a page of a group's posts, newest first.
func (s *Store) ListForGroup(ctx context.Context, groupID primitive.ObjectID, p paging.Params) ([]models.GroupPost, int64, error) {
	filter := bson.M{"group_id": groupID}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, filter, p.FindOptions(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.GroupPost
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ToggleLike likes the post for userID, or removes the like if present.
// It returns whether the post is now liked and the new like count.
func (s *Store) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (liked bool, count int, err error) {
	now := time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(bson.M{"like_count": 1})
	var out struct {
		LikeCount int `bson:"like_count"`
	}

	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": postID, "liked_by": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"liked_by": userID}, "$inc": bson.M{"like_count": 1}, "$set": bson.M{"updated_at": now}},
		opts).Decode(&out)
	if err == nil {
		return true, out.LikeCount, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, 0, err
	}

	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": postID, "liked_by": userID},
		bson.M{"$pull": bson.M{"liked_by": userID}, "$inc": bson.M{"like_count": -1}, "$set": bson.M{"updated_at": now}},
		opts).Decode(&out)
	if err != nil {
		return false, 0, err
	}
	return false, out.LikeCount, nil
}

// AddComment appends a comment. Content must already be sanitized.
func (s *Store) AddComment(ctx context.Context, postID, authorID primitive.ObjectID, content string) (models.Comment, error) {
	now := time.Now().UTC()
	c := models.Comment{ID: primitive.NewObjectID(), AuthorID: authorID, Content: content, CreatedAt: now}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": postID},
		bson.M{"$push": bson.M{"comments": c}, "$set": bson.M{"updated_at": now}})
	if err != nil {
		return models.Comment{}, err
	}
	if res.MatchedCount == 0 {
		return models.Comment{}, mongo.ErrNoDocuments
	}
	return c, nil
}

// DeleteForGroup removes every post in a group.
func (s *Store) DeleteForGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// RemoveAuthor deletes userID's posts and strips their likes and comments
// from everyone else's.
func (s *Store) RemoveAuthor(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := s.c.DeleteMany(ctx, bson.M{"author_id": userID}); err != nil {
		return err
	}
	now := time.Now().UTC()
	if _, err := s.c.UpdateMany(ctx, bson.M{"liked_by": userID}, bson.M{
		"$pull": bson.M{"liked_by": userID},
		"$inc":  bson.M{"like_count": -1},
		"$set":  bson.M{"updated_at": now},
	}); err != nil {
		return err
	}
	_, err := s.c.UpdateMany(ctx, bson.M{"comments.author_id": userID}, bson.M{
		"$pull": bson.M{"comments": bson.M{"author_id": userID}},
		"$set":  bson.M{"updated_at": now},
	})
	return err
}
