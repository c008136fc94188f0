package goalstore

import (
	"context"
	"errors"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrBadTarget is returned when target_value is not positive.
var ErrBadTarget = errors.New("target value must be greater than zero")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("goals")}
}

func (s *Store) Create(ctx context.Context, g models.Goal) (models.Goal, error) {
	if g.TargetValue <= 0 {
		return models.Goal{}, ErrBadTarget
	}
	g.ID = primitive.NewObjectID()
	g.Status = models.GoalActive
	g.CompletedAt = nil
	if g.CurrentValue >= g.TargetValue {
		g.CurrentValue = 0
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.Goal{}, err
	}
	return g, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Goal, error) {
	var g models.Goal
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Filter narrows List.
type Filter struct {
	TeacherID *primitive.ObjectID
	StudentID *primitive.ObjectID
	Status    string
}

// List returns active goals before completed ones, oldest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Goal, error) {
	q := bson.M{}
	if f.TeacherID != nil {
		q["teacher_id"] = *f.TeacherID
	}
	if f.StudentID != nil {
		q["student_id"] = *f.StudentID
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	cur, err := s.c.Find(ctx, q, options.Find().SetSort(bson.D{
		{Key: "status", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1},
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Goal
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProgress sets a student's current value. A goal that reaches its
// target becomes completed and stays completed. justCompleted is true only
// for the update that crossed the target.
func (s *Store) UpdateProgress(ctx context.Context, id, studentID primitive.ObjectID, value float64, now time.Time) (g *models.Goal, justCompleted bool, err error) {
	now = now.UTC()
	reached := bson.M{"$gte": bson.A{value, "$target_value"}}
	wasDone := bson.M{"$eq": bson.A{"$status", models.GoalCompleted}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"current_value": value,
			"completed_at": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{bson.M{"$not": bson.A{wasDone}}, reached}},
				now,
				"$completed_at",
			}},
			"status": bson.M{"$cond": bson.A{
				bson.M{"$or": bson.A{wasDone, reached}},
				models.GoalCompleted,
				models.GoalActive,
			}},
			"updated_at": now,
		}}},
	}

	var before models.Goal
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "student_id": studentID},
		pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		return nil, false, err
	}

	after := before
	after.CurrentValue = value
	after.UpdatedAt = now
	if before.Status != models.GoalCompleted && value >= before.TargetValue {
		after.Status = models.GoalCompleted
		after.CompletedAt = &now
		justCompleted = true
	}
	return &after, justCompleted, nil
}

// Delete removes a goal owned by teacherID.
func (s *Store) Delete(ctx context.Context, id, teacherID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "teacher_id": teacherID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteForStudent removes every goal of a student.
func (s *Store) DeleteForStudent(ctx context.Context, studentID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"student_id": studentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
