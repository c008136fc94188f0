// Package reportqueries provides read-only aggregations for student reports.
package reportqueries

import (
	"context"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Window bounds a report by due date. Nil ends are open.
type Window struct {
	From *time.Time
	To   *time.Time
}

func (w Window) match(studentID primitive.ObjectID) bson.M {
	m := bson.M{"student_id": studentID}
	if w.From != nil || w.To != nil {
		r := bson.M{}
		if w.From != nil {
			r["$gte"] = w.From.UTC()
		}
		if w.To != nil {
			r["$lte"] = w.To.UTC()
		}
		m["due_date"] = r
	}
	return m
}

// CountAssignmentsByStatus returns assignment counts per status for one
// student. Every known status is present, possibly with 0.
func CountAssignmentsByStatus(ctx context.Context, db *mongo.Database, studentID primitive.ObjectID, w Window) (map[string]int64, error) {
	result := map[string]int64{
		models.AssignmentPending:   0,
		models.AssignmentSubmitted: 0,
		models.AssignmentGraded:    0,
	}

	pipeline := []bson.M{
		{"$match": w.match(studentID)},
		{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	}
	cur, err := db.Collection("assignments").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		result[row.Status] = row.Count
	}
	return result, cur.Err()
}

// SubjectAverage is the mean grade percentage for one subject.
type SubjectAverage struct {
	Subject string  `bson:"_id" json:"subject"`
	Average float64 `bson:"average" json:"average"`
	Graded  int64   `bson:"graded" json:"graded"`
}

// SubjectAverages returns per-subject grade averages (0..100) over graded
// assignments, ordered by subject.
func SubjectAverages(ctx context.Context, db *mongo.Database, studentID primitive.ObjectID, w Window) ([]SubjectAverage, error) {
	match := w.match(studentID)
	match["status"] = models.AssignmentGraded
	match["max_score"] = bson.M{"$gt": 0}

	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{
			"_id": "$subject",
			"average": bson.M{"$avg": bson.M{"$multiply": bson.A{
				bson.M{"$divide": bson.A{"$score", "$max_score"}}, 100,
			}}},
			"graded": bson.M{"$sum": 1},
		}},
		{"$sort": bson.M{"_id": 1}},
	}
	cur, err := db.Collection("assignments").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []SubjectAverage
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
