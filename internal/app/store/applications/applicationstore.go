package applicationstore

import (
	"context"
	"errors"
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

var (
	// ErrDuplicatePending is returned when the email already has a pending application.
	ErrDuplicatePending = errors.New("an application for this email is already pending")
	// ErrNotPending is returned when reviewing an application that was already reviewed.
	ErrNotPending = errors.New("application has already been reviewed")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("applications")}
}

// Create stores a new pending application.
func (s *Store) Create(ctx context.Context, a models.Application) (models.Application, error) {
	a.ID = primitive.NewObjectID()
	a.FullName = normalize.Name(a.FullName)
	a.Email = normalize.Email(a.Email)
	a.EmailCI = a.Email
	a.Subjects = normalize.Subjects(a.Subjects)
	a.Status = models.ApplicationPending
	a.RejectReason = ""
	a.ReviewedBy, a.ReviewedAt, a.TeacherID = nil, nil, nil

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Application{}, ErrDuplicatePending
		}
		return models.Application{}, err
	}
	return a, nil
}

// HasPending reports whether email has an application awaiting review.
func (s *Store) HasPending(ctx context.Context, email string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"email_ci": normalize.Email(email), "status": models.ApplicationPending})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
	var a models.Application
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns applications newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, status string, p paging.Params) ([]models.Application, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
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
	var out []models.Application
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CountPending returns the number of applications awaiting review.
func (s *Store) CountPending(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": models.ApplicationPending})
}

// Approve moves a pending application to approved and records the teacher
// account created for it. Returns ErrNotPending if it was already reviewed
// and mongo.ErrNoDocuments if it doesn't exist.
func (s *Store) Approve(ctx context.Context, id, reviewer, teacherID primitive.ObjectID) (*models.Application, error) {
	now := time.Now().UTC()
	return s.transition(ctx, id, bson.M{
		"status":      models.ApplicationApproved,
		"reviewed_by": reviewer,
		"reviewed_at": now,
		"teacher_id":  teacherID,
		"updated_at":  now,
	})
}

// Reject moves a pending application to rejected.
func (s *Store) Reject(ctx context.Context, id, reviewer primitive.ObjectID, reason string) (*models.Application, error) {
	now := time.Now().UTC()
	return s.transition(ctx, id, bson.M{
		"status":        models.ApplicationRejected,
		"reject_reason": reason,
		"reviewed_by":   reviewer,
		"reviewed_at":   now,
		"updated_at":    now,
	})
}

func (s *Store) transition(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Application, error) {
	var a models.Application
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.ApplicationPending},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if err == nil {
		return &a, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if _, gerr := s.GetByID(ctx, id); gerr != nil {
		return nil, gerr
	}
	return nil, ErrNotPending
}
