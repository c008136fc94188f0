package assignmentstore

import (
	"context"
	"errors"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/app/system/normalize"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrInvalidTransition is returned when an assignment is not in the
	// status the operation requires (submit needs pending, grade needs submitted).
	ErrInvalidTransition = errors.New("assignment is not in a state that allows this")
	// ErrScoreRange is returned for a score outside 0..max_score.
	ErrScoreRange = errors.New("score must be between 0 and the assignment's max score")
	// ErrGraded is returned when editing an assignment that was already graded.
	ErrGraded = errors.New("graded assignments cannot be edited")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("assignments")}
}

// CreateForStudents inserts one copy of tmpl per student.
func (s *Store) CreateForStudents(ctx context.Context, tmpl models.Assignment, studentIDs []primitive.ObjectID) ([]models.Assignment, error) {
	now := time.Now().UTC()
	tmpl.Subject = normalize.Subject(tmpl.Subject)
	tmpl.DueDate = tmpl.DueDate.UTC()
	tmpl.Status = models.AssignmentPending
	tmpl.Score, tmpl.SubmittedAt, tmpl.GradedAt = nil, nil, nil
	tmpl.Late = false
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now

	out := make([]models.Assignment, 0, len(studentIDs))
	docs := make([]any, 0, len(studentIDs))
	for _, sid := range studentIDs {
		a := tmpl
		a.ID = primitive.NewObjectID()
		a.StudentID = sid
		out = append(out, a)
		docs = append(docs, a)
	}
	if len(docs) == 0 {
		return out, nil
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Assignment, error) {
	var a models.Assignment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Filter narrows List and ListAll.
type Filter struct {
	TeacherID *primitive.ObjectID
	StudentID *primitive.ObjectID
	Status    string
	// DueFrom/DueTo bound due_date when set.
	DueFrom *time.Time
	DueTo   *time.Time
}

func (f Filter) bson() bson.M {
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
	if f.DueFrom != nil || f.DueTo != nil {
		r := bson.M{}
		if f.DueFrom != nil {
			r["$gte"] = f.DueFrom.UTC()
		}
		if f.DueTo != nil {
			r["$lte"] = f.DueTo.UTC()
		}
		q["due_date"] = r
	}
	return q
}

var byDue = bson.D{{Key: "due_date", Value: 1}, {Key: "_id", Value: 1}}

// List returns a page of assignments ordered by due date.
func (s *Store) List(ctx context.Context, f Filter, p paging.Params) ([]models.Assignment, int64, error) {
	filter := f.bson()
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, filter, p.FindOptions(byDue))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.Assignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListAll returns every matching assignment ordered by due date.
func (s *Store) ListAll(ctx context.Context, f Filter) ([]models.Assignment, error) {
	cur, err := s.c.Find(ctx, f.bson(), options.Find().SetSort(byDue))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Assignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecentGraded returns up to limit graded assignments for a student, newest grade first.
func (s *Store) RecentGraded(ctx context.Context, studentID primitive.ObjectID, limit int64) ([]models.Assignment, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"student_id": studentID, "status": models.AssignmentGraded},
		options.Find().SetSort(bson.D{{Key: "graded_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Assignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Edit holds the fields a teacher may change. Nil fields are left alone.
type Edit struct {
	Title       *string
	Description *string
	Subject     *string
	DueDate     *time.Time
	MaxScore    *int
}

// Update applies e to an ungraded assignment owned by teacherID.
func (s *Store) Update(ctx context.Context, id, teacherID primitive.ObjectID, e Edit) (*models.Assignment, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if e.Title != nil {
		set["title"] = *e.Title
	}
	if e.Description != nil {
		set["description"] = *e.Description
	}
	if e.Subject != nil {
		set["subject"] = normalize.Subject(*e.Subject)
	}
	if e.DueDate != nil {
		set["due_date"] = e.DueDate.UTC()
	}
	if e.MaxScore != nil {
		set["max_score"] = *e.MaxScore
	}

	var a models.Assignment
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "teacher_id": teacherID, "status": bson.M{"$ne": models.AssignmentGraded}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if err == nil {
		return &a, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if n, _ := s.c.CountDocuments(ctx, bson.M{"_id": id, "teacher_id": teacherID}); n > 0 {
		return nil, ErrGraded
	}
	return nil, mongo.ErrNoDocuments
}

// Submit records a student's submission of a pending assignment. The late
// flag is computed in the database against due_date.
func (s *Store) Submit(ctx context.Context, id, studentID primitive.ObjectID, content string, now time.Time) (*models.Assignment, error) {
	now = now.UTC()
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"status":       models.AssignmentSubmitted,
			"submission":   content,
			"submitted_at": now,
			"late":         bson.M{"$gt": bson.A{now, "$due_date"}},
			"updated_at":   now,
		}}},
	}
	var a models.Assignment
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "student_id": studentID, "status": models.AssignmentPending},
		pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if err == nil {
		return &a, nil
	}
	return nil, s.explain(ctx, err, bson.M{"_id": id, "student_id": studentID})
}

// Grade scores a submitted assignment owned by teacherID.
func (s *Store) Grade(ctx context.Context, id, teacherID primitive.ObjectID, score int, feedback string, now time.Time) (*models.Assignment, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.TeacherID != teacherID {
		return nil, mongo.ErrNoDocuments
	}
	if score < 0 || score > cur.MaxScore {
		return nil, ErrScoreRange
	}

	now = now.UTC()
	var a models.Assignment
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "teacher_id": teacherID, "status": models.AssignmentSubmitted, "max_score": cur.MaxScore},
		bson.M{"$set": bson.M{
			"status":     models.AssignmentGraded,
			"score":      score,
			"feedback":   feedback,
			"graded_at":  now,
			"updated_at": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if err == nil {
		return &a, nil
	}
	return nil, s.explain(ctx, err, bson.M{"_id": id, "teacher_id": teacherID})
}

// explain turns a conditional update miss into ErrNoDocuments when the
// document is absent for owner, or ErrInvalidTransition when it exists.
func (s *Store) explain(ctx context.Context, err error, owner bson.M) error {
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	n, cerr := s.c.CountDocuments(ctx, owner)
	if cerr != nil {
		return cerr
	}
	if n == 0 {
		return mongo.ErrNoDocuments
	}
	return ErrInvalidTransition
}

// Delete removes an assignment owned by teacherID. Returns the number deleted.
func (s *Store) Delete(ctx context.Context, id, teacherID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "teacher_id": teacherID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteForStudent removes every assignment for a student, used when the
// student account is deleted.
func (s *Store) DeleteForStudent(ctx context.Context, studentID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"student_id": studentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
