package modulestore

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
	ErrBadDifficulty = errors.New("difficulty must be between 1 and 5")
	ErrSelfPrereq    = errors.New("a module cannot be its own prerequisite")
	ErrUnknownPrereq = errors.New("prerequisite module does not exist")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("learning_modules")}
}

func (s *Store) checkPrereqs(ctx context.Context, self primitive.ObjectID, prereqs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	uniq := make([]primitive.ObjectID, 0, len(prereqs))
	seen := map[primitive.ObjectID]bool{}
	for _, id := range prereqs {
		if id == self {
			return nil, ErrSelfPrereq
		}
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	if len(uniq) == 0 {
		return nil, nil
	}
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": uniq}})
	if err != nil {
		return nil, err
	}
	if n != int64(len(uniq)) {
		return nil, ErrUnknownPrereq
	}
	return uniq, nil
}

func (s *Store) Create(ctx context.Context, m models.LearningModule) (models.LearningModule, error) {
	if m.Difficulty < 1 || m.Difficulty > 5 {
		return models.LearningModule{}, ErrBadDifficulty
	}
	m.ID = primitive.NewObjectID()
	prereqs, err := s.checkPrereqs(ctx, m.ID, m.Prerequisites)
	if err != nil {
		return models.LearningModule{}, err
	}
	m.Prerequisites = prereqs
	m.Title = normalize.Name(m.Title)
	m.TitleCI = normalize.NameCI(m.Title)
	m.Subject = normalize.Subject(m.Subject)
	if m.Content == nil {
		m.Content = []models.ContentItem{}
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.LearningModule{}, err
	}
	return m, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.LearningModule, error) {
	var m models.LearningModule
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Filter narrows List and ListAll.
type Filter struct {
	Subject       string
	PublishedOnly bool
}

func (f Filter) bson() bson.M {
	q := bson.M{}
	if sub := normalize.Subject(f.Subject); sub != "" {
		q["subject"] = sub
	}
	if f.PublishedOnly {
		q["is_published"] = true
	}
	return q
}

var catalogOrder = bson.D{{Key: "subject", Value: 1}, {Key: "difficulty", Value: 1}, {Key: "title_ci", Value: 1}, {Key: "_id", Value: 1}}

// List returns one page of the catalog ordered by subject, difficulty and title.
func (s *Store) List(ctx context.Context, f Filter, p paging.Params) ([]models.LearningModule, int64, error) {
	filter := f.bson()
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, filter, p.FindOptions(catalogOrder))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.LearningModule
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListAll returns the whole matching catalog.
func (s *Store) ListAll(ctx context.Context, f Filter) ([]models.LearningModule, error) {
	cur, err := s.c.Find(ctx, f.bson(), options.Find().SetSort(catalogOrder))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.LearningModule
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Edit holds the fields that may change. Nil fields are left alone.
type Edit struct {
	Title            *string
	Description      *string
	Subject          *string
	Difficulty       *int
	Prerequisites    *[]primitive.ObjectID
	EstimatedMinutes *int
	Content          *[]models.ContentItem
	IsPublished      *bool
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, e Edit) (*models.LearningModule, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if e.Title != nil {
		set["title"] = normalize.Name(*e.Title)
		set["title_ci"] = normalize.NameCI(*e.Title)
	}
	if e.Description != nil {
		set["description"] = *e.Description
	}
	if e.Subject != nil {
		set["subject"] = normalize.Subject(*e.Subject)
	}
	if e.Difficulty != nil {
		if *e.Difficulty < 1 || *e.Difficulty > 5 {
			return nil, ErrBadDifficulty
		}
		set["difficulty"] = *e.Difficulty
	}
	if e.Prerequisites != nil {
		prereqs, err := s.checkPrereqs(ctx, id, *e.Prerequisites)
		if err != nil {
			return nil, err
		}
		if prereqs == nil {
			prereqs = []primitive.ObjectID{}
		}
		set["prerequisites"] = prereqs
	}
	if e.EstimatedMinutes != nil {
		set["estimated_minutes"] = *e.EstimatedMinutes
	}
	if e.Content != nil {
		set["content"] = *e.Content
	}
	if e.IsPublished != nil {
		set["is_published"] = *e.IsPublished
	}

	var m models.LearningModule
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Delete removes a module and drops it from every other module's prerequisites.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	if res.DeletedCount > 0 {
		if _, err := s.c.UpdateMany(ctx, bson.M{"prerequisites": id}, bson.M{"$pull": bson.M{"prerequisites": id}}); err != nil {
			return res.DeletedCount, err
		}
	}
	return res.DeletedCount, nil
}
