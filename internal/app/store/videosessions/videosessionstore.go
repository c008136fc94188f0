package videosessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotInvited        = errors.New("you are not invited to this session")
	ErrSessionClosed     = errors.New("session is cancelled or already completed")
	ErrNotJoined         = errors.New("you have not joined this session")
	ErrInvalidTransition = errors.New("session is not in a state that allows this")
	ErrBadDuration       = errors.New("duration must be between 15 and 240 minutes")
)

// Duration bounds in minutes.
const (
	MinDuration = 15
	MaxDuration = 240
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("video_sessions")}
}

// Create schedules a session for the given students with a fresh room ID.
func (s *Store) Create(ctx context.Context, v models.VideoSession, studentIDs []primitive.ObjectID) (models.VideoSession, error) {
	if v.DurationMinutes < MinDuration || v.DurationMinutes > MaxDuration {
		return models.VideoSession{}, ErrBadDuration
	}
	v.ID = primitive.NewObjectID()
	v.RoomID = uuid.NewString()
	v.Status = models.VideoScheduled
	v.ScheduledAt = v.ScheduledAt.UTC()
	v.StartedAt, v.EndedAt = nil, nil

	seen := map[primitive.ObjectID]bool{}
	v.Participants = make([]models.Participant, 0, len(studentIDs))
	for _, id := range studentIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		v.Participants = append(v.Participants, models.Participant{UserID: id})
	}

	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, v); err != nil {
		return models.VideoSession{}, err
	}
	return v, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.VideoSession, error) {
	var v models.VideoSession
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListForTeacher returns a teacher's sessions, most recently scheduled first.
func (s *Store) ListForTeacher(ctx context.Context, teacherID primitive.ObjectID, status string, p paging.Params) ([]models.VideoSession, int64, error) {
	filter := bson.M{"teacher_id": teacherID}
	if status != "" {
		filter["status"] = status
	}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, filter, p.FindOptions(bson.D{{Key: "scheduled_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.VideoSession
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func upcomingFilter(userID primitive.ObjectID, now time.Time) bson.M {
	return bson.M{
		"participants.user_id": userID,
		"$or": bson.A{
			bson.M{"status": models.VideoLive},
			bson.M{"status": models.VideoScheduled, "scheduled_at": bson.M{"$gte": now.UTC()}},
		},
	}
}

// Upcoming returns live sessions and future scheduled sessions the user is
// invited to, soonest first.
func (s *Store) Upcoming(ctx context.Context, userID primitive.ObjectID, now time.Time) ([]models.VideoSession, error) {
	cur, err := s.c.Find(ctx, upcomingFilter(userID, now), options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.VideoSession
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountUpcoming counts what Upcoming would return.
func (s *Store) CountUpcoming(ctx context.Context, userID primitive.ObjectID, now time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, upcomingFilter(userID, now))
}

// CountAttended counts sessions in [from, to] the user actually joined.
func (s *Store) CountAttended(ctx context.Context, userID primitive.ObjectID, from, to *time.Time) (int64, error) {
	q := bson.M{"participants": bson.M{"$elemMatch": bson.M{"user_id": userID, "joined": true}}}
	if from != nil || to != nil {
		r := bson.M{}
		if from != nil {
			r["$gte"] = from.UTC()
		}
		if to != nil {
			r["$lte"] = to.UTC()
		}
		q["scheduled_at"] = r
	}
	return s.c.CountDocuments(ctx, q)
}

func (s *Store) transition(ctx context.Context, id, teacherID primitive.ObjectID, from, to string, set bson.M) (*models.VideoSession, error) {
	set["status"] = to
	set["updated_at"] = time.Now().UTC()
	var v models.VideoSession
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "teacher_id": teacherID, "status": from},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&v)
	if err == nil {
		return &v, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if n, _ := s.c.CountDocuments(ctx, bson.M{"_id": id, "teacher_id": teacherID}); n > 0 {
		return nil, ErrInvalidTransition
	}
	return nil, mongo.ErrNoDocuments
}

// Start moves a scheduled session to live.
func (s *Store) Start(ctx context.Context, id, teacherID primitive.ObjectID, now time.Time) (*models.VideoSession, error) {
	return s.transition(ctx, id, teacherID, models.VideoScheduled, models.VideoLive, bson.M{"started_at": now.UTC()})
}

// End moves a live session to completed.
func (s *Store) End(ctx context.Context, id, teacherID primitive.ObjectID, now time.Time) (*models.VideoSession, error) {
	return s.transition(ctx, id, teacherID, models.VideoLive, models.VideoCompleted, bson.M{"ended_at": now.UTC()})
}

// Cancel moves a scheduled session to cancelled.
func (s *Store) Cancel(ctx context.Context, id, teacherID primitive.ObjectID) (*models.VideoSession, error) {
	return s.transition(ctx, id, teacherID, models.VideoScheduled, models.VideoCancelled, bson.M{})
}

// Join flips the caller's participant record to joined and timestamps it.
func (s *Store) Join(ctx context.Context, id, userID primitive.ObjectID, now time.Time) (*models.VideoSession, error) {
	now = now.UTC()
	var v models.VideoSession
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"_id":                  id,
			"status":               bson.M{"$in": bson.A{models.VideoScheduled, models.VideoLive}},
			"participants.user_id": userID,
		},
		bson.M{
			"$set": bson.M{
				"participants.$.joined":    true,
				"participants.$.joined_at": now,
				"updated_at":               now,
			},
			"$unset": bson.M{"participants.$.left_at": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&v)
	if err == nil {
		return &v, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	cur, gerr := s.GetByID(ctx, id)
	if gerr != nil {
		return nil, gerr
	}
	if !cur.Invited(userID) {
		return nil, ErrNotInvited
	}
	return nil, ErrSessionClosed
}

// Leave timestamps left_at on a participant who has joined.
func (s *Store) Leave(ctx context.Context, id, userID primitive.ObjectID, now time.Time) (*models.VideoSession, error) {
	now = now.UTC()
	var v models.VideoSession
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"_id":          id,
			"participants": bson.M{"$elemMatch": bson.M{"user_id": userID, "joined": true}},
		},
		bson.M{"$set": bson.M{"participants.$.left_at": now, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&v)
	if err == nil {
		return &v, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	cur, gerr := s.GetByID(ctx, id)
	if gerr != nil {
		return nil, gerr
	}
	if !cur.Invited(userID) {
		return nil, ErrNotInvited
	}
	return nil, ErrNotJoined
}

// RemoveParticipant drops userID from every session's participant list.
func (s *Store) RemoveParticipant(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx, bson.M{"participants.user_id": userID}, bson.M{
		"$pull": bson.M{"participants": bson.M{"user_id": userID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
