package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video session statuses.
const (
	VideoScheduled = "scheduled"
	VideoLive      = "live"
	VideoCompleted = "completed"
	VideoCancelled = "cancelled"
)

// Participant is an invited attendee of a video session.
type Participant struct {
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	Joined   bool               `bson:"joined" json:"joined"`
	JoinedAt *time.Time         `bson:"joined_at,omitempty" json:"joined_at,omitempty"`
	LeftAt   *time.Time         `bson:"left_at,omitempty" json:"left_at,omitempty"`
}

// VideoSession is a scheduled coaching call between a teacher and students.
type VideoSession struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeacherID       primitive.ObjectID `bson:"teacher_id" json:"teacher_id"`
	Title           string             `bson:"title" json:"title"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	ScheduledAt     time.Time          `bson:"scheduled_at" json:"scheduled_at"`
	DurationMinutes int                `bson:"duration_minutes" json:"duration_minutes"`
	RoomID          string             `bson:"room_id" json:"room_id"`
	Status          string             `bson:"status" json:"status"`
	Participants    []Participant      `bson:"participants" json:"participants"`
	StartedAt       *time.Time         `bson:"started_at,omitempty" json:"started_at,omitempty"`
	EndedAt         *time.Time         `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Invited reports whether userID is on the participant list.
func (v VideoSession) Invited(userID primitive.ObjectID) bool {
	for _, p := range v.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
