package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types.
const (
	NotifyGrade            = "grade"
	NotifyGoalCompleted    = "goal_completed"
	NotifyAchievement      = "achievement"
	NotifySessionScheduled = "session_scheduled"
)

// ParentNotification tells a parent about something that happened to a child.
type ParentNotification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ParentID  primitive.ObjectID  `bson:"parent_id" json:"parent_id"`
	StudentID primitive.ObjectID  `bson:"student_id" json:"student_id"`
	Type      string              `bson:"type" json:"type"`
	Title     string              `bson:"title" json:"title"`
	Message   string              `bson:"message" json:"message"`
	TargetID  *primitive.ObjectID `bson:"target_id,omitempty" json:"target_id,omitempty"`
	Read      bool                `bson:"read" json:"read"`
	ReadAt    *time.Time          `bson:"read_at,omitempty" json:"read_at,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}
