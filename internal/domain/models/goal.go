package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Goal statuses.
const (
	GoalActive    = "active"
	GoalCompleted = "completed"
)

// Goal is a measurable target a teacher sets for a student.
type Goal struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeacherID    primitive.ObjectID `bson:"teacher_id" json:"teacher_id"`
	StudentID    primitive.ObjectID `bson:"student_id" json:"student_id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	TargetValue  float64            `bson:"target_value" json:"target_value"`
	CurrentValue float64            `bson:"current_value" json:"current_value"`
	Unit         string             `bson:"unit,omitempty" json:"unit,omitempty"`
	TargetDate   *time.Time         `bson:"target_date,omitempty" json:"target_date,omitempty"`
	Status       string             `bson:"status" json:"status"`
	CompletedAt  *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Progress returns CurrentValue as a percentage of TargetValue, capped at 100.
func (g Goal) Progress() float64 {
	if g.TargetValue <= 0 {
		return 0
	}
	p := g.CurrentValue * 100 / g.TargetValue
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}
