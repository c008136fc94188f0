package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assignment statuses.
const (
	AssignmentPending   = "pending"
	AssignmentSubmitted = "submitted"
	AssignmentGraded    = "graded"
)

// Assignment is a piece of work a teacher sets for one student.
//
// A teacher assigning the same work to several students produces one
// document per student so that submission and grading stay independent.
type Assignment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeacherID   primitive.ObjectID `bson:"teacher_id" json:"teacher_id"`
	StudentID   primitive.ObjectID `bson:"student_id" json:"student_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Subject     string             `bson:"subject" json:"subject"`
	DueDate     time.Time          `bson:"due_date" json:"due_date"`
	MaxScore    int                `bson:"max_score" json:"max_score"`
	Status      string             `bson:"status" json:"status"`

	Submission  string     `bson:"submission,omitempty" json:"submission,omitempty"`
	SubmittedAt *time.Time `bson:"submitted_at,omitempty" json:"submitted_at,omitempty"`
	Late        bool       `bson:"late" json:"late"`

	Score    *int       `bson:"score,omitempty" json:"score,omitempty"`
	Feedback string     `bson:"feedback,omitempty" json:"feedback,omitempty"`
	GradedAt *time.Time `bson:"graded_at,omitempty" json:"graded_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Percent returns the graded score as a percentage of MaxScore.
// It returns false when the assignment has no grade.
func (a Assignment) Percent() (float64, bool) {
	if a.Score == nil || a.MaxScore <= 0 {
		return 0, false
	}
	return float64(*a.Score) * 100 / float64(a.MaxScore), true
}
