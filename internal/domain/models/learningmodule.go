package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Content item types.
const (
	ContentText  = "text"
	ContentVideo = "video"
	ContentQuiz  = "quiz"
)

// ContentItem is one step inside a learning module.
type ContentItem struct {
	Type  string `bson:"type" json:"type" validate:"required,oneof=text video quiz"`
	Title string `bson:"title" json:"title" validate:"required,max=200"`
	Body  string `bson:"body,omitempty" json:"body,omitempty" validate:"max=20000"`
	URL   string `bson:"url,omitempty" json:"url,omitempty" validate:"omitempty,url"`
}

// LearningModule is a catalog entry in the adaptive-learning library.
type LearningModule struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title            string               `bson:"title" json:"title"`
	TitleCI          string               `bson:"title_ci" json:"-"`
	Description      string               `bson:"description,omitempty" json:"description,omitempty"`
	Subject          string               `bson:"subject" json:"subject"`
	Difficulty       int                  `bson:"difficulty" json:"difficulty"` // 1..5
	Prerequisites    []primitive.ObjectID `bson:"prerequisites,omitempty" json:"prerequisites,omitempty"`
	EstimatedMinutes int                  `bson:"estimated_minutes" json:"estimated_minutes"`
	Content          []ContentItem        `bson:"content" json:"content"`
	IsPublished      bool                 `bson:"is_published" json:"is_published"`
	CreatedBy        primitive.ObjectID   `bson:"created_by" json:"created_by"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Module progress statuses.
const (
	ProgressInProgress = "in_progress"
	ProgressCompleted  = "completed"
)

// ModuleProgress tracks one student's work through one module.
type ModuleProgress struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	ModuleID    primitive.ObjectID `bson:"module_id" json:"module_id"`
	Status      string             `bson:"status" json:"status"`
	Score       *int               `bson:"score,omitempty" json:"score,omitempty"`
	StartedAt   time.Time          `bson:"started_at" json:"started_at"`
	CompletedAt *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
