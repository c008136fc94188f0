package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application statuses.
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// Application is a prospective teacher's request to join the platform.
type Application struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName        string             `bson:"full_name" json:"full_name"`
	Email           string             `bson:"email" json:"email"`
	EmailCI         string             `bson:"email_ci" json:"-"`
	Phone           string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Subjects        []string           `bson:"subjects" json:"subjects"`
	ExperienceYears int                `bson:"experience_years" json:"experience_years"`
	Message         string             `bson:"message,omitempty" json:"message,omitempty"`
	Status          string             `bson:"status" json:"status"`
	RejectReason    string             `bson:"reject_reason,omitempty" json:"reject_reason,omitempty"`

	ReviewedBy *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	// TeacherID is the user created on approval.
	TeacherID *primitive.ObjectID `bson:"teacher_id,omitempty" json:"teacher_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
