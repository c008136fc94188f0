package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StudyGroup is a student-run social learning circle.
type StudyGroup struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	NameCI      string               `bson:"name_ci" json:"-"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Subject     string               `bson:"subject" json:"subject"`
	OwnerID     primitive.ObjectID   `bson:"owner_id" json:"owner_id"`
	MemberIDs   []primitive.ObjectID `bson:"member_ids" json:"member_ids"`
	// InvitedIDs may join a private group.
	InvitedIDs  []primitive.ObjectID `bson:"invited_ids,omitempty" json:"invited_ids,omitempty"`
	MemberCount int                  `bson:"member_count" json:"member_count"`
	MaxMembers  int                  `bson:"max_members" json:"max_members"`
	IsPublic    bool                 `bson:"is_public" json:"is_public"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasMember reports whether userID belongs to the group.
func (g StudyGroup) HasMember(userID primitive.ObjectID) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Comment is a reply under a group post.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	AuthorID  primitive.ObjectID `bson:"author_id" json:"author_id"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// GroupPost is a message posted inside a study group.
type GroupPost struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID   `bson:"group_id" json:"group_id"`
	AuthorID  primitive.ObjectID   `bson:"author_id" json:"author_id"`
	Content   string               `bson:"content" json:"content"`
	LikedBy   []primitive.ObjectID `bson:"liked_by" json:"liked_by"`
	LikeCount int                  `bson:"like_count" json:"like_count"`
	Comments  []Comment            `bson:"comments" json:"comments"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
