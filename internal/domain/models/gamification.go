package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EarnedAchievement records when a user unlocked an achievement.
type EarnedAchievement struct {
	Code     string    `bson:"code" json:"code"`
	EarnedAt time.Time `bson:"earned_at" json:"earned_at"`
}

// GamificationProfile holds a user's level, experience, and streak bookkeeping.
// There is at most one profile per user.
type GamificationProfile struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID  `bson:"user_id" json:"user_id"`
	XP               int64               `bson:"xp" json:"xp"`
	Level            int                 `bson:"level" json:"level"`
	CurrentStreak    int                 `bson:"current_streak" json:"current_streak"`
	LongestStreak    int                 `bson:"longest_streak" json:"longest_streak"`
	LastActivityDate *time.Time          `bson:"last_activity_date,omitempty" json:"last_activity_date,omitempty"`
	Achievements     []EarnedAchievement `bson:"achievements" json:"achievements"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasAchievement reports whether code was already earned.
func (p GamificationProfile) HasAchievement(code string) bool {
	for _, a := range p.Achievements {
		if a.Code == code {
			return true
		}
	}
	return false
}

// Achievement is a catalog entry describing an unlockable badge.
type Achievement struct {
	Code        string `yaml:"code" json:"code"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	XPReward    int64  `yaml:"xp_reward" json:"xp_reward"`
}
