// Package notifier tells parents about their children's progress: an in-app
// notification for every linked parent, mirrored by email.
package notifier

import (
	"context"
	"fmt"

	notificationstore "github.com/Elqomdes/hedeflynet/internal/app/store/notifications"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"github.com/Elqomdes/hedeflynet/internal/app/system/mailer"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Event is something that happened to a student.
type Event struct {
	StudentID primitive.ObjectID
	Type      string
	Title     string
	Message   string
	TargetID  *primitive.ObjectID
}

type Service struct {
	notes    *notificationstore.Store
	users    *userstore.Store
	mail     mailer.Sender
	siteName string
	log      *zap.Logger
}

// New builds a notifier. mail may be nil to skip email copies.
func New(notes *notificationstore.Store, users *userstore.Store, mail mailer.Sender, siteName string, logger *zap.Logger) *Service {
	if siteName == "" {
		siteName = "HedeflyNet"
	}
	return &Service{notes: notes, users: users, mail: mail, siteName: siteName, log: logger}
}

// NotifyParents stores one notification per active parent of ev.StudentID
// and returns the parents it notified. Email failures are logged only.
func (s *Service) NotifyParents(ctx context.Context, ev Event) ([]primitive.ObjectID, error) {
	parents, err := s.users.ParentsOf(ctx, ev.StudentID)
	if err != nil {
		return nil, fmt.Errorf("load parents: %w", err)
	}
	if len(parents) == 0 {
		return nil, nil
	}

	ns := make([]models.ParentNotification, 0, len(parents))
	ids := make([]primitive.ObjectID, 0, len(parents))
	for _, p := range parents {
		ns = append(ns, models.ParentNotification{
			ParentID:  p.ID,
			StudentID: ev.StudentID,
			Type:      ev.Type,
			Title:     ev.Title,
			Message:   ev.Message,
			TargetID:  ev.TargetID,
		})
		ids = append(ids, p.ID)
	}
	if _, err := s.notes.CreateMany(ctx, ns); err != nil {
		return nil, fmt.Errorf("store notifications: %w", err)
	}

	if s.mail != nil {
		for _, p := range parents {
			email := mailer.BuildNotificationEmail(mailer.NotificationEmailData{
				SiteName:    s.siteName,
				ParentName:  p.FullName,
				ParentEmail: p.Email,
				Title:       ev.Title,
				Message:     ev.Message,
			})
			if err := s.mail.Send(ctx, email); err != nil {
				s.log.Warn("parent notification email failed",
					zap.String("parent_id", p.ID.Hex()),
					zap.String("type", ev.Type),
					zap.Error(err))
			}
		}
	}

	s.log.Debug("parents notified",
		zap.String("student_id", ev.StudentID.Hex()),
		zap.String("type", ev.Type),
		zap.Int("parents", len(ids)))
	return ids, nil
}

// Graded builds the event for a graded assignment.
func Graded(studentName string, a models.Assignment) Event {
	score := 0
	if a.Score != nil {
		score = *a.Score
	}
	id := a.ID
	return Event{
		StudentID: a.StudentID,
		Type:      models.NotifyGrade,
		Title:     fmt.Sprintf("New grade for %s", studentName),
		Message:   fmt.Sprintf("%s scored %d/%d on %q (%s).", studentName, score, a.MaxScore, a.Title, a.Subject),
		TargetID:  &id,
	}
}

// GoalCompleted builds the event for a finished goal.
func GoalCompleted(studentName string, g models.Goal) Event {
	id := g.ID
	return Event{
		StudentID: g.StudentID,
		Type:      models.NotifyGoalCompleted,
		Title:     fmt.Sprintf("%s reached a goal", studentName),
		Message:   fmt.Sprintf("%s completed the goal %q.", studentName, g.Title),
		TargetID:  &id,
	}
}

// AchievementEarned builds the event for a new achievement.
func AchievementEarned(studentID primitive.ObjectID, studentName string, a models.Achievement) Event {
	return Event{
		StudentID: studentID,
		Type:      models.NotifyAchievement,
		Title:     fmt.Sprintf("%s earned an achievement", studentName),
		Message:   fmt.Sprintf("%s unlocked %q: %s", studentName, a.Title, a.Description),
	}
}

// SessionScheduled builds the event for a coaching call a student is invited to.
func SessionScheduled(studentID primitive.ObjectID, studentName string, v models.VideoSession) Event {
	id := v.ID
	return Event{
		StudentID: studentID,
		Type:      models.NotifySessionScheduled,
		Title:     fmt.Sprintf("Coaching session for %s", studentName),
		Message: fmt.Sprintf("%q is scheduled for %s (%d minutes).",
			v.Title, v.ScheduledAt.UTC().Format("2006-01-02 15:04 MST"), v.DurationMinutes),
		TargetID: &id,
	}
}
