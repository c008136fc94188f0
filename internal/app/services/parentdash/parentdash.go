// Package parentdash builds the parent dashboard: one progress summary per
// linked child, cached per parent.
package parentdash

import (
	"context"
	"fmt"
	"math"
	"time"

	assignmentstore "github.com/Elqomdes/hedeflynet/internal/app/store/assignments"
	gamificationstore "github.com/Elqomdes/hedeflynet/internal/app/store/gamification"
	goalstore "github.com/Elqomdes/hedeflynet/internal/app/store/goals"
	notificationstore "github.com/Elqomdes/hedeflynet/internal/app/store/notifications"
	"github.com/Elqomdes/hedeflynet/internal/app/store/queries/reportqueries"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	videosessionstore "github.com/Elqomdes/hedeflynet/internal/app/store/videosessions"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respcache"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// RecentGradesLimit is how many recent grades each child summary carries.
const RecentGradesLimit = 5

// Percent returns num/den as a percentage rounded to one decimal, or 0 when
// den is 0.
func Percent(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return Round1(num * 100 / den)
}

// Round1 rounds to one decimal place.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

type RecentGrade struct {
	AssignmentID primitive.ObjectID `json:"assignment_id"`
	Title        string             `json:"title"`
	Subject      string             `json:"subject"`
	Score        int                `json:"score"`
	MaxScore     int                `json:"max_score"`
	Percent      float64            `json:"percent"`
	GradedAt     *time.Time         `json:"graded_at,omitempty"`
}

type ChildSummary struct {
	StudentID   primitive.ObjectID `json:"student_id"`
	Name        string             `json:"name"`
	TeacherName string             `json:"teacher_name,omitempty"`

	AssignmentsTotal     int64   `json:"assignments_total"`
	AssignmentsCompleted int64   `json:"assignments_completed"`
	AssignmentsPending   int64   `json:"assignments_pending"`
	CompletionPercent    float64 `json:"completion_percent"`
	AverageGradePercent  float64 `json:"average_grade_percent"`

	GoalsTotal         int     `json:"goals_total"`
	GoalsCompleted     int     `json:"goals_completed"`
	GoalCompletionRate float64 `json:"goal_completion_percent"`

	Level         int   `json:"level"`
	XP            int64 `json:"xp"`
	CurrentStreak int   `json:"current_streak"`

	UpcomingSessions int64         `json:"upcoming_sessions"`
	RecentGrades     []RecentGrade `json:"recent_grades"`
}

type Dashboard struct {
	Children            []ChildSummary `json:"children"`
	UnreadNotifications int64          `json:"unread_notifications"`
	GeneratedAt         time.Time      `json:"generated_at"`
}

type Service struct {
	db          *mongo.Database
	users       *userstore.Store
	assignments *assignmentstore.Store
	goals       *goalstore.Store
	game        *gamificationstore.Store
	videos      *videosessionstore.Store
	notes       *notificationstore.Store
	cache       respcache.Cache
	ttl         time.Duration
	log         *zap.Logger
	now         func() time.Time
}

// New builds the service. A nil cache disables caching.
func New(db *mongo.Database, cache respcache.Cache, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{
		db:          db,
		users:       userstore.New(db),
		assignments: assignmentstore.New(db),
		goals:       goalstore.New(db),
		game:        gamificationstore.New(db),
		videos:      videosessionstore.New(db),
		notes:       notificationstore.New(db),
		cache:       cache,
		ttl:         ttl,
		log:         logger,
		now:         time.Now,
	}
}

func cacheKey(parentID primitive.ObjectID) string { return respcache.Key("parentdash", parentID.Hex()) }

// Dashboard returns the parent's dashboard. Child summaries come from the
// cache when fresh; the unread count is always live.
func (s *Service) Dashboard(ctx context.Context, parentID primitive.ObjectID) (*Dashboard, error) {
	d, err := respcache.GetOrLoad(ctx, s.cache, cacheKey(parentID), s.ttl, func(ctx context.Context) (Dashboard, error) {
		return s.build(ctx, parentID)
	})
	if err != nil {
		return nil, err
	}
	unread, err := s.notes.CountUnread(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}
	d.UnreadNotifications = unread
	return &d, nil
}

// Invalidate drops cached dashboards so the next read is rebuilt.
func (s *Service) Invalidate(ctx context.Context, parentIDs ...primitive.ObjectID) {
	if s == nil || s.cache == nil || len(parentIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(parentIDs))
	for _, id := range parentIDs {
		keys = append(keys, cacheKey(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn("parent dashboard invalidation failed", zap.Error(err))
	}
}

// InvalidateForStudent drops the dashboards of every parent of studentID.
func (s *Service) InvalidateForStudent(ctx context.Context, studentID primitive.ObjectID) {
	if s == nil || s.cache == nil {
		return
	}
	parents, err := s.users.ParentsOf(ctx, studentID)
	if err != nil {
		s.log.Warn("load parents for invalidation", zap.Error(err))
		return
	}
	ids := make([]primitive.ObjectID, 0, len(parents))
	for _, p := range parents {
		ids = append(ids, p.ID)
	}
	s.Invalidate(ctx, ids...)
}

func (s *Service) build(ctx context.Context, parentID primitive.ObjectID) (Dashboard, error) {
	parent, err := s.users.GetByIDAndRole(ctx, parentID, models.RoleParent)
	if err != nil {
		return Dashboard{}, err
	}
	children, err := s.users.GetMany(ctx, parent.ChildIDs)
	if err != nil {
		return Dashboard{}, err
	}
	profiles, err := s.game.ForUsers(ctx, parent.ChildIDs)
	if err != nil {
		return Dashboard{}, err
	}

	var teacherIDs []primitive.ObjectID
	for _, c := range children {
		if c.TeacherID != nil {
			teacherIDs = append(teacherIDs, *c.TeacherID)
		}
	}
	teachers, err := s.users.GetMany(ctx, teacherIDs)
	if err != nil {
		return Dashboard{}, err
	}

	now := s.now().UTC()
	out := Dashboard{Children: []ChildSummary{}, GeneratedAt: now}
	// Keep the parent's link order.
	for _, id := range parent.ChildIDs {
		child, ok := children[id]
		if !ok || child.Role != models.RoleStudent {
			continue
		}
		sum, err := s.summarise(ctx, child, now)
		if err != nil {
			return Dashboard{}, fmt.Errorf("summarise %s: %w", id.Hex(), err)
		}
		if child.TeacherID != nil {
			sum.TeacherName = teachers[*child.TeacherID].FullName
		}
		if p, ok := profiles[id]; ok {
			sum.Level, sum.XP, sum.CurrentStreak = p.Level, p.XP, p.CurrentStreak
		} else {
			sum.Level = 1
		}
		out.Children = append(out.Children, sum)
	}
	return out, nil
}

func (s *Service) summarise(ctx context.Context, child models.User, now time.Time) (ChildSummary, error) {
	sum := ChildSummary{StudentID: child.ID, Name: child.FullName, RecentGrades: []RecentGrade{}}

	counts, err := reportqueries.CountAssignmentsByStatus(ctx, s.db, child.ID, reportqueries.Window{})
	if err != nil {
		return sum, err
	}
	sum.AssignmentsPending = counts[models.AssignmentPending]
	sum.AssignmentsCompleted = counts[models.AssignmentSubmitted] + counts[models.AssignmentGraded]
	sum.AssignmentsTotal = sum.AssignmentsPending + sum.AssignmentsCompleted
	sum.CompletionPercent = Percent(float64(sum.AssignmentsCompleted), float64(sum.AssignmentsTotal))

	avgs, err := reportqueries.SubjectAverages(ctx, s.db, child.ID, reportqueries.Window{})
	if err != nil {
		return sum, err
	}
	sum.AverageGradePercent = OverallAverage(avgs)

	goals, err := s.goals.List(ctx, goalstore.Filter{StudentID: &child.ID})
	if err != nil {
		return sum, err
	}
	sum.GoalsTotal = len(goals)
	for _, g := range goals {
		if g.Status == models.GoalCompleted {
			sum.GoalsCompleted++
		}
	}
	sum.GoalCompletionRate = Percent(float64(sum.GoalsCompleted), float64(sum.GoalsTotal))

	if sum.UpcomingSessions, err = s.videos.CountUpcoming(ctx, child.ID, now); err != nil {
		return sum, err
	}

	recent, err := s.assignments.RecentGraded(ctx, child.ID, RecentGradesLimit)
	if err != nil {
		return sum, err
	}
	for _, a := range recent {
		pct, _ := a.Percent()
		g := RecentGrade{
			AssignmentID: a.ID,
			Title:        a.Title,
			Subject:      a.Subject,
			MaxScore:     a.MaxScore,
			Percent:      Round1(pct),
			GradedAt:     a.GradedAt,
		}
		if a.Score != nil {
			g.Score = *a.Score
		}
		sum.RecentGrades = append(sum.RecentGrades, g)
	}
	return sum, nil
}

// OverallAverage weights each subject average by its graded count, rounded
// to one decimal.
func OverallAverage(avgs []reportqueries.SubjectAverage) float64 {
	var total float64
	var n int64
	for _, a := range avgs {
		total += a.Average * float64(a.Graded)
		n += a.Graded
	}
	if n == 0 {
		return 0
	}
	return Round1(total / float64(n))
}
