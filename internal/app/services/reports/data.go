// Package reports collects a student's progress statistics and renders them
// as a PDF. Generation never fails once a student is authorised: a data
// failure falls back to placeholder data, and a render failure falls back to
// a minimal error document.
package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	gamificationstore "github.com/Elqomdes/hedeflynet/internal/app/store/gamification"
	goalstore "github.com/Elqomdes/hedeflynet/internal/app/store/goals"
	progressstore "github.com/Elqomdes/hedeflynet/internal/app/store/progress"
	"github.com/Elqomdes/hedeflynet/internal/app/store/queries/reportqueries"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	videosessionstore "github.com/Elqomdes/hedeflynet/internal/app/store/videosessions"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// GoalLine is one goal in the report.
type GoalLine struct {
	Title    string  `json:"title"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Current  float64 `json:"current"`
	Target   float64 `json:"target"`
	Unit     string  `json:"unit,omitempty"`
}

// Data is everything a report shows.
type Data struct {
	StudentID   primitive.ObjectID `json:"student_id"`
	StudentName string             `json:"student_name"`
	TeacherName string             `json:"teacher_name,omitempty"`
	From        *time.Time         `json:"from,omitempty"`
	To          *time.Time         `json:"to,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`

	AssignmentCounts    map[string]int64               `json:"assignment_counts"`
	AssignmentsTotal    int64                          `json:"assignments_total"`
	AverageGradePercent float64                        `json:"average_grade_percent"`
	Subjects            []reportqueries.SubjectAverage `json:"subjects"`

	Goals []GoalLine `json:"goals"`

	Level         int   `json:"level"`
	XP            int64 `json:"xp"`
	CurrentStreak int   `json:"current_streak"`
	LongestStreak int   `json:"longest_streak"`
	Achievements  int   `json:"achievements"`

	ModulesCompleted int64 `json:"modules_completed"`
	SessionsAttended int64 `json:"sessions_attended"`

	// Partial marks placeholder data produced after a collection failure.
	Partial bool `json:"partial"`
}

// DataService gathers report data from the stores.
type DataService struct {
	db       *mongo.Database
	users    *userstore.Store
	goals    *goalstore.Store
	game     *gamificationstore.Store
	progress *progressstore.Store
	videos   *videosessionstore.Store
	now      func() time.Time
}

func NewDataService(db *mongo.Database) *DataService {
	return &DataService{
		db:       db,
		users:    userstore.New(db),
		goals:    goalstore.New(db),
		game:     gamificationstore.New(db),
		progress: progressstore.New(db),
		videos:   videosessionstore.New(db),
		now:      time.Now,
	}
}

// Collect aggregates a student's statistics. from/to bound assignments by
// due date and modules and sessions by completion and schedule time.
func (s *DataService) Collect(ctx context.Context, studentID primitive.ObjectID, from, to *time.Time) (*Data, error) {
	student, err := s.users.GetByIDAndRole(ctx, studentID, models.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	d := &Data{
		StudentID:   student.ID,
		StudentName: student.FullName,
		From:        from,
		To:          to,
		GeneratedAt: s.now().UTC(),
	}
	if student.TeacherID != nil {
		if t, err := s.users.GetByID(ctx, *student.TeacherID); err == nil {
			d.TeacherName = t.FullName
		}
	}

	w := reportqueries.Window{From: from, To: to}
	if d.AssignmentCounts, err = reportqueries.CountAssignmentsByStatus(ctx, s.db, studentID, w); err != nil {
		return nil, fmt.Errorf("count assignments: %w", err)
	}
	for _, n := range d.AssignmentCounts {
		d.AssignmentsTotal += n
	}
	if d.Subjects, err = reportqueries.SubjectAverages(ctx, s.db, studentID, w); err != nil {
		return nil, fmt.Errorf("subject averages: %w", err)
	}
	if d.Subjects == nil {
		d.Subjects = []reportqueries.SubjectAverage{}
	}
	d.AverageGradePercent = weightedAverage(d.Subjects)

	goals, err := s.goals.List(ctx, goalstore.Filter{StudentID: &studentID})
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	d.Goals = make([]GoalLine, 0, len(goals))
	for _, g := range goals {
		d.Goals = append(d.Goals, GoalLine{
			Title: g.Title, Status: g.Status, Progress: round1(g.Progress()),
			Current: g.CurrentValue, Target: g.TargetValue, Unit: g.Unit,
		})
	}

	p, err := s.game.Find(ctx, studentID)
	switch {
	case err == nil:
		d.Level, d.XP = p.Level, p.XP
		d.CurrentStreak, d.LongestStreak = p.CurrentStreak, p.LongestStreak
		d.Achievements = len(p.Achievements)
	case errors.Is(err, mongo.ErrNoDocuments):
		d.Level = 1
	default:
		return nil, fmt.Errorf("load gamification: %w", err)
	}

	if d.ModulesCompleted, err = s.progress.CountCompleted(ctx, studentID, from, to); err != nil {
		return nil, fmt.Errorf("count modules: %w", err)
	}
	if d.SessionsAttended, err = s.videos.CountAttended(ctx, studentID, from, to); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	return d, nil
}

// Fallback returns placeholder data for a report whose collection failed.
// name may be empty when even the student record could not be read.
func (s *DataService) Fallback(studentID primitive.ObjectID, name string) *Data {
	if name == "" {
		name = "Student"
	}
	return &Data{
		StudentID:   studentID,
		StudentName: name,
		GeneratedAt: s.now().UTC(),
		AssignmentCounts: map[string]int64{
			models.AssignmentPending:   0,
			models.AssignmentSubmitted: 0,
			models.AssignmentGraded:    0,
		},
		Subjects: []reportqueries.SubjectAverage{},
		Goals:    []GoalLine{},
		Level:    1,
		Partial:  true,
	}
}

func weightedAverage(avgs []reportqueries.SubjectAverage) float64 {
	var total float64
	var n int64
	for _, a := range avgs {
		total += a.Average * float64(a.Graded)
		n += a.Graded
	}
	if n == 0 {
		return 0
	}
	return round1(total / float64(n))
}
