// Package adaptive serves the learning-module catalog to students and picks
// the modules each student should take next.
package adaptive

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/app/services/gamification"
	modulestore "github.com/Elqomdes/hedeflynet/internal/app/store/modules"
	progressstore "github.com/Elqomdes/hedeflynet/internal/app/store/progress"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	// ErrNotPublished is returned when a student touches a draft module.
	ErrNotPublished = errors.New("module is not published")
	// ErrLocked is returned when a module's prerequisites are not all completed.
	ErrLocked = errors.New("complete the prerequisite modules first")
)

// TargetDifficulty maps a student's average module score to the difficulty
// they should work at next. With no completed modules it is 1.
func TargetDifficulty(avgScore float64, completed int) int {
	if completed == 0 {
		return 1
	}
	t := int(math.Round(1 + avgScore/25))
	if t < 1 {
		return 1
	}
	if t > 5 {
		return 5
	}
	return t
}

// AverageScore averages the scores of completed modules.
func AverageScore(progress map[primitive.ObjectID]models.ModuleProgress) (avg float64, completed int) {
	var sum int
	for _, p := range progress {
		if p.Status != models.ProgressCompleted || p.Score == nil {
			continue
		}
		sum += *p.Score
		completed++
	}
	if completed == 0 {
		return 0, 0
	}
	return float64(sum) / float64(completed), completed
}

// Unlocked reports whether every prerequisite of m is completed.
func Unlocked(m models.LearningModule, progress map[primitive.ObjectID]models.ModuleProgress) bool {
	for _, id := range m.Prerequisites {
		if p, ok := progress[id]; !ok || p.Status != models.ProgressCompleted {
			return false
		}
	}
	return true
}

// Recommendation is one suggested module.
type Recommendation struct {
	Module           models.LearningModule `json:"module"`
	TargetDifficulty int                   `json:"target_difficulty"`
	Reason           string                `json:"reason"`
}

// Recommend picks up to limit modules: not yet completed, with every
// prerequisite completed, closest to the target difficulty first, then
// easier before harder, then by title.
func Recommend(catalog []models.LearningModule, progress map[primitive.ObjectID]models.ModuleProgress, limit int) []Recommendation {
	avg, completed := AverageScore(progress)
	target := TargetDifficulty(avg, completed)

	var picks []models.LearningModule
	for _, m := range catalog {
		if p, ok := progress[m.ID]; ok && p.Status == models.ProgressCompleted {
			continue
		}
		if !Unlocked(m, progress) {
			continue
		}
		picks = append(picks, m)
	}
	sort.SliceStable(picks, func(i, j int) bool {
		di, dj := distance(picks[i].Difficulty, target), distance(picks[j].Difficulty, target)
		if di != dj {
			return di < dj
		}
		if picks[i].Difficulty != picks[j].Difficulty {
			return picks[i].Difficulty < picks[j].Difficulty
		}
		return strings.ToLower(picks[i].Title) < strings.ToLower(picks[j].Title)
	})
	if limit > 0 && len(picks) > limit {
		picks = picks[:limit]
	}

	out := make([]Recommendation, 0, len(picks))
	for _, m := range picks {
		out = append(out, Recommendation{Module: m, TargetDifficulty: target, Reason: reason(m.Difficulty, target)})
	}
	return out
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func reason(difficulty, target int) string {
	switch {
	case difficulty == target:
		return "matches your current level"
	case difficulty < target:
		return "review to strengthen the basics"
	}
	return "a stretch beyond your current level"
}

// CatalogEntry is a published module with the caller's progress on it.
type CatalogEntry struct {
	Module   models.LearningModule  `json:"module"`
	Progress *models.ModuleProgress `json:"progress,omitempty"`
	Unlocked bool                   `json:"unlocked"`
}

// CompleteResult reports a finished module.
type CompleteResult struct {
	Progress  *models.ModuleProgress `json:"progress"`
	FirstTime bool                   `json:"first_time"`
	XP        *gamification.Result   `json:"xp,omitempty"`
}

type Service struct {
	modules  *modulestore.Store
	progress *progressstore.Store
	game     *gamification.Service
	log      *zap.Logger
	now      func() time.Time
}

func New(modules *modulestore.Store, progress *progressstore.Store, game *gamification.Service, logger *zap.Logger) *Service {
	return &Service{modules: modules, progress: progress, game: game, log: logger, now: time.Now}
}

// Catalog lists published modules (optionally for one subject) with the
// student's progress.
func (s *Service) Catalog(ctx context.Context, userID primitive.ObjectID, subject string) ([]CatalogEntry, error) {
	mods, err := s.modules.ListAll(ctx, modulestore.Filter{Subject: subject, PublishedOnly: true})
	if err != nil {
		return nil, err
	}
	prog, err := s.progress.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]CatalogEntry, 0, len(mods))
	for _, m := range mods {
		e := CatalogEntry{Module: m, Unlocked: Unlocked(m, prog)}
		if p, ok := prog[m.ID]; ok {
			p := p
			e.Progress = &p
		}
		out = append(out, e)
	}
	return out, nil
}

// Recommendations returns the student's next modules across the whole
// published catalog.
func (s *Service) Recommendations(ctx context.Context, userID primitive.ObjectID, limit int) ([]Recommendation, error) {
	mods, err := s.modules.ListAll(ctx, modulestore.Filter{PublishedOnly: true})
	if err != nil {
		return nil, err
	}
	prog, err := s.progress.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Recommend(mods, prog, limit), nil
}

// load fetches a published module and checks the student may work on it.
func (s *Service) load(ctx context.Context, userID, moduleID primitive.ObjectID) (*models.LearningModule, error) {
	m, err := s.modules.GetByID(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if !m.IsPublished {
		return nil, mongo.ErrNoDocuments
	}
	if len(m.Prerequisites) > 0 {
		prog, err := s.progress.ForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !Unlocked(*m, prog) {
			return nil, ErrLocked
		}
	}
	return m, nil
}

// Start records that the student opened a module.
func (s *Service) Start(ctx context.Context, userID, moduleID primitive.ObjectID) (*models.ModuleProgress, error) {
	if _, err := s.load(ctx, userID, moduleID); err != nil {
		return nil, err
	}
	return s.progress.Start(ctx, userID, moduleID, s.now().UTC())
}

// Complete records a finished module. The first completion earns XP, the
// first_module achievement, and a streak day; repeats only update the score.
func (s *Service) Complete(ctx context.Context, userID, moduleID primitive.ObjectID, score int) (*CompleteResult, error) {
	m, err := s.load(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p, first, err := s.progress.Complete(ctx, userID, moduleID, score, now)
	if err != nil {
		return nil, err
	}
	res := &CompleteResult{Progress: p, FirstTime: first}
	if !first || s.game == nil {
		return res, nil
	}

	xp, err := s.game.AddExperience(ctx, userID, gamification.ModuleXP(score, m.Difficulty), "module:"+m.ID.Hex())
	if err != nil {
		s.log.Error("module xp failed", zap.String("module_id", m.ID.Hex()), zap.Error(err))
		return res, nil
	}
	if aw, err := s.game.Award(ctx, userID, "first_module"); err == nil {
		xp.Awarded = append(xp.Awarded, aw.Awarded...)
		xp.XP = aw.XP
	}
	if _, err := s.game.RecordActivity(ctx, userID, now); err != nil {
		s.log.Warn("record activity failed", zap.String("user_id", userID.Hex()), zap.Error(err))
	}
	res.XP = xp
	return res, nil
}

// DeleteModule removes a module and everyone's progress on it.
func (s *Service) DeleteModule(ctx context.Context, moduleID primitive.ObjectID) (int64, error) {
	n, err := s.modules.Delete(ctx, moduleID)
	if err != nil || n == 0 {
		return n, err
	}
	if _, err := s.progress.DeleteForModule(ctx, moduleID); err != nil {
		s.log.Warn("failed to delete module progress", zap.String("module_id", moduleID.Hex()), zap.Error(err))
	}
	return n, nil
}
