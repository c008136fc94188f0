// Package gamification awards experience, levels, streaks, and achievements.
//
// All counters live in the gamification store and are changed with
// conditional updates, so concurrent requests for the same user see each
// level-up and each achievement exactly once.
package gamification

import (
	"context"
	"errors"
	"fmt"
	"time"

	gamificationstore "github.com/Elqomdes/hedeflynet/internal/app/store/gamification"
	"github.com/Elqomdes/hedeflynet/internal/app/system/metrics"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrNegativeXP         = errors.New("experience amount must not be negative")
	ErrUnknownAchievement = errors.New("unknown achievement")
	ErrStreakContention   = errors.New("streak update lost to concurrent activity")
)

// AwardHook is called once for every newly earned achievement.
type AwardHook func(ctx context.Context, userID primitive.ObjectID, a models.Achievement)

// Result summarises what an award did.
type Result struct {
	XP        int64    `json:"xp"`
	Level     int      `json:"level"`
	LeveledUp bool     `json:"leveled_up"`
	Awarded   []string `json:"awarded,omitempty"`
}

func (r *Result) merge(o *Result) {
	if o == nil {
		return
	}
	r.XP = o.XP
	if o.Level > r.Level {
		r.Level = o.Level
	}
	r.LeveledUp = r.LeveledUp || o.LeveledUp
	r.Awarded = append(r.Awarded, o.Awarded...)
}

// StreakResult is returned by RecordActivity.
type StreakResult struct {
	CurrentStreak int      `json:"current_streak"`
	LongestStreak int      `json:"longest_streak"`
	Changed       bool     `json:"changed"`
	Awarded       []string `json:"awarded,omitempty"`
}

type Service struct {
	store   *gamificationstore.Store
	table   *Table
	metrics *metrics.Metrics
	log     *zap.Logger
	onAward AwardHook
	now     func() time.Time
}

// New builds the service. A nil table uses the embedded one; m may be nil.
func New(store *gamificationstore.Store, table *Table, m *metrics.Metrics, logger *zap.Logger) *Service {
	if table == nil {
		table = DefaultTable()
	}
	return &Service{store: store, table: table, metrics: m, log: logger, now: time.Now}
}

// OnAward installs the hook run for each new achievement.
func (s *Service) OnAward(h AwardHook) { s.onAward = h }

// Table returns the level configuration in use.
func (s *Service) Table() *Table { return s.table }

// AddExperience adds amount XP, raises the level when a threshold is
// crossed, and awards the matching level achievements. Rewards attached to
// those achievements are added in turn.
func (s *Service) AddExperience(ctx context.Context, userID primitive.ObjectID, amount int64, reason string) (*Result, error) {
	if amount < 0 {
		return nil, ErrNegativeXP
	}
	res := &Result{}
	if amount == 0 {
		p, err := s.store.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		res.XP, res.Level = p.XP, p.Level
		return res, nil
	}

	total := amount
	for amount > 0 {
		p, err := s.store.AddXP(ctx, userID, amount)
		if err != nil {
			return nil, fmt.Errorf("add xp: %w", err)
		}
		s.metrics.XP(amount)
		amount = 0
		res.XP = p.XP
		if p.Level > res.Level {
			res.Level = p.Level
		}

		target := s.table.LevelFor(p.XP)
		if target <= p.Level {
			continue
		}
		raised, err := s.store.RaiseLevel(ctx, userID, target)
		if err != nil {
			return nil, fmt.Errorf("raise level: %w", err)
		}
		res.Level = target
		if !raised {
			// a concurrent request crossed the same threshold and owns the awards
			continue
		}
		res.LeveledUp = true
		for n := p.Level + 1; n <= target; n++ {
			reward, ok, err := s.grant(ctx, userID, LevelCode(n))
			if err != nil {
				return nil, err
			}
			if ok {
				res.Awarded = append(res.Awarded, LevelCode(n))
				amount += reward
				total += reward
			}
		}
	}

	s.log.Debug("experience added",
		zap.String("user_id", userID.Hex()),
		zap.String("reason", reason),
		zap.Int64("amount", total),
		zap.Int64("xp", res.XP),
		zap.Int("level", res.Level),
		zap.Bool("leveled_up", res.LeveledUp))
	return res, nil
}

// Award grants the achievement identified by code if the user doesn't hold
// it yet, and adds its XP reward. Awarding twice is a no-op.
func (s *Service) Award(ctx context.Context, userID primitive.ObjectID, code string) (*Result, error) {
	if _, ok := s.table.Achievement(code); !ok {
		return nil, ErrUnknownAchievement
	}
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := &Result{XP: p.XP, Level: p.Level}
	reward, ok, err := s.grant(ctx, userID, code)
	if err != nil || !ok {
		return res, err
	}
	res.Awarded = append(res.Awarded, code)
	if reward > 0 {
		more, err := s.AddExperience(ctx, userID, reward, "achievement:"+code)
		if err != nil {
			return nil, err
		}
		res.merge(more)
	}
	return res, nil
}

// grant records the achievement and fires the hook. It reports the XP reward
// and whether the achievement was new. The profile must already exist.
func (s *Service) grant(ctx context.Context, userID primitive.ObjectID, code string) (int64, bool, error) {
	a, ok := s.table.Achievement(code)
	if !ok {
		return 0, false, nil
	}
	added, err := s.store.Award(ctx, userID, code, s.now())
	if err != nil {
		return 0, false, fmt.Errorf("award %s: %w", code, err)
	}
	if !added {
		return 0, false, nil
	}
	s.log.Info("achievement earned", zap.String("user_id", userID.Hex()), zap.String("code", code))
	if s.onAward != nil {
		s.onAward(ctx, userID, a)
	}
	return a.XPReward, true, nil
}

// RecordActivity updates the daily streak for activity at `at` and awards
// any streak milestone reached.
func (s *Service) RecordActivity(ctx context.Context, userID primitive.ObjectID, at time.Time) (*StreakResult, error) {
	const attempts = 3
	for i := 0; i < attempts; i++ {
		p, err := s.store.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		next, changed := NextStreak(p.CurrentStreak, p.LongestStreak, p.LastActivityDate, at)
		if !changed {
			return &StreakResult{CurrentStreak: p.CurrentStreak, LongestStreak: p.LongestStreak}, nil
		}
		ok, err := s.store.SetStreak(ctx, userID, p.LastActivityDate, next.Current, next.Longest, next.Last)
		if err != nil {
			return nil, fmt.Errorf("set streak: %w", err)
		}
		if !ok {
			continue
		}

		res := &StreakResult{CurrentStreak: next.Current, LongestStreak: next.Longest, Changed: true}
		for _, m := range s.table.Streaks {
			if next.Current < m.Days {
				break
			}
			r, err := s.Award(ctx, userID, m.Code)
			if err != nil {
				return nil, err
			}
			res.Awarded = append(res.Awarded, r.Awarded...)
		}
		return res, nil
	}
	return nil, ErrStreakContention
}

// View is a profile decorated with level and achievement details.
type View struct {
	XP            int64               `json:"xp"`
	Level         int                 `json:"level"`
	LevelTitle    string              `json:"level_title"`
	NextLevelXP   *int64              `json:"next_level_xp,omitempty"`
	CurrentStreak int                 `json:"current_streak"`
	LongestStreak int                 `json:"longest_streak"`
	LastActivity  *time.Time          `json:"last_activity_date,omitempty"`
	Achievements  []EarnedAchievement `json:"achievements"`
}

// EarnedAchievement pairs a catalog entry with when it was earned.
type EarnedAchievement struct {
	models.Achievement
	EarnedAt time.Time `json:"earned_at"`
}

// Profile returns the user's decorated profile, creating it if needed.
func (s *Service) Profile(ctx context.Context, userID primitive.ObjectID) (*View, error) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Decorate(*p), nil
}

// Decorate builds a View from a stored profile.
func (s *Service) Decorate(p models.GamificationProfile) *View {
	v := &View{
		XP:            p.XP,
		Level:         p.Level,
		CurrentStreak: p.CurrentStreak,
		LongestStreak: p.LongestStreak,
		LastActivity:  p.LastActivityDate,
		Achievements:  make([]EarnedAchievement, 0, len(p.Achievements)),
	}
	if l, ok := s.table.Level(p.Level); ok {
		v.LevelTitle = l.Title
	}
	if next, ok := s.table.Level(p.Level + 1); ok {
		v.NextLevelXP = &next.MinXP
	}
	for _, e := range p.Achievements {
		a, ok := s.table.Achievement(e.Code)
		if !ok {
			a = models.Achievement{Code: e.Code, Title: e.Code}
		}
		v.Achievements = append(v.Achievements, EarnedAchievement{Achievement: a, EarnedAt: e.EarnedAt})
	}
	return v
}

// Leaderboard returns the top profiles by XP.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]models.GamificationProfile, error) {
	return s.store.Leaderboard(ctx, int64(limit))
}

// GradeXP converts a graded score into XP: 10 for zero, 50 for full marks.
func GradeXP(score, maxScore int) int64 {
	if maxScore <= 0 {
		return 10
	}
	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}
	return 10 + int64(40*score/maxScore)
}

// ModuleXP converts a module quiz score (0..100) into XP.
func ModuleXP(score, difficulty int) int64 {
	if difficulty < 1 {
		difficulty = 1
	}
	return int64(10*difficulty) + int64(score/10)
}

// GoalXP is awarded when a goal is completed.
const GoalXP int64 = 30
