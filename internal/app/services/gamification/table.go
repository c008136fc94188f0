package gamification

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"gopkg.in/yaml.v3"
)

//go:embed levels.yaml
var defaultTable []byte

// LevelDef is one row of the level table.
type LevelDef struct {
	Level int    `yaml:"level" json:"level"`
	MinXP int64  `yaml:"min_xp" json:"min_xp"`
	Title string `yaml:"title" json:"title"`
}

// Milestone awards Code once a streak reaches Days.
type Milestone struct {
	Days int    `yaml:"days"`
	Code string `yaml:"code"`
}

// Table is the parsed level, streak, and achievement configuration.
type Table struct {
	Levels       []LevelDef           `yaml:"levels"`
	Streaks      []Milestone          `yaml:"streaks"`
	Achievements []models.Achievement `yaml:"achievements"`

	byCode map[string]models.Achievement
}

// ParseTable decodes and checks a level table.
func ParseTable(raw []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse level table: %w", err)
	}
	if len(t.Levels) == 0 {
		return nil, errors.New("level table has no levels")
	}
	sort.Slice(t.Levels, func(i, j int) bool { return t.Levels[i].Level < t.Levels[j].Level })
	if t.Levels[0].Level != 1 || t.Levels[0].MinXP != 0 {
		return nil, errors.New("level table must start at level 1 with min_xp 0")
	}
	for i := 1; i < len(t.Levels); i++ {
		prev, cur := t.Levels[i-1], t.Levels[i]
		if cur.Level != prev.Level+1 {
			return nil, fmt.Errorf("level table skips from %d to %d", prev.Level, cur.Level)
		}
		if cur.MinXP <= prev.MinXP {
			return nil, fmt.Errorf("level %d min_xp %d is not above level %d", cur.Level, cur.MinXP, prev.Level)
		}
	}

	t.byCode = make(map[string]models.Achievement, len(t.Achievements))
	for _, a := range t.Achievements {
		if a.Code == "" {
			return nil, errors.New("achievement with empty code")
		}
		if _, dup := t.byCode[a.Code]; dup {
			return nil, fmt.Errorf("duplicate achievement %q", a.Code)
		}
		t.byCode[a.Code] = a
	}
	for _, m := range t.Streaks {
		if _, ok := t.byCode[m.Code]; !ok || m.Days < 2 {
			return nil, fmt.Errorf("bad streak milestone %q (%d days)", m.Code, m.Days)
		}
	}
	sort.Slice(t.Streaks, func(i, j int) bool { return t.Streaks[i].Days < t.Streaks[j].Days })
	return &t, nil
}

// DefaultTable returns the embedded table. It panics if the embedded file
// is malformed, which a unit test rules out.
func DefaultTable() *Table {
	t, err := ParseTable(defaultTable)
	if err != nil {
		panic(err)
	}
	return t
}

// LevelFor returns the highest level whose threshold xp has reached.
func (t *Table) LevelFor(xp int64) int {
	level := 1
	for _, l := range t.Levels {
		if xp >= l.MinXP {
			level = l.Level
		}
	}
	return level
}

// Level returns the definition of level n.
func (t *Table) Level(n int) (LevelDef, bool) {
	if n < 1 || n > len(t.Levels) {
		return LevelDef{}, false
	}
	return t.Levels[n-1], true
}

// MaxLevel is the top of the table.
func (t *Table) MaxLevel() int { return len(t.Levels) }

// Achievement looks up a catalog entry.
func (t *Table) Achievement(code string) (models.Achievement, bool) {
	a, ok := t.byCode[code]
	return a, ok
}

// LevelCode is the achievement code awarded on reaching level n.
func LevelCode(n int) string { return fmt.Sprintf("level_%d", n) }
