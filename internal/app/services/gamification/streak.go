package gamification

import "time"

// Streak is a user's consecutive-day activity state.
type Streak struct {
	Current int
	Longest int
	Last    time.Time // UTC midnight of the last active day
}

// Day truncates t to UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextStreak applies activity at `at` to the stored state. It reports false
// when nothing changes: a second activity on the same day, or an activity
// older than the last recorded day.
func NextStreak(current, longest int, last *time.Time, at time.Time) (Streak, bool) {
	today := Day(at)
	next := Streak{Current: 1, Longest: longest, Last: today}
	if last != nil {
		prev := Day(*last)
		switch {
		case !today.After(prev):
			return Streak{Current: current, Longest: longest, Last: prev}, false
		case today.Equal(prev.AddDate(0, 0, 1)):
			next.Current = current + 1
		}
	}
	if next.Current > next.Longest {
		next.Longest = next.Current
	}
	return next, true
}
