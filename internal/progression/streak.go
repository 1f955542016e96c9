package progression

import (
	"time"
)

const streakGraceWindow = 24 * time.Hour

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// UpdateStreak applies the calendar-day streak rule. lastActive is compared in now's location.
//
//	same day      -> current
//	previous day  -> current + 1
//	anything else -> 1
func UpdateStreak(lastActive *time.Time, now time.Time, current int) int {
	if lastActive == nil || lastActive.IsZero() {
		return 1
	}
	today := startOfDay(now)
	last := startOfDay(lastActive.In(now.Location()))

	switch {
	case last.Equal(today):
		return current
	case last.Equal(today.AddDate(0, 0, -1)):
		return current + 1
	default:
		return 1
	}
}

// IsFirstActivityToday reports whether an activity at now is the first one of its calendar day.
// Streak updates must only run when this is true.
func IsFirstActivityToday(lastActive *time.Time, now time.Time) bool {
	if lastActive == nil || lastActive.IsZero() {
		return true
	}
	return !startOfDay(lastActive.In(now.Location())).Equal(startOfDay(now))
}

// StreakExpiresIn returns the whole hours left in the rolling 24h window since lastActive.
// Display only. Note this window is rolling while UpdateStreak works on calendar days, so a
// streak can show 0 hours left and still be extended the next calendar day.
func StreakExpiresIn(lastActive *time.Time, now time.Time) int {
	if lastActive == nil || lastActive.IsZero() {
		return 0
	}
	remaining := streakGraceWindow - now.Sub(*lastActive)
	if remaining <= 0 {
		return 0
	}
	if remaining > streakGraceWindow {
		remaining = streakGraceWindow
	}
	return int(remaining / time.Hour)
}
