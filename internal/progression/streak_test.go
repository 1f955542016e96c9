package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

func TestUpdateStreak(t *testing.T) {
	tests := []struct {
		name       string
		lastActive *time.Time
		now        time.Time
		current    int
		want       int
	}{
		{"first activity ever", nil, day("2023-05-15T10:00:00Z"), 0, 1},
		{"consecutive day", ptr(day("2023-05-14T09:00:00Z")), day("2023-05-15T10:00:00Z"), 3, 4},
		{"same day", ptr(day("2023-05-15T01:00:00Z")), day("2023-05-15T23:00:00Z"), 3, 3},
		{"gap resets", ptr(day("2023-05-01T10:00:00Z")), day("2023-05-15T10:00:00Z"), 9, 1},
		{"two day gap resets", ptr(day("2023-05-13T23:59:00Z")), day("2023-05-15T00:01:00Z"), 5, 1},
		{"just before and after midnight", ptr(day("2023-05-14T23:59:00Z")), day("2023-05-15T00:01:00Z"), 2, 3},
		{"month boundary", ptr(day("2023-04-30T12:00:00Z")), day("2023-05-01T08:00:00Z"), 6, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UpdateStreak(tt.lastActive, tt.now, tt.current))
		})
	}
}

func TestUpdateStreakUsesNowLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 03:00 UTC on the 15th is still the 14th in New York.
	last := day("2023-05-15T03:00:00Z")
	now := time.Date(2023, 5, 15, 9, 0, 0, 0, ny)
	assert.Equal(t, 5, UpdateStreak(&last, now, 4))
}

func TestIsFirstActivityToday(t *testing.T) {
	now := day("2023-05-15T10:00:00Z")
	assert.True(t, IsFirstActivityToday(nil, now))
	assert.True(t, IsFirstActivityToday(ptr(day("2023-05-14T22:00:00Z")), now))
	assert.False(t, IsFirstActivityToday(ptr(day("2023-05-15T00:00:00Z")), now))
}

func TestStreakExpiresIn(t *testing.T) {
	last := day("2023-05-15T10:00:00Z")

	assert.Equal(t, 0, StreakExpiresIn(nil, last))
	assert.Equal(t, 24, StreakExpiresIn(&last, last))
	assert.Equal(t, 23, StreakExpiresIn(&last, last.Add(30*time.Minute)))
	assert.Equal(t, 14, StreakExpiresIn(&last, last.Add(10*time.Hour)))
	assert.Equal(t, 0, StreakExpiresIn(&last, last.Add(24*time.Hour)))
	assert.Equal(t, 0, StreakExpiresIn(&last, last.Add(72*time.Hour)))
	assert.Equal(t, 24, StreakExpiresIn(&last, last.Add(-time.Hour)), "clock skew is clamped")
}

// The display window is rolling while the streak rule is calendar based. A user last active
// early on day N who returns late on day N+1 sees 0 hours left yet still extends the streak.
func TestStreakWindowsDiffer(t *testing.T) {
	last := day("2023-05-14T01:00:00Z")
	now := day("2023-05-15T23:00:00Z")

	assert.Equal(t, 0, StreakExpiresIn(&last, now))
	assert.Equal(t, 8, UpdateStreak(&last, now, 7))
}
