package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday, Jan 15 2025, 10:00 AM.
var refWednesday = time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveDateExplicitMonthDay(t *testing.T) {
	tests := []struct {
		name string
		text string
		want time.Time
	}{
		{"month day", "chem quiz on Jan 27", day(2025, time.January, 27)},
		{"ordinal suffix", "due january 3rd", day(2025, time.January, 3)},
		{"full month name", "test on March 2", day(2025, time.March, 2)},
		{"explicit past month stays past", "exam was on Jan 5", day(2025, time.January, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveDate(tt.text, refWednesday)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDateBareOrdinal(t *testing.T) {
	got, ok := ResolveDate("homework due the 27th", refWednesday)
	require.True(t, ok)
	assert.Equal(t, day(2025, time.January, 27), got)

	// A passed day-of-month rolls to next month.
	got, ok = ResolveDate("homework due the 10th", refWednesday)
	require.True(t, ok)
	assert.Equal(t, day(2025, time.February, 10), got)
}

func TestResolveDateRelativeKeywords(t *testing.T) {
	got, ok := ResolveDate("quiz tomorrow", refWednesday)
	require.True(t, ok)
	assert.Equal(t, day(2025, time.January, 16), got)

	got, ok = ResolveDate("study today", refWednesday)
	require.True(t, ok)
	assert.Equal(t, day(2025, time.January, 15), got)

	// "yesterday" resolves into the past; the planner's guard refuses it.
	got, ok = ResolveDate("the test was yesterday", refWednesday)
	require.True(t, ok)
	assert.Equal(t, day(2025, time.January, 14), got)
}

func TestResolveDateWeekdays(t *testing.T) {
	tests := []struct {
		name string
		text string
		want time.Time
	}{
		{"upcoming friday", "math test friday", day(2025, time.January, 17)},
		{"next friday within 3 days is the upcoming one", "math test next friday", day(2025, time.January, 17)},
		{"next monday beyond 3 days skips a week", "essay next monday", day(2025, time.January, 27)},
		{"plain monday", "essay monday", day(2025, time.January, 20)},
		{"same weekday rolls to next week", "review on wednesday", day(2025, time.January, 22)},
		{"typo firday", "quiz firday", day(2025, time.January, 17)},
		{"abbreviation thurs", "test thurs", day(2025, time.January, 16)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveDate(tt.text, refWednesday)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDateNoExpression(t *testing.T) {
	_, ok := ResolveDate("I have a gaokao in 3 days", refWednesday)
	assert.False(t, ok)

	// "sat" is the exam here, not Saturday.
	_, ok = ResolveDate("sat prep please", refWednesday)
	assert.False(t, ok)

	_, ok = ResolveDate("", refWednesday)
	assert.False(t, ok)
}
