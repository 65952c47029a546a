package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourPtr(h float64) *float64 { return &h }

func TestFindSlotDefaultWindow(t *testing.T) {
	target := day(2025, time.January, 16)
	got, ok := FindSlot(target, 1, nil, nil, nil, refWednesday)
	require.True(t, ok)
	assert.InDelta(t, defaultWindowStart, got, 1e-9)
}

func TestFindSlotPreferredConflictMovesToNextHalfHour(t *testing.T) {
	target := day(2025, time.January, 16)
	existing := []TaskRecord{
		{Title: "Essay draft", Time: "Jan 16, 5:00 PM", Duration: "30m"},
	}
	got, ok := FindSlot(target, 0.75, existing, nil, hourPtr(17), refWednesday)
	require.True(t, ok)
	assert.InDelta(t, 17.5, got, 1e-9, "5:00 PM is taken, expected 5:30 PM")

	// A full-hour block pushes past its whole span.
	existing[0].Duration = "1h"
	got, ok = FindSlot(target, 0.75, existing, nil, hourPtr(17), refWednesday)
	require.True(t, ok)
	assert.InDelta(t, 18.0, got, 1e-9)
}

func TestFindSlotPreferredFreeIsUsed(t *testing.T) {
	target := day(2025, time.January, 16)
	got, ok := FindSlot(target, 1, nil, nil, hourPtr(19), refWednesday)
	require.True(t, ok)
	assert.InDelta(t, 19.0, got, 1e-9)
}

func TestFindSlotUsesFreeSlotActivity(t *testing.T) {
	friday := day(2025, time.January, 17)
	activities := []ActivityRecord{
		{Name: "Soccer", Time: "4:00 PM - 6:00 PM", Frequency: "weekly", AppliedDays: []string{"Friday"}, IsFreeSlot: false},
		{Name: "Study window", Time: "7:00 PM - 9:00 PM", Frequency: "weekly", AppliedDays: []string{"Friday"}, IsFreeSlot: true},
	}
	got, ok := FindSlot(friday, 1, nil, activities, nil, refWednesday)
	require.True(t, ok)
	assert.InDelta(t, 19.0, got, 1e-9)

	// The Friday-only window does not apply on Thursday.
	thursday := day(2025, time.January, 16)
	got, ok = FindSlot(thursday, 1, nil, activities, nil, refWednesday)
	require.True(t, ok)
	assert.InDelta(t, defaultWindowStart, got, 1e-9)
}

func TestFindSlotDailyFreeSlot(t *testing.T) {
	activities := []ActivityRecord{
		{Name: "Evening block", Time: "5:30 PM - 8:00 PM", Frequency: "daily", IsFreeSlot: true},
	}
	got, ok := FindSlot(day(2025, time.January, 20), 1, nil, activities, nil, refWednesday)
	require.True(t, ok)
	assert.InDelta(t, 17.5, got, 1e-9)
}

func TestFindSlotSkipsPastOnReferenceDay(t *testing.T) {
	now := time.Date(2025, time.January, 15, 17, 0, 0, 0, time.UTC) // 5:00 PM
	got, ok := FindSlot(day(2025, time.January, 15), 1, nil, nil, nil, now)
	require.True(t, ok)
	assert.Greater(t, got, 17.0)
}

func TestFindSlotNothingFits(t *testing.T) {
	target := day(2025, time.January, 16)
	// One long block covering the whole 3-9 PM band.
	existing := []TaskRecord{
		{Title: "Tournament", Time: "Jan 16, 3:00 PM", Duration: "6h"},
	}
	_, ok := FindSlot(target, 1, existing, nil, nil, refWednesday)
	assert.False(t, ok)
}

func TestFindSlotIgnoresOtherDays(t *testing.T) {
	target := day(2025, time.January, 16)
	existing := []TaskRecord{
		{Title: "Other day", Time: "Jan 17, 4:00 PM", Duration: "6h"},
		// "Jan 1" must not match inside "Jan 16".
		{Title: "Past", Time: "Jan 1, 4:00 PM", Duration: "6h"},
	}
	got, ok := FindSlot(target, 1, existing, nil, nil, refWednesday)
	require.True(t, ok)
	assert.InDelta(t, defaultWindowStart, got, 1e-9)
}
