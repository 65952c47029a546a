package engine

import (
	"math"
	"strings"
	"time"
)

// ----------------------
//   SLOT FINDING
// ----------------------

const (
	defaultWindowStart = 16.0 // 4:00 PM
	defaultWindowEnd   = 20.0
	widerWindowStart   = 15.0 // fallback band when the preferred window is full
	widerWindowEnd     = 21.0
	slotStep           = 0.5
)

type interval struct {
	start float64 // fractional hours since midnight
	end   float64
}

func (a interval) overlaps(b interval) bool {
	return a.start < b.end && b.start < a.end
}

// FindSlot picks a start time (fractional hours) for a session of the given
// length on the given day, avoiding that day's existing tasks and, on the
// reference day, anything already in the past. preferred, when non-nil, is
// tried first; if it collides, the scan continues from the next half hour so
// the result stays close to what the user asked for. The second return is
// false when nothing fits, which tells the caller to ask for an explicit time.
func FindSlot(date time.Time, durationHours float64, tasks []TaskRecord, activities []ActivityRecord, preferred *float64, now time.Time) (float64, bool) {
	busy := busyIntervals(date, tasks)
	nowHours := math.MaxFloat64 * -1
	if startOfDay(date).Equal(startOfDay(now)) {
		nowHours = float64(now.Hour()) + float64(now.Minute())/60
	}

	fits := func(start float64) bool {
		if start <= nowHours {
			return false
		}
		candidate := interval{start, start + durationHours}
		for _, b := range busy {
			if candidate.overlaps(b) {
				return false
			}
		}
		return true
	}

	if preferred != nil {
		if fits(*preferred) {
			return *preferred, true
		}
		for start := nextHalfHour(*preferred); start+durationHours <= widerWindowEnd; start += slotStep {
			if fits(start) {
				return start, true
			}
		}
		return 0, false
	}

	winStart, winEnd := workingWindow(date, activities)
	for start := winStart; start+durationHours <= winEnd; start += slotStep {
		if fits(start) {
			return start, true
		}
	}
	for start := widerWindowStart; start+durationHours <= widerWindowEnd; start += slotStep {
		if fits(start) {
			return start, true
		}
	}
	return 0, false
}

// workingWindow is the first free-slot routine block that applies to the day,
// or the 4-8 PM default when the routine has none.
func workingWindow(date time.Time, activities []ActivityRecord) (float64, float64) {
	dayName := date.Weekday().String()
	for _, a := range activities {
		if !a.IsFreeSlot {
			continue
		}
		if a.Frequency != "daily" && !containsDay(a.AppliedDays, dayName) {
			continue
		}
		parts := strings.Split(a.Time, " - ")
		if len(parts) != 2 {
			continue
		}
		start, ok1 := ParseClock(parts[0])
		end, ok2 := ParseClock(parts[1])
		if ok1 && ok2 && end > start {
			return start, end
		}
	}
	return defaultWindowStart, defaultWindowEnd
}

// busyIntervals collects [start, start+duration) for every task whose display
// date falls on the given day.
func busyIntervals(date time.Time, tasks []TaskRecord) []interval {
	// Trailing comma keeps "Jan 2" from matching inside "Jan 27".
	dateStr := FormatDisplayDate(date) + ","
	var out []interval
	for _, t := range tasks {
		if !strings.Contains(t.Time, dateStr) {
			continue
		}
		start, ok := ParseClock(t.Time)
		if !ok {
			continue
		}
		out = append(out, interval{start, start + ParseDurationHours(t.Duration)})
	}
	return out
}

func containsDay(days []string, name string) bool {
	for _, d := range days {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}

func nextHalfHour(h float64) float64 {
	return math.Floor(h*2)/2 + slotStep
}
