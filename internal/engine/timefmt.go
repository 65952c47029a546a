package engine

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ----------------------
//   DISPLAY-TIME CODEC
// ----------------------
//
// Tasks carry their date as a display string ("Jan 27, 4:00 PM"). The
// frontend sorts and buckets by re-parsing that string, so the formatter and
// parser here are a matched pair and must round-trip.

var (
	clockRe    = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*(am|pm)`)
	dayNumRe   = regexp.MustCompile(`\d{1,2}`)
	monthAbbrs = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}
)

// FormatClock renders fractional hours since midnight as "4:00 PM".
func FormatClock(hours float64) string {
	total := int(math.Round(hours * 60))
	h := total / 60
	m := total % 60
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	display := h % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, m, suffix)
}

// FormatTaskTime produces the wire string for a task on the given day at the
// given clock position, e.g. "Jan 27, 4:00 PM".
func FormatTaskTime(date time.Time, hours float64) string {
	return fmt.Sprintf("%s, %s", FormatDisplayDate(date), FormatClock(hours))
}

// FormatDisplayDate is the date half of the wire string ("Jan 27").
func FormatDisplayDate(date time.Time) string {
	return date.Format("Jan 2")
}

// ParseClock reads "4:00 PM" (or "4:00pm") into fractional hours.
func ParseClock(s string) (float64, bool) {
	m := clockRe.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if m[3] == "pm" && h < 12 {
		h += 12
	}
	if m[3] == "am" && h == 12 {
		h = 0
	}
	return float64(h) + float64(min)/60, true
}

// ParseDurationHours reads the display duration ("1h", "45m"). Markers like
// "---" and anything unreadable count as a one-hour block.
func ParseDurationHours(s string) float64 {
	s = strings.TrimSpace(strings.ToLower(s))
	if n, ok := strings.CutSuffix(s, "h"); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil && v > 0 {
			return v
		}
	}
	if n, ok := strings.CutSuffix(s, "m"); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil && v > 0 {
			return v / 60
		}
	}
	return 1
}

// TaskDateValue recovers a sortable timestamp from a task's display time.
// Unparseable dates sort far into the future ("later" bucket).
func TaskDateValue(t TaskRecord, now time.Time) time.Time {
	lower := strings.ToLower(t.Time)
	day0 := startOfDay(now)

	var stamp time.Time
	switch {
	case strings.Contains(lower, "today"):
		stamp = day0
	case strings.Contains(lower, "tomorrow"):
		stamp = day0.AddDate(0, 0, 1)
	default:
		if monthIdx := findMonth(lower); monthIdx >= 0 {
			dayNum := 1
			if m := dayNumRe.FindString(lower); m != "" {
				dayNum, _ = strconv.Atoi(m)
			}
			d := time.Date(now.Year(), time.Month(monthIdx+1), dayNum, 0, 0, 0, 0, now.Location())
			// A stored date more than a day behind means it wrapped a year.
			if d.Before(day0.Add(-24 * time.Hour)) {
				d = d.AddDate(1, 0, 0)
			}
			stamp = d
		} else if target, isNext, ok := findWeekday(lower); ok {
			diff := target - int(now.Weekday())
			if diff <= 0 {
				diff += 7
			}
			if isNext && diff > 3 {
				diff += 7
			}
			stamp = day0.AddDate(0, 0, diff)
		} else {
			return now.Add(2000000000 * time.Millisecond)
		}
	}

	if clock, ok := ParseClock(lower); ok {
		stamp = stamp.Add(time.Duration(clock * float64(time.Hour)))
	}
	return stamp
}

func findMonth(lower string) int {
	for i, m := range monthAbbrs {
		if strings.Contains(lower, m) {
			return i
		}
	}
	return -1
}

// Category buckets for the dashboard.
const (
	CategoryOverdue  = "overdue"
	CategoryToday    = "today"
	CategoryThisWeek = "thisWeek"
	CategoryNextWeek = "nextWeek"
	CategoryLater    = "later"
)

// CategorizeTask buckets a task relative to now. A five-minute grace period
// keeps just-started tasks out of the overdue pile.
func CategorizeTask(t TaskRecord, now time.Time) string {
	value := TaskDateValue(t, now)
	if now.Sub(value) > 5*time.Minute {
		return CategoryOverdue
	}

	dayDiff := int(startOfDay(value).Sub(startOfDay(now)).Hours() / 24)
	switch {
	case dayDiff == 0:
		return CategoryToday
	case dayDiff > 0 && dayDiff <= 7:
		return CategoryThisWeek
	case dayDiff > 7 && dayDiff <= 14:
		return CategoryNextWeek
	default:
		return CategoryLater
	}
}
