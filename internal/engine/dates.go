package engine

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ----------------------
//   DATE RESOLUTION
// ----------------------

var weekdayNames = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// Common misspellings and short forms, mapped to the canonical day name.
// "sat" and "sun" are deliberately absent: "sat" is also the exam.
var weekdayTypos = map[string]string{
	"mon":       "monday",
	"mondy":     "monday",
	"tue":       "tuesday",
	"tues":      "tuesday",
	"tuseday":   "tuesday",
	"teusday":   "tuesday",
	"wed":       "wednesday",
	"wensday":   "wednesday",
	"wednsday":  "wednesday",
	"wedensday": "wednesday",
	"thu":       "thursday",
	"thur":      "thursday",
	"thurs":     "thursday",
	"thurday":   "thursday",
	"thrusday":  "thursday",
	"fri":       "friday",
	"firday":    "friday",
	"fridey":    "friday",
	"satuday":   "saturday",
	"satruday":  "saturday",
	"sudnay":    "sunday",
}

var (
	monthDayRe = regexp.MustCompile(`\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s*(\d{1,2})(?:st|nd|rd|th)?\b`)
	ordinalRe  = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)\b`)
)

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ResolveDate extracts a calendar day from free text against a reference
// "today". Priority: explicit month+day, bare ordinal ("the 27th"),
// today/tomorrow/yesterday, then weekday names.
//
// Explicit month+day and "yesterday" may resolve into the past; the caller's
// past-date guard owns that refusal. Everything else rolls forward. Weekday
// mentions without "today" never land on the reference day itself.
func ResolveDate(text string, ref time.Time) (time.Time, bool) {
	lower := strings.ToLower(text)
	day0 := startOfDay(ref)

	if m := monthDayRe.FindStringSubmatch(lower); m != nil {
		month := monthIndex[m[1]]
		dayNum, _ := strconv.Atoi(m[2])
		d := time.Date(ref.Year(), month, dayNum, 0, 0, 0, 0, ref.Location())
		if d.Month() != month {
			return time.Time{}, false // e.g. "feb 31" normalized away
		}
		return d, true
	}

	if m := ordinalRe.FindStringSubmatch(lower); m != nil {
		dayNum, _ := strconv.Atoi(m[1])
		d := time.Date(ref.Year(), ref.Month(), dayNum, 0, 0, 0, 0, ref.Location())
		// No explicit month: if that day already passed, roll to next month.
		if d.Before(day0) {
			d = time.Date(ref.Year(), ref.Month()+1, dayNum, 0, 0, 0, 0, ref.Location())
		}
		if d.Day() != dayNum {
			return time.Time{}, false
		}
		return d, true
	}

	if strings.Contains(lower, "tomorrow") {
		return day0.AddDate(0, 0, 1), true
	}
	if strings.Contains(lower, "yesterday") {
		return day0.AddDate(0, 0, -1), true
	}
	if strings.Contains(lower, "today") {
		return day0, true
	}

	if target, isNext, ok := findWeekday(lower); ok {
		diff := target - int(ref.Weekday())
		if diff <= 0 {
			diff += 7
		}
		// "next friday" on a Monday means the Friday after this one; said
		// mid-week it just means the upcoming Friday.
		if isNext && diff > 3 {
			diff += 7
		}
		return day0.AddDate(0, 0, diff), true
	}

	return time.Time{}, false
}

// findWeekday scans word-by-word so "sat" inside another word never counts.
// Returns the weekday index (Sunday=0) and whether "next" preceded it.
func findWeekday(lower string) (int, bool, bool) {
	words := tokenize(lower)
	for i, w := range words {
		name := w
		if fixed, ok := weekdayTypos[w]; ok {
			name = fixed
		}
		for idx, day := range weekdayNames {
			if name == day {
				isNext := i > 0 && words[i-1] == "next"
				return idx, isNext, true
			}
		}
	}
	return 0, false, false
}

// tokenize splits text into lowercase letter runs.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z')
	})
}
