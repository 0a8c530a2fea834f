package models

import "time"

// Weekdays is the canonical Monday-first ordering used everywhere plans
// expose their scheduled days.
var Weekdays = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

var weekdayIndex = func() map[string]int {
	m := make(map[string]int, len(Weekdays))
	for i, d := range Weekdays {
		m[d] = i
	}
	return m
}()

// IsWeekday reports whether name is a valid weekday name.
func IsWeekday(name string) bool {
	_, ok := weekdayIndex[name]
	return ok
}

// CanonicalDays deduplicates days and sorts them Monday-first. Unknown
// names are dropped; validation happens before this point.
func CanonicalDays(days []string) []string {
	seen := make(map[string]bool, len(days))
	out := make([]string, 0, len(days))
	for _, d := range Weekdays {
		for _, in := range days {
			if in == d && !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out
}

// WeekdayOf returns the weekday name for a point in time.
func WeekdayOf(t time.Time) string {
	return t.Weekday().String()
}

// DateKey returns the calendar-date key used by the completion ledger.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
