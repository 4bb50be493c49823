// Package daterange computes calendar-aligned windows from a reference day.
//
// Every function takes time.Time by value and returns new values; nothing
// mutates the caller's instant. Week and month edges are computed in the
// location carried by the reference time, so callers decide the timezone.
package daterange

import (
	"fmt"
	"strconv"
	"time"
)

// Range is a closed interval [Start, End].
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies inside the closed interval.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// StartOfDay returns 00:00:00.000 of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// CivilDate maps t's calendar date (as seen in t's location) to UTC midnight,
// which is how dates are stored.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ThisWeek returns Sunday 00:00:00.000 through Saturday 23:59:59.999 of the
// week containing today.
func ThisWeek(today time.Time) Range {
	day := StartOfDay(today)
	start := day.AddDate(0, 0, -int(day.Weekday()))
	return Range{Start: start, End: EndOfDay(start.AddDate(0, 0, 6))}
}

// LastWeek is ThisWeek applied to today minus seven days.
func LastWeek(today time.Time) Range {
	return ThisWeek(today.AddDate(0, 0, -7))
}

// LastNDays returns the n calendar days ending with today. n < 1 is treated
// as 1.
func LastNDays(today time.Time, n int) Range {
	if n < 1 {
		n = 1
	}
	return Range{
		Start: StartOfDay(today).AddDate(0, 0, -(n - 1)),
		End:   EndOfDay(today),
	}
}

// Month is one calendar month bucket.
type Month struct {
	Range
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// Label formats the bucket as "MM/YYYY", the key used by month aggregations.
func (m Month) Label() string {
	return fmt.Sprintf("%02d/%04d", int(m.Month), m.Year)
}

// Days returns the number of days in the calendar month.
func (m Month) Days() int {
	return DaysIn(m.Year, m.Month)
}

// MonthOf returns the full calendar month in loc.
func MonthOf(year int, month time.Month, loc *time.Location) Month {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Month{
		Range: Range{Start: start, End: EndOfDay(start.AddDate(0, 1, -1))},
		Year:  year,
		Month: month,
	}
}

// DaysIn returns the number of days in month of year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// TrailingMonths returns n successive month buckets, oldest first, ending
// with the month containing today. The oldest bucket starts on the 1st of its
// month regardless of today's day-of-month; the newest bucket ends at the end
// of today. n < 1 is treated as 1.
func TrailingMonths(today time.Time, n int) []Month {
	if n < 1 {
		n = 1
	}
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())

	months := make([]Month, 0, n)
	for i := n - 1; i >= 0; i-- {
		start := first.AddDate(0, -i, 0)
		months = append(months, MonthOf(start.Year(), start.Month(), today.Location()))
	}
	months[len(months)-1].End = EndOfDay(today)
	return months
}

// TrailingWindow is the span covered by TrailingMonths:
// [first-of-month(today - (n-1) months), end of today].
func TrailingWindow(today time.Time, n int) Range {
	months := TrailingMonths(today, n)
	return Range{Start: months[0].Start, End: months[len(months)-1].End}
}

// ParseMonthYear parses a two-digit month ("01".."12") and a four-digit year.
func ParseMonthYear(month, year string) (time.Month, int, error) {
	if len(month) != 2 {
		return 0, 0, fmt.Errorf("month %q must have two digits", month)
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("month %q is out of range", month)
	}
	if len(year) != 4 {
		return 0, 0, fmt.Errorf("year %q must have four digits", year)
	}
	y, err := strconv.Atoi(year)
	if err != nil || y < 1 {
		return 0, 0, fmt.Errorf("year %q is invalid", year)
	}
	return time.Month(m), y, nil
}

// ParseWindow builds the closed interval between two optional "YYYY-MM-DD"
// dates, read in today's location. A missing to means today; a missing from
// means defaultDays days ending with to.
func ParseWindow(from, to string, today time.Time, defaultDays int) (Range, error) {
	end := today
	if to != "" {
		t, err := time.ParseInLocation(dateLayout, to, today.Location())
		if err != nil {
			return Range{}, fmt.Errorf("to %q is not a YYYY-MM-DD date", to)
		}
		end = t
	}

	window := LastNDays(end, defaultDays)
	if from != "" {
		t, err := time.ParseInLocation(dateLayout, from, today.Location())
		if err != nil {
			return Range{}, fmt.Errorf("from %q is not a YYYY-MM-DD date", from)
		}
		window.Start = StartOfDay(t)
	}
	if window.Start.After(window.End) {
		return Range{}, fmt.Errorf("from %s is after to %s", window.Start.Format(dateLayout), window.End.Format(dateLayout))
	}
	return window, nil
}

const dateLayout = "2006-01-02"
