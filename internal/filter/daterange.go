// Package filter classifies list filters into concrete date intervals and
// decides whether a record falls inside one.
//
// Records whose date cannot be determined are always included. Upstream data
// arrives with inconsistent date formats and hiding a record because its date
// failed to parse would silently drop valid data.
package filter

import (
	"strings"
	"time"
)

// Type is a date filter selection
type Type string

const (
	TypeDay    Type = "day"
	TypeWeek   Type = "week"
	TypeMonth  Type = "month"
	TypeYear   Type = "year"
	TypeCustom Type = "custom"
	TypeAll    Type = "all"
)

// ParseType maps a query value to a filter type. Unknown values mean all.
func ParseType(s string) Type {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeDay, TypeWeek, TypeMonth, TypeYear, TypeCustom:
		return t
	default:
		return TypeAll
	}
}

// Range is a closed interval. A nil bound is open on that side; a Range with
// both bounds nil does not filter at all.
type Range struct {
	Start *time.Time
	End   *time.Time
}

// Unbounded reports whether the range accepts every date
func (r Range) Unbounded() bool {
	return r.Start == nil && r.End == nil
}

// Contains reports whether t lies within the range
func (r Range) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// Classify computes the interval for a filter type evaluated at now, in now's
// location. Weeks run Sunday to Saturday. Month and year ranges end at the
// close of today. Custom bounds are YYYY-MM-DD dates clamped to the start and
// end of their day; a missing or unparseable bound leaves that side open.
func Classify(t Type, startDate, endDate string, now time.Time) Range {
	loc := now.Location()
	today := StartOfDay(now)

	switch t {
	case TypeDay:
		return bounded(today, EndOfDay(now))
	case TypeWeek:
		start := today.AddDate(0, 0, -int(now.Weekday()))
		return bounded(start, EndOfDay(start.AddDate(0, 0, 6)))
	case TypeMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return bounded(start, EndOfDay(now))
	case TypeYear:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)
		return bounded(start, EndOfDay(now))
	case TypeCustom:
		var r Range
		if s, ok := ParseDate(strings.TrimSpace(startDate), loc); ok {
			start := StartOfDay(s)
			r.Start = &start
		}
		if e, ok := ParseDate(strings.TrimSpace(endDate), loc); ok {
			end := EndOfDay(e)
			r.End = &end
		}
		return r
	default:
		return Range{}
	}
}

// IsInRangeOrUnknown is the fail-open membership check: it returns true when
// value lies in r, when r is unbounded, and whenever value carries no
// usable date.
func IsInRangeOrUnknown(r Range, value any) bool {
	if r.Unbounded() {
		return true
	}
	loc := time.Local
	if r.Start != nil {
		loc = r.Start.Location()
	} else if r.End != nil {
		loc = r.End.Location()
	}

	t, ok := ParseDate(value, loc)
	if !ok {
		return true
	}
	return r.Contains(t)
}

// StartOfDay returns 00:00:00.000 of t's day in t's location
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's day in t's location
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

func bounded(start, end time.Time) Range {
	return Range{Start: &start, End: &end}
}
