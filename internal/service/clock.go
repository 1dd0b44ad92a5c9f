package service

import (
	"time"

	"github.com/straye-as/finance-api/internal/filter"
)

// clock yields the current time in the business location
type clock struct {
	loc *time.Location
	now func() time.Time
}

func newClock(loc *time.Location) clock {
	if loc == nil {
		loc = time.Local
	}
	return clock{loc: loc, now: time.Now}
}

func (c clock) Now() time.Time {
	return c.now().In(c.loc)
}

// DateFilter is the period selection of list and dashboard queries
type DateFilter struct {
	Type      filter.Type
	StartDate string
	EndDate   string
}

func (f DateFilter) rangeAt(now time.Time) filter.Range {
	return filter.Classify(f.Type, f.StartDate, f.EndDate, now)
}
