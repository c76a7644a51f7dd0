package storage

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/formdoc/internal/models"
	"github.com/dmitrijs2005/formdoc/internal/shared"
)

// DateLayout is the calendar-day format accepted by range queries.
const DateLayout = "2006-01-02"

// DateRange is an inclusive calendar-day window in UTC. A zero bound is
// unconstrained.
type DateRange struct {
	From time.Time // first instant included
	To   time.Time // first instant excluded (midnight after the end day)
}

// ParseDateRange builds a DateRange from "YYYY-MM-DD" strings; empty strings
// leave the corresponding bound open.
func ParseDateRange(start, end string) (DateRange, error) {
	var r DateRange
	if start != "" {
		d, err := time.ParseInLocation(DateLayout, start, time.UTC)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid start date %q: %w", start, err)
		}
		r.From = d
	}
	if end != "" {
		d, err := time.ParseInLocation(DateLayout, end, time.UTC)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid end date %q: %w", end, err)
		}
		r.To = d.AddDate(0, 0, 1)
	}
	return r, nil
}

// Unbounded reports whether neither bound is set.
func (r DateRange) Unbounded() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Contains reports whether ts falls inside [From 00:00:00, To-day 23:59:59.999].
// Unparsable timestamps only pass an unbounded range.
func (r DateRange) Contains(ts string) bool {
	if r.Unbounded() {
		return true
	}
	t, err := shared.ParseTime(ts)
	if err != nil {
		return false
	}
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}

// Filter returns the records whose CreatedAt falls inside r, preserving order.
func (r DateRange) Filter(records []models.Record) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.CreatedAt) {
			out = append(out, rec)
		}
	}
	return out
}
