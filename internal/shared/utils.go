// Package shared provides identity and timestamp helpers used when entities
// are persisted.
package shared

import (
	"time"

	"github.com/google/uuid"
)

// TimeLayout is an ISO-8601 layout with fixed millisecond precision. Because
// the width never varies, timestamps formatted with it sort lexically in
// chronological order.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// now is a test seam for the wall clock.
var now = time.Now

// GenerateID returns a new opaque identifier. Identifiers are UUIDv7 values:
// a millisecond time prefix followed by random bits, so they are unique with
// overwhelming probability and roughly ordered by creation time.
func GenerateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Timestamp returns the current UTC time formatted with TimeLayout.
func Timestamp() string {
	return FormatTime(now())
}

// FormatTime formats t in UTC with TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a timestamp produced by FormatTime. Plain RFC 3339 values
// without fractional seconds are accepted too, since imported packs may carry
// them.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
