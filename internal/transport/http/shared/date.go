package shared

import (
	"strings"
	"time"
)

// ParseDate accepts RFC3339 or YYYY-MM-DD.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", value)
}

// ParseMonth reads YYYY-MM in loc, falling back to the current month.
func ParseMonth(value string, now time.Time) time.Time {
	if parsed, err := time.ParseInLocation("2006-01", strings.TrimSpace(value), now.Location()); err == nil {
		return parsed
	}
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// ParseDay reads YYYY-MM-DD in loc, falling back to today.
func ParseDay(value string, now time.Time) time.Time {
	if parsed, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value), now.Location()); err == nil {
		return parsed
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
