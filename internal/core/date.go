package core

import (
	"strings"
	"time"
)

const (
	MinYear = 1
	MaxYear = 9999

	// ISOLayout is the wire format for dates leaving the service.
	ISOLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Accepted inbound layouts, tried in order. Values without a zone are UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate parses an ISO-8601 string into a UTC timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, NewValidationError(FieldDate, "date is required")
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		t = t.UTC()
		if y := t.Year(); y < MinYear || y > MaxYear {
			return time.Time{}, NewValidationError(FieldDate, "date is out of range")
		}
		return t, nil
	}
	return time.Time{}, NewValidationError(FieldDate, "date must be an ISO-8601 date")
}

// FormatDate renders t in UTC with millisecond precision.
func FormatDate(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// MonthLabel is the three-letter English month abbreviation of t in UTC.
func MonthLabel(t time.Time) string {
	return t.UTC().Format("Jan")
}
