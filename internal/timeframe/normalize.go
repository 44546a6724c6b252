package timeframe

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MiddayTime is appended to bare dates so they keep their calendar day in
// every UTC offset.
const MiddayTime = "T12:00:00"

var ErrInvalidTimestamp = errors.New("invalid timestamp")

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04Z07:00",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// NormalizeTimestamp appends MiddayTime to a timestamp that has no time part.
// A space separated date-time ("2024-01-15 20:30:00") is rewritten with a T.
func NormalizeTimestamp(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || strings.Contains(s, "T") {
		return s
	}
	if date, clock, ok := strings.Cut(s, " "); ok {
		return date + "T" + strings.TrimSpace(clock)
	}
	return s + MiddayTime
}

// ParseTimestamp normalizes raw and parses it into loc. Timestamps carrying
// an offset are converted to loc; timestamps without one are read as loc
// wall-clock time. Every date comparison in the code base goes through here.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := NormalizeTimestamp(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}

// LocalDateKey returns the ISO calendar date of t in its own location.
func LocalDateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// StartOfDay parses a YYYY-MM-DD date as 00:00:00 in loc.
func StartOfDay(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", date, err)
	}
	return t, nil
}

// EndOfDay parses a YYYY-MM-DD date as the last instant of that day in loc.
func EndOfDay(date string, loc *time.Location) (time.Time, error) {
	t, err := StartOfDay(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

// MonthRange returns the first and last instants of a calendar month in loc.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return first, first.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// LoadLocation resolves an IANA zone name, falling back when name is empty.
func LoadLocation(name string, fallback *time.Location) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		if fallback == nil {
			return time.UTC, nil
		}
		return fallback, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("error loading timezone: %w", err)
	}
	return loc, nil
}
