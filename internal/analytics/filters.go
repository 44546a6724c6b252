package analytics

import (
	"fmt"
	"time"

	"pokerlog/internal/timeframe"
)

// FilterAll matches any value of a categorical filter.
const FilterAll = "ALL"

// Filters narrows a session list. Empty or "ALL" categorical fields match
// everything; empty dates leave that side of the range open.
type Filters struct {
	Location     string `json:"location"`
	GameType     string `json:"gameType"`
	Blinds       string `json:"blinds"`
	LocationType string `json:"locationType"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
}

// Validate checks that the date bounds are YYYY-MM-DD dates.
func (f Filters) Validate() error {
	if f.StartDate != "" {
		if _, err := timeframe.StartOfDay(f.StartDate, time.UTC); err != nil {
			return fmt.Errorf("startDate: %w", err)
		}
	}
	if f.EndDate != "" {
		if _, err := timeframe.EndOfDay(f.EndDate, time.UTC); err != nil {
			return fmt.Errorf("endDate: %w", err)
		}
	}
	return nil
}

// IsEmpty reports whether the filters match every session.
func (f Filters) IsEmpty() bool {
	return !active(f.Location) && !active(f.GameType) && !active(f.Blinds) &&
		!active(f.LocationType) && f.StartDate == "" && f.EndDate == ""
}

func active(value string) bool {
	return value != "" && value != FilterAll
}

// ApplyFilters returns the sessions matching every active filter, in input
// order. Date bounds are the start of StartDate and the end of EndDate in loc.
// A bound that does not parse is ignored; callers validate first. A nil loc
// means UTC.
func ApplyFilters(records []Record, f Filters, loc *time.Location) []Record {
	if f.IsEmpty() {
		all := make([]Record, len(records))
		copy(all, records)
		return all
	}
	if loc == nil {
		loc = time.UTC
	}

	var from, to time.Time
	var hasFrom, hasTo bool
	if f.StartDate != "" {
		if t, err := timeframe.StartOfDay(f.StartDate, loc); err == nil {
			from, hasFrom = t, true
		}
	}
	if f.EndDate != "" {
		if t, err := timeframe.EndOfDay(f.EndDate, loc); err == nil {
			to, hasTo = t, true
		}
	}

	filtered := make([]Record, 0, len(records))
	for _, r := range records {
		if active(f.Location) && r.Location != f.Location {
			continue
		}
		if active(f.GameType) && r.GameType != f.GameType {
			continue
		}
		if active(f.Blinds) && r.Blinds != f.Blinds {
			continue
		}
		if active(f.LocationType) && r.LocationType != f.LocationType {
			continue
		}

		if hasFrom || hasTo {
			ts, ok := r.LocalTime(loc)
			if !ok {
				continue
			}
			if hasFrom && ts.Before(from) {
				continue
			}
			if hasTo && ts.After(to) {
				continue
			}
		}

		filtered = append(filtered, r)
	}
	return filtered
}
