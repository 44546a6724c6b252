package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"pokerlog/internal/timeframe"
)

// SeriesMode selects whether chart points carry each bucket's own winnings
// or the running total.
type SeriesMode string

const (
	SeriesModePeriodic   SeriesMode = "periodic"
	SeriesModeCumulative SeriesMode = "cumulative"
)

// ParseSeriesMode accepts "periodic" or "cumulative"; empty means cumulative.
func ParseSeriesMode(s string) (SeriesMode, error) {
	switch SeriesMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SeriesModeCumulative:
		return SeriesModeCumulative, nil
	case SeriesModePeriodic:
		return SeriesModePeriodic, nil
	default:
		return "", fmt.Errorf("unknown series mode %q (expected periodic or cumulative)", s)
	}
}

type SeriesOptions struct {
	Mode SeriesMode
	// Dense emits a zero point for every bucket in the window instead of
	// only the buckets that hold sessions.
	Dense bool
}

// SeriesPoint is one chart bucket.
type SeriesPoint struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Winnings float64 `json:"winnings"`
	Sessions int     `json:"sessions"`
	Hours    float64 `json:"hours"`
}

// BuildSeries buckets the sessions that fall inside period's window ending
// at now. Bucketing happens in now's location. Points are ascending by key.
func BuildSeries(records []Record, period timeframe.Period, now time.Time, opts SeriesOptions) []SeriesPoint {
	loc := now.Location()
	window := period.Window(now)
	size := window.BucketSize

	buckets := make(map[string]*SeriesPoint)
	var earliest time.Time
	for _, r := range records {
		ts, ok := r.LocalTime(loc)
		if !ok || !window.Contains(ts) {
			continue
		}
		if earliest.IsZero() || ts.Before(earliest) {
			earliest = ts
		}

		key := timeframe.BucketKey(ts, size)
		b, exists := buckets[key]
		if !exists {
			b = &SeriesPoint{Key: key}
			buckets[key] = b
		}
		b.Winnings += ToNumber(r.Winnings)
		b.Sessions++
		b.Hours += ToNumber(r.Duration)
	}

	var keys []string
	if opts.Dense {
		from := window.From
		if period == timeframe.PeriodAllTime {
			if earliest.IsZero() {
				return []SeriesPoint{}
			}
			from = earliest
		}
		keys = timeframe.BucketKeysBetween(from, now, size)
	} else {
		keys = make([]string, 0, len(buckets))
		for key := range buckets {
			keys = append(keys, key)
		}
		// ISO keys sort chronologically.
		sort.Strings(keys)
	}

	points := make([]SeriesPoint, 0, len(keys))
	running := 0.0
	for _, key := range keys {
		point := SeriesPoint{Key: key}
		if b, ok := buckets[key]; ok {
			point = *b
		}
		point.Label = timeframe.BucketLabel(key, size)

		if opts.Mode == SeriesModeCumulative {
			running += point.Winnings
			point.Winnings = running
		}
		points = append(points, point)
	}
	return points
}
