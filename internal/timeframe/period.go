package timeframe

import (
	"fmt"
	"strings"
	"time"
)

// Period selects a chart lookback window and its bucket size.
type Period string

const (
	PeriodWeek    Period = "1W"
	PeriodMonth   Period = "1M"
	PeriodQuarter Period = "3M"
	PeriodYear    Period = "1Y"
	PeriodAllTime Period = "ALL"
)

const DefaultPeriod = PeriodMonth

// Periods lists the selectors in the order the dashboard offers them.
var Periods = []Period{PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear, PeriodAllTime}

// ParsePeriod accepts a selector case-insensitively. An empty string yields DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultPeriod, nil
	}
	for _, p := range Periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q (expected one of 1W, 1M, 3M, 1Y, ALL)", s)
}

// BucketSize returns the chart granularity for the period.
func (p Period) BucketSize() TimeFrameBucketSize {
	switch p {
	case PeriodWeek, PeriodMonth:
		return TimeFrameBucketSizeDay
	case PeriodQuarter:
		return TimeFrameBucketSizeWeek
	default:
		return TimeFrameBucketSizeMonth
	}
}

// Window is an inclusive time range with the granularity used to chart it.
type Window struct {
	From       time.Time
	To         time.Time
	BucketSize TimeFrameBucketSize
}

// Window returns the lookback window ending at now. 1W is a rolling seven
// days; 1M, 3M and 1Y start at local midnight of the same calendar day that
// many months back; ALL starts at the Unix epoch.
func (p Period) Window(now time.Time) Window {
	loc := now.Location()
	y, m, d := now.Date()

	var from time.Time
	switch p {
	case PeriodWeek:
		from = now.Add(-7 * 24 * time.Hour)
	case PeriodMonth:
		from = time.Date(y, m-1, d, 0, 0, 0, 0, loc)
	case PeriodQuarter:
		from = time.Date(y, m-3, d, 0, 0, 0, 0, loc)
	case PeriodYear:
		from = time.Date(y-1, m, d, 0, 0, 0, 0, loc)
	default:
		from = time.Unix(0, 0).In(loc)
	}

	return Window{From: from, To: now, BucketSize: p.BucketSize()}
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}
