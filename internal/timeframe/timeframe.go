package timeframe

import "time"

// TimeFrameBucketSize is the granularity used to group sessions for charting.
type TimeFrameBucketSize string

const (
	TimeFrameBucketSizeMonth TimeFrameBucketSize = "month"
	TimeFrameBucketSizeWeek  TimeFrameBucketSize = "week"
	TimeFrameBucketSizeDay   TimeFrameBucketSize = "day"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"

	dayLabelLayout   = "Jan 2"
	monthLabelLayout = "Jan 2006"

	// Upper bound on generated buckets so a bad window cannot loop forever.
	maxBuckets = 1000
)

type TimeProvider interface {
	Now(loc *time.Location) time.Time
}

// DefaultTimeProvider uses the system clock.
type DefaultTimeProvider struct{}

func (p *DefaultTimeProvider) Now(loc *time.Location) time.Time {
	return time.Now().In(loc)
}

// MockTimeProvider allows setting a fixed time for testing
type MockTimeProvider struct {
	FixedTime time.Time
}

func (m *MockTimeProvider) Now(loc *time.Location) time.Time {
	return m.FixedTime.In(loc)
}

// BucketStart returns the first calendar date of the bucket holding local,
// expressed as midnight UTC so keys do not depend on the host offset.
// Weeks start on Sunday.
func BucketStart(local time.Time, size TimeFrameBucketSize) time.Time {
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	switch size {
	case TimeFrameBucketSizeWeek:
		return day.AddDate(0, 0, -int(day.Weekday()))
	case TimeFrameBucketSizeMonth:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// BucketKey returns the sortable key of the bucket holding local:
// an ISO date for day and week buckets, YYYY-MM for month buckets.
func BucketKey(local time.Time, size TimeFrameBucketSize) string {
	return formatBucketKey(BucketStart(local, size), size)
}

func formatBucketKey(start time.Time, size TimeFrameBucketSize) string {
	if size == TimeFrameBucketSizeMonth {
		return start.Format(MonthLayout)
	}
	return start.Format(DateLayout)
}

// BucketLabel turns a bucket key into a display label ("Jan 5", "Jan 2024").
// Unknown keys are returned unchanged.
func BucketLabel(key string, size TimeFrameBucketSize) string {
	if size == TimeFrameBucketSizeMonth {
		t, err := time.Parse(MonthLayout, key)
		if err != nil {
			return key
		}
		return t.Format(monthLabelLayout)
	}

	t, err := time.Parse(DateLayout, key)
	if err != nil {
		return key
	}
	return t.Format(dayLabelLayout)
}

// NextBucket advances a bucket start by one bucket.
func NextBucket(start time.Time, size TimeFrameBucketSize) time.Time {
	switch size {
	case TimeFrameBucketSizeMonth:
		return start.AddDate(0, 1, 0)
	case TimeFrameBucketSizeWeek:
		return start.AddDate(0, 0, 7)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// BucketKeysBetween lists every bucket key from the bucket holding from up to
// and including the bucket holding to, in ascending order.
func BucketKeysBetween(from, to time.Time, size TimeFrameBucketSize) []string {
	current := BucketStart(from, size)
	last := BucketStart(to, size)

	keys := []string{}
	for !current.After(last) && len(keys) < maxBuckets {
		keys = append(keys, formatBucketKey(current, size))
		current = NextBucket(current, size)
	}
	return keys
}
