package timeframe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokerlog/internal/timeframe"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestNormalizeTimestamp(t *testing.T) {
	assert.Equal(t, "2024-01-15T12:00:00", timeframe.NormalizeTimestamp("2024-01-15"))
	assert.Equal(t, "2024-01-15T08:30:00Z", timeframe.NormalizeTimestamp("2024-01-15T08:30:00Z"))
	assert.Equal(t, "2024-01-15T20:30:00", timeframe.NormalizeTimestamp("2024-01-15 20:30:00"))
	assert.Equal(t, "", timeframe.NormalizeTimestamp("   "))
}

// A bare date must stay on its calendar day in every offset. Parsed as UTC
// midnight it would show as the 14th anywhere west of Greenwich.
func TestParseTimestamp_BareDateKeepsCalendarDay(t *testing.T) {
	zones := []string{"UTC", "America/Los_Angeles", "Pacific/Honolulu", "Asia/Tokyo", "Pacific/Kiritimati"}

	for _, zone := range zones {
		t.Run(zone, func(t *testing.T) {
			loc := mustLoad(t, zone)
			ts, err := timeframe.ParseTimestamp("2024-01-15", loc)
			require.NoError(t, err)
			assert.Equal(t, "2024-01-15", timeframe.LocalDateKey(ts))
			assert.Equal(t, 12, ts.Hour())
			assert.Equal(t, loc, ts.Location())
		})
	}
}

func TestParseTimestamp_Formats(t *testing.T) {
	la := mustLoad(t, "America/Los_Angeles")

	t.Run("offset timestamps convert to the viewer zone", func(t *testing.T) {
		ts, err := timeframe.ParseTimestamp("2024-01-16T04:30:00Z", la)
		require.NoError(t, err)
		assert.Equal(t, "2024-01-15", timeframe.LocalDateKey(ts))
		assert.Equal(t, 20, ts.Hour())
	})

	t.Run("fractional seconds", func(t *testing.T) {
		ts, err := timeframe.ParseTimestamp("2024-01-15T10:00:00.123Z", time.UTC)
		require.NoError(t, err)
		assert.Equal(t, 123*time.Millisecond, time.Duration(ts.Nanosecond()))
	})

	t.Run("wall clock without offset is read in the viewer zone", func(t *testing.T) {
		ts, err := timeframe.ParseTimestamp("2024-01-15T23:30:00", la)
		require.NoError(t, err)
		assert.Equal(t, "2024-01-15", timeframe.LocalDateKey(ts))
		assert.Equal(t, 23, ts.Hour())
	})

	t.Run("minutes precision", func(t *testing.T) {
		ts, err := timeframe.ParseTimestamp("2024-01-15T18:45", time.UTC)
		require.NoError(t, err)
		assert.Equal(t, 45, ts.Minute())
	})

	t.Run("basic and short offsets", func(t *testing.T) {
		for _, raw := range []string{
			"2024-01-15T20:30:00+0000",
			"2024-01-15T20:30:00.5+0000",
			"2024-01-15 20:30:00+00",
			"2024-01-15T15:30:00-0500",
			"2024-01-15T15:30:00-05",
		} {
			ts, err := timeframe.ParseTimestamp(raw, time.UTC)
			require.NoError(t, err, raw)
			assert.Equal(t, 20, ts.Hour(), raw)
			assert.Equal(t, 30, ts.Minute(), raw)
		}
	})

	t.Run("nil location means UTC", func(t *testing.T) {
		ts, err := timeframe.ParseTimestamp("2024-01-15", nil)
		require.NoError(t, err)
		assert.Equal(t, time.UTC, ts.Location())
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		for _, raw := range []string{"", "yesterday", "2024-13-45", "15/01/2024"} {
			_, err := timeframe.ParseTimestamp(raw, time.UTC)
			assert.ErrorIs(t, err, timeframe.ErrInvalidTimestamp, raw)
		}
	})
}

func TestDayBounds(t *testing.T) {
	loc := mustLoad(t, "Europe/Madrid")

	start, err := timeframe.StartOfDay("2024-01-15", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, loc), start)

	end, err := timeframe.EndOfDay("2024-01-15", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 23, 59, 59, 999999999, loc), end)

	_, err = timeframe.StartOfDay("01/15/2024", loc)
	assert.Error(t, err)
}

func TestMonthRange(t *testing.T) {
	first, last := timeframe.MonthRange(2024, time.February, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), first)
	assert.Equal(t, "2024-02-29", timeframe.LocalDateKey(last))
	assert.Equal(t, 23, last.Hour())
}

func TestLoadLocation(t *testing.T) {
	fallback := mustLoad(t, "Asia/Tokyo")

	loc, err := timeframe.LoadLocation("", fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, loc)

	loc, err = timeframe.LoadLocation("America/New_York", fallback)
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())

	_, err = timeframe.LoadLocation("Not/AZone", fallback)
	assert.Error(t, err)
}
