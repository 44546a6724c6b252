// Package analytics derives dashboard, chart and calendar views from a
// user's poker sessions. Everything here is pure: no I/O, inputs are never
// mutated and the same input always yields the same output.
package analytics

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"pokerlog/internal/timeframe"
)

// Number is a money or hours amount decoded leniently. JSON numbers and
// numeric strings are accepted; null, booleans, objects and non-numeric
// strings decode to 0. Decoding never fails.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*n = 0
			return nil
		}
		*n = Number(ToNumber(s))
		return nil
	}

	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(ToNumber(f))
	return nil
}

// Float64 returns n as a float64.
func (n Number) Float64() float64 {
	return float64(n)
}

// ToNumber coerces a loosely typed value to a finite float64. Anything that
// is not a number or a numeric string, and NaN or infinite values, become 0.
func ToNumber(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case Number:
		f = float64(x)
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Record is one poker session as the session store hands it out.
type Record struct {
	ID           uint   `json:"id"`
	UserID       uint   `json:"user_id"`
	GameType     string `json:"game_type"`
	Blinds       string `json:"blinds"`
	Location     string `json:"location"`
	LocationType string `json:"location_type"`
	BuyIn        Number `json:"buy_in"`
	EndAmount    Number `json:"end_amount"`
	Winnings     Number `json:"winnings"`
	Duration     Number `json:"duration"`
	Notes        string `json:"notes"`
	Timestamp    string `json:"timestamp"`
}

// LocalTime returns the normalized session time in loc. The bool is false when the
// timestamp cannot be parsed; such records are left out of date-bounded views.
func (r Record) LocalTime(loc *time.Location) (time.Time, bool) {
	t, err := timeframe.ParseTimestamp(r.Timestamp, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
