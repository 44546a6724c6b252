package analytics

import (
	"fmt"
	"sort"
	"strings"
)

// Dimension is a categorical session field that rollups group by.
type Dimension string

const (
	DimensionGameType     Dimension = "gameType"
	DimensionLocation     Dimension = "location"
	DimensionBlinds       Dimension = "blinds"
	DimensionLocationType Dimension = "locationType"
)

// UnknownBucket groups sessions with an empty dimension value.
const UnknownBucket = "Unknown"

func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(strings.TrimSpace(s)); d {
	case DimensionGameType, DimensionLocation, DimensionBlinds, DimensionLocationType:
		return d, nil
	default:
		return "", fmt.Errorf("unknown dimension %q", s)
	}
}

func (d Dimension) valueOf(r Record) string {
	var v string
	switch d {
	case DimensionGameType:
		v = r.GameType
	case DimensionLocation:
		v = r.Location
	case DimensionBlinds:
		v = r.Blinds
	case DimensionLocationType:
		v = r.LocationType
	}
	if strings.TrimSpace(v) == "" {
		return UnknownBucket
	}
	return v
}

// DimensionRollup totals the sessions sharing one dimension value.
type DimensionRollup struct {
	Value           string  `json:"value"`
	Sessions        int     `json:"sessions"`
	Winnings        float64 `json:"winnings"`
	Hours           float64 `json:"hours"`
	BuyIns          float64 `json:"buy_ins"`
	ROI             float64 `json:"roi"`
	AverageWinnings float64 `json:"average_winnings"`
}

// RollupByDimension groups sessions by the dimension's value. Groups come
// out in the order their first session appears in records.
func RollupByDimension(records []Record, dim Dimension) []DimensionRollup {
	index := make(map[string]int)
	rollups := []DimensionRollup{}

	for _, r := range records {
		value := dim.valueOf(r)
		i, ok := index[value]
		if !ok {
			i = len(rollups)
			index[value] = i
			rollups = append(rollups, DimensionRollup{Value: value})
		}

		g := &rollups[i]
		g.Sessions++
		g.Winnings += ToNumber(r.Winnings)
		g.Hours += ToNumber(r.Duration)
		g.BuyIns += ToNumber(r.BuyIn)
	}

	for i := range rollups {
		g := &rollups[i]
		g.ROI = roi(g.Winnings, g.BuyIns)
		g.AverageWinnings = safeDivide(g.Winnings, float64(g.Sessions))
	}
	return rollups
}

// SortRollups returns a copy ordered by winnings, highest first, with ties
// broken by value.
func SortRollups(rollups []DimensionRollup) []DimensionRollup {
	sorted := make([]DimensionRollup, len(rollups))
	copy(sorted, rollups)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Winnings != sorted[j].Winnings {
			return sorted[i].Winnings > sorted[j].Winnings
		}
		return sorted[i].Value < sorted[j].Value
	})
	return sorted
}
