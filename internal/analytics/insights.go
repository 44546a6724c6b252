package analytics

import (
	"sort"
	"strings"
	"time"
)

// Insights are the secondary dashboard figures.
type Insights struct {
	WinRate         float64 `json:"win_rate"`
	ROI             float64 `json:"roi"`
	WinningSessions int     `json:"winning_sessions"`
	LosingSessions  int     `json:"losing_sessions"`
	BestSession     *Record `json:"best_session"`
	WorstSession    *Record `json:"worst_session"`
}

// ComputeInsights derives the win rate (percent of sessions with positive
// winnings), overall ROI and the best and worst sessions. On equal winnings
// the session appearing first in records is kept.
func ComputeInsights(records []Record) Insights {
	var in Insights
	var winnings, buyIns float64

	for i := range records {
		r := records[i]
		w := ToNumber(r.Winnings)
		winnings += w
		buyIns += ToNumber(r.BuyIn)

		switch {
		case w > 0:
			in.WinningSessions++
		case w < 0:
			in.LosingSessions++
		}

		if in.BestSession == nil || w > ToNumber(in.BestSession.Winnings) {
			best := r
			in.BestSession = &best
		}
		if in.WorstSession == nil || w < ToNumber(in.WorstSession.Winnings) {
			worst := r
			in.WorstSession = &worst
		}
	}

	in.WinRate = safeDivide(float64(in.WinningSessions), float64(len(records))) * 100
	in.ROI = roi(winnings, buyIns)
	return in
}

// FilterOptions lists the distinct values offered by the filter drop-downs.
type FilterOptions struct {
	Locations     []string `json:"locations"`
	GameTypes     []string `json:"game_types"`
	Blinds        []string `json:"blinds"`
	LocationTypes []string `json:"location_types"`
}

// BuildFilterOptions collects the sorted, distinct, non-empty values of each
// filterable field.
func BuildFilterOptions(records []Record) FilterOptions {
	return FilterOptions{
		Locations:     distinct(records, func(r Record) string { return r.Location }),
		GameTypes:     distinct(records, func(r Record) string { return r.GameType }),
		Blinds:        distinct(records, func(r Record) string { return r.Blinds }),
		LocationTypes: distinct(records, func(r Record) string { return r.LocationType }),
	}
}

func distinct(records []Record, field func(Record) string) []string {
	seen := make(map[string]struct{})
	values := []string{}
	for _, r := range records {
		v := field(r)
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// RecentSessions returns up to n sessions, newest first. Sessions with an
// unparseable timestamp are left out. n <= 0 returns them all.
func RecentSessions(records []Record, n int, loc *time.Location) []Record {
	type timed struct {
		record Record
		at     time.Time
	}

	items := make([]timed, 0, len(records))
	for _, r := range records {
		if at, ok := r.LocalTime(loc); ok {
			items = append(items, timed{record: r, at: at})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].at.After(items[j].at)
	})

	if n <= 0 || n > len(items) {
		n = len(items)
	}
	recent := make([]Record, n)
	for i := 0; i < n; i++ {
		recent[i] = items[i].record
	}
	return recent
}
