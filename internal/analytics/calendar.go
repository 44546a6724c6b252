package analytics

import (
	"time"

	"pokerlog/internal/timeframe"
)

// CalendarDay is one cell of the month grid.
type CalendarDay struct {
	Date          string   `json:"date"`
	Sessions      []Record `json:"sessions"`
	TotalWinnings float64  `json:"total_winnings"`
}

// CalendarMonth maps ISO dates to the sessions played that day. Weeks is the
// Sunday-first grid of day numbers, 0 marking cells outside the month.
type CalendarMonth struct {
	Year  int                     `json:"year"`
	Month time.Month              `json:"month"`
	Days  map[string]*CalendarDay `json:"days"`
	Weeks [][7]int                `json:"weeks"`
}

// MonthRecords returns the sessions whose local date falls in the month,
// first and last day included. A nil loc means UTC.
func MonthRecords(records []Record, year int, month time.Month, loc *time.Location) []Record {
	if loc == nil {
		loc = time.UTC
	}
	first, last := timeframe.MonthRange(year, month, loc)

	var inMonth []Record
	for _, r := range records {
		ts, ok := r.LocalTime(loc)
		if !ok || ts.Before(first) || ts.After(last) {
			continue
		}
		inMonth = append(inMonth, r)
	}
	return inMonth
}

// BuildCalendar groups a month's sessions by local calendar day.
func BuildCalendar(records []Record, year int, month time.Month, loc *time.Location) CalendarMonth {
	if loc == nil {
		loc = time.UTC
	}
	cal := CalendarMonth{
		Year:  year,
		Month: month,
		Days:  make(map[string]*CalendarDay),
		Weeks: monthGrid(year, month),
	}

	for _, r := range MonthRecords(records, year, month, loc) {
		ts, _ := r.LocalTime(loc)
		key := timeframe.LocalDateKey(ts)

		day, ok := cal.Days[key]
		if !ok {
			day = &CalendarDay{Date: key}
			cal.Days[key] = day
		}
		day.Sessions = append(day.Sessions, r)
		day.TotalWinnings += ToNumber(r.Winnings)
	}
	return cal
}

func monthGrid(year int, month time.Month) [][7]int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	var weeks [][7]int
	var week [7]int
	col := int(first.Weekday())
	for day := 1; day <= daysInMonth; day++ {
		week[col] = day
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = [7]int{}
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}
