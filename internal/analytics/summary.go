package analytics

// Summary holds the headline totals for a set of sessions.
type Summary struct {
	TotalSessions   int     `json:"total_sessions"`
	TotalWinnings   float64 `json:"total_winnings"`
	TotalBuyIns     float64 `json:"total_buy_ins"`
	TotalHours      float64 `json:"total_hours"`
	HourlyRate      float64 `json:"hourly_rate"`
	AverageWinnings float64 `json:"average_winnings"`
}

// Summarize totals winnings, buy-ins and hours. Rates are 0 when their
// denominator is 0, so an empty input yields the zero Summary.
func Summarize(records []Record) Summary {
	var s Summary
	for _, r := range records {
		s.TotalSessions++
		s.TotalWinnings += ToNumber(r.Winnings)
		s.TotalBuyIns += ToNumber(r.BuyIn)
		s.TotalHours += ToNumber(r.Duration)
	}

	s.HourlyRate = safeDivide(s.TotalWinnings, s.TotalHours)
	s.AverageWinnings = safeDivide(s.TotalWinnings, float64(s.TotalSessions))
	return s
}

func safeDivide(numerator, denominator float64) float64 {
	if denominator <= 0 {
		return 0
	}
	return numerator / denominator
}

// roi is winnings as a percentage of buy-ins.
func roi(winnings, buyIns float64) float64 {
	return safeDivide(winnings, buyIns) * 100
}
