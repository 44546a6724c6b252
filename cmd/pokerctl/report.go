package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"pokerlog/internal/analytics"
	"pokerlog/internal/timeframe"
)

const defaultReportDimensions = "gameType,location"

var dimensionTitles = map[analytics.Dimension]string{
	analytics.DimensionGameType:     "BY GAME TYPE",
	analytics.DimensionLocation:     "BY LOCATION",
	analytics.DimensionBlinds:       "BY BLINDS",
	analytics.DimensionLocationType: "BY LOCATION TYPE",
}

// parseDimensions reads a comma separated list such as "gameType,blinds".
func parseDimensions(raw string) ([]analytics.Dimension, error) {
	var dims []analytics.Dimension
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		dim, err := analytics.ParseDimension(part)
		if err != nil {
			return nil, err
		}
		dims = append(dims, dim)
	}
	return dims, nil
}

func writeReport(w io.Writer, records []analytics.Record, period timeframe.Period, now time.Time, dims []analytics.Dimension) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	summary := analytics.Summarize(records)
	insights := analytics.ComputeInsights(records)

	fmt.Fprintln(tw, "SUMMARY")
	fmt.Fprintf(tw, "Sessions\t%d\n", summary.TotalSessions)
	fmt.Fprintf(tw, "Winnings\t%.2f\n", summary.TotalWinnings)
	fmt.Fprintf(tw, "Buy-ins\t%.2f\n", summary.TotalBuyIns)
	fmt.Fprintf(tw, "Hours\t%.2f\n", summary.TotalHours)
	fmt.Fprintf(tw, "Hourly rate\t%.2f\n", summary.HourlyRate)
	fmt.Fprintf(tw, "Average\t%.2f\n", summary.AverageWinnings)
	fmt.Fprintf(tw, "Win rate\t%.1f%%\n", insights.WinRate)
	fmt.Fprintf(tw, "ROI\t%.1f%%\n", insights.ROI)
	if insights.BestSession != nil {
		fmt.Fprintf(tw, "Best session\t%.2f\t%s\n", insights.BestSession.Winnings.Float64(), insights.BestSession.Timestamp)
	}
	if insights.WorstSession != nil {
		fmt.Fprintf(tw, "Worst session\t%.2f\t%s\n", insights.WorstSession.Winnings.Float64(), insights.WorstSession.Timestamp)
	}

	fmt.Fprintf(tw, "\nCUMULATIVE (%s)\n", period)
	fmt.Fprintln(tw, "Bucket\tSessions\tHours\tWinnings")
	series := analytics.BuildSeries(records, period, now, analytics.SeriesOptions{Mode: analytics.SeriesModeCumulative})
	for _, p := range series {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\n", p.Label, p.Sessions, p.Hours, p.Winnings)
	}

	for _, dim := range dims {
		fmt.Fprintf(tw, "\n%s\n", dimensionTitles[dim])
		fmt.Fprintln(tw, "Value\tSessions\tWinnings\tROI")
		for _, r := range analytics.SortRollups(analytics.RollupByDimension(records, dim)) {
			fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.1f%%\n", r.Value, r.Sessions, r.Winnings, r.ROI)
		}
	}

	return tw.Flush()
}
