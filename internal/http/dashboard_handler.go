package http

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pokerlog/internal/analytics"
	"pokerlog/internal/pkg/async"
	"pokerlog/internal/sessions"
	"pokerlog/internal/timeframe"
)

const recentSessionsLimit = 5

// DashboardQuery is the parsed dashboard request.
type DashboardQuery struct {
	Period  timeframe.Period
	Options analytics.SeriesOptions
	Filters analytics.Filters
}

// FilterOptionsResponse adds display labels to the filter drop-down values.
type FilterOptionsResponse struct {
	analytics.FilterOptions
	Labels map[string]string `json:"labels"`
}

type DashboardResponse struct {
	Period         timeframe.Period            `json:"period"`
	Mode           analytics.SeriesMode        `json:"mode"`
	Dense          bool                        `json:"dense"`
	Filters        analytics.Filters           `json:"filters"`
	Summary        analytics.Summary           `json:"summary"`
	Insights       analytics.Insights          `json:"insights"`
	Series         []analytics.SeriesPoint     `json:"series"`
	ByGameType     []analytics.DimensionRollup `json:"by_game_type"`
	ByLocation     []analytics.DimensionRollup `json:"by_location"`
	RecentSessions []analytics.Record          `json:"recent_sessions"`
	FilterOptions  FilterOptionsResponse       `json:"filter_options"`
}

// parseDashboardQuery reads the period, chart options and filters from the query string.
func parseDashboardQuery(ctx *cartridge.Context) (DashboardQuery, error) {
	var q DashboardQuery

	period, err := timeframe.ParsePeriod(ctx.Query("period"))
	if err != nil {
		return q, err
	}
	mode, err := analytics.ParseSeriesMode(ctx.Query("mode"))
	if err != nil {
		return q, err
	}
	dense := false
	if raw := ctx.Query("dense"); raw != "" {
		if dense, err = strconv.ParseBool(raw); err != nil {
			return q, fmt.Errorf("invalid dense flag %q", raw)
		}
	}

	filters := analytics.Filters{
		Location:     ctx.Query("location"),
		GameType:     ctx.Query("gameType"),
		Blinds:       ctx.Query("blinds"),
		LocationType: ctx.Query("locationType"),
		StartDate:    ctx.Query("startDate"),
		EndDate:      ctx.Query("endDate"),
	}
	if err := filters.Validate(); err != nil {
		return q, err
	}

	q.Period = period
	q.Options = analytics.SeriesOptions{Mode: mode, Dense: dense}
	q.Filters = filters
	return q, nil
}

// BuildDashboard assembles every dashboard part. All parts except the filter
// options are computed over the filtered sessions.
func BuildDashboard(ctx context.Context, records []analytics.Record, q DashboardQuery, now time.Time) (*DashboardResponse, error) {
	loc := now.Location()
	filtered := analytics.ApplyFilters(records, q.Filters, loc)

	tasks := []async.Task{
		{
			Name: "summary",
			Execute: func(context.Context) (any, error) {
				return analytics.Summarize(filtered), nil
			},
		},
		{
			Name: "insights",
			Execute: func(context.Context) (any, error) {
				return analytics.ComputeInsights(filtered), nil
			},
		},
		{
			Name: "series",
			Execute: func(context.Context) (any, error) {
				return ensureNonNil(analytics.BuildSeries(filtered, q.Period, now, q.Options)), nil
			},
		},
		{
			Name: "byGameType",
			Execute: func(context.Context) (any, error) {
				return rollup(filtered, analytics.DimensionGameType), nil
			},
		},
		{
			Name: "byLocation",
			Execute: func(context.Context) (any, error) {
				return rollup(filtered, analytics.DimensionLocation), nil
			},
		},
		{
			Name: "recentSessions",
			Execute: func(context.Context) (any, error) {
				return ensureNonNil(analytics.RecentSessions(filtered, recentSessionsLimit, loc)), nil
			},
		},
		{
			Name: "filterOptions",
			Execute: func(context.Context) (any, error) {
				return buildFilterOptions(records), nil
			},
		},
	}

	results := async.NewPool(4).Execute(ctx, tasks)

	resp := &DashboardResponse{
		Period:  q.Period,
		Mode:    q.Options.Mode,
		Dense:   q.Options.Dense,
		Filters: q.Filters,
	}
	var err error
	if resp.Summary, err = async.Get[analytics.Summary](results, "summary"); err != nil {
		return nil, err
	}
	if resp.Insights, err = async.Get[analytics.Insights](results, "insights"); err != nil {
		return nil, err
	}
	if resp.Series, err = async.Get[[]analytics.SeriesPoint](results, "series"); err != nil {
		return nil, err
	}
	if resp.ByGameType, err = async.Get[[]analytics.DimensionRollup](results, "byGameType"); err != nil {
		return nil, err
	}
	if resp.ByLocation, err = async.Get[[]analytics.DimensionRollup](results, "byLocation"); err != nil {
		return nil, err
	}
	if resp.RecentSessions, err = async.Get[[]analytics.Record](results, "recentSessions"); err != nil {
		return nil, err
	}
	if resp.FilterOptions, err = async.Get[FilterOptionsResponse](results, "filterOptions"); err != nil {
		return nil, err
	}
	return resp, nil
}

func rollup(records []analytics.Record, dim analytics.Dimension) []analytics.DimensionRollup {
	return ensureNonNil(analytics.SortRollups(analytics.RollupByDimension(records, dim)))
}

// buildFilterOptions titles location types and game types for display,
// e.g. "casino" becomes "Casino".
func buildFilterOptions(records []analytics.Record) FilterOptionsResponse {
	opts := analytics.BuildFilterOptions(records)
	opts.Locations = ensureNonNil(opts.Locations)
	opts.GameTypes = ensureNonNil(opts.GameTypes)
	opts.Blinds = ensureNonNil(opts.Blinds)
	opts.LocationTypes = ensureNonNil(opts.LocationTypes)

	caser := cases.Title(language.English, cases.NoLower)
	labels := make(map[string]string, len(opts.LocationTypes)+len(opts.GameTypes))
	for _, v := range opts.LocationTypes {
		labels[v] = caser.String(v)
	}
	for _, v := range opts.GameTypes {
		labels[v] = caser.String(v)
	}
	return FilterOptionsResponse{FilterOptions: opts, Labels: labels}
}

func ensureNonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// DashboardAction answers the aggregated dashboard for the user's sessions.
func DashboardAction(ctx *cartridge.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Access token required")
	}
	loc, err := requestLocation(ctx)
	if err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, err.Error())
	}
	q, err := parseDashboardQuery(ctx)
	if err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, err.Error())
	}

	rows, err := sessions.List(ctx.DB(), userID)
	if err != nil {
		ctx.Logger.Error("Failed to load sessions for dashboard", slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	resp, err := BuildDashboard(ctx.Ctx.UserContext(), sessions.Records(rows), q, timeProvider.Now(loc))
	if err != nil {
		ctx.Logger.Error("Failed to build dashboard",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("period", string(q.Period)),
			slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}
	return ctx.JSON(resp)
}
