package http

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"pokerlog/internal/analytics"
	"pokerlog/internal/sessions"
)

type CalendarResponse struct {
	Year    int                               `json:"year"`
	Month   int                               `json:"month"`
	Days    map[string]*analytics.CalendarDay `json:"days"`
	Weeks   [][7]int                          `json:"weeks"`
	Summary analytics.Summary                 `json:"summary"`
}

func queryInt(ctx *cartridge.Context, key string, fallback, lo, hi int) (int, bool) {
	raw := ctx.Query(key)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, false
	}
	return v, true
}

// BuildCalendarResponse groups the month's sessions by local day and totals them.
func BuildCalendarResponse(records []analytics.Record, year int, month time.Month, loc *time.Location) CalendarResponse {
	cal := analytics.BuildCalendar(records, year, month, loc)
	return CalendarResponse{
		Year:    cal.Year,
		Month:   int(cal.Month),
		Days:    cal.Days,
		Weeks:   ensureNonNil(cal.Weeks),
		Summary: analytics.Summarize(analytics.MonthRecords(records, year, month, loc)),
	}
}

// CalendarAction answers one month of sessions, the current month by default.
func CalendarAction(ctx *cartridge.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Access token required")
	}
	loc, err := requestLocation(ctx)
	if err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, err.Error())
	}

	now := timeProvider.Now(loc)
	year, ok := queryInt(ctx, "year", now.Year(), 1970, 9999)
	if !ok {
		return errorJSON(ctx, fiber.StatusBadRequest, "year must be a number between 1970 and 9999")
	}
	month, ok := queryInt(ctx, "month", int(now.Month()), 1, 12)
	if !ok {
		return errorJSON(ctx, fiber.StatusBadRequest, "month must be a number between 1 and 12")
	}

	rows, err := sessions.List(ctx.DB(), userID)
	if err != nil {
		ctx.Logger.Error("Failed to load sessions for calendar", slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	return ctx.JSON(BuildCalendarResponse(sessions.Records(rows), year, time.Month(month), loc))
}
