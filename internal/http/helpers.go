// Package http holds the JSON API handlers.
package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"pokerlog/internal/auth"
	"pokerlog/internal/config"
	"pokerlog/internal/http/middleware"
	"pokerlog/internal/timeframe"
)

// TimezoneHeader lets clients send their zone without a query parameter.
const TimezoneHeader = "X-Timezone"

// timeProvider is swapped in tests to pin "now".
var timeProvider timeframe.TimeProvider = &timeframe.DefaultTimeProvider{}

// SetTimeProvider replaces the clock used by the dashboard and calendar.
// It returns a function restoring the previous clock.
func SetTimeProvider(p timeframe.TimeProvider) func() {
	prev := timeProvider
	timeProvider = p
	return func() { timeProvider = prev }
}

// NewTokenIssuer builds the token issuer for the configured secret and TTL.
func NewTokenIssuer(cfg *config.Config) *auth.Issuer {
	return auth.NewIssuer(cfg.JWTSecret, cfg.GetTokenTTL(), cfg.AppName)
}

func errorJSON(ctx *cartridge.Context, status int, message string) error {
	return ctx.Status(status).JSON(fiber.Map{"error": message})
}

func currentUserID(ctx *cartridge.Context) (uint, bool) {
	return middleware.UserID(ctx.Ctx)
}

// requestLocation resolves the caller's zone from ?tz=, then the
// X-Timezone header, then the configured default.
func requestLocation(ctx *cartridge.Context) (*time.Location, error) {
	name := ctx.Query("tz")
	if name == "" {
		name = ctx.Get(TimezoneHeader)
	}
	return timeframe.LoadLocation(name, config.GetConfig().GetDefaultLocation())
}

func sessionID(ctx *cartridge.Context) (uint, bool) {
	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}
