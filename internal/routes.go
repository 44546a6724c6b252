package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	"pokerlog/internal/config"
	"pokerlog/internal/http"
	"pokerlog/internal/http/middleware"
)

func apiCORSConfig(cfg *config.Config) *cors.Config {
	return &cors.Config{
		AllowOrigins: cfg.GetCORSAllowedOrigins(),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + http.TimezoneHeader,
	}
}

// MountAppRoutes mounts the JSON API. Clients authenticate with bearer
// tokens, so no cookie session is set up.
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()

	// Rate limiting only applies in production; it would interfere with tests.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// 10 requests per minute against credential guessing
	authRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(10),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	apiRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(120),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	db := srv.GetDBManager().GetConnection()
	logger := srv.GetLogger()
	corsConfig := apiCORSConfig(cfg)

	// Browser clients call from another origin, so Sec-Fetch-Site is not enforced.
	publicConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		CORSConfig:         corsConfig,
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware:   []fiber.Handler{authRateLimiter},
	}

	protectedConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		CORSConfig:         corsConfig,
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware: []fiber.Handler{
			apiRateLimiter,
			middleware.BearerAuth(http.NewTokenIssuer(cfg), db, logger),
		},
	}

	preflightConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		CORSConfig:         corsConfig,
		EnableSecFetchSite: cartridge.Bool(false),
	}
	preflight := func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}

	// === HEALTH ===
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// === AUTHENTICATION ===
	srv.Post("/api/register", http.RegisterAction, publicConfig)
	srv.Post("/api/login", http.LoginAction, publicConfig)
	srv.Get("/api/me", http.MeAction, protectedConfig)
	srv.Post("/api/account/password", http.AccountChangePasswordAction, protectedConfig)
	srv.Delete("/api/account", http.AccountDeleteAction, protectedConfig)

	// === SESSIONS ===
	srv.Get("/api/sessions", http.SessionsIndexAction, protectedConfig)
	srv.Post("/api/sessions", http.SessionCreateAction, protectedConfig)
	srv.Get("/api/sessions/:id", http.SessionShowAction, protectedConfig)
	srv.Put("/api/sessions/:id", http.SessionUpdateAction, protectedConfig)
	srv.Post("/api/sessions/:id", http.SessionUpdateAction, protectedConfig)
	srv.Delete("/api/sessions/:id", http.SessionDeleteAction, protectedConfig)

	// === VIEWS ===
	srv.Get("/api/dashboard", http.DashboardAction, protectedConfig)
	srv.Get("/api/calendar", http.CalendarAction, protectedConfig)

	// === SUPPORT ===
	srv.Post("/api/support", http.SupportCreateAction, protectedConfig)

	for _, path := range []string{
		"/api/register", "/api/login", "/api/me", "/api/account", "/api/account/password",
		"/api/sessions", "/api/sessions/:id", "/api/dashboard", "/api/calendar", "/api/support",
	} {
		srv.Options(path, preflight, preflightConfig)
	}
}
