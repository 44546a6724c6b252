package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
)

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthIndexAction pings the database and reports 503 when it is unreachable.
func HealthIndexAction(ctx *cartridge.Context) error {
	status := "ok"

	db := ctx.DBManager.GetConnection()
	if db == nil {
		status = "error"
		ctx.Logger.Error("Database connection unavailable")
	} else if sqlDB, err := db.DB(); err != nil {
		status = "error"
		ctx.Logger.Error("Database connection error", slog.Any("error", err))
	} else if err := sqlDB.Ping(); err != nil {
		status = "error"
		ctx.Logger.Error("Database ping failed", slog.Any("error", err))
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return ctx.Status(code).JSON(HealthStatus{Status: status, Timestamp: time.Now().UTC()})
}
