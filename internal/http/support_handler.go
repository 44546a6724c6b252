package http

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"pokerlog/internal/config"
	"pokerlog/internal/support"
	"pokerlog/internal/users"
)

// supportNotifier is built from config per request so tests can swap environments.
var supportNotifier = func(logger *slog.Logger) support.Notifier {
	return support.NewNotifier(config.GetConfig(), logger)
}

// SupportCreateAction forwards a support request from the signed-in user.
func SupportCreateAction(ctx *cartridge.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Access token required")
	}

	var req struct {
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := ctx.BodyParser(&req); err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Message) == "" {
		return errorJSON(ctx, fiber.StatusBadRequest, "Subject and message are required")
	}

	user, err := users.FindByID(ctx.DB(), userID)
	if err != nil {
		return errorJSON(ctx, fiber.StatusNotFound, "User not found")
	}

	err = supportNotifier(ctx.Logger).Notify(ctx.Ctx.UserContext(), support.Request{
		Subject:   req.Subject,
		Message:   req.Message,
		UserName:  user.Name,
		UserEmail: user.Email,
	})
	if errors.Is(err, support.ErrNotConfigured) {
		ctx.Logger.Error("Support request dropped, SMTP is not configured", slog.Uint64("user_id", uint64(userID)))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Email service not configured")
	}
	if err != nil {
		ctx.Logger.Error("Failed to send support request", slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Failed to send support request")
	}

	return ctx.JSON(fiber.Map{"message": "Support request received"})
}
