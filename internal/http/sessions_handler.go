package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"pokerlog/internal/sessions"
)

// SessionsIndexAction lists the user's sessions, newest first.
func SessionsIndexAction(ctx *cartridge.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Access token required")
	}

	rows, err := sessions.List(ctx.DB(), userID)
	if err != nil {
		ctx.Logger.Error("Failed to list sessions", slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}
	if rows == nil {
		rows = []sessions.Session{}
	}
	return ctx.JSON(rows)
}

// SessionShowAction returns one session.
func SessionShowAction(ctx *cartridge.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Access token required")
	}
	id, ok := sessionID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusNotFound, "Session not found")
	}

	s, err := sessions.Get(ctx.DB(), userID, id)
	if err != nil {
		return sessionError(ctx, err, "Failed to load session")
	}
	return ctx.JSON(s)
}

// SessionCreateAction records a new session.
func SessionCreateAction(ctx *cartridge.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Access token required")
	}
	loc, err := requestLocation(ctx)
	if err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, err.Error())
	}

	var in sessions.Input
	if err := ctx.BodyParser(&in); err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid request body")
	}

	s, err := sessions.Create(ctx.DB(), userID, in, loc)
	if err != nil {
		return sessionError(ctx, err, "Failed to create session")
	}

	ctx.Logger.Info("Session created", slog.Uint64("user_id", uint64(userID)), slog.Uint64("session_id", uint64(s.ID)))
	return ctx.Status(fiber.StatusCreated).JSON(s)
}

// SessionUpdateAction replaces the editable fields of a session.
func SessionUpdateAction(ctx *cartridge.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Access token required")
	}
	id, ok := sessionID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusNotFound, "Session not found")
	}
	loc, err := requestLocation(ctx)
	if err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, err.Error())
	}

	var in sessions.Input
	if err := ctx.BodyParser(&in); err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid request body")
	}

	s, err := sessions.Update(ctx.DB(), userID, id, in, loc)
	if err != nil {
		return sessionError(ctx, err, "Failed to update session")
	}
	return ctx.JSON(s)
}

// SessionDeleteAction removes a session.
func SessionDeleteAction(ctx *cartridge.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Access token required")
	}
	id, ok := sessionID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusNotFound, "Session not found")
	}

	if err := sessions.Delete(ctx.DB(), userID, id); err != nil {
		return sessionError(ctx, err, "Failed to delete session")
	}
	return ctx.JSON(fiber.Map{"message": "Session deleted successfully"})
}

func sessionError(ctx *cartridge.Context, err error, logMsg string) error {
	var verr *sessions.ValidationError
	switch {
	case errors.Is(err, sessions.ErrSessionNotFound):
		return errorJSON(ctx, fiber.StatusNotFound, "Session not found")
	case errors.As(err, &verr):
		return errorJSON(ctx, fiber.StatusBadRequest, verr.Message)
	default:
		ctx.Logger.Error(logMsg, slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}
}
