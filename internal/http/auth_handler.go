package http

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/crypto"

	"pokerlog/internal/config"
	"pokerlog/internal/users"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  *users.User `json:"user"`
	Token string      `json:"token"`
}

func issueFor(ctx *cartridge.Context, user *users.User) (string, error) {
	token, _, err := NewTokenIssuer(config.GetConfig()).Issue(user.ID, user.Email)
	if err != nil {
		ctx.Logger.Error("Failed to issue token", slog.Uint64("user_id", uint64(user.ID)), slog.Any("error", err))
	}
	return token, err
}

// RegisterAction creates an account and signs the new user in.
func RegisterAction(ctx *cartridge.Context) error {
	var req credentialsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid request body")
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return errorJSON(ctx, fiber.StatusBadRequest, "Email, password, and name are required")
	}

	user, err := users.Register(ctx.DB(), req.Email, req.Password, req.Name)
	switch {
	case errors.Is(err, users.ErrUserExists):
		return errorJSON(ctx, fiber.StatusBadRequest, "User already exists")
	case errors.Is(err, users.ErrWeakPassword):
		return errorJSON(ctx, fiber.StatusBadRequest, "Password must be at least 8 characters long")
	case err != nil:
		ctx.Logger.Error("Failed to register user", slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	token, err := issueFor(ctx, user)
	if err != nil {
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	ctx.Logger.Info("User registered", slog.Uint64("user_id", uint64(user.ID)))
	return ctx.Status(fiber.StatusCreated).JSON(AuthResponse{User: user, Token: token})
}

// LoginAction exchanges credentials for a token.
func LoginAction(ctx *cartridge.Context) error {
	var req credentialsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return errorJSON(ctx, fiber.StatusBadRequest, "Email and password are required")
	}

	user, err := users.Authenticate(ctx.DB(), req.Email, req.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		ctx.Logger.Warn("Rejected login", slog.String("email", users.NormalizeEmail(req.Email)))
		return errorJSON(ctx, fiber.StatusUnauthorized, "Invalid email or password")
	}
	if err != nil {
		ctx.Logger.Error("Failed to authenticate user", slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}

	token, err := issueFor(ctx, user)
	if err != nil {
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}
	return ctx.JSON(AuthResponse{User: user, Token: token})
}

// MeAction returns the authenticated user.
func MeAction(ctx *cartridge.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Access token required")
	}

	user, err := users.FindByID(ctx.DB(), userID)
	if errors.Is(err, users.ErrUserNotFound) {
		return errorJSON(ctx, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		ctx.Logger.Error("Failed to load user", slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Internal server error")
	}
	return ctx.JSON(fiber.Map{"user": user})
}

// AccountChangePasswordAction replaces the password after checking the current one.
func AccountChangePasswordAction(ctx *cartridge.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Access token required")
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := ctx.BodyParser(&req); err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.CurrentPassword == "" {
		return errorJSON(ctx, fiber.StatusBadRequest, "Current password is required")
	}
	if len(req.NewPassword) < users.MinPasswordLength {
		return errorJSON(ctx, fiber.StatusBadRequest, "New password must be at least 8 characters long")
	}

	db := ctx.DB()
	user, err := users.FindByID(db, userID)
	if err != nil {
		ctx.Logger.Error("Failed to find user for password change", slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusNotFound, "User not found")
	}

	if !crypto.VerifyPassword(user.EncryptedPassword, req.CurrentPassword) {
		ctx.Logger.Warn("Invalid current password provided during password change", slog.Uint64("user_id", uint64(userID)))
		return errorJSON(ctx, fiber.StatusUnauthorized, "Current password is incorrect")
	}

	if err := users.ChangePassword(db, user.Email, req.NewPassword); err != nil {
		ctx.Logger.Error("Failed to change password", slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Failed to change password")
	}

	ctx.Logger.Info("Password changed", slog.Uint64("user_id", uint64(userID)))
	return ctx.JSON(fiber.Map{"message": "Password changed successfully"})
}

// AccountDeleteAction removes the account and every session it owns.
func AccountDeleteAction(ctx *cartridge.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return errorJSON(ctx, fiber.StatusUnauthorized, "Access token required")
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := ctx.BodyParser(&req); err != nil || req.Password == "" {
		return errorJSON(ctx, fiber.StatusBadRequest, "Password is required")
	}

	db := ctx.DB()
	user, err := users.FindByID(db, userID)
	if err != nil {
		return errorJSON(ctx, fiber.StatusNotFound, "User not found")
	}
	if !crypto.VerifyPassword(user.EncryptedPassword, req.Password) {
		ctx.Logger.Warn("Invalid password provided during account deletion", slog.Uint64("user_id", uint64(userID)))
		return errorJSON(ctx, fiber.StatusUnauthorized, "Password is incorrect")
	}

	if err := users.Delete(db, userID); err != nil {
		ctx.Logger.Error("Failed to delete account", slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
		return errorJSON(ctx, fiber.StatusInternalServerError, "Failed to delete account")
	}

	ctx.Logger.Info("Account deleted", slog.Uint64("user_id", uint64(userID)))
	return ctx.JSON(fiber.Map{"message": "Account deleted successfully"})
}
