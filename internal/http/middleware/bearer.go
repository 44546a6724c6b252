package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pokerlog/internal/auth"
	"pokerlog/internal/users"
)

// Locals keys set for authenticated requests.
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
)

// BearerAuth validates the access token for API endpoints.
// Expects: Authorization: Bearer <token>
func BearerAuth(issuer *auth.Issuer, db *gorm.DB, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Access token required",
			})
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			logger.Debug("Rejected bearer token", slog.Any("error", err))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		// Tokens outlive accounts; a deleted user must not keep access.
		user, err := users.FindByID(db, claims.UserID)
		if err != nil {
			if !errors.Is(err, users.ErrUserNotFound) {
				logger.Error("Failed to load token user", slog.Uint64("user_id", uint64(claims.UserID)), slog.Any("error", err))
			}
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(UserIDKey, user.ID)
		c.Locals(UserEmailKey, user.Email)
		return c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// UserID returns the authenticated user set by BearerAuth.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(UserIDKey).(uint)
	return id, ok && id != 0
}
