package middleware

import (
	"context"
	"errors"
	"strings"

	"taskboard/internal/service"
	"taskboard/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StatusSessionExpired tells clients to log in again rather than retry.
const StatusSessionExpired = 440

const localUserID = "userID"

type SessionVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// TokenFromRequest reads the "token" header, falling back to a bearer
// Authorization header.
func TokenFromRequest(c *fiber.Ctx) string {
	if token := c.Get("token"); token != "" {
		return token
	}
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// UseToken rejects requests without a live session and stores the user id
// in c.Locals for the handlers.
func UseToken(sessions SessionVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := TokenFromRequest(c)
		if token == "" {
			return reject(c, fiber.StatusNotFound, "Token is required")
		}

		userID, err := sessions.Verify(c.UserContext(), token)
		if err != nil {
			status, message := SessionStatus(err)
			logSessionFailure(c, status, err)
			return reject(c, status, message)
		}

		c.Locals(localUserID, userID)
		return c.Next()
	}
}

// SessionStatus maps a Verify error to the response status and message.
// Expired sessions get 440 so clients log in again instead of retrying.
func SessionStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrTokenExpired):
		return StatusSessionExpired, "Session expired, please log in again"
	case errors.Is(err, service.ErrTokenInvalid), errors.Is(err, service.ErrTokenMissing):
		return fiber.StatusUnauthorized, "Invalid token"
	case errors.Is(err, service.ErrIdentityNotFound):
		return fiber.StatusNotFound, "User not found"
	default:
		return fiber.StatusInternalServerError, "Error verifying session"
	}
}

func logSessionFailure(c *fiber.Ctx, status int, err error) {
	switch status {
	case fiber.StatusUnauthorized:
		logger.SecurityLogger.Warn("Invalid token", zap.String("ip", c.IP()))
	case fiber.StatusInternalServerError:
		logger.ErrorLogger.Error("Error verifying session", zap.Error(err))
	}
}

// UserID returns the identity set by UseToken.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func reject(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"success": false,
		"status":  status,
	})
}
