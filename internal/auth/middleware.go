package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"pos-backend/internal/apperr"
	"pos-backend/internal/models"
)

const CtxUserKey = "user"

// JWTMiddleware verifies the bearer token and loads the caller's user record. The role
// always comes from the stored record, never from the token.
func JWTMiddleware(v Verifier, users *Users) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization header must be 'Bearer <token>'")
		}

		userID, err := v.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			log.WithError(err).Debug("token rejected")
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		acct, err := users.Get(c.UserContext(), userID)
		if err != nil {
			if apperr.Is(err, apperr.NotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "user no longer exists")
			}
			return apperr.ToFiber(err)
		}

		c.Locals(CtxUserKey, acct.User)
		return c.Next()
	}
}

// RequireRole admits min and every role above it.
func RequireRole(min models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := CurrentUser(c)
		if err != nil {
			return err
		}
		if !user.Role.AtLeast(min) {
			return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

// CurrentUser returns the user JWTMiddleware stored on the request.
func CurrentUser(c *fiber.Ctx) (models.User, error) {
	user, ok := c.Locals(CtxUserKey).(models.User)
	if !ok {
		return models.User{}, fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	return user, nil
}
