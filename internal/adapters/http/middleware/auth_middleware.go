package middleware

import (
	"errors"
	"strings"

	"tapledger/internal/core/domain"
	"tapledger/internal/core/services"
	"tapledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Context keys for the authenticated request
const (
	LocalUser  = "user"
	LocalToken = "token"
)

// AuthMiddleware resolves the bearer token to a user before the guarded
// handlers run
func AuthMiddleware(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plain := BearerToken(c)
		if plain == "" {
			return response.Unauthorized(c, "Access token required")
		}

		user, err := authService.CurrentUser(c.Context(), plain)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthenticated) {
				return response.Unauthorized(c, "Invalid access token")
			}
			return response.InternalServerError(c, "Failed to authenticate request")
		}

		c.Locals(LocalUser, user)
		c.Locals(LocalToken, plain)

		return c.Next()
	}
}

// BearerToken extracts the bearer token from the Authorization header
func BearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
