package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/finbloc/payblock/internal/pkg/env"
	"github.com/finbloc/payblock/internal/pkg/security"
	"github.com/finbloc/payblock/internal/pkg/usercontext"
)

// TokenAuthMiddleware authenticates requests carrying a bearer token and
// attaches the decoded identity to the request context. Handlers behind it
// never look at the Authorization header themselves.
func TokenAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := ExtractBearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Authentication token is missing"})
		}

		claims, err := security.VerifyAuthToken(token, env.GetEnv("TOKEN_SECRET", ""))
		if err != nil {
			if errors.Is(err, security.ErrTokenExpired) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Authentication token has expired"})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid authentication token"})
		}

		usercontext.SetUserContext(c, usercontext.UserContext{
			UserID:     claims.UserID,
			Username:   claims.Username,
			IsLoggedIn: true,
			IsAdmin:    claims.IsAdmin,
		})

		return c.Next()
	}
}

// RequireAdmin gates admin-only routes. It must run behind TokenAuthMiddleware.
func RequireAdmin(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Authentication token is missing"})
	}
	if !userCtx.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Admin privileges required"})
	}
	return c.Next()
}

// ExtractBearerToken pulls the token out of the Authorization header.
func ExtractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
