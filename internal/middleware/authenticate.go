package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/stayease/stayease-web/internal/auth"
)

// Authenticate validates the bearer token and stores the account id in
// the auth.UserIDLocal local.
func Authenticate(tokens *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		if tokenStr == "" {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}

		user, err := tokens.Verify(c.UserContext(), tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(auth.UserIDLocal, user.ID)
		return c.Next()
	}
}
