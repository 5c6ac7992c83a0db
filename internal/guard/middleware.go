package guard

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
)

// Middleware returns a fiber handler enforcing req. Denied protected views
// redirect to the sign-in view with the original path as "redirect";
// denied guest views redirect home.
func (g *Guard) Middleware(req Requirement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if g.Evaluate(req) == Allow {
			return c.Next()
		}
		if req == GuestOnly {
			return c.Redirect(g.homePath, fiber.StatusSeeOther)
		}
		target := g.loginPath + "?redirect=" + url.QueryEscape(c.OriginalURL())
		return c.Redirect(target, fiber.StatusSeeOther)
	}
}
