package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stayease/stayease-web/internal/auth"
)

// RegisterAuthRoutes wires authentication endpoints. me and logout sit
// behind authn.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter, authn fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/register", h.Register)
	group.Get("/me", authn, h.Me)
	group.Post("/logout", authn, h.Logout)
}
