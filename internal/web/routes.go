package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/stayease/stayease-web/internal/app"
	"github.com/stayease/stayease-web/internal/guard"
	"github.com/stayease/stayease-web/internal/middleware"
)

// Setup registers the views on f. Every view is gated by the guard;
// unknown paths land on the listings.
func Setup(f *fiber.App, a *app.App) {
	h := NewHandler(a)
	g := a.Guard

	f.Use(recover.New())
	f.Use(middleware.RequestID())
	f.Use(middleware.Audit(a.Logger))

	open := g.Middleware(guard.Unrestricted)
	authed := g.Middleware(guard.RequiresAuthentication)
	guest := g.Middleware(guard.GuestOnly)

	f.Get("/", open, h.Home)
	f.Get("/login", guest, h.LoginForm)
	f.Post("/login", guest, h.Login)
	f.Get("/register", guest, h.RegisterForm)
	f.Post("/register", guest, h.Register)
	f.Post("/logout", h.Logout)
	f.Get("/listings", open, h.Listings)
	f.Get("/listings/:id", open, h.Listing)
	f.Get("/create-listing", authed, h.CreateListing)
	f.Get("/my-listings", authed, h.MyListings)
	f.Post("/account/refresh", authed, h.Refresh)

	f.Use(func(c *fiber.Ctx) error {
		return c.Redirect("/listings", fiber.StatusFound)
	})
}

// New builds the web shell application.
func New(a *app.App) *fiber.App {
	f := fiber.New(fiber.Config{
		AppName:               a.Config.AppName,
		DisableStartupMessage: true,
	})
	Setup(f, a)
	return f
}
