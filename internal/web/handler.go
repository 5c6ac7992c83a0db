package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/stayease/stayease-web/internal/app"
	"github.com/stayease/stayease-web/internal/gateway"
	"github.com/stayease/stayease-web/internal/logging"
	"github.com/stayease/stayease-web/internal/roles"
	"github.com/stayease/stayease-web/internal/session"
)

const (
	defaultLoginError    = "Login failed. Please check your credentials and try again."
	defaultRegisterError = "Registration failed. Please try again."
	defaultRefreshError  = "Could not refresh your profile. Please try again."
	registeredNotice     = "Registration successful. Please sign in."
)

type loginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

type registerForm struct {
	Email     string `form:"email"`
	Password  string `form:"password"`
	FirstName string `form:"firstName"`
	LastName  string `form:"lastName"`
	Role      string `form:"role"`

	// RequestKey identifies one rendering of the form; resubmitting it
	// does not create a second account.
	RequestKey string `form:"requestKey"`
}

// Handler serves the views of the web shell.
type Handler struct {
	app    *app.App
	logger *slog.Logger
}

func NewHandler(a *app.App) *Handler {
	return &Handler{app: a, logger: logging.Component(a.Logger, "web")}
}

func (h *Handler) Home(c *fiber.Ctx) error {
	return render(c, http.StatusOK, "home", newPage(h.app, "Home"))
}

func (h *Handler) LoginForm(c *fiber.Ctx) error {
	p := newPage(h.app, "Sign in")
	p.Redirect = c.Query("redirect")
	if c.Query("registered") != "" {
		p.Notice = registeredNotice
	}
	return render(c, http.StatusOK, "login", p)
}

// Login signs in and sends the user to the requested page or their
// landing view.
func (h *Handler) Login(c *fiber.Ctx) error {
	var form loginForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid form")
	}

	_, err := h.app.Coordinator.Login(c.UserContext(), session.Credentials{Email: form.Email, Password: form.Password})
	if err != nil {
		p := newPage(h.app, "Sign in")
		p.Redirect = c.Query("redirect")
		p.Form.Email = form.Email
		status := h.describe(err, defaultLoginError, &p)
		return render(c, status, "login", p)
	}

	return c.Redirect(h.afterLogin(c.Query("redirect")), fiber.StatusSeeOther)
}

func (h *Handler) RegisterForm(c *fiber.Ctx) error {
	p := newPage(h.app, "Register")
	p.Form.RequestKey = uuid.NewString()
	return render(c, http.StatusOK, "register", p)
}

// Register creates the account and sends the user to sign in.
func (h *Handler) Register(c *fiber.Ctx) error {
	var form registerForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid form")
	}
	profile := session.Profile{
		Email:     form.Email,
		Password:  form.Password,
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
	}
	if form.Role != "" {
		profile.Authorities = []string{form.Role}
	}

	ctx := c.UserContext()
	if form.RequestKey != "" {
		ctx = gateway.WithIdempotencyKey(ctx, form.RequestKey)
	}
	if _, err := h.app.Coordinator.Register(ctx, profile); err != nil {
		p := newPage(h.app, "Register")
		p.Form = formValues{
			Email:      form.Email,
			FirstName:  form.FirstName,
			LastName:   form.LastName,
			Role:       form.Role,
			RequestKey: form.RequestKey,
		}
		status := h.describe(err, defaultRegisterError, &p)
		return render(c, status, "register", p)
	}

	return c.Redirect("/login?registered=1", fiber.StatusSeeOther)
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	h.app.Coordinator.Logout(c.UserContext())
	return c.Redirect(app.LoginPath, fiber.StatusSeeOther)
}

// Refresh re-fetches the signed-in identity.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	_, err := h.app.Coordinator.RefreshIdentity(c.UserContext())
	if errors.Is(err, session.ErrNoSession) {
		return c.Redirect(app.LoginPath, fiber.StatusSeeOther)
	}
	if err != nil {
		p := newPage(h.app, "Home")
		status := h.describe(err, defaultRefreshError, &p)
		return render(c, status, "home", p)
	}
	return c.Redirect(app.HomePath, fiber.StatusSeeOther)
}

func (h *Handler) Listings(c *fiber.Ctx) error {
	return render(c, http.StatusOK, "listings", newPage(h.app, "Listings"))
}

func (h *Handler) Listing(c *fiber.Ctx) error {
	p := newPage(h.app, "Listing")
	p.ID = c.Params("id")
	return render(c, http.StatusOK, "listing", p)
}

func (h *Handler) MyListings(c *fiber.Ctx) error {
	return render(c, http.StatusOK, "my-listings", newPage(h.app, "My listings"))
}

// CreateListing is reserved to accounts that can host.
func (h *Handler) CreateListing(c *fiber.Ctx) error {
	if !h.app.Roles.Can(roles.CanHost) {
		return render(c, http.StatusForbidden, "forbidden", newPage(h.app, "Not allowed"))
	}
	return render(c, http.StatusOK, "create-listing", newPage(h.app, "New listing"))
}

// describe turns a coordinator error into the page message and the
// response status.
func (h *Handler) describe(err error, fallback string, p *page) int {
	if fields := session.FieldErrors(err); fields != nil {
		p.Fields = fields
		p.Error = "Please correct the highlighted fields."
		return http.StatusBadRequest
	}
	if apiErr, ok := gateway.AsAPIError(err); ok {
		p.Fields = apiErr.ValidationErrors
		p.Error = apiErr.Message
		if p.Error == "" {
			p.Error = fallback
		}
		return apiErr.Status
	}
	h.logger.Error("request to api failed", slog.Any("error", err))
	p.Error = fallback
	return http.StatusBadGateway
}

// afterLogin only follows local redirects.
func (h *Handler) afterLogin(redirect string) string {
	if strings.HasPrefix(redirect, "/") && !strings.HasPrefix(redirect, "//") && !strings.HasPrefix(redirect, "/\\") {
		return redirect
	}
	return h.app.Roles.LandingPath()
}
