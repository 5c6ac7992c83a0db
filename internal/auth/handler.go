package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stayease/stayease-web/internal/identity"
	"github.com/stayease/stayease-web/internal/logging"
	"github.com/stayease/stayease-web/internal/notification"
	"github.com/stayease/stayease-web/internal/session"
)

// UserIDLocal is the fiber local holding the authenticated account id.
const UserIDLocal = "user_id"

// ValidationError is a request rejected field by field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "validation failed" }

type envelope struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// Handler exposes the auth endpoints.
type Handler struct {
	ids      *identity.Service
	tokens   *Service
	notifier notification.Notifier
	logger   *slog.Logger
}

func NewHandler(ids *identity.Service, tokens *Service, notifier notification.Notifier, logger *slog.Logger) *Handler {
	return &Handler{ids: ids, tokens: tokens, notifier: notifier, logger: logging.Component(logger, "auth")}
}

// Login validates credentials and returns the account with a token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req session.Credentials
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return &ValidationError{Fields: session.FieldErrors(err)}
	}

	user, err := h.ids.Authenticate(c.UserContext(), identity.Credentials{Email: req.Email, Password: req.Password})
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return fiber.NewError(http.StatusUnauthorized, "Invalid email or password")
	}
	if err != nil {
		return err
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		return err
	}

	h.logger.Info("login succeeded", slog.String("user_id", user.ID))
	return c.Status(http.StatusOK).JSON(envelope{
		Data:    session.LoginResult{User: toIdentity(user), Token: token},
		Message: "Login successful",
	})
}

// Register creates an account. It does not sign the user in.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req session.Profile
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return &ValidationError{Fields: session.FieldErrors(err)}
	}

	user, err := h.ids.Register(c.UserContext(), identity.Registration{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Authorities: req.Authorities,
	})
	switch {
	case errors.Is(err, identity.ErrUserExists):
		return fiber.NewError(http.StatusConflict, "Email is already registered")
	case errors.Is(err, identity.ErrRoleNotAllowed):
		return &ValidationError{Fields: map[string]string{"authorities": err.Error()}}
	case err != nil:
		return err
	}

	if h.notifier != nil {
		msg := notification.Message{
			Kind:        notification.KindWelcome,
			Destination: user.Email,
			Body:        "Welcome to StayEase, " + user.FirstName,
		}
		if err := h.notifier.Send(c.UserContext(), msg); err != nil {
			h.logger.Warn("welcome notification failed", slog.String("user_id", user.ID), slog.Any("error", err))
		}
	}

	h.logger.Info("account registered", slog.String("user_id", user.ID), slog.Int("status", http.StatusCreated))
	return c.Status(http.StatusCreated).JSON(envelope{Data: toIdentity(user), Message: "Registration successful"})
}

// Me returns the account behind the bearer token.
func (h *Handler) Me(c *fiber.Ctx) error {
	uid, _ := c.Locals(UserIDLocal).(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "Authentication required")
	}
	user, err := h.ids.Get(c.UserContext(), uid)
	if errors.Is(err, identity.ErrUserNotFound) {
		return fiber.NewError(http.StatusUnauthorized, "Authentication required")
	}
	if err != nil {
		return err
	}
	return c.JSON(envelope{Data: toIdentity(user)})
}

// Logout revokes every token of the authenticated account.
func (h *Handler) Logout(c *fiber.Ctx) error {
	uid, _ := c.Locals(UserIDLocal).(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "Authentication required")
	}
	if err := h.tokens.Logout(c.UserContext(), uid); err != nil {
		return err
	}
	h.logger.Info("logged out", slog.String("user_id", uid))
	return c.JSON(envelope{Message: "Logout successful"})
}

func toIdentity(u identity.User) session.Identity {
	return session.Identity{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		ImageURL:    u.ImageURL,
		Verified:    u.Verified,
		Authorities: u.Authorities,
		CreatedAt:   timePtr(u.CreatedAt),
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
