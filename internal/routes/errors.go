package routes

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stayease/stayease-web/internal/auth"
)

type errorResponse struct {
	Timestamp        string            `json:"timestamp"`
	Status           int               `json:"status"`
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	Path             string            `json:"path"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

// ErrorHandler renders every handler error as the API error body.
// Unexpected errors are logged and reported without detail.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		body := errorResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Status:    http.StatusInternalServerError,
			Message:   "Unexpected error",
			Path:      c.Path(),
		}

		var fiberErr *fiber.Error
		var validationErr *auth.ValidationError
		switch {
		case errors.As(err, &validationErr):
			body.Status = http.StatusBadRequest
			body.Message = "Validation failed"
			body.ValidationErrors = validationErr.Fields
		case errors.As(err, &fiberErr):
			body.Status = fiberErr.Code
			body.Message = fiberErr.Message
		default:
			if logger != nil {
				logger.Error("unhandled error", slog.String("path", c.Path()), slog.Any("error", err))
			}
		}
		body.Error = http.StatusText(body.Status)

		return c.Status(body.Status).JSON(body)
	}
}
