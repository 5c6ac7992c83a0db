package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/stayease/stayease-web/internal/config"
)

// InProcessTransport serves requests with a Fiber application directly,
// without a listener. The request host is ignored.
type InProcessTransport struct {
	app *fiber.App
}

// NewInProcessTransport returns a transport backed by app.
func NewInProcessTransport(app *fiber.App) *InProcessTransport {
	return &InProcessTransport{app: app}
}

// RoundTrip implements http.RoundTripper.
func (t *InProcessTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	// app.Test reads RequestURI; client requests only carry URL.
	out := req.Clone(req.Context())
	out.RequestURI = req.URL.RequestURI()
	if out.Body == nil {
		out.Body = http.NoBody
	}

	resp, err := t.app.Test(out, -1)
	if err != nil {
		return nil, fmt.Errorf("in-process %s %s: %w", req.Method, req.URL.Path, err)
	}
	resp.Request = req
	return resp, nil
}

// Embedded builds the development API and returns a transport serving it
// in-process. cache may be nil.
func Embedded(cfg config.Config, cache *redis.Client, logger *slog.Logger) (*InProcessTransport, error) {
	app, err := NewApp(cfg, nil, cache, logger, false)
	if err != nil {
		return nil, fmt.Errorf("build embedded api: %w", err)
	}
	return NewInProcessTransport(app), nil
}
