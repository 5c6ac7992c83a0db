package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/stayease/stayease-web/internal/config"
	"github.com/stayease/stayease-web/internal/routes"
)

// Server wraps a Fiber application and its listen address.
type Server struct {
	app  *fiber.App
	addr string
}

// Wrap adopts an already wired Fiber application.
func Wrap(app *fiber.App, addr string) *Server {
	return &Server{app: app, addr: addr}
}

// NewApp builds the development API application and delegates route
// wiring to routes.Setup.
func NewApp(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger, accessLog bool) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          routes.ErrorHandler(logger),
		DisableStartupMessage: true,
	})

	deps := routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger, AccessLog: accessLog}
	if err := routes.Setup(app, deps); err != nil {
		return nil, err
	}
	return app, nil
}

// New instantiates the development API server.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app, err := NewApp(cfg, db, cache, logger, true)
	if err != nil {
		return nil, err
	}
	return Wrap(app, cfg.Address()), nil
}

// App exposes the underlying Fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
