package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/stayease/stayease-web/internal/auth"
	"github.com/stayease/stayease-web/internal/config"
	"github.com/stayease/stayease-web/internal/identity"
	"github.com/stayease/stayease-web/internal/logging"
	"github.com/stayease/stayease-web/internal/middleware"
	"github.com/stayease/stayease-web/internal/notification"
)

// APIPrefix is the mount point of the API routes.
const APIPrefix = "/api"

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	// Notifier defaults to a logger notifier.
	Notifier notification.Notifier
	// AccessLog enables fiber's plain text access log.
	AccessLog bool
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	// The in-process API of the web shell always keeps accounts in memory.
	if !d.Cfg.IsDev() && !d.Cfg.Embedded() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Cfg.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}

	if d.Logger == nil {
		d.Logger = logging.Discard()
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.AccessLog {
		// Plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}
	notifier := d.Notifier
	if notifier == nil {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	identitySvc := identity.NewService(identityRepo)
	tokenSvc := auth.NewService(d.Cfg.JWTSecret, d.Cfg.TokenTTL, identityRepo)
	authHandler := auth.NewHandler(identitySvc, tokenSvc, notifier, d.Logger)

	api := app.Group(APIPrefix)
	RegisterAuthRoutes(api, authHandler,
		middleware.LoginRateLimit(d.Cache, d.Cfg.LoginAttemptsPerMinute),
		middleware.Authenticate(tokenSvc))

	return nil
}
