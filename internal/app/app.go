// Package app builds the session core once and hands it to the UI layer.
package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/stayease/stayease-web/internal/config"
	"github.com/stayease/stayease-web/internal/credstore"
	"github.com/stayease/stayease-web/internal/gateway"
	"github.com/stayease/stayease-web/internal/guard"
	"github.com/stayease/stayease-web/internal/logging"
	"github.com/stayease/stayease-web/internal/roles"
	"github.com/stayease/stayease-web/internal/session"
	"github.com/stayease/stayease-web/internal/transport"
)

// Views the guard redirects to.
const (
	LoginPath = "/login"
	HomePath  = "/"
)

// EmbeddedBaseURL is the API root used when the API runs in-process. The
// host is never resolved.
const EmbeddedBaseURL = "http://stayease.embedded/api"

// App is the application context: one session store and the components
// reading or writing it. Build it once with New and pass it explicitly.
type App struct {
	Config      config.Config
	Logger      *slog.Logger
	Sessions    *session.Store
	Credentials *credstore.Store
	Gateway     *gateway.Client
	Coordinator *session.Coordinator
	Guard       *guard.Guard
	Roles       roles.Evaluator
	HTTP        *http.Client
}

type options struct {
	transport http.RoundTripper
}

// Option customises New.
type Option func(*options)

// WithTransport sets the transport the bearer transport delegates to.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// New wires the core. backend is probed once; a failing probe disables
// persistence for the lifetime of the App.
func New(ctx context.Context, cfg config.Config, backend credstore.Backend, logger *slog.Logger, opts ...Option) *App {
	o := options{transport: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = logging.Discard()
	}

	store := session.NewStore()
	creds := credstore.New(ctx, backend, logger)
	httpClient := &http.Client{
		Transport: transport.NewBearerTransport(store, o.transport),
		Timeout:   cfg.APITimeout,
	}
	baseURL := cfg.APIBaseURL
	if cfg.Embedded() {
		baseURL = EmbeddedBaseURL
	}
	gw := gateway.New(baseURL, httpClient, logger)

	return &App{
		Config:      cfg,
		Logger:      logger,
		Sessions:    store,
		Credentials: creds,
		Gateway:     gw,
		Coordinator: session.NewCoordinator(store, gw, creds, logger),
		Guard:       guard.New(store, LoginPath, HomePath),
		Roles:       roles.NewEvaluator(store),
		HTTP:        httpClient,
	}
}

// Start restores the persisted session. It never contacts the API.
func (a *App) Start(ctx context.Context) session.Session {
	s := a.Coordinator.Rehydrate(ctx)
	a.Logger.Info("session core started",
		slog.Bool("persistence", a.Credentials.Available()),
		slog.Bool("authenticated", s.Authenticated()))
	return s
}
