package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/stayease/stayease-web/internal/app"
	"github.com/stayease/stayease-web/internal/config"
	"github.com/stayease/stayease-web/internal/credstore"
	"github.com/stayease/stayease-web/internal/infra"
	"github.com/stayease/stayease-web/internal/logging"
	"github.com/stayease/stayease-web/internal/server"
	"github.com/stayease/stayease-web/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer cache.Close()
	}

	backend, closer, err := openBackend(cfg, cache)
	if err != nil {
		// The session still works, it just does not survive a restart.
		logger.Warn("credential store unavailable, sessions will not persist", "backend", cfg.StoreBackend, "error", err)
		backend = credstore.Unavailable()
	}
	if closer != nil {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Warn("close credential store", "error", err)
			}
		}()
	}

	var opts []app.Option
	if cfg.Embedded() {
		api, err := server.Embedded(cfg, cache, logger)
		if err != nil {
			logger.Error("start embedded api", "error", err)
			os.Exit(1)
		}
		opts = append(opts, app.WithTransport(api))
		logger.Info("using embedded api")
	}

	core := app.New(ctx, cfg, backend, logger, opts...)
	core.Start(ctx)

	srv := server.Wrap(web.New(core), cfg.Address())

	srvErrCh := make(chan error, 1)
	go func() {
		logger.Info("web listening", slog.String("addr", cfg.Address()), slog.String("api", cfg.APIBaseURL))
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}

// openBackend selects the credential backend. The closer is nil for
// backends without resources of their own.
func openBackend(cfg config.Config, cache *redis.Client) (credstore.Backend, io.Closer, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return credstore.NewMemory(), nil, nil
	case config.StoreBolt:
		b, err := credstore.OpenBolt(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	case config.StoreRedis:
		return credstore.NewRedis(cache, cfg.RedisPrefix), nil, nil
	case config.StoreNone:
		return credstore.Unavailable(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
