package credstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stayease/stayease-web/internal/logging"
)

// ErrUnavailable is returned by backends that cannot persist in the
// current execution context.
var ErrUnavailable = errors.New("credential storage unavailable")

// Backend is a durable string key-value primitive.
type Backend interface {
	// Ping reports whether the backend can be used at all.
	Ping(ctx context.Context) error
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Clear removes every key owned by the backend.
	Clear(ctx context.Context) error
}

// Store wraps a Backend so that callers never see a failure: an
// unavailable backend behaves as an empty store that ignores writes, and
// runtime errors or panics are logged and swallowed.
type Store struct {
	backend   Backend
	available bool
	logger    *slog.Logger
}

// New probes backend once and returns a store over it.
func New(ctx context.Context, backend Backend, logger *slog.Logger) *Store {
	s := &Store{backend: backend, logger: logging.Component(logger, "credstore")}
	if backend == nil {
		s.logger.Info("credential storage disabled")
		return s
	}
	if err := s.guard("ping", "", func() error { return backend.Ping(ctx) }); err != nil {
		s.logger.Info("credential storage unavailable", slog.Any("error", err))
		return s
	}
	s.available = true
	return s
}

// Available reports whether writes are persisted.
func (s *Store) Available() bool {
	return s.available
}

// Get returns the stored value and whether it exists.
func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	if !s.available {
		return "", false
	}
	var (
		value string
		ok    bool
	)
	if err := s.guard("get", key, func() error {
		var err error
		value, ok, err = s.backend.Get(ctx, key)
		return err
	}); err != nil {
		return "", false
	}
	return value, ok
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) {
	if !s.available {
		return
	}
	_ = s.guard("set", key, func() error { return s.backend.Set(ctx, key, value) })
}

// Remove deletes key. Missing keys are not an error.
func (s *Store) Remove(ctx context.Context, key string) {
	if !s.available {
		return
	}
	_ = s.guard("remove", key, func() error { return s.backend.Delete(ctx, key) })
}

// Clear removes every key owned by the store.
func (s *Store) Clear(ctx context.Context) {
	if !s.available {
		return
	}
	_ = s.guard("clear", "", func() error { return s.backend.Clear(ctx) })
}

// guard runs fn, converting a panic into an error and logging failures.
func (s *Store) guard(op, key string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("credential storage panic: %v", r)
		}
		if err != nil && op != "ping" {
			s.logger.Error("credential storage failure",
				slog.String("op", op), slog.String("key", key), slog.Any("error", err))
		}
	}()
	return fn()
}
