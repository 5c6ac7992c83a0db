package credstore

import (
	"context"
	"sync"
)

type memoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory builds an in-process backend. Values are lost on exit.
func NewMemory() Backend {
	return &memoryBackend{values: make(map[string]string)}
}

func (m *memoryBackend) Ping(context.Context) error { return nil }

func (m *memoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *memoryBackend) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	return nil
}

type unavailableBackend struct{}

// Unavailable returns a backend for contexts without durable storage,
// such as headless rendering. Its probe always fails.
func Unavailable() Backend {
	return unavailableBackend{}
}

func (unavailableBackend) Ping(context.Context) error { return ErrUnavailable }

func (unavailableBackend) Get(context.Context, string) (string, bool, error) {
	return "", false, ErrUnavailable
}

func (unavailableBackend) Set(context.Context, string, string) error { return ErrUnavailable }

func (unavailableBackend) Delete(context.Context, string) error { return ErrUnavailable }

func (unavailableBackend) Clear(context.Context) error { return ErrUnavailable }
