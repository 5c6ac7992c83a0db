package identity

import (
	"context"
	"slices"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]User
}

// NewMemoryRepository builds an in-memory user store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{byEmail: make(map[string]User)}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[user.Email]; exists {
		return ErrUserExists
	}
	user.Authorities = slices.Clone(user.Authorities)
	r.byEmail[user.Email] = user
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byEmail[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (r *memoryRepository) UpdateTokenVersion(_ context.Context, id string, version int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, user := range r.byEmail {
		if user.ID == id {
			user.TokenVersion = version
			r.byEmail[email] = user
			return nil
		}
	}
	return ErrUserNotFound
}
