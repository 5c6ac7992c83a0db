package identity

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/stayease/stayease-web/internal/roles"
)

var (
	// ErrInvalidCredentials is returned when email or password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrRoleNotAllowed is returned when a registration asks for a role
	// that cannot be self-assigned.
	ErrRoleNotAllowed = errors.New("role cannot be self-assigned")
)

// Service manages the account lifecycle.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Register creates an account with a hashed password. Without requested
// authorities the account is a tenant.
func (s *Service) Register(ctx context.Context, reg Registration) (User, error) {
	authorities := reg.Authorities
	if len(authorities) == 0 {
		authorities = []string{roles.Tenant}
	}
	for _, role := range authorities {
		if !slices.Contains(roles.SelfAssignable, role) {
			return User{}, ErrRoleNotAllowed
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	authorities = slices.Clone(authorities)
	slices.Sort(authorities)

	user := User{
		ID:           uuid.New().String(),
		Email:        normalizeEmail(reg.Email),
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
		Authorities:  slices.Compact(authorities),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies credentials. Unknown accounts and wrong passwords
// are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(creds.Email))
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

// Get returns the account with the given id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
