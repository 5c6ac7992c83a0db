package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stayease/stayease-web/internal/identity"
)

// ErrInvalidToken covers malformed, expired, and revoked tokens.
var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	Version int `json:"ver"`
	jwt.RegisteredClaims
}

// Service issues and verifies bearer tokens. Tokens carry the account's
// token version; bumping it revokes every token issued before.
type Service struct {
	secret []byte
	ttl    time.Duration
	repo   identity.Repository
	now    func() time.Time
}

func NewService(secret string, ttl time.Duration, repo identity.Repository) *Service {
	return &Service{secret: []byte(secret), ttl: ttl, repo: repo, now: time.Now}
}

// Issue signs a token for user.
func (s *Service) Issue(user identity.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Version: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, expiry, and token version, and returns the
// token's account.
func (s *Service) Verify(ctx context.Context, raw string) (identity.User, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return identity.User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user, err := s.repo.FindByID(ctx, c.Subject)
	if errors.Is(err, identity.ErrUserNotFound) {
		return identity.User{}, ErrInvalidToken
	}
	if err != nil {
		return identity.User{}, err
	}
	if user.TokenVersion != c.Version {
		return identity.User{}, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}
	return user, nil
}

// Logout increments the token version so older tokens become invalid.
func (s *Service) Logout(ctx context.Context, userID string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.UpdateTokenVersion(ctx, user.ID, user.TokenVersion+1)
}
