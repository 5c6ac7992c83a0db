// Package sessiontest provides helpers for tests that need a live session
// without a remote API.
package sessiontest

import (
	"context"
	"testing"

	"github.com/stayease/stayease-web/internal/credstore"
	"github.com/stayease/stayease-web/internal/logging"
	"github.com/stayease/stayease-web/internal/session"
)

// Gateway answers every call with the configured identity and token.
type Gateway struct {
	User  session.Identity
	Token string
}

func (g Gateway) Login(context.Context, session.Credentials) (session.LoginResult, error) {
	return session.LoginResult{User: g.User, Token: g.Token}, nil
}

func (g Gateway) Register(context.Context, session.Profile) (session.Identity, error) {
	return g.User, nil
}

func (g Gateway) Me(context.Context) (session.Identity, error) { return g.User, nil }

func (Gateway) Logout(context.Context) error { return nil }

// SignIn returns a store holding an active session for user and token, and
// the coordinator that established it.
func SignIn(t testing.TB, user session.Identity, token string) (*session.Store, *session.Coordinator) {
	t.Helper()
	store := session.NewStore()
	creds := credstore.New(context.Background(), credstore.NewMemory(), logging.Discard())
	coord := session.NewCoordinator(store, Gateway{User: user, Token: token}, creds, logging.Discard())
	if _, err := coord.Login(context.Background(), session.Credentials{Email: "guest@stayease.test", Password: "x"}); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	return store, coord
}

// SignInAs signs in a user carrying the given roles.
func SignInAs(t testing.TB, authorities ...string) (*session.Store, *session.Coordinator) {
	t.Helper()
	return SignIn(t, session.Identity{ID: "u1", Email: "guest@stayease.test", Authorities: authorities}, "tok1")
}
