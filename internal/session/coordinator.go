package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/stayease/stayease-web/internal/logging"
)

// Keys under which the session is mirrored in the credential store.
const (
	TokenKey    = "auth_token"
	IdentityKey = "current_user"
)

// Gateway issues the identity operations against the remote API. It never
// touches session state.
type Gateway interface {
	Login(ctx context.Context, creds Credentials) (LoginResult, error)
	Register(ctx context.Context, profile Profile) (Identity, error)
	Me(ctx context.Context) (Identity, error)
	Logout(ctx context.Context) error
}

// CredentialStore is the durable mirror of the session. Implementations
// swallow their own failures.
type CredentialStore interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
	Remove(ctx context.Context, key string)
}

// Coordinator runs gateway calls and commits their outcome to the Store
// and the CredentialStore. It is the only writer of both.
//
// Overlapping operations are not ordered against each other: the last one
// to finish wins. mu only keeps each in-memory commit and its durable
// mirror together.
type Coordinator struct {
	store   *Store
	gateway Gateway
	creds   CredentialStore
	logger  *slog.Logger

	mu sync.Mutex
}

// NewCoordinator wires a coordinator.
func NewCoordinator(store *Store, gateway Gateway, creds CredentialStore, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:   store,
		gateway: gateway,
		creds:   creds,
		logger:  logging.Component(logger, "session"),
	}
}

// Login authenticates and, on success, establishes the session. On failure
// the session is untouched and the gateway error is returned as is.
func (c *Coordinator) Login(ctx context.Context, creds Credentials) (Identity, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := creds.Validate(); err != nil {
		return Identity{}, err
	}

	res, err := c.gateway.Login(ctx, creds)
	if err != nil {
		c.logger.Warn("login failed", slog.String("email", creds.Email), slog.Any("error", err))
		return Identity{}, err
	}
	if res.Token == "" || res.User.ID == "" {
		return Identity{}, ErrIncompleteLogin
	}

	// Once the API has answered, the commit and its mirror must both land
	// even if ctx is cancelled.
	persistCtx := context.WithoutCancel(ctx)
	c.mu.Lock()
	c.store.commit(newActive(res.User, res.Token))
	c.creds.Set(persistCtx, TokenKey, res.Token)
	c.persistIdentity(persistCtx, res.User)
	c.mu.Unlock()

	c.logger.Info("signed in", slog.String("user_id", res.User.ID))
	return res.User.clone(), nil
}

// Register creates an account. It never establishes a session; the caller
// signs in explicitly afterwards.
func (c *Coordinator) Register(ctx context.Context, profile Profile) (Identity, error) {
	profile.Email = strings.TrimSpace(profile.Email)
	if err := profile.Validate(); err != nil {
		return Identity{}, err
	}

	id, err := c.gateway.Register(ctx, profile)
	if err != nil {
		c.logger.Warn("registration failed", slog.String("email", profile.Email), slog.Any("error", err))
		return Identity{}, err
	}

	c.logger.Info("registered", slog.String("user_id", id.ID))
	return id, nil
}

// RefreshIdentity re-fetches the signed-in identity and replaces the
// stored one, keeping the token. Failures leave the session untouched.
func (c *Coordinator) RefreshIdentity(ctx context.Context) (Identity, error) {
	if !c.store.Current().Authenticated() {
		return Identity{}, ErrNoSession
	}

	id, err := c.gateway.Me(ctx)
	if err != nil {
		c.logger.Warn("identity refresh failed", slog.Any("error", err))
		return Identity{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Signed out while the call was in flight: an identity without a token
	// cannot be committed.
	current := c.store.Current()
	if !current.Authenticated() {
		return Identity{}, ErrNoSession
	}
	c.store.commit(current.withIdentity(id))
	c.persistIdentity(context.WithoutCancel(ctx), id)

	return id.clone(), nil
}

// Logout revokes the token remotely and always clears the local session,
// whatever the outcome of the remote call.
func (c *Coordinator) Logout(ctx context.Context) {
	if err := c.gateway.Logout(ctx); err != nil {
		c.logger.Warn("remote logout failed, clearing local session", slog.Any("error", err))
	}

	// The local clear must survive a cancelled or expired request context.
	c.clear(context.WithoutCancel(ctx))
	c.logger.Info("signed out")
}

// Rehydrate restores a persisted session at start-up without contacting
// the remote API. A partial or corrupt pair is purged and the session
// stays empty.
func (c *Coordinator) Rehydrate(ctx context.Context) Session {
	token, hasToken := c.creds.Get(ctx, TokenKey)
	raw, hasIdentity := c.creds.Get(ctx, IdentityKey)

	if !hasToken && !hasIdentity {
		c.logger.Debug("no persisted session")
		return Empty
	}
	if !hasToken || !hasIdentity || token == "" {
		c.logger.Info("purging incomplete persisted session",
			slog.Bool("token", hasToken), slog.Bool("identity", hasIdentity))
		c.purge(ctx)
		return Empty
	}

	id, err := decodeIdentity(raw)
	if err != nil {
		c.logger.Warn("purging corrupt persisted session", slog.Any("error", err))
		c.purge(ctx)
		return Empty
	}

	restored := newActive(id, token)
	c.mu.Lock()
	c.store.commit(restored)
	c.mu.Unlock()

	c.logger.Info("session restored", slog.String("user_id", id.ID))
	return restored
}

func (c *Coordinator) clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.commit(Empty)
	c.creds.Remove(ctx, TokenKey)
	c.creds.Remove(ctx, IdentityKey)
}

func (c *Coordinator) purge(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds.Remove(ctx, TokenKey)
	c.creds.Remove(ctx, IdentityKey)
}

// persistIdentity writes the identity mirror. Callers hold mu.
func (c *Coordinator) persistIdentity(ctx context.Context, id Identity) {
	payload, err := json.Marshal(id)
	if err != nil {
		c.logger.Error("encode identity", slog.Any("error", err))
		return
	}
	c.creds.Set(ctx, IdentityKey, string(payload))
}

var (
	errNotObject = errors.New("persisted identity is not a JSON object")
	errAnonymous = errors.New("persisted identity has no id")
)

func decodeIdentity(raw string) (Identity, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) == 0 || data[0] != '{' {
		return Identity{}, errNotObject
	}
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, err
	}
	if id.ID == "" {
		return Identity{}, errAnonymous
	}
	return id, nil
}
