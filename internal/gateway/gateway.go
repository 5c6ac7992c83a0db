package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/stayease/stayease-web/internal/logging"
	"github.com/stayease/stayease-web/internal/session"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	maxResponseBytes     = 1 << 20
)

var _ session.Gateway = (*Client)(nil)

// envelope is the remote API's response wrapper.
type envelope[T any] struct {
	Data    *T     `json:"data"`
	Message string `json:"message,omitempty"`
}

// Client calls the remote identity endpoints. It holds no session state;
// credentials are attached by the http.Client's transport.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New builds a client for the API rooted at baseURL.
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient, logger: logging.Component(logger, "gateway")}
}

// Login exchanges credentials for an identity and a token.
func (c *Client) Login(ctx context.Context, creds session.Credentials) (session.LoginResult, error) {
	var out envelope[session.LoginResult]
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, nil, &out); err != nil {
		return session.LoginResult{}, err
	}
	if out.Data == nil || out.Data.Token == "" || out.Data.User.ID == "" {
		return session.LoginResult{}, fmt.Errorf("%w: login without user or token", ErrMalformedResponse)
	}
	return *out.Data, nil
}

type idempotencyKeyCtx struct{}

// WithIdempotencyKey attaches the key Register sends. Reuse the same key
// when retrying one submission so the API creates the account only once.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKeyCtx{}, key)
}

func idempotencyKey(ctx context.Context) string {
	if key, ok := ctx.Value(idempotencyKeyCtx{}).(string); ok && key != "" {
		return key
	}
	return uuid.NewString()
}

// Register creates an account. The idempotency key comes from
// WithIdempotencyKey; without one, each call gets a fresh key.
func (c *Client) Register(ctx context.Context, profile session.Profile) (session.Identity, error) {
	header := http.Header{}
	header.Set(idempotencyKeyHeader, idempotencyKey(ctx))

	var out envelope[session.Identity]
	if err := c.do(ctx, http.MethodPost, "/auth/register", profile, header, &out); err != nil {
		return session.Identity{}, err
	}
	if out.Data == nil {
		return session.Identity{}, fmt.Errorf("%w: register without data", ErrMalformedResponse)
	}
	return *out.Data, nil
}

// Me fetches the identity behind the current token.
func (c *Client) Me(ctx context.Context) (session.Identity, error) {
	var out envelope[session.Identity]
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return session.Identity{}, err
	}
	if out.Data == nil {
		return session.Identity{}, fmt.Errorf("%w: me without data", ErrMalformedResponse)
	}
	return *out.Data, nil
}

// Logout asks the server to revoke the current token. The body is ignored.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", struct{}{}, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	c.logger.Debug("api call", slog.String("method", method), slog.String("path", path), slog.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, path, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
