package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stayease/stayease-web/internal/app"
	"github.com/stayease/stayease-web/internal/config"
	"github.com/stayease/stayease-web/internal/credstore"
	"github.com/stayease/stayease-web/internal/logging"
	"github.com/stayease/stayease-web/internal/server"
)

func setupTestApp(t *testing.T) (*fiber.App, *app.App) {
	t.Helper()
	cfg := config.Config{
		AppName:                "StayEase",
		AppEnv:                 "test",
		APIBaseURL:             config.EmbeddedAPI,
		APITimeout:             5 * time.Second,
		JWTSecret:              "test-secret",
		TokenTTL:               time.Hour,
		IdempotencyTTL:         time.Minute,
		LoginAttemptsPerMinute: 10,
	}
	api, err := server.Embedded(cfg, nil, logging.Discard())
	if err != nil {
		t.Fatalf("embedded api: %v", err)
	}
	core := app.New(context.Background(), cfg, credstore.NewMemory(), logging.Discard(), app.WithTransport(api))
	core.Start(context.Background())
	return New(core), core
}

type result struct {
	status   int
	location string
	body     string
}

func send(t *testing.T, f *fiber.App, method, target string, form url.Values) result {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}
	resp, err := f.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return result{status: resp.StatusCode, location: resp.Header.Get(fiber.HeaderLocation), body: string(raw)}
}

func registration(role string) url.Values {
	return url.Values{
		"firstName": {"Ada"},
		"lastName":  {"Lovelace"},
		"email":     {"ada@stayease.test"},
		"password":  {"Secret123"},
		"role":      {role},
	}
}

func credentials(password string) url.Values {
	return url.Values{"email": {"ada@stayease.test"}, "password": {password}}
}

func expectRedirect(t *testing.T, r result, location string) {
	t.Helper()
	if r.status != http.StatusSeeOther && r.status != http.StatusFound {
		t.Fatalf("expected redirect, got %d: %s", r.status, r.body)
	}
	if r.location != location {
		t.Fatalf("expected redirect to %q, got %q", location, r.location)
	}
}

func TestAnonymousNavigation(t *testing.T) {
	f, _ := setupTestApp(t)

	expectRedirect(t, send(t, f, http.MethodGet, "/my-listings", nil), "/login?redirect=%2Fmy-listings")
	expectRedirect(t, send(t, f, http.MethodGet, "/create-listing", nil), "/login?redirect=%2Fcreate-listing")
	expectRedirect(t, send(t, f, http.MethodGet, "/no-such-page", nil), "/listings")

	for _, path := range []string{"/", "/listings", "/listings/42", "/login", "/register"} {
		if r := send(t, f, http.MethodGet, path, nil); r.status != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, r.status)
		}
	}
}

func TestRegisterThenLogin(t *testing.T) {
	f, core := setupTestApp(t)

	expectRedirect(t, send(t, f, http.MethodPost, "/register", registration("ROLE_LANDLORD")), "/login?registered=1")
	if core.Sessions.Current().Authenticated() {
		t.Fatal("registration must not sign in")
	}
	if r := send(t, f, http.MethodGet, "/login?registered=1", nil); !strings.Contains(r.body, "Registration successful") {
		t.Fatal("expected registration notice")
	}

	expectRedirect(t, send(t, f, http.MethodPost, "/login", credentials("Secret123")), "/my-listings")

	page := send(t, f, http.MethodGet, "/my-listings", nil)
	if page.status != http.StatusOK || !strings.Contains(page.body, "Ada Lovelace") {
		t.Fatalf("expected signed-in view, got %d", page.status)
	}
	if r := send(t, f, http.MethodGet, "/create-listing", nil); r.status != http.StatusOK {
		t.Fatalf("landlord should reach create-listing, got %d", r.status)
	}

	// Guest views send a signed-in user home.
	expectRedirect(t, send(t, f, http.MethodGet, "/login", nil), "/")
	expectRedirect(t, send(t, f, http.MethodPost, "/login", credentials("Secret123")), "/")

	expectRedirect(t, send(t, f, http.MethodPost, "/account/refresh", nil), "/")

	expectRedirect(t, send(t, f, http.MethodPost, "/logout", nil), "/login")
	if core.Sessions.Current().Authenticated() {
		t.Fatal("expected logout to clear the session")
	}
	expectRedirect(t, send(t, f, http.MethodGet, "/my-listings", nil), "/login?redirect=%2Fmy-listings")
}

func TestLoginRedirectTarget(t *testing.T) {
	cases := []struct {
		name     string
		redirect string
		want     string
	}{
		{"local page", "/listings/42", "/listings/42"},
		{"external host", "//evil.example", "/listings"},
		{"absolute url", "https://evil.example", "/listings"},
		{"none", "", "/listings"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, _ := setupTestApp(t)
			send(t, f, http.MethodPost, "/register", registration("ROLE_TENANT"))
			target := "/login"
			if tc.redirect != "" {
				target += "?redirect=" + url.QueryEscape(tc.redirect)
			}
			expectRedirect(t, send(t, f, http.MethodPost, target, credentials("Secret123")), tc.want)
		})
	}
}

func TestLoginErrorsAreShown(t *testing.T) {
	f, core := setupTestApp(t)
	send(t, f, http.MethodPost, "/register", registration("ROLE_TENANT"))

	r := send(t, f, http.MethodPost, "/login", credentials("Wrong1234"))
	if r.status != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", r.status)
	}
	if !strings.Contains(r.body, "Invalid email or password") {
		t.Fatal("expected server message on the page")
	}
	if core.Sessions.Current().Authenticated() {
		t.Fatal("failed login must not sign in")
	}

	r = send(t, f, http.MethodPost, "/login", url.Values{"email": {"not-an-email"}})
	if r.status != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", r.status)
	}
	if !strings.Contains(r.body, "Please correct the highlighted fields.") {
		t.Fatal("expected validation message")
	}
}

func TestRegisterErrorsAreShown(t *testing.T) {
	f, _ := setupTestApp(t)

	weak := registration("ROLE_TENANT")
	weak.Set("password", "weak")
	if r := send(t, f, http.MethodPost, "/register", weak); r.status != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", r.status)
	}

	send(t, f, http.MethodPost, "/register", registration("ROLE_TENANT"))
	r := send(t, f, http.MethodPost, "/register", registration("ROLE_TENANT"))
	if r.status != http.StatusConflict || !strings.Contains(r.body, "Email is already registered") {
		t.Fatalf("expected conflict message, got %d", r.status)
	}
}

func TestTenantCannotCreateListing(t *testing.T) {
	f, _ := setupTestApp(t)
	send(t, f, http.MethodPost, "/register", registration("ROLE_TENANT"))
	expectRedirect(t, send(t, f, http.MethodPost, "/login", credentials("Secret123")), "/listings")

	if r := send(t, f, http.MethodGet, "/create-listing", nil); r.status != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", r.status)
	}
}

func TestRefreshWithoutSession(t *testing.T) {
	f, _ := setupTestApp(t)
	expectRedirect(t, send(t, f, http.MethodPost, "/account/refresh", nil), "/login?redirect=%2Faccount%2Frefresh")
}

func TestRegisterFormCarriesRequestKey(t *testing.T) {
	f, _ := setupTestApp(t)

	r := send(t, f, http.MethodGet, "/register", nil)
	if !strings.Contains(r.body, `name="requestKey" value="`) {
		t.Fatal("expected a request key in the registration form")
	}

	// A failed submission keeps its key for the retry.
	weak := registration("ROLE_TENANT")
	weak.Set("password", "weak")
	weak.Set("requestKey", "submission-1")
	r = send(t, f, http.MethodPost, "/register", weak)
	if !strings.Contains(r.body, `value="submission-1"`) {
		t.Fatal("expected the request key to survive a failed submission")
	}
}
