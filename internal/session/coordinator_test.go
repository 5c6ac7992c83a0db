package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stayease/stayease-web/internal/credstore"
	"github.com/stayease/stayease-web/internal/logging"
)

type fakeGateway struct {
	loginResult LoginResult
	loginErr    error
	registerID  Identity
	registerErr error
	meID        Identity
	meErr       error
	logoutErr   error

	logins, registers, mes, logouts int
	onLogin, onMe                   func()
}

func (f *fakeGateway) Login(context.Context, Credentials) (LoginResult, error) {
	f.logins++
	if f.onLogin != nil {
		f.onLogin()
	}
	return f.loginResult, f.loginErr
}

func (f *fakeGateway) Register(context.Context, Profile) (Identity, error) {
	f.registers++
	return f.registerID, f.registerErr
}

func (f *fakeGateway) Me(context.Context) (Identity, error) {
	f.mes++
	if f.onMe != nil {
		f.onMe()
	}
	return f.meID, f.meErr
}

func (f *fakeGateway) Logout(context.Context) error {
	f.logouts++
	return f.logoutErr
}

type fixture struct {
	store   *Store
	creds   *credstore.Store
	gateway *fakeGateway
	coord   *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewStore()
	creds := credstore.New(context.Background(), credstore.NewMemory(), logging.Discard())
	gw := &fakeGateway{}
	return &fixture{
		store:   store,
		creds:   creds,
		gateway: gw,
		coord:   NewCoordinator(store, gw, creds, logging.Discard()),
	}
}

func (f *fixture) assertEmpty(t *testing.T) {
	t.Helper()
	if f.store.Current().Authenticated() {
		t.Fatal("expected empty session")
	}
	if _, ok := f.creds.Get(context.Background(), TokenKey); ok {
		t.Fatal("expected persisted token removed")
	}
	if _, ok := f.creds.Get(context.Background(), IdentityKey); ok {
		t.Fatal("expected persisted identity removed")
	}
}

func tenantLogin() LoginResult {
	return LoginResult{
		User:  Identity{ID: "u1", Email: "a@b.com", Authorities: []string{"ROLE_TENANT"}},
		Token: "tok1",
	}
}

func TestLoginEstablishesSession(t *testing.T) {
	f := newFixture(t)
	f.gateway.loginResult = tenantLogin()

	var transitions []Session
	defer f.store.Subscribe(func(s Session) { transitions = append(transitions, s) })()

	id, err := f.coord.Login(context.Background(), Credentials{Email: "a@b.com", Password: "x"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if id.ID != "u1" {
		t.Fatalf("unexpected identity %+v", id)
	}

	cur := f.store.Current()
	got, ok := cur.Identity()
	if !ok || got.ID != "u1" || got.Email != "a@b.com" {
		t.Fatalf("store identity mismatch: %+v", got)
	}
	if cur.Token() != "tok1" {
		t.Fatalf("expected token tok1, got %q", cur.Token())
	}
	if !cur.HasAuthority("ROLE_TENANT") || cur.HasAuthority("ROLE_LANDLORD") {
		t.Fatal("unexpected authorities")
	}

	ctx := context.Background()
	if v, _ := f.creds.Get(ctx, TokenKey); v != "tok1" {
		t.Fatalf("expected persisted token, got %q", v)
	}
	raw, _ := f.creds.Get(ctx, IdentityKey)
	var persisted Identity
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil || persisted.ID != "u1" {
		t.Fatalf("expected persisted identity u1, got %q (%v)", raw, err)
	}

	if len(transitions) != 2 || !transitions[1].Authenticated() {
		t.Fatalf("expected replay plus login transition, got %d", len(transitions))
	}
}

func TestLoginFailureLeavesSessionUntouched(t *testing.T) {
	f := newFixture(t)
	f.gateway.loginResult = tenantLogin()
	if _, err := f.coord.Login(context.Background(), Credentials{Email: "a@b.com", Password: "x"}); err != nil {
		t.Fatalf("first login: %v", err)
	}

	remoteErr := errors.New("401 invalid credentials")
	f.gateway.loginErr = remoteErr
	f.gateway.loginResult = LoginResult{}

	_, err := f.coord.Login(context.Background(), Credentials{Email: "c@d.com", Password: "y"})
	if !errors.Is(err, remoteErr) {
		t.Fatalf("expected remote error forwarded, got %v", err)
	}
	if f.store.Current().Token() != "tok1" {
		t.Fatal("failed login replaced the existing session")
	}
}

func TestLoginValidationSkipsNetwork(t *testing.T) {
	f := newFixture(t)
	_, err := f.coord.Login(context.Background(), Credentials{Email: "not-an-email", Password: ""})
	if err == nil {
		t.Fatal("expected validation error")
	}
	fields := FieldErrors(err)
	if fields["email"] == "" || fields["password"] == "" {
		t.Fatalf("expected email and password errors, got %v", fields)
	}
	if f.gateway.logins != 0 {
		t.Fatal("invalid input reached the gateway")
	}
}

func TestLoginIncompleteResponse(t *testing.T) {
	f := newFixture(t)
	f.gateway.loginResult = LoginResult{User: Identity{ID: "u1"}}

	_, err := f.coord.Login(context.Background(), Credentials{Email: "a@b.com", Password: "x"})
	if !errors.Is(err, ErrIncompleteLogin) {
		t.Fatalf("expected ErrIncompleteLogin, got %v", err)
	}
	f.assertEmpty(t)
}

func TestSecondLoginOverwrites(t *testing.T) {
	f := newFixture(t)
	f.gateway.loginResult = tenantLogin()
	ctx := context.Background()
	if _, err := f.coord.Login(ctx, Credentials{Email: "a@b.com", Password: "x"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	f.gateway.loginResult = LoginResult{User: Identity{ID: "u2", Authorities: []string{"ROLE_LANDLORD"}}, Token: "tok2"}
	if _, err := f.coord.Login(ctx, Credentials{Email: "l@b.com", Password: "x"}); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if f.store.Current().Token() != "tok2" {
		t.Fatal("expected second login to win")
	}
	if v, _ := f.creds.Get(ctx, TokenKey); v != "tok2" {
		t.Fatalf("expected persisted tok2, got %q", v)
	}
}

func TestRegisterDoesNotEstablishSession(t *testing.T) {
	f := newFixture(t)
	f.gateway.registerID = Identity{ID: "u9", Email: "new@b.com"}

	id, err := f.coord.Register(context.Background(), Profile{
		Email:       "new@b.com",
		Password:    "Passw0rdX",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Authorities: []string{"ROLE_TENANT"},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if id.ID != "u9" {
		t.Fatalf("unexpected identity %+v", id)
	}
	f.assertEmpty(t)
}

func TestRegisterErrors(t *testing.T) {
	f := newFixture(t)
	remoteErr := errors.New("email already registered")
	f.gateway.registerErr = remoteErr

	valid := Profile{Email: "a@b.com", Password: "Passw0rdX", FirstName: "A", LastName: "B", Authorities: []string{"ROLE_TENANT"}}
	if _, err := f.coord.Register(context.Background(), valid); !errors.Is(err, remoteErr) {
		t.Fatalf("expected remote error, got %v", err)
	}

	cases := map[string]Profile{
		"password":    {Email: "a@b.com", Password: "password", FirstName: "A", LastName: "B", Authorities: []string{"ROLE_TENANT"}},
		"firstName":   {Email: "a@b.com", Password: "Passw0rdX", LastName: "B", Authorities: []string{"ROLE_TENANT"}},
		"authorities": {Email: "a@b.com", Password: "Passw0rdX", FirstName: "A", LastName: "B"},
		"email":       {Email: "a@", Password: "Passw0rdX", FirstName: "A", LastName: "B", Authorities: []string{"ROLE_TENANT"}},
	}
	for field, p := range cases {
		t.Run(field, func(t *testing.T) {
			before := f.gateway.registers
			_, err := f.coord.Register(context.Background(), p)
			if FieldErrors(err)[field] == "" {
				t.Fatalf("expected %s error, got %v", field, err)
			}
			if f.gateway.registers != before {
				t.Fatal("invalid profile reached the gateway")
			}
		})
	}
}

func TestRefreshIdentityKeepsToken(t *testing.T) {
	f := newFixture(t)
	f.gateway.loginResult = tenantLogin()
	ctx := context.Background()
	if _, err := f.coord.Login(ctx, Credentials{Email: "a@b.com", Password: "x"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	f.gateway.meID = Identity{ID: "u1", Email: "a@b.com", FirstName: "Ann", Authorities: []string{"ROLE_TENANT", "ROLE_LANDLORD"}}
	id, err := f.coord.RefreshIdentity(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if id.FirstName != "Ann" {
		t.Fatalf("unexpected identity %+v", id)
	}

	cur := f.store.Current()
	if cur.Token() != "tok1" {
		t.Fatalf("refresh changed the token to %q", cur.Token())
	}
	if !cur.HasAuthority("ROLE_LANDLORD") {
		t.Fatal("expected refreshed authorities")
	}
	raw, _ := f.creds.Get(ctx, IdentityKey)
	var persisted Identity
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil || persisted.FirstName != "Ann" {
		t.Fatalf("expected re-persisted identity, got %q", raw)
	}
	if v, _ := f.creds.Get(ctx, TokenKey); v != "tok1" {
		t.Fatalf("expected persisted token unchanged, got %q", v)
	}
}

func TestRefreshIdentityFailureLeavesSession(t *testing.T) {
	f := newFixture(t)
	f.gateway.loginResult = tenantLogin()
	ctx := context.Background()
	if _, err := f.coord.Login(ctx, Credentials{Email: "a@b.com", Password: "x"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	expired := errors.New("401 token expired")
	f.gateway.meErr = expired
	if _, err := f.coord.RefreshIdentity(ctx); !errors.Is(err, expired) {
		t.Fatalf("expected forwarded error, got %v", err)
	}
	if f.store.Current().Token() != "tok1" {
		t.Fatal("failed refresh changed the session")
	}
}

func TestRefreshIdentityWithoutSession(t *testing.T) {
	f := newFixture(t)
	if _, err := f.coord.RefreshIdentity(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if f.gateway.mes != 0 {
		t.Fatal("refresh without a session reached the gateway")
	}
}

func TestRefreshIdentityDroppedAfterLogout(t *testing.T) {
	f := newFixture(t)
	f.gateway.loginResult = tenantLogin()
	ctx := context.Background()
	if _, err := f.coord.Login(ctx, Credentials{Email: "a@b.com", Password: "x"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	f.gateway.meID = Identity{ID: "u1"}
	f.gateway.onMe = func() { f.coord.Logout(ctx) }

	if _, err := f.coord.RefreshIdentity(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	f.assertEmpty(t)
}

func TestLogoutClearsEvenWhenRemoteFails(t *testing.T) {
	f := newFixture(t)
	f.gateway.loginResult = tenantLogin()
	ctx := context.Background()
	if _, err := f.coord.Login(ctx, Credentials{Email: "a@b.com", Password: "x"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	f.gateway.logoutErr = errors.New("dial tcp: network is unreachable")
	f.coord.Logout(ctx)
	f.assertEmpty(t)
}

func TestLogoutWithCancelledContext(t *testing.T) {
	f := newFixture(t)
	f.gateway.loginResult = tenantLogin()
	if _, err := f.coord.Login(context.Background(), Credentials{Email: "a@b.com", Password: "x"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.gateway.logoutErr = context.Canceled
	f.coord.Logout(ctx)
	f.assertEmpty(t)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.gateway.loginResult = tenantLogin()
	ctx := context.Background()
	if _, err := f.coord.Login(ctx, Credentials{Email: "a@b.com", Password: "x"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	f.coord.Logout(ctx)
	first := f.store.Current()
	f.gateway.logoutErr = errors.New("401 no token")
	f.coord.Logout(ctx)
	second := f.store.Current()

	if first.Authenticated() || second.Authenticated() || first != second {
		t.Fatal("expected the same empty session after each logout")
	}
	f.assertEmpty(t)
}

func TestRehydrate(t *testing.T) {
	ctx := context.Background()
	validIdentity := `{"id":"u1","email":"a@b.com","authorities":["ROLE_LANDLORD"]}`

	cases := []struct {
		name     string
		token    *string
		identity *string
		restored bool
	}{
		{name: "valid pair", token: ptr("abc"), identity: ptr(validIdentity), restored: true},
		{name: "corrupt identity", token: ptr("abc"), identity: ptr("{not json")},
		{name: "null identity", token: ptr("abc"), identity: ptr("null")},
		{name: "array identity", token: ptr("abc"), identity: ptr(`["u1"]`)},
		{name: "empty object identity", token: ptr("abc"), identity: ptr(`{}`)},
		{name: "unexpected shape", token: ptr("abc"), identity: ptr(`{"unexpected":true}`)},
		{name: "missing token", identity: ptr(validIdentity)},
		{name: "missing identity", token: ptr("abc")},
		{name: "empty token", token: ptr(""), identity: ptr(validIdentity)},
		{name: "nothing persisted"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			if tc.token != nil {
				f.creds.Set(ctx, TokenKey, *tc.token)
			}
			if tc.identity != nil {
				f.creds.Set(ctx, IdentityKey, *tc.identity)
			}

			got := f.coord.Rehydrate(ctx)
			if f.gateway.logins+f.gateway.mes+f.gateway.logouts != 0 {
				t.Fatal("rehydrate contacted the remote api")
			}

			if !tc.restored {
				if got.Authenticated() {
					t.Fatal("expected empty session")
				}
				f.assertEmpty(t)
				return
			}
			if got.Token() != "abc" || f.store.Current().Token() != "abc" {
				t.Fatal("expected restored token")
			}
			if !f.store.Current().HasAuthority("ROLE_LANDLORD") {
				t.Fatal("expected restored authorities")
			}
			if v, ok := f.creds.Get(ctx, IdentityKey); !ok || v != validIdentity {
				t.Fatal("rehydrate must not rewrite persisted values")
			}
		})
	}
}

func TestRehydrateOnUnavailableStorage(t *testing.T) {
	store := NewStore()
	creds := credstore.New(context.Background(), credstore.Unavailable(), logging.Discard())
	coord := NewCoordinator(store, &fakeGateway{}, creds, logging.Discard())

	if coord.Rehydrate(context.Background()).Authenticated() {
		t.Fatal("expected empty session without storage")
	}
}

func TestInvariantAcrossTransitions(t *testing.T) {
	f := newFixture(t)
	violations := 0
	defer f.store.Subscribe(func(s Session) {
		_, hasID := s.Identity()
		if hasID != (s.Token() != "") {
			violations++
		}
	})()

	ctx := context.Background()
	f.gateway.loginResult = tenantLogin()
	f.gateway.meID = Identity{ID: "u1"}
	_, _ = f.coord.Login(ctx, Credentials{Email: "a@b.com", Password: "x"})
	_, _ = f.coord.RefreshIdentity(ctx)
	f.coord.Logout(ctx)
	_, _ = f.coord.RefreshIdentity(ctx)
	f.creds.Set(ctx, TokenKey, "abc")
	f.creds.Set(ctx, IdentityKey, "{not json")
	f.coord.Rehydrate(ctx)

	if violations != 0 {
		t.Fatalf("observed %d partial sessions", violations)
	}
}

func ptr(s string) *string { return &s }
