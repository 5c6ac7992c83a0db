package session

// Session is the (identity, token) pair. It is either empty or fully
// populated; the fields are unexported so no other state can be built.
type Session struct {
	identity *Identity
	token    string
}

// Empty is the signed-out session.
var Empty = Session{}

func newActive(id Identity, token string) Session {
	if token == "" {
		return Empty
	}
	c := id.clone()
	return Session{identity: &c, token: token}
}

// Authenticated reports whether the session holds an identity and token.
func (s Session) Authenticated() bool {
	return s.identity != nil && s.token != ""
}

// Identity returns a copy of the signed-in identity.
func (s Session) Identity() (Identity, bool) {
	if !s.Authenticated() {
		return Identity{}, false
	}
	return s.identity.clone(), true
}

// Token returns the credential token, or "" when signed out.
func (s Session) Token() string {
	if !s.Authenticated() {
		return ""
	}
	return s.token
}

// HasAuthority reports whether the signed-in identity carries role.
func (s Session) HasAuthority(role string) bool {
	return s.Authenticated() && s.identity.HasAuthority(role)
}

// withIdentity replaces the identity and keeps the token.
func (s Session) withIdentity(id Identity) Session {
	if !s.Authenticated() {
		return Empty
	}
	return newActive(id, s.token)
}
