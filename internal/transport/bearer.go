package transport

import (
	"net/http"

	"github.com/stayease/stayease-web/internal/session"
)

// Source exposes the current session. *session.Store satisfies it.
type Source interface {
	Current() session.Session
}

// Augment returns req with the session's bearer token attached. Without a
// token req is returned unchanged; otherwise a clone is returned and req
// itself is never modified.
func Augment(req *http.Request, s session.Session) *http.Request {
	token := s.Token()
	if token == "" {
		return req
	}
	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+token)
	return out
}

// BearerTransport attaches the session token to every outgoing request.
// The session is read when the request is dispatched, not when the
// transport is built.
type BearerTransport struct {
	Source Source
	Base   http.RoundTripper
}

// NewBearerTransport wraps base. A nil base uses http.DefaultTransport.
func NewBearerTransport(src Source, base http.RoundTripper) *BearerTransport {
	return &BearerTransport{Source: src, Base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s := session.Empty
	if t.Source != nil {
		s = t.Source.Current()
	}
	return t.base().RoundTrip(Augment(req, s))
}

func (t *BearerTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
