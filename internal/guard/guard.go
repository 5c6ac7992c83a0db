package guard

import "github.com/stayease/stayease-web/internal/session"

// Requirement is the access requirement attached to a view.
type Requirement int

const (
	// Unrestricted views are reachable by everyone.
	Unrestricted Requirement = iota
	// RequiresAuthentication views need an active session.
	RequiresAuthentication
	// GuestOnly views are only for visitors without a session.
	GuestOnly
)

func (r Requirement) String() string {
	switch r {
	case Unrestricted:
		return "unrestricted"
	case RequiresAuthentication:
		return "requires-authentication"
	case GuestOnly:
		return "guest-only"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a navigation check.
type Decision int

// Deny is the zero Decision, so an unset decision never opens a view.
const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Source exposes the current session.
type Source interface {
	Current() session.Session
}

// Guard decides navigation from the current session only. It never waits
// for rehydration: an empty session denies protected views.
type Guard struct {
	source    Source
	loginPath string
	homePath  string
}

// New builds a guard redirecting denied visitors to loginPath and signed-in
// users away from guest views to homePath.
func New(source Source, loginPath, homePath string) *Guard {
	return &Guard{source: source, loginPath: loginPath, homePath: homePath}
}

// Evaluate checks req against the current session.
func (g *Guard) Evaluate(req Requirement) Decision {
	authenticated := g.source.Current().Authenticated()
	switch req {
	case Unrestricted:
		return Allow
	case RequiresAuthentication:
		if authenticated {
			return Allow
		}
	case GuestOnly:
		if !authenticated {
			return Allow
		}
	}
	return Deny
}
