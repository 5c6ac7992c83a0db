// Package roles derives capability flags from the signed-in identity.
package roles

import "github.com/stayease/stayease-web/internal/session"

// Well-known role names issued by the API. The set is open: identities may
// carry roles not listed here.
const (
	Tenant          = "ROLE_TENANT"
	Landlord        = "ROLE_LANDLORD"
	Admin           = "ROLE_ADMIN"
	ServiceProvider = "ROLE_SERVICE_PROVIDER"
)

// Capability is a named predicate over the role set.
type Capability string

const (
	CanHost           Capability = "landlord"
	CanRent           Capability = "tenant"
	CanAdminister     Capability = "admin"
	CanProvideService Capability = "service-provider"
)

// capabilities maps each capability to the role granting it.
var capabilities = map[Capability]string{
	CanHost:           Landlord,
	CanRent:           Tenant,
	CanAdminister:     Admin,
	CanProvideService: ServiceProvider,
}

// SelfAssignable lists the roles a user may pick at registration.
var SelfAssignable = []string{Tenant, Landlord}

// Source exposes the current session.
type Source interface {
	Current() session.Session
}

// Evaluator answers role questions against the live session. It caches
// nothing.
type Evaluator struct {
	source Source
}

// NewEvaluator builds an evaluator over source.
func NewEvaluator(source Source) Evaluator {
	return Evaluator{source: source}
}

// HasRole reports whether the signed-in identity carries role. It is false
// when nobody is signed in.
func (e Evaluator) HasRole(role string) bool {
	return e.source.Current().HasAuthority(role)
}

// Can reports whether the signed-in identity has capability c. Unknown
// capabilities are never granted.
func (e Evaluator) Can(c Capability) bool {
	role, ok := capabilities[c]
	return ok && e.HasRole(role)
}

func (e Evaluator) IsLandlord() bool { return e.Can(CanHost) }

func (e Evaluator) IsTenant() bool { return e.Can(CanRent) }

func (e Evaluator) IsAdmin() bool { return e.Can(CanAdminister) }

// LandingPath is where a user goes after signing in: hosts to their
// listings, everyone else to the search page.
func (e Evaluator) LandingPath() string {
	if e.IsLandlord() {
		return "/my-listings"
	}
	return "/listings"
}
