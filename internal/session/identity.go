package session

import (
	"slices"
	"time"
)

// Identity is the signed-in user's public record as returned by the remote
// API. Authorities is an unordered, open-ended set of role names.
type Identity struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Verified    bool       `json:"verified"`
	Authorities []string   `json:"authorities"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// HasAuthority reports whether role is part of the identity's role set.
func (i Identity) HasAuthority(role string) bool {
	return slices.Contains(i.Authorities, role)
}

// DisplayName joins first and last name, falling back to the email.
func (i Identity) DisplayName() string {
	switch {
	case i.FirstName != "" && i.LastName != "":
		return i.FirstName + " " + i.LastName
	case i.FirstName != "":
		return i.FirstName
	case i.LastName != "":
		return i.LastName
	default:
		return i.Email
	}
}

func (i Identity) clone() Identity {
	out := i
	out.Authorities = slices.Clone(i.Authorities)
	if i.CreatedAt != nil {
		t := *i.CreatedAt
		out.CreatedAt = &t
	}
	return out
}

// Credentials are submitted by the sign-in form.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile is submitted by the registration form.
type Profile struct {
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Authorities []string `json:"authorities"`
}

// LoginResult is the payload of a successful login.
type LoginResult struct {
	User  Identity `json:"user"`
	Token string   `json:"token"`
}
