package identity

import "time"

// User is a StayEase account as stored by the API.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	ImageURL     string
	Verified     bool
	Authorities  []string
	PasswordHash []byte
	TokenVersion int
	CreatedAt    time.Time
}

// Registration is the sign-up request.
type Registration struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Authorities []string
}

// Credentials request structure.
type Credentials struct {
	Email    string
	Password string
}
