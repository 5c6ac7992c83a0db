package session

import "errors"

var (
	// ErrNoSession is returned by operations that need a signed-in user.
	ErrNoSession = errors.New("no active session")

	// ErrIncompleteLogin indicates a login response without identity or token.
	ErrIncompleteLogin = errors.New("login response missing user or token")
)
