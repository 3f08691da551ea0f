package session

import "errors"

var (
	// ErrNoToken is returned when an authenticated request is attempted
	// without a stored access token.
	ErrNoToken = errors.New("session: no access token")

	// ErrTokenExpired is returned when the access token's expiry claim is in
	// the past. The session is logged out as a side effect and no network
	// call is made.
	ErrTokenExpired = errors.New("session: access token expired")
)
