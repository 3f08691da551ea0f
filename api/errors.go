package api

import (
	"errors"
	"fmt"
)

// NetworkError wraps a transport-level failure: the request never produced a
// response. Nothing is persisted and the call may be retried.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: %s: network failure: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError is a non-2xx response from the backend. Message carries the
// server's error payload when one was decodable, a generic fallback
// otherwise. The caller's state is left unchanged.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("api: server rejected request (%d): %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether err is worth retrying: transport failures and
// server-side 5xx responses. Client errors (4xx) and local token errors are
// final.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.StatusCode >= 500
	}
	return false
}
