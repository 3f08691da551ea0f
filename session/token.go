package session

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// decodeToken extracts the subject and expiry claims from an access token.
// The signature is not verified; the client never holds the signing key and
// the backend re-validates every request.
func decodeToken(raw string) (userID int64, expiresAt *time.Time, err error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return 0, nil, fmt.Errorf("parse token: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, nil, fmt.Errorf("token has no subject claim")
	}
	userID, err = strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("subject claim %q is not a user id", sub)
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return 0, nil, fmt.Errorf("read expiry claim: %w", err)
	}
	if exp != nil {
		t := exp.Time
		expiresAt = &t
	}
	return userID, expiresAt, nil
}
