package models

// Session captures the in-memory authenticated state derived from stored tokens.
// IsAuthenticated is true exactly when AccessToken is non-empty; UserID is
// decoded from the token's subject claim, never stored separately.
type Session struct {
	AccessToken     string
	RefreshToken    string
	IsAuthenticated bool
	UserID          int64
}

// TokenPair is returned by a successful OTP verification. The refresh token
// is optional; the backend exposes no exchange endpoint for it yet.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}
