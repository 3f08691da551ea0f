package models

import "time"

// OTPFlow marks whether an OTP challenge belongs to login or registration.
// The marker is persisted so the verify call hits the matching endpoint.
type OTPFlow string

const (
	OTPFlowLogin    OTPFlow = "login"
	OTPFlowRegister OTPFlow = "register"
)

// Valid reports whether f is a known OTP flow marker.
func (f OTPFlow) Valid() bool {
	return f == OTPFlowLogin || f == OTPFlowRegister
}

// OTPChallenge is returned when an OTP is issued.
type OTPChallenge struct {
	SessionID    string    `json:"sessionId"`
	AttemptsLeft int       `json:"attemptsLeft"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ErrorResponse is the backend's error envelope.
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ConsentScreen is the response of GET /auth/consentScreen.
type ConsentScreen struct {
	URL string `json:"url"`
}
