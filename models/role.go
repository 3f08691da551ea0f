package models

// Role is the account role selected during onboarding. It is persisted
// independently of the session: having a role does not imply being
// authenticated, and vice versa.
type Role string

const (
	RoleTraveller Role = "TRAVELLER"
	RoleSender    Role = "SENDER"
)

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	return r == RoleTraveller || r == RoleSender
}
