package domain

// Principal is the externally authenticated subject of a session.
type Principal struct {
	UID           string
	Email         string
	EmailVerified bool
}
