package domain

import "time"

// AuthStatus tags the variant held by an AuthResult.
type AuthStatus int

const (
	StatusUnauthenticated AuthStatus = iota
	StatusAuthenticated
	StatusFailed
)

func (s AuthStatus) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusFailed:
		return "error"
	default:
		return "unauthenticated"
	}
}

// AuthResult answers "is there a usable session right now".
// Only the fields belonging to Status are set.
type AuthResult struct {
	Status    AuthStatus
	Identity  *Identity
	ExpiresAt time.Time
	Cause     error
}

// Authenticated builds the result for an active lease.
func Authenticated(identity *Identity, expiresAt time.Time) AuthResult {
	return AuthResult{Status: StatusAuthenticated, Identity: identity, ExpiresAt: expiresAt}
}

// Unauthenticated builds the result for "no signed-in subject".
func Unauthenticated() AuthResult {
	return AuthResult{Status: StatusUnauthenticated}
}

// Failed builds the result for a session lookup that could not be answered.
func Failed(cause error) AuthResult {
	if cause == nil {
		cause = ErrProviderUnavailable
	}
	return AuthResult{Status: StatusFailed, Cause: cause}
}

// IsAuthenticated reports whether the result carries an identity.
func (r AuthResult) IsAuthenticated() bool {
	return r.Status == StatusAuthenticated && r.Identity != nil
}
