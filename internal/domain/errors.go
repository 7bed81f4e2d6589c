package domain

import "errors"

// Session lookup errors.
var (
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrMissingIdentity     = errors.New("missing identity in session")
)

// Authorization errors.
var (
	ErrInsufficientRole = errors.New("insufficient role")
)

// Sign-out errors.
var (
	ErrSignOutFailed = errors.New("sign-out failed")
)

// Local credential store errors.
var (
	ErrNoStoredCredential = errors.New("no stored credential")
)

// CredentialError carries the provider's reason for rejecting a credential.
// It matches ErrInvalidCredential under errors.Is.
type CredentialError struct {
	Reason string
}

// NewCredentialError returns a CredentialError with the given reason.
func NewCredentialError(reason string) *CredentialError {
	return &CredentialError{Reason: reason}
}

func (e *CredentialError) Error() string {
	if e.Reason == "" {
		return ErrInvalidCredential.Error()
	}
	return e.Reason
}

// Is makes errors.Is(err, ErrInvalidCredential) hold.
func (e *CredentialError) Is(target error) bool {
	return target == ErrInvalidCredential
}
