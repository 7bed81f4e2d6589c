package domain

import (
	"slices"
	"time"
)

// Role names a permission set granted to an identity by the identity provider.
// The zero value means "no role required" wherever a Role is used as a requirement.
type Role string

// Identity represents an authenticated subject as known by the identity provider.
type Identity struct {
	ID        string
	Email     string
	Roles     []Role
	CreatedAt time.Time
}

// HasRole reports whether the identity holds role. An empty role is always held.
func (i *Identity) HasRole(role Role) bool {
	if role == "" {
		return true
	}
	if i == nil {
		return false
	}
	return slices.Contains(i.Roles, role)
}

// Session is a time-bounded lease over exactly one Identity.
type Session struct {
	ID        string
	Identity  *Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
	Active    bool
}

// LiveAt reports whether the lease is usable at now.
func (s *Session) LiveAt(now time.Time) bool {
	if s == nil || !s.Active || s.Identity == nil {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// CredentialKind tells the provider how a credential was presented.
type CredentialKind int

const (
	// CredentialCookie is a browser session cookie ("name=value").
	CredentialCookie CredentialKind = iota + 1
	// CredentialToken is a native session token held outside a browser.
	CredentialToken
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialCookie:
		return "cookie"
	case CredentialToken:
		return "token"
	default:
		return "none"
	}
}

// Credential is the opaque value handed back to the identity provider as-is.
type Credential struct {
	Kind  CredentialKind
	Value string
}

// Empty reports whether no credential was presented.
func (c Credential) Empty() bool {
	return c.Kind == 0 || c.Value == ""
}
