package domain

import "context"

// IdentityProvider is the backend-as-a-service session API consumed by the core.
// Implementations return nil, nil from GetSession when the provider answers
// without a session.
type IdentityProvider interface {
	GetSession(ctx context.Context, cred Credential) (*Session, error)
	SignOut(ctx context.Context, cred Credential) error
}

// CredentialStore holds a session token outside the browser.
type CredentialStore interface {
	LoadToken() (string, error)
	DeleteToken() error
}

// AuthMetrics records boundary outcomes.
type AuthMetrics interface {
	ObserveSessionCheck(outcome string)
	ObserveRouteDecision(route string, kind DecisionKind)
	ObserveSignOut(outcome string)
}
