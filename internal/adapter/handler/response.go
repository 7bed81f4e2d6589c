package handler

import (
	"errors"
	"net/http"

	"festival-hub/internal/domain"
)

// Fixed strings returned to callers. Details stay in the logs.
const (
	msgNoSession           = "no active session"
	msgProviderUnavailable = "identity provider unavailable"
	msgInternal            = "internal server error"
	msgSignOutFailed       = "sign-out failed"
	msgRateLimited         = "rate limit exceeded"
)

type sessionUser struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

type sessionBody struct {
	User      sessionUser `json:"user"`
	ExpiresAt int64       `json:"expires_at,omitempty"` // absent for sessions without expiry
}

// Diagnostics is configuration detail exposed only in development.
type Diagnostics struct {
	ProviderConfigured bool   `json:"provider_configured"`
	Environment        string `json:"environment"`
}

type checkAuthResponse struct {
	Authenticated bool         `json:"authenticated"`
	Session       *sessionBody `json:"session,omitempty"`
	Message       string       `json:"message,omitempty"`
	Error         string       `json:"error,omitempty"`
	Diagnostics   *Diagnostics `json:"diagnostics,omitempty"`
}

type signOutResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Responder turns AuthResults and sign-out outcomes into status/body pairs.
// Both endpoints build their responses here.
type Responder struct {
	diagnostics *Diagnostics
}

// NewResponder creates a Responder. A nil diagnostics keeps responses free of
// configuration detail.
func NewResponder(diagnostics *Diagnostics) *Responder {
	return &Responder{diagnostics: diagnostics}
}

// CheckAuth maps an AuthResult to the session-check response.
func (r *Responder) CheckAuth(result domain.AuthResult) (int, checkAuthResponse) {
	switch result.Status {
	case domain.StatusAuthenticated:
		if result.Identity == nil {
			return r.internalError()
		}
		body := &sessionBody{
			User: sessionUser{
				ID:    result.Identity.ID,
				Email: result.Identity.Email,
				Roles: roleNames(result.Identity.Roles),
			},
		}
		if !result.ExpiresAt.IsZero() {
			body.ExpiresAt = result.ExpiresAt.Unix()
		}
		return http.StatusOK, checkAuthResponse{Authenticated: true, Session: body, Diagnostics: r.diagnostics}
	case domain.StatusFailed:
		var credErr *domain.CredentialError
		if errors.As(result.Cause, &credErr) {
			return http.StatusUnauthorized, checkAuthResponse{Error: credErr.Error(), Diagnostics: r.diagnostics}
		}
		if errors.Is(result.Cause, domain.ErrInvalidCredential) {
			return http.StatusUnauthorized, checkAuthResponse{Error: domain.ErrInvalidCredential.Error(), Diagnostics: r.diagnostics}
		}
		return http.StatusInternalServerError, checkAuthResponse{Error: msgProviderUnavailable, Diagnostics: r.diagnostics}
	default:
		return http.StatusOK, checkAuthResponse{Message: msgNoSession, Diagnostics: r.diagnostics}
	}
}

// CheckAuthPanic is the response for a failure nothing classified.
func (r *Responder) CheckAuthPanic() (int, checkAuthResponse) {
	return r.internalError()
}

func (r *Responder) internalError() (int, checkAuthResponse) {
	return http.StatusInternalServerError, checkAuthResponse{Error: msgInternal, Diagnostics: r.diagnostics}
}

// SignOut maps a sign-out outcome to the sign-out response.
func (r *Responder) SignOut(err error) (int, signOutResponse) {
	if err != nil {
		return http.StatusInternalServerError, signOutResponse{Error: msgSignOutFailed}
	}
	return http.StatusOK, signOutResponse{Success: true}
}

func roleNames(roles []domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

// checkOutcome labels a session-check response for metrics.
func checkOutcome(status int, result domain.AuthResult) string {
	switch {
	case status == http.StatusUnauthorized:
		return "invalid_credential"
	case status >= http.StatusInternalServerError:
		return "error"
	default:
		return result.Status.String()
	}
}
