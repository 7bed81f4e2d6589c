// Package session binds the identity provider to one credential source per
// request (server) or per invocation (client) and answers in AuthResult terms.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"festival-hub/internal/domain"
)

// TokenHeader carries a native session token on server requests.
const TokenHeader = "X-Session-Token"

// Accessor answers session questions for exactly one credential source.
type Accessor interface {
	CurrentSession(ctx context.Context) domain.AuthResult
	SignOut(ctx context.Context) error
}

// lookup is the part shared by both accessors: one provider call, memoized.
type lookup struct {
	provider domain.IdentityProvider
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	done   bool
	result domain.AuthResult
}

func (l *lookup) current(ctx context.Context, cred domain.Credential) domain.AuthResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.done {
		l.result = l.resolve(ctx, cred)
		l.done = true
	}
	return l.result
}

// resolve never panics and never returns a provider-specific error.
func (l *lookup) resolve(ctx context.Context, cred domain.Credential) (result domain.AuthResult) {
	if cred.Empty() {
		return domain.Unauthenticated()
	}

	defer func() {
		if r := recover(); r != nil {
			l.logger.ErrorContext(ctx, "identity provider panicked", "panic", r)
			result = domain.Failed(fmt.Errorf("%w: provider panic", domain.ErrProviderUnavailable))
		}
	}()

	s, err := l.provider.GetSession(ctx, cred)
	if err != nil {
		l.logger.WarnContext(ctx, "session lookup failed", "credential", cred.Kind.String(), "error", err)
		return domain.Failed(normalize(err))
	}
	if !s.LiveAt(l.now()) {
		return domain.Unauthenticated()
	}
	return domain.Authenticated(s.Identity, s.ExpiresAt)
}

func (l *lookup) signOut(ctx context.Context, cred domain.Credential) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.ErrorContext(ctx, "identity provider panicked on sign-out", "panic", r)
			err = fmt.Errorf("%w: provider panic", domain.ErrSignOutFailed)
		}
	}()

	if !cred.Empty() {
		if err := l.provider.SignOut(ctx, cred); err != nil {
			return normalizeSignOut(err)
		}
	}

	l.mu.Lock()
	l.result = domain.Unauthenticated()
	l.done = true
	l.mu.Unlock()
	return nil
}

// normalize keeps the domain taxonomy and files anything else as unavailable.
func normalize(err error) error {
	if errors.Is(err, domain.ErrInvalidCredential) ||
		errors.Is(err, domain.ErrProviderUnavailable) ||
		errors.Is(err, domain.ErrMissingIdentity) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
}

func normalizeSignOut(err error) error {
	if errors.Is(err, domain.ErrSignOutFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrSignOutFailed, err)
}

// ServerAccessor reads the credential from an inbound HTTP request.
type ServerAccessor struct {
	lookup
	cred domain.Credential
}

// CurrentSession returns the request's AuthResult, resolving it at most once.
func (a *ServerAccessor) CurrentSession(ctx context.Context) domain.AuthResult {
	return a.current(ctx, a.cred)
}

// SignOut ends the request's session at the provider.
func (a *ServerAccessor) SignOut(ctx context.Context) error {
	return a.signOut(ctx, a.cred)
}

// ServerFactory builds accessors bound to inbound requests.
type ServerFactory struct {
	provider   domain.IdentityProvider
	cookieName string
	logger     *slog.Logger
	now        func() time.Time
}

// NewServerFactory creates a factory for server-side accessors.
func NewServerFactory(p domain.IdentityProvider, cookieName string, l *slog.Logger) *ServerFactory {
	return &ServerFactory{provider: p, cookieName: cookieName, logger: l, now: time.Now}
}

// ForRequest returns a fresh accessor scoped to r.
func (f *ServerFactory) ForRequest(r *http.Request) *ServerAccessor {
	return &ServerAccessor{
		lookup: lookup{provider: f.provider, logger: f.logger, now: f.now},
		cred:   requestCredential(r, f.cookieName),
	}
}

// requestCredential prefers the session cookie, then a token header.
func requestCredential(r *http.Request, cookieName string) domain.Credential {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return domain.Credential{Kind: domain.CredentialCookie, Value: cookieName + "=" + c.Value}
	}
	if tok := strings.TrimSpace(r.Header.Get(TokenHeader)); tok != "" {
		return domain.Credential{Kind: domain.CredentialToken, Value: tok}
	}
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		if tok := strings.TrimSpace(auth[7:]); tok != "" {
			return domain.Credential{Kind: domain.CredentialToken, Value: tok}
		}
	}
	return domain.Credential{}
}

// ClientAccessor reads the credential from a local credential store.
type ClientAccessor struct {
	lookup
	store domain.CredentialStore
}

// CurrentSession returns the stored credential's AuthResult, resolving it at most once.
func (a *ClientAccessor) CurrentSession(ctx context.Context) domain.AuthResult {
	cred, err := a.credential()
	if err != nil {
		return domain.Failed(err)
	}
	return a.current(ctx, cred)
}

// SignOut ends the stored session at the provider and forgets the token.
func (a *ClientAccessor) SignOut(ctx context.Context) error {
	cred, err := a.credential()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSignOutFailed, err)
	}
	if err := a.signOut(ctx, cred); err != nil {
		return err
	}
	if err := a.store.DeleteToken(); err != nil {
		return fmt.Errorf("%w: forget token: %w", domain.ErrSignOutFailed, err)
	}
	return nil
}

func (a *ClientAccessor) credential() (domain.Credential, error) {
	tok, err := a.store.LoadToken()
	if errors.Is(err, domain.ErrNoStoredCredential) {
		return domain.Credential{}, nil
	}
	if err != nil {
		return domain.Credential{}, fmt.Errorf("read credential store: %w", err)
	}
	return domain.Credential{Kind: domain.CredentialToken, Value: tok}, nil
}

// ClientFactory builds accessors bound to a local credential store.
type ClientFactory struct {
	provider domain.IdentityProvider
	logger   *slog.Logger
	now      func() time.Time
}

// NewClientFactory creates a factory for client-side accessors.
func NewClientFactory(p domain.IdentityProvider, l *slog.Logger) *ClientFactory {
	return &ClientFactory{provider: p, logger: l, now: time.Now}
}

// ForStore returns a fresh accessor reading from store.
func (f *ClientFactory) ForStore(store domain.CredentialStore) *ClientAccessor {
	return &ClientAccessor{
		lookup: lookup{provider: f.provider, logger: f.logger, now: f.now},
		store:  store,
	}
}
