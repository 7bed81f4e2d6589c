// Package guard decides, once per page render, whether the current identity
// may see a route.
package guard

import (
	"context"

	"festival-hub/internal/domain"
)

// Paths are the redirect targets the guard can choose between.
type Paths struct {
	SignIn  string
	Landing string
}

// Decide applies the route table to an already resolved AuthResult.
func Decide(result domain.AuthResult, required domain.Role, paths Paths) domain.RouteDecision {
	if !result.IsAuthenticated() {
		return domain.RedirectTo(paths.SignIn)
	}
	if !result.Identity.HasRole(required) {
		return domain.Deny(domain.ErrInsufficientRole.Error())
	}
	return domain.Allow()
}

// DecideRoot handles the landing route, which never renders.
func DecideRoot(result domain.AuthResult, paths Paths) domain.RouteDecision {
	if result.IsAuthenticated() {
		return domain.RedirectTo(paths.Landing)
	}
	return domain.RedirectTo(paths.SignIn)
}

// DecideGuest handles sign-in and sign-up: a signed-in identity has nothing to do there.
func DecideGuest(result domain.AuthResult, paths Paths) domain.RouteDecision {
	if result.IsAuthenticated() {
		return domain.RedirectTo(paths.Landing)
	}
	return domain.Allow()
}

// Guard evaluates decisions against a request's accessor.
type Guard struct {
	paths   Paths
	metrics domain.AuthMetrics
}

// New creates a Guard.
func New(paths Paths, m domain.AuthMetrics) *Guard {
	return &Guard{paths: paths, metrics: m}
}

// Check resolves the current session and decides for a protected route. The
// accessor memoizes its answer, so callers may read the same AuthResult again.
func (g *Guard) Check(ctx context.Context, acc sessionReader, required domain.Role) domain.RouteDecision {
	return Decide(acc.CurrentSession(ctx), required, g.paths)
}

// sessionReader is the slice of session.Accessor the guard needs.
type sessionReader interface {
	CurrentSession(ctx context.Context) domain.AuthResult
}
