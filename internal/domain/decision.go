package domain

// DecisionKind tags the variant held by a RouteDecision.
type DecisionKind int

const (
	DecisionAllow DecisionKind = iota
	DecisionRedirect
	DecisionDeny
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionRedirect:
		return "redirect"
	case DecisionDeny:
		return "deny"
	default:
		return "allow"
	}
}

// RouteDecision is the outcome of guarding a route. It is never cached.
type RouteDecision struct {
	Kind   DecisionKind
	Path   string
	Reason string
}

// Allow lets the page render.
func Allow() RouteDecision {
	return RouteDecision{Kind: DecisionAllow}
}

// RedirectTo sends the caller elsewhere before anything is rendered.
func RedirectTo(path string) RouteDecision {
	return RouteDecision{Kind: DecisionRedirect, Path: path}
}

// Deny renders the access-denial view in place of the page.
func Deny(reason string) RouteDecision {
	return RouteDecision{Kind: DecisionDeny, Reason: reason}
}
