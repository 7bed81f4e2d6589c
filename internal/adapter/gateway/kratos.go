package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"festival-hub/internal/domain"

	kratos "github.com/ory/kratos-client-go"
)

// defaultCallTimeout bounds a single call to Kratos when no timeout is configured.
const defaultCallTimeout = 3 * time.Second

// KratosGateway implements domain.IdentityProvider on top of the Kratos public API.
type KratosGateway struct {
	client      *kratos.APIClient
	callTimeout time.Duration
}

// NewKratosGateway creates a new Kratos gateway with tuned HTTP transport.
func NewKratosGateway(baseURL string, timeout time.Duration) *KratosGateway {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	configuration := kratos.NewConfiguration()
	configuration.Servers = []kratos.ServerConfiguration{
		{URL: baseURL},
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	configuration.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: transport,
		// Browser logout answers with a redirect to the UI; the status is enough.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &KratosGateway{client: kratos.NewAPIClient(configuration), callTimeout: timeout}
}

// GetSession resolves the credential to a session. It returns nil, nil when
// no credential is presented.
func (g *KratosGateway) GetSession(ctx context.Context, cred domain.Credential) (*domain.Session, error) {
	if cred.Empty() {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	req := g.client.FrontendAPI.ToSession(ctx)
	switch cred.Kind {
	case domain.CredentialCookie:
		req = req.Cookie(cred.Value)
	case domain.CredentialToken:
		req = req.XSessionToken(cred.Value)
	}

	session, resp, err := req.Execute()
	if err != nil {
		return nil, classify(err, resp)
	}

	if session.Identity == nil {
		return nil, domain.ErrMissingIdentity
	}

	return toDomainSession(session), nil
}

// SignOut invalidates the session behind the credential. A credential Kratos no
// longer recognises is treated as already signed out.
func (g *KratosGateway) SignOut(ctx context.Context, cred domain.Credential) error {
	if cred.Empty() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	switch cred.Kind {
	case domain.CredentialCookie:
		return g.signOutBrowser(ctx, cred.Value)
	case domain.CredentialToken:
		return g.signOutNative(ctx, cred.Value)
	default:
		return nil
	}
}

func (g *KratosGateway) signOutBrowser(ctx context.Context, cookie string) error {
	flow, resp, err := g.client.FrontendAPI.CreateBrowserLogoutFlow(ctx).Cookie(cookie).Execute()
	if err != nil {
		if alreadySignedOut(resp) {
			return nil
		}
		return fmt.Errorf("%w: create logout flow: %w", domain.ErrSignOutFailed, classify(err, resp))
	}

	resp, err = g.client.FrontendAPI.UpdateLogoutFlow(ctx).
		Token(flow.LogoutToken).
		Cookie(cookie).
		Execute()
	if err != nil {
		if resp != nil && resp.StatusCode < http.StatusBadRequest {
			return nil
		}
		if alreadySignedOut(resp) {
			return nil
		}
		return fmt.Errorf("%w: submit logout flow: %w", domain.ErrSignOutFailed, classify(err, resp))
	}
	return nil
}

func (g *KratosGateway) signOutNative(ctx context.Context, token string) error {
	body := kratos.NewPerformNativeLogoutBody(token)
	resp, err := g.client.FrontendAPI.PerformNativeLogout(ctx).PerformNativeLogoutBody(*body).Execute()
	if err != nil {
		if alreadySignedOut(resp) {
			return nil
		}
		return fmt.Errorf("%w: native logout: %w", domain.ErrSignOutFailed, classify(err, resp))
	}
	return nil
}

// alreadySignedOut reports whether Kratos answered that there is no session to end.
func alreadySignedOut(resp *http.Response) bool {
	if resp == nil {
		return false
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	default:
		return false
	}
}

// classify maps a Kratos failure onto the domain error taxonomy.
func classify(err error, resp *http.Response) error {
	if resp == nil {
		return fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}
	// A 4xx is Kratos refusing this credential (401 unknown session, 403
	// session_aal2_required, ...). 429 is throttling, not a verdict.
	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError &&
		resp.StatusCode != http.StatusTooManyRequests {
		return domain.NewCredentialError(errorReason(err))
	}
	return fmt.Errorf("%w: kratos returned status %d", domain.ErrProviderUnavailable, resp.StatusCode)
}

// kratosErrorBody is the JSON envelope Kratos uses for error responses.
type kratosErrorBody struct {
	Error struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	} `json:"error"`
}

// errorReason extracts the human readable reason from a Kratos error response.
func errorReason(err error) string {
	var apiErr *kratos.GenericOpenAPIError
	if !errors.As(err, &apiErr) {
		return ""
	}

	var body kratosErrorBody
	if jsonErr := json.Unmarshal(apiErr.Body(), &body); jsonErr != nil {
		return ""
	}
	if body.Error.Reason != "" {
		return body.Error.Reason
	}
	return body.Error.Message
}

func toDomainSession(s *kratos.Session) *domain.Session {
	identity := &domain.Identity{
		ID:    s.Identity.Id,
		Email: stringField(s.Identity.Traits, "email"),
		Roles: roles(s.Identity.MetadataPublic),
	}
	if s.Identity.CreatedAt != nil {
		identity.CreatedAt = *s.Identity.CreatedAt
	}

	session := &domain.Session{
		ID:       s.Id,
		Identity: identity,
		Active:   s.Active == nil || *s.Active,
	}
	if s.IssuedAt != nil {
		session.IssuedAt = *s.IssuedAt
	}
	if s.ExpiresAt != nil {
		session.ExpiresAt = *s.ExpiresAt
	}
	return session
}

func stringField(v interface{}, key string) string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// roles reads metadata_public.roles, which only Kratos admins can write.
func roles(metadata interface{}) []domain.Role {
	m, ok := metadata.(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := m["roles"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]domain.Role, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok && s != "" {
			out = append(out, domain.Role(s))
		}
	}
	return out
}
