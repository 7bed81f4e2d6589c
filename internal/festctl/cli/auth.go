package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"festival-hub/internal/adapter/gateway"
	"festival-hub/internal/domain"
	"festival-hub/internal/festctl/api"
	"festival-hub/internal/festctl/output"
	"festival-hub/internal/infrastructure/credstore"
	"festival-hub/internal/session"

	"github.com/spf13/cobra"
)

// errNotSignedIn is returned by commands that need a stored session.
var errNotSignedIn = errors.New("not signed in; run 'festctl auth login --token <token>'")

func newAuthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the festctl session",
	}
	cmd.AddCommand(newLoginCmd(a), newStatusCmd(a), newWhoamiCmd(a), newLogoutCmd(a))
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify and store a Kratos session token",
		Long: `Verify a Kratos session token against Kratos and store it for later
commands. Pass --token - to read the token from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "-" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read token: %w", err)
				}
				token = line
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("--token is required")
			}

			result := a.clientAccessor(tokenStore(token)).CurrentSession(cmd.Context())
			switch result.Status {
			case domain.StatusAuthenticated:
			case domain.StatusUnauthenticated:
				return errors.New("token does not belong to an active session")
			default:
				return fmt.Errorf("verify token: %w", result.Cause)
			}

			store, err := a.store()
			if err != nil {
				return err
			}
			if err := store.Save(credstore.Credentials{SessionToken: token, ServerURL: a.cfg.Server.URL}); err != nil {
				return fmt.Errorf("save credentials: %w", err)
			}

			a.printer.Success("signed in as %s", result.Identity.Email)
			a.logger.Debug("credentials saved", "path", store.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Kratos session token, or - to read from stdin")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Ask festival-hub whether the stored session is active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := a.storedToken()
			if err != nil {
				return err
			}

			res, err := a.apiClient().CheckAuth(cmd.Context(), token)
			if err != nil {
				return err
			}

			table := output.NewTable(a.printer.Out(), "field", "value")
			table.AddRow("server", a.cfg.Server.URL)
			table.AddRow("session", a.printer.StatusBadge(res.Authenticated))
			if res.Session != nil {
				table.AddRow("email", res.Session.User.Email)
				table.AddRow("roles", strings.Join(res.Session.User.Roles, ", "))
				table.AddRow("expires", formatExpiry(res.Session.Expiry()))
			}
			if err := table.Render(); err != nil {
				return err
			}

			switch {
			case res.StatusCode == http.StatusUnauthorized:
				a.printer.Warning("stored token was rejected: %s", res.Error)
			case token == "":
				a.printer.Info("no stored token")
			}
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Resolve the stored token directly against Kratos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}

			result := a.clientAccessor(store).CurrentSession(cmd.Context())
			switch result.Status {
			case domain.StatusUnauthenticated:
				return errNotSignedIn
			case domain.StatusFailed:
				if errors.Is(result.Cause, domain.ErrInvalidCredential) {
					return fmt.Errorf("stored token was rejected: %w", result.Cause)
				}
				return fmt.Errorf("session lookup failed: %w", result.Cause)
			}

			id := result.Identity
			roles := make([]string, 0, len(id.Roles))
			for _, r := range id.Roles {
				roles = append(roles, string(r))
			}

			table := output.NewTable(a.printer.Out(), "field", "value")
			table.AddRow("id", id.ID)
			table.AddRow("email", id.Email)
			table.AddRow("roles", strings.Join(roles, ", "))
			table.AddRow("expires", formatExpiry(result.ExpiresAt))
			return table.Render()
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	var direct bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the stored session and forget the token",
		Long: `End the stored session through festival-hub's sign-out endpoint and
delete the local token. With --direct the session is revoked at Kratos
without going through festival-hub. Signing out twice is not an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := a.storedToken()
			if err != nil {
				return err
			}
			if token == "" {
				a.printer.Success("already signed out")
				return nil
			}

			if direct {
				store, err := a.store()
				if err != nil {
					return err
				}
				if err := a.clientAccessor(store).SignOut(cmd.Context()); err != nil {
					return err
				}
			} else {
				if _, err := a.apiClient().SignOut(cmd.Context(), token); err != nil {
					return fmt.Errorf("sign out: %w", err)
				}
				if err := a.deleteToken(); err != nil {
					return err
				}
			}

			// The sign-out answer alone is not trusted; confirm with a fresh check.
			return a.confirmSignedOut(cmd.Context(), token)
		},
	}
	cmd.Flags().BoolVar(&direct, "direct", false, "revoke the session at Kratos directly")
	return cmd
}

func (a *app) confirmSignedOut(ctx context.Context, token string) error {
	res, err := a.apiClient().CheckAuth(ctx, token)
	if err != nil {
		a.printer.Warning("signed out locally; could not confirm with festival-hub: %v", err)
		return nil
	}
	if res.Authenticated {
		return errors.New("festival-hub still reports an active session for the old token")
	}
	a.printer.Success("signed out")
	return nil
}

func (a *app) storedToken() (string, error) {
	store, err := a.store()
	if err != nil {
		return "", err
	}
	token, err := store.LoadToken()
	if errors.Is(err, domain.ErrNoStoredCredential) {
		return "", nil
	}
	return token, err
}

func (a *app) deleteToken() error {
	store, err := a.store()
	if err != nil {
		return err
	}
	return store.DeleteToken()
}

func (a *app) apiClient() *api.Client {
	return api.NewClient(a.cfg.Server.URL, a.cfg.Server.Timeout)
}

func (a *app) clientAccessor(store domain.CredentialStore) *session.ClientAccessor {
	provider := gateway.NewKratosGateway(a.cfg.Kratos.URL, a.cfg.Server.Timeout)
	return session.NewClientFactory(provider, a.logger).ForStore(store)
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.RFC1123)
}

// tokenStore is a read-only CredentialStore over a token not yet saved.
type tokenStore string

func (s tokenStore) LoadToken() (string, error) {
	if s == "" {
		return "", domain.ErrNoStoredCredential
	}
	return string(s), nil
}

func (tokenStore) DeleteToken() error { return nil }
