// Package api is festctl's client for the festival-hub session API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SessionTokenHeader carries a Kratos session token.
const SessionTokenHeader = "X-Session-Token"

// ErrServer is returned when festival-hub answers with a 5xx.
var ErrServer = errors.New("festival-hub server error")

// User is the identity in a session-check response.
type User struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// Session is the session in a session-check response.
type Session struct {
	User      User  `json:"user"`
	ExpiresAt int64 `json:"expires_at,omitempty"`
}

// Expiry converts ExpiresAt to a time. The zero time means no expiry.
func (s Session) Expiry() time.Time {
	if s.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(s.ExpiresAt, 0)
}

// CheckAuthResult is the body of GET /api/check-auth.
type CheckAuthResult struct {
	Authenticated bool     `json:"authenticated"`
	Session       *Session `json:"session,omitempty"`
	Message       string   `json:"message,omitempty"`
	Error         string   `json:"error,omitempty"`
	StatusCode    int      `json:"-"`
}

// SignOutResult is the body of POST /api/sign-out.
type SignOutResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Client talks to one festival-hub instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// CheckAuth asks whether token is a live session. 200 and 401 answers are
// results, not errors; a 401 carries the provider's reason in Error.
func (c *Client) CheckAuth(ctx context.Context, token string) (*CheckAuthResult, error) {
	var out CheckAuthResult
	status, err := c.do(ctx, http.MethodGet, "/api/check-auth", token, &out)
	if err != nil {
		return nil, err
	}
	out.StatusCode = status
	if status >= http.StatusInternalServerError {
		return &out, fmt.Errorf("%w: %s", ErrServer, out.Error)
	}
	return &out, nil
}

// SignOut ends the session behind token. An empty token is accepted.
func (c *Client) SignOut(ctx context.Context, token string) (*SignOutResult, error) {
	var out SignOutResult
	status, err := c.do(ctx, http.MethodPost, "/api/sign-out", token, &out)
	if err != nil {
		return nil, err
	}
	if status >= http.StatusInternalServerError || !out.Success {
		return &out, fmt.Errorf("%w: %s", ErrServer, out.Error)
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set(SessionTokenHeader, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s response (status %d): %w", path, resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}
