// Package client is the programmatic API consumer used by export jobs and
// CLI tooling. Its refresh coordinator collapses concurrent refresh attempts
// into a single exchange so rotation never races against itself.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/denisCazz/visitreport-service/internal/api/dto"
)

const refreshFlightKey = "refresh"

// ErrSessionExpired is returned when a refresh exchange is rejected; the
// caller should force a new login rather than retry.
var ErrSessionExpired = fmt.Errorf("session expired")

// Client talks to the visit-report API with cookie-style token transport.
type Client struct {
	baseURL string
	http    *http.Client

	// flight dedupes concurrent refreshes: rotation replaces the pair, so
	// two parallel exchanges would each invalidate the other's result.
	flight singleflight.Group

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// New builds a client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SetTokens seeds the session, e.g. after an external login.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

// Tokens returns the current pair.
func (c *Client) Tokens() (access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

// Login authenticates and stores the issued pair.
func (c *Client) Login(ctx context.Context, identifier, secret string) error {
	body, err := json.Marshal(dto.LoginRequest{Identifier: identifier, Secret: secret})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: status %d", resp.StatusCode)
	}

	var session dto.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return err
	}
	c.SetTokens(session.AccessToken, session.RefreshToken)
	return nil
}

// EnsureFreshSession performs one refresh exchange no matter how many
// callers hit it concurrently; all of them await the same outcome. A failed
// refresh is surfaced to every waiter instead of being retried per caller.
// The flight key clears once the exchange finishes, so the next expiry
// cycle starts a fresh one.
func (c *Client) EnsureFreshSession(ctx context.Context) error {
	ch := c.flight.DoChan(refreshFlightKey, func() (interface{}, error) {
		return nil, c.refresh()
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		// The exchange keeps running for the other waiters; this caller
		// just stops waiting. The flight releases when the exchange ends.
		return ctx.Err()
	}
}

// Do issues an authenticated request. A 401 triggers one coordinated
// refresh followed by a single retry.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	resp, err := c.doOnce(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	resp.Body.Close()

	if err := c.EnsureFreshSession(ctx); err != nil {
		return nil, ErrSessionExpired
	}
	return c.doOnce(ctx, method, path, body)
}

func (c *Client) doOnce(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	access, _ := c.Tokens()
	if access != "" {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: access})
	}
	return c.http.Do(req)
}

// refresh runs the actual exchange. Only ever invoked from inside the
// flight; uses the client's own timeout, not any single caller's context,
// so one cancelled waiter cannot abort the shared exchange.
func (c *Client) refresh() error {
	_, refreshToken := c.Tokens()
	if refreshToken == "" {
		return ErrSessionExpired
	}

	body, err := json.Marshal(dto.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: refreshToken})

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ErrSessionExpired
	}

	var session dto.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return err
	}
	c.SetTokens(session.AccessToken, session.RefreshToken)
	return nil
}
