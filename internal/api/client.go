package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the backend origin. Override at build time with
// -ldflags "-X github.com/quizgen-dev/quizgen/internal/api.DefaultBaseURL=..."
var DefaultBaseURL = "http://localhost:5000"

const (
	defaultTimeout = 60 * time.Second
	maxBodySize    = 4 << 20
)

// TokenSource supplies the persisted bearer token.
// LoadToken returns "" with a nil error when nothing is persisted.
type TokenSource interface {
	LoadToken() (string, error)
}

// Client represents an HTTP client for the content generation API
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the overall timeout applied to each request
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{
			Timeout:   timeout,
			Transport: c.httpClient.Transport,
		}
	}
}

// New creates a new API client. tokens may be nil for a client that never
// sends credentials.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTokens returns a copy of the client that reads its bearer token from
// tokens. The underlying http.Client is shared.
func (c *Client) WithTokens(tokens TokenSource) *Client {
	clone := *c
	clone.tokens = tokens
	return &clone
}

// BaseURL returns the backend origin requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends a JSON request and decodes a JSON response into out.
// requiresAuth marks endpoints that need a session; a 401 from them is
// reported as ErrUnauthorized.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, requiresAuth bool) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.LoadToken()
		if err != nil {
			return fmt.Errorf("failed to load token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(resp.StatusCode, data, requiresAuth)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Login authenticates the user and returns a bearer token
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	reqBody := LoginRequest{
		Email:    email,
		Password: password,
	}

	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", reqBody, &resp, false); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login response did not include a token")
	}
	return &resp, nil
}

// Register creates an account and returns a bearer token for it
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	reqBody := RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	}

	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", reqBody, &resp, false); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("register response did not include a token")
	}
	return &resp, nil
}

// Me returns the user the current token belongs to
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user, true); err != nil {
		return nil, err
	}
	return &user, nil
}

// Generate asks the backend for a new piece of educational content
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/content/generate", req, &raw, true); err != nil {
		return nil, err
	}
	return decodeGenerateResponse(raw)
}

// TestAI probes the backend's connection to its language model
func (c *Client) TestAI(ctx context.Context) (*AIStatus, error) {
	var status AIStatus
	err := c.do(ctx, http.MethodGet, "/api/content/test-ai", nil, &status, false)
	if err != nil {
		// test-ai reports a broken model connection as a 500 with a status body
		if apiErr, ok := AsError(err); ok && apiErr.Status == http.StatusInternalServerError {
			if jsonErr := json.Unmarshal([]byte(apiErr.Body), &status); jsonErr == nil && status.Status != "" {
				return &status, nil
			}
		}
		return nil, err
	}
	return &status, nil
}
