package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/models"
)

const (
	DefaultBaseURL   = "http://localhost:8080"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the AuthAPI interface over the Rampart HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new auth API client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a rejection from the auth API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// envelope is the server's standard response wrapper.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// do performs a rate-limited request and decodes the response envelope into
// result (when non-nil).
func (c *Client) do(ctx context.Context, method, path, token string, body, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug().Str("method", method).Str("path", path).Msg("auth API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode), Endpoint: path}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || env.Status != "ok" {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg, Endpoint: path}
	}

	if result != nil {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	var result models.AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Signup registers a new account. Role is optional; the server defaults it.
func (c *Client) Signup(ctx context.Context, name, email, password, role string) (*models.AuthResult, error) {
	payload := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}
	if role != "" {
		payload["role"] = role
	}
	var result models.AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", "", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// VerifyToken checks whether a bearer token is still valid.
func (c *Client) VerifyToken(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodGet, "/api/auth/verify", token, nil, nil)
}

// UpdateProfile applies a partial profile update and returns the merged user.
func (c *Client) UpdateProfile(ctx context.Context, token string, patch *models.ProfilePatch) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPut, "/api/user/profile", token, patch, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ResendCode asks the server to re-issue a one-time code.
func (c *Client) ResendCode(ctx context.Context, email, purpose string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/otp/resend", "", map[string]string{
		"email":   email,
		"purpose": purpose,
	}, nil)
}
