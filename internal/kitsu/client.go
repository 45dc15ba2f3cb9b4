package kitsu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kitsusync/internal/logging"
	"kitsusync/internal/services"
)

const userAgent = "kitsusync/1.0"

// HTTPDoer describes the HTTP client used by the Kitsu client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues authenticated requests against a Kitsu API root.
// It is safe for concurrent use once authenticated.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPDoer
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets a per-request timeout on the default HTTP client.
// Zero keeps the net/http default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout <= 0 {
			return
		}
		if hc, ok := c.httpClient.(*http.Client); ok {
			clone := *hc
			clone.Timeout = timeout
			c.httpClient = &clone
		}
	}
}

// WithToken installs a pre-issued bearer token so Authenticate can be skipped.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Kitsu client rooted at baseURL, for example
// https://kitsu.example.com/api.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "kitsu", "new client", "base url required", nil)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "kitsu", "new client", "parse base url", err)
	}
	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Authenticated reports whether the client holds a bearer token.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

type loginResponse struct {
	AccessToken string          `json:"access_token"`
	Error       json.RawMessage `json:"error"`
	Message     string          `json:"message"`
}

// Authenticate exchanges credentials for an access token. A response that
// carries an error field aborts with services.ErrAuth and the server message.
func (c *Client) Authenticate(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return services.Wrap(services.ErrConfiguration, "kitsu", "login", "email and password required", nil)
	}

	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/auth/login"), strings.NewReader(form.Encode()))
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "kitsu", "login", "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	body, status, latency, err := c.send(req)
	if err != nil {
		return services.Wrap(services.ErrUpstream, "kitsu", "login", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}

	var payload loginResponse
	decodeErr := json.Unmarshal(body, &payload)
	if decodeErr == nil && len(payload.Error) > 0 && string(payload.Error) != "null" && string(payload.Error) != "false" {
		message := strings.TrimSpace(payload.Message)
		if message == "" {
			message = "login rejected"
		}
		return services.Wrap(services.ErrAuth, "kitsu", "login", message, nil)
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.Wrap(services.ErrAuth, "kitsu", "login", fmt.Sprintf("login returned %d", status), nil)
	case status < 200 || status > 299:
		return services.Wrap(services.ErrUpstream, "kitsu", "login", fmt.Sprintf("login returned %d (latency=%v)", status, latency), nil)
	case decodeErr != nil:
		return services.Wrap(services.ErrUpstream, "kitsu", "login", "decode response", decodeErr)
	}

	token := strings.TrimSpace(payload.AccessToken)
	if token == "" {
		return services.Wrap(services.ErrAuth, "kitsu", "login", "response carried no access token", nil)
	}
	c.token = token
	c.logger.Debug("kitsu login succeeded", logging.Duration("latency", latency))
	return nil
}

// Get issues an authenticated GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return services.Wrap(services.ErrUpstream, "kitsu", "GET "+path, "decode response", err)
	}
	return nil
}

// GetBytes issues an authenticated GET and returns the raw response body.
func (c *Client) GetBytes(ctx context.Context, path string) ([]byte, error) {
	return c.get(ctx, path, nil)
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.endpoint(path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "kitsu", "GET "+path, "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	body, status, latency, err := c.send(req)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "kitsu", "GET "+path, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	c.logger.Debug("kitsu request",
		logging.String("path", path),
		logging.Int("status", status),
		logging.Int("bytes", len(body)),
		logging.Duration("latency", latency),
	)
	if status < 200 || status > 299 {
		marker := services.ErrUpstream
		if status == http.StatusUnauthorized {
			marker = services.ErrAuth
		}
		return nil, services.Wrap(marker, "kitsu", "GET "+path, fmt.Sprintf("returned %d (latency=%v)", status, latency), nil)
	}
	return body, nil
}

func (c *Client) send(req *http.Request) ([]byte, int, time.Duration, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return nil, 0, latency, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, latency, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, latency, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}
