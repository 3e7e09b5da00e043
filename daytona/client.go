package daytona

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultAPIURL is the public Daytona API endpoint
const DefaultAPIURL = "https://api.daytona.io"

const defaultTimeout = 300 * time.Second

// Config holds configuration for the API client
type Config struct {
	APIKey         string
	APIURL         string
	Target         string
	OrganizationID string
	Timeout        time.Duration
}

// APIClient implements Client against the Daytona REST API
type APIClient struct {
	logger     *zap.Logger
	config     *Config
	httpClient *http.Client
}

// Option defines a functional option for APIClient
type Option func(*APIClient)

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *APIClient) {
		c.httpClient = hc
	}
}

// WithInsecureTLS disables TLS certificate verification. Only used as the
// scripted fallback after a failed creation attempt; never the default.
func WithInsecureTLS() Option {
	return func(c *APIClient) {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // deliberate relaxed-TLS fallback
		c.httpClient = &http.Client{
			Timeout:   c.httpClient.Timeout,
			Transport: transport,
		}
	}
}

// NewClient creates a new API client with default implementations and
// optional overrides
func NewClient(logger *zap.Logger, config *Config, opts ...Option) (*APIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("daytona API key is required")
	}

	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	config.APIURL = strings.TrimRight(apiURL, "/")

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &APIClient{
		logger:     logger,
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}

	// Apply options
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// APIError represents a non-2xx response from the provider
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("daytona API error: status %d: %s", e.StatusCode, e.Message)
}

// CreateSandbox provisions a new sandbox
func (c *APIClient) CreateSandbox(ctx context.Context, params CreateParams) (*Sandbox, error) {
	if params.Target == "" {
		params.Target = c.config.Target
	}

	c.logger.Info("creating sandbox",
		zap.String("target", params.Target),
		zap.String("repository", params.Repository))

	var sandbox Sandbox
	if err := c.do(ctx, http.MethodPost, "/sandbox", params, &sandbox); err != nil {
		return nil, fmt.Errorf("failed to create sandbox: %w", err)
	}

	c.logger.Info("sandbox created", zap.String("sandbox_id", sandbox.ID))
	return &sandbox, nil
}

// GetSandbox resolves an existing sandbox by identifier
func (c *APIClient) GetSandbox(ctx context.Context, id string) (*Sandbox, error) {
	var sandbox Sandbox
	path := "/sandbox/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, path, nil, &sandbox); err != nil {
		return nil, fmt.Errorf("failed to get sandbox %s: %w", id, err)
	}
	return &sandbox, nil
}

// ExecCommand runs a shell command inside the sandbox via the toolbox API
func (c *APIClient) ExecCommand(ctx context.Context, sandboxID string, req ExecRequest) (ExecResult, error) {
	c.logger.Debug("executing command in sandbox",
		zap.String("sandbox_id", sandboxID),
		zap.String("cmd", req.Command),
		zap.Bool("background", req.Background))

	var result ExecResult
	path := "/sandbox/" + url.PathEscape(sandboxID) + "/toolbox/process/execute"
	if err := c.do(ctx, http.MethodPost, path, req, &result); err != nil {
		return ExecResult{}, fmt.Errorf("failed to execute command: %w", err)
	}
	return result, nil
}

// PreviewLink returns the preview URL and access token for a port
func (c *APIClient) PreviewLink(ctx context.Context, sandboxID string, port int) (PreviewLink, error) {
	var link PreviewLink
	path := fmt.Sprintf("/sandbox/%s/ports/%d/preview-url", url.PathEscape(sandboxID), port)
	if err := c.do(ctx, http.MethodGet, path, nil, &link); err != nil {
		return PreviewLink{}, fmt.Errorf("failed to get preview link for port %d: %w", port, err)
	}
	return link, nil
}

// UserRootDir returns the sandbox user's root directory path
func (c *APIClient) UserRootDir(ctx context.Context, sandboxID string) (string, error) {
	var out struct {
		Dir string `json:"dir"`
	}
	path := "/sandbox/" + url.PathEscape(sandboxID) + "/toolbox/project-dir"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", fmt.Errorf("failed to get root directory: %w", err)
	}
	return out.Dir, nil
}

// do issues a JSON request against the provider API and decodes the
// response into out when non-nil
func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.APIURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("X-Daytona-Source", "previewctl")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.OrganizationID != "" {
		req.Header.Set("X-Daytona-Organization-ID", c.config.OrganizationID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.apiError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// apiError extracts the provider's error message from a failed response
func (c *APIClient) apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var payload struct {
		Message string `json:"message"`
	}
	message := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		message = payload.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}
