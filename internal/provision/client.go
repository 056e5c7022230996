// Package provision pushes network credentials to a device's setup portal.
package provision

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/wifistat/internal/credentials"
	"github.com/muurk/wifistat/internal/logging"
	"github.com/muurk/wifistat/internal/version"
	"go.uber.org/zap"
)

const (
	// DefaultAddress is where the portal listens on the setup network
	DefaultAddress = "192.168.4.1"

	// DefaultPort is the portal HTTP port on the device
	DefaultPort = 80

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the number of retries after the first attempt
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the fixed delay between attempts
	DefaultRetryDelay = time.Second
)

// Client talks to one portal.
type Client struct {
	// BaseURL is the portal root, e.g. "http://192.168.4.1:80"
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the number of retries for retryable failures
	MaxRetries int

	// RetryDelay is the fixed wait between attempts
	RetryDelay time.Duration
}

// NewClient creates a client for host:port.
func NewClient(host string, port int) *Client {
	return NewClientWithURL("http://" + net.JoinHostPort(host, strconv.Itoa(port)))
}

// NewClientWithURL creates a client with a full base URL.
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Ping checks that the portal serves its form.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return ClassifyNetworkError("failed to create ping request", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return ClassifyNetworkError("portal unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return NewStatusError(resp.StatusCode, "")
	}
	return nil
}

// Provision submits creds to /save. Retryable failures are retried at a
// fixed interval; on success the device restarts and the portal goes away.
func (c *Client) Provision(ctx context.Context, creds credentials.Credentials) (string, error) {
	if !creds.Valid() {
		return "", NewValidationError("network name and secret must both be non-empty")
	}

	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.RetryDelay):
			}
		}

		body, err := c.provisionAttempt(ctx, creds)
		if err == nil {
			logging.Info("Credentials provisioned",
				zap.String("portal", c.BaseURL),
				zap.String("network", creds.NetworkName),
				zap.Int("attempts", attempt+1),
			)
			return body, nil
		}
		lastErr = err
		logging.Debug("Provision attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))

		if !IsRetryable(err) {
			return "", err
		}
	}
	return "", lastErr
}

func (c *Client) provisionAttempt(ctx context.Context, creds credentials.Credentials) (string, error) {
	form := url.Values{}
	form.Set(credentials.FieldNetworkName, creds.NetworkName)
	form.Set(credentials.FieldSecret, creds.Secret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/save", strings.NewReader(form.Encode()))
	if err != nil {
		return "", ClassifyNetworkError("failed to create POST request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", ClassifyNetworkError("POST request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode != http.StatusOK {
		return "", NewStatusError(resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return strings.TrimSpace(string(body)), nil
}
