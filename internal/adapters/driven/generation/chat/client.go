package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Default client settings.
const (
	DefaultTimeout    = 120 * time.Second
	DefaultAttempts   = 3
	DefaultRetryDelay = 250 * time.Millisecond

	maxRetryDelay    = 2 * time.Second
	maxResponseBytes = 4 << 20
	maxErrorBody     = 512
)

// Config configures a Client.
type Config struct {
	// Provider names the backend in error messages ("openai", "ollama").
	Provider string

	// Timeout bounds one HTTP exchange. The caller's ctx deadline still
	// applies across retries.
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing calls. Zero disables throttling.
	RequestsPerSecond float64

	// Attempts is the total number of tries for a retryable failure.
	Attempts uint

	// RetryDelay is the initial backoff between attempts.
	RetryDelay time.Duration
}

// Client sends JSON requests to a generation API.
type Client struct {
	provider string
	http     *http.Client
	limiter  *rate.Limiter
	attempts uint
	delay    time.Duration
}

// NewClient creates a client, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	c := &Client{
		provider: cfg.Provider,
		http:     &http.Client{Timeout: cfg.Timeout},
		attempts: cfg.Attempts,
		delay:    cfg.RetryDelay,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

// PostJSON marshals body, posts it to endpoint and decodes a 200 response
// into out. Transient failures are retried.
func (c *Client) PostJSON(ctx context.Context, endpoint string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.provider, err)
	}

	err = retry.Do(
		func() error {
			return c.post(ctx, endpoint, headers, payload, out)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(Retryable),
	)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrBackendFailure) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrBackendFailure, c.provider, err)
}

func (c *Client) post(ctx context.Context, endpoint string, headers map[string]string, payload []byte, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate limiter: %w", c.provider, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", c.provider, err)
	}

	if resp.StatusCode != http.StatusOK {
		return newStatusError(c.provider, resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %w", domain.ErrBackendFailure, c.provider, err)
	}
	return nil
}

// Get issues a single GET and fails on any non-200 status. It is used for
// connectivity checks and is never retried.
func (c *Client) Get(ctx context.Context, endpoint string, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: failed to create ping request: %w", c.provider, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: ping failed: %w", c.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newStatusError(c.provider, resp.StatusCode, data)
	}
	return nil
}

// CloseIdle drops pooled connections.
func (c *Client) CloseIdle() {
	c.http.CloseIdleConnections()
}

// StatusError is a non-200 response from a generation API.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func newStatusError(provider string, code int, body []byte) *StatusError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &StatusError{Provider: provider, Code: code, Body: string(bytes.TrimSpace(body))}
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: API returned status %d", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s: API returned status %d: %s", e.Provider, e.Code, e.Body)
}

// Is matches domain.ErrBackendFailure, and domain.ErrRateLimited for 429.
func (e *StatusError) Is(target error) bool {
	switch target {
	case domain.ErrBackendFailure:
		return true
	case domain.ErrRateLimited:
		return e.Code == http.StatusTooManyRequests
	}
	return false
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// Retryable reports whether err is a transient failure: a 429 or 5xx
// status, or a transport error that is not a cancellation.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	var ue *url.Error
	return errors.As(err, &ue)
}
