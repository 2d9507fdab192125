// Package transport is the HTTP plumbing shared by the generation providers:
// request pacing, retry with backoff, and mapping of failures to sentinel errors.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
)

// Sentinel errors for provider failures.
var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
	ErrRateLimited         = errors.New("ai provider rate limited")
	ErrUnauthorized        = errors.New("ai provider rejected credentials")
)

const (
	defaultRetryInterval = 500 * time.Millisecond
	maxErrorBody         = 512
)

// Options configures a Client.
type Options struct {
	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// RequestsPerMin paces outgoing requests. Zero disables pacing.
	RequestsPerMin int
	// RetryInterval is the initial backoff interval.
	RetryInterval time.Duration
	HTTPClient    *http.Client
}

// Client posts JSON to provider endpoints.
type Client struct {
	http          *http.Client
	limiter       *rate.Limiter
	maxRetries    int
	retryInterval time.Duration
}

// New creates a Client from opts.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RequestsPerMin > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMin))
	}

	interval := opts.RetryInterval
	if interval <= 0 {
		interval = defaultRetryInterval
	}

	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return &Client{
		http:          hc,
		limiter:       rate.NewLimiter(limit, 1),
		maxRetries:    retries,
		retryInterval: interval,
	}
}

// PostJSON sends in as a JSON body to url and decodes the response into out.
// Rate limiting and 5xx/network failures are retried with exponential backoff;
// every other failure returns immediately.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return struct{}{}, backoff.Permanent(classifyError(ctx.Err()))
			}
			return struct{}{}, backoff.Permanent(fmt.Errorf("%w: %v", ErrRateLimited, err))
		}
		err := c.do(ctx, url, headers, body, out)
		if err == nil {
			return struct{}{}, nil
		}
		if !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		slog.Warn("provider request failed, retrying", "url", url, "attempt", attempt, "error", err)
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(c.maxRetries+1)))

	if err != nil && ctx.Err() != nil && !errors.Is(err, ErrInferenceTimeout) {
		return classifyError(err)
	}
	return err
}

func (c *Client) do(ctx context.Context, url string, headers map[string]string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return classifyError(ctx.Err())
		}
		return fmt.Errorf("%w: decoding response: %v", ErrInvalidResponse, err)
	}
	return nil
}

func classifyStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := fmt.Sprintf("status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, msg)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", ErrProviderUnavailable, msg)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", ErrProviderUnavailable, msg)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidResponse, msg)
	}
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}

func retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrProviderUnavailable)
}
