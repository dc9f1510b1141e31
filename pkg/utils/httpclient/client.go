// Package httpclient provides an HTTP client with bounded retries and
// trace-context propagation for outbound provider calls.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/loaddesk/loaddesk/pkg/utils/json"
)

// Client wraps http.Client with retry behaviour for transient upstream errors.
type Client struct {
	httpClient *http.Client
	maxRetries int
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithMaxRetries sets how many times 5xx responses are retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithTransport sets a custom transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// New creates a Client with sane defaults.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DoRequest executes the request, retrying on 5xx with linear backoff.
// bodyGetter re-creates the body so retries can replay it.
func (c *Client) DoRequest(ctx context.Context, method, url string, headers map[string]string, bodyGetter func() (io.Reader, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		var body io.Reader
		if bodyGetter != nil {
			var err error
			if body, err = bodyGetter(); err != nil {
				return nil, fmt.Errorf("failed to build request body: %w", err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		injectTraceContext(ctx, req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			lastErr = fmt.Errorf("upstream returned %d: %s", resp.StatusCode, string(data))
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// DoJSON posts a JSON payload and decodes the JSON response into out.
// Non-2xx responses return an error containing the response body.
func (c *Client) DoJSON(ctx context.Context, method, url string, headers map[string]string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	if headers == nil {
		headers = map[string]string{}
	}
	headers["Content-Type"] = "application/json"

	resp, err := c.DoRequest(ctx, method, url, headers, func() (io.Reader, error) {
		return bytes.NewReader(payload), nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upstream returned %d: %s", resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// injectTraceContext propagates the active trace context into request headers.
func injectTraceContext(ctx context.Context, req *http.Request) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}
