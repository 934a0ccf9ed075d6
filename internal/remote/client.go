// Package remote holds the thin JSON clients for the storefront API: cart,
// orders and payments. Each call runs under its own timeout and behind a
// circuit breaker per upstream.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

// ServerError carries a non-2xx answer from the storefront API. The upstream
// message is surfaced to the user when present.
type ServerError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream returned %d", e.StatusCode)
}

// errorBody is the JSON error envelope the storefront API uses.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Client is the shared HTTP plumbing for one upstream service.
type Client struct {
	name    string
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[*http.Response]
	timeout time.Duration
}

// NewClient builds a client for one upstream. The breaker opens after five
// consecutive failures and probes again after thirty seconds.
func NewClient(name, baseURL string, timeout time.Duration) *Client {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		name:    name,
		baseURL: baseURL,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cb:      cb,
		timeout: timeout,
	}
}

// doJSON performs one request and decodes the JSON answer into out (when out
// is non-nil). Non-2xx answers come back as *ServerError, everything else as
// a wrapped transport error.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", c.name, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	propagateHeaders(ctx, req)

	resp, err := c.cb.Execute(func() (*http.Response, error) {
		return c.http.Do(req)
	})
	if err != nil {
		return fmt.Errorf("%s unreachable: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeServerError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.name, err)
	}
	return nil
}

func decodeServerError(resp *http.Response) error {
	serverErr := &ServerError{StatusCode: resp.StatusCode}

	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		serverErr.Message = body.Error
		serverErr.Code = body.Code
	}
	return serverErr
}

// propagateHeaders forwards the caller identity and request id, when present
// in the context, so the upstream can correlate logs.
func propagateHeaders(ctx context.Context, req *http.Request) {
	if userID, ok := ctx.Value("user_id").(string); ok && userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if requestID, ok := ctx.Value("request_id").(string); ok && requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
}
