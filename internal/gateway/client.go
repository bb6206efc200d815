// Package gateway is the HTTP client for the remote portal API. It is the
// only package that talks to the network: bearer authentication, per-request
// correlation IDs, bounded retries for idempotent GETs, and normalization of
// the gateway's inconsistent response envelopes all live here.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client talks to the portal gateway. The token is fixed at construction:
// one session read per client lifecycle, never re-read per request.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *zap.Logger
	retries    int
	backoff    time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRetries sets the max attempts for idempotent GETs.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 1 {
			c.retries = n
		}
	}
}

// WithBackoff sets the base retry backoff. Tests set this to zero.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// New creates a gateway client for baseURL authenticated with token. An empty
// token is allowed at construction; every call will then fail locally with
// ErrNoToken.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        zap.NewNop(),
		retries:    3,
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get issues an authenticated GET and decodes the response into out.
// Transport failures and 5xx responses are retried with exponential backoff;
// 4xx responses are not retried.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if c.token == "" {
		return ErrNoToken
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		c.setHeaders(req, "")

		err = c.do(req, out)
		if err == nil {
			return nil
		}
		lastErr = err

		// Validation and auth failures are final.
		if apiErr, ok := err.(*APIError); ok && apiErr.Status < 500 {
			return err
		}
		if ctx.Err() != nil {
			return lastErr
		}
		if attempt < c.retries {
			wait := c.backoff * time.Duration(1<<(attempt-1)) // 1s, 2s, 4s
			c.log.Warn("gateway GET failed, retrying",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return lastErr
			}
		}
	}
	return lastErr
}

// send issues an authenticated mutating request (POST/PUT). Mutations are
// never retried; the operator decides whether to resubmit.
func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	if c.token == "" {
		return ErrNoToken
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	c.setHeaders(req, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, out)
}

func (c *Client) setHeaders(req *http.Request, idempotencyKey string) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
}

// errorBody is the gateway's failure envelope. Validation failures key
// messages by field under "errors".
type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", req.Method, req.URL.Path, err)
	}

	c.log.Debug("gateway request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= 400 {
		return apiErrorFrom(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func apiErrorFrom(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}

	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			apiErr.Message = body.Message
		}
		for field, msgs := range body.Errors {
			if len(msgs) > 0 {
				apiErr.Field = field
				apiErr.Message = msgs[0]
				break
			}
		}
	}
	return apiErr
}
