// Package transport sends a single JSON request over HTTP and classifies the
// outcome into the typed errors of package llmerr. It knows nothing about
// provider-specific response envelopes.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/maximbilan/llmbridge/internal/llmerr"
	"github.com/sashabaranov/go-openai"
)

const (
	// DefaultTimeout bounds a single request when no timeout is configured.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize caps how much of a response body is read (10MB).
	MaxResponseSize = 10 * 1024 * 1024
)

// Transport issues one JSON request and returns the parsed response body.
type Transport interface {
	Request(ctx context.Context, method, url string, body any, headers map[string]string) (json.RawMessage, error)
}

// Func adapts an ordinary function to the Transport interface.
type Func func(ctx context.Context, method, url string, body any, headers map[string]string) (json.RawMessage, error)

// Request calls f.
func (f Func) Request(ctx context.Context, method, url string, body any, headers map[string]string) (json.RawMessage, error) {
	return f(ctx, method, url, body, headers)
}

// Option configures an HTTPTransport.
type Option func(*HTTPTransport)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(t *HTTPTransport) { t.client = c }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(t *HTTPTransport) {
		if d > 0 {
			t.client = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(t *HTTPTransport) {
		if l != nil {
			t.logger = l
		}
	}
}

// HTTPTransport implements Transport on top of net/http.
type HTTPTransport struct {
	client *http.Client
	logger *slog.Logger
}

// NewHTTP creates an HTTPTransport. The underlying client is read-only after
// construction, so one transport may serve concurrent requests.
func NewHTTP(opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		client: &http.Client{Timeout: DefaultTimeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Request serializes body as JSON, sends it and classifies the result.
func (t *HTTPTransport) Request(ctx context.Context, method, url string, body any, headers map[string]string) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	logger := t.logger.With("request_id", uuid.NewString(), "method", method, "url", url)

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		// A malformed endpoint is reported the same way as an unreachable one.
		return nil, &llmerr.NetworkError{URL: url, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		logger.Debug("request failed", "error", err, "duration", time.Since(start))
		return nil, &llmerr.NetworkError{URL: url, Err: err}
	}
	defer httpResp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, MaxResponseSize))
	if err != nil {
		return nil, &llmerr.NetworkError{URL: url, Err: fmt.Errorf("reading response body: %w", err)}
	}

	logger.Debug("request completed", "status", httpResp.StatusCode, "duration", time.Since(start))

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &llmerr.HTTPError{
			Status:  httpResp.StatusCode,
			Body:    string(respBody),
			Message: errorMessage(respBody),
		}
	}

	if !json.Valid(respBody) {
		return nil, &llmerr.ResponseShapeError{Reason: "response body is not valid JSON"}
	}

	return json.RawMessage(respBody), nil
}

// errorMessage extracts error.message from an error envelope. Anthropic,
// OpenAI and Azure all use this shape.
func errorMessage(body []byte) string {
	var envelope openai.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return ""
	}
	return envelope.Error.Message
}
