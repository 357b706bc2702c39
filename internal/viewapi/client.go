package viewapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"xelis-stats/internal/observability"
)

// Default configuration values. Requests are not retried and carry no
// client-side timeout unless configured.
const (
	DefaultMaxRetries  = 0
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// RequestIDHeader carries a per-request id for backend log correlation.
const RequestIDHeader = "X-Request-ID"

// HTTPClient implements Fetcher over the REST views endpoint.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	logger      *slog.Logger
}

var _ Fetcher = (*HTTPClient)(nil)

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// NewHTTPClient creates a new views client. endpoint is the REST base URL,
// e.g. https://index.xelis.io.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    strings.TrimRight(endpoint, "/"),
		client:      &http.Client{},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Endpoint returns the REST base URL.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// ViewURL builds {base}/views/{view}?{params}.
func (c *HTTPClient) ViewURL(view string, params Params) string {
	u := c.endpoint + "/views/" + url.PathEscape(view)
	if q := params.Values().Encode(); q != "" {
		u += "?" + q
	}
	return u
}

// FetchView fetches a view. Retries (when enabled) apply to transport
// failures, 429 and 5xx responses with exponential backoff.
func (c *HTTPClient) FetchView(ctx context.Context, view string, params Params) (*Result, error) {
	start := time.Now()
	endpoint := c.ViewURL(view, params)
	reqID := uuid.NewString()

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
			c.logger.Debug("retrying view fetch", "view", view, "attempt", attempt, "request_id", reqID)
		}

		result, err := c.do(ctx, view, endpoint, reqID)
		if err == nil {
			observability.RecordViewFetch(view, time.Since(start).Seconds(), len(result.Rows))
			return result, nil
		}
		lastErr = err

		var fe *FetchError
		if !errors.As(err, &fe) || !fe.Temporary() || ctx.Err() != nil {
			break
		}
	}

	observability.RecordViewError(view, errorKind(lastErr))
	c.logger.Debug("view fetch failed", "view", view, "request_id", reqID, "error", lastErr)
	return nil, lastErr
}

func (c *HTTPClient) do(ctx context.Context, view, endpoint, reqID string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{View: view, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{View: view, Err: fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{View: view, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			View:       view,
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	return DecodeResult(view, body)
}

// DecodeResult parses a view response body. Numbers are kept as
// json.Number so large atomic amounts are not rounded.
func DecodeResult(view string, body []byte) (*Result, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var result Result
	if err := dec.Decode(&result); err != nil {
		return nil, &ParseError{View: view, Err: err}
	}
	if result.Rows == nil {
		result.Rows = []Row{}
	}
	return &result, nil
}

func errorKind(err error) string {
	var fe *FetchError
	var pe *ParseError
	switch {
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &fe) && fe.StatusCode != 0:
		return "status"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "transport"
}
