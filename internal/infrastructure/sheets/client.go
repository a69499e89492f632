// Package sheets talks to the spreadsheet CSV export and the order
// form-handling script over HTTP.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	// DefaultMaxBodySize caps catalog and submission responses (10MB)
	DefaultMaxBodySize = 10 * 1024 * 1024

	// maxErrorBodySize caps the response text quoted in submission errors
	maxErrorBodySize = 2048
)

// ErrBodyTooLarge is wrapped when a response exceeds the configured size
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// Client fetches catalog documents and submits orders
type Client struct {
	httpClient  *http.Client
	maxBodySize int64
	logger      *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the instrumented default client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMaxBodySize sets the response size limit
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

// WithLogger sets the client logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client whose requests are traced with otelhttp
func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxBodySize: DefaultMaxBodySize,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("sheets")
	return c
}

// FetchCatalog downloads the CSV document at endpoint. Transport failures,
// non-2xx responses and oversized bodies are fetch errors.
func (c *Client) FetchCatalog(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, shared.NewFetchError("Invalid catalog request", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, shared.NewFetchError("Failed to fetch catalog", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, shared.NewFetchError(fmt.Sprintf("HTTP error! status: %d", resp.StatusCode), nil)
	}

	body, err := c.readBody(resp.Body)
	if err != nil {
		return nil, shared.NewFetchError("Failed to read catalog", err)
	}

	c.logger.Debug("Catalog fetched",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
	)
	return body, nil
}

// SubmitOrder posts the payload as a url-encoded "data" field. Any 2xx
// response is success; otherwise the response text is reported.
func (c *Client) SubmitOrder(ctx context.Context, endpoint string, payload order.Payload) error {
	data, err := payload.Encode()
	if err != nil {
		return shared.NewSubmissionError("Failed to encode order", err)
	}
	form := url.Values{}
	form.Set("data", string(data))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return shared.NewSubmissionError("Invalid order request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return shared.NewSubmissionError("Failed to reach order endpoint", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		message := strings.TrimSpace(string(text))
		if message == "" {
			message = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return shared.NewSubmissionError("Apps Script error: "+message, nil)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize))

	c.logger.Info("Order submitted",
		zap.String("order_id", payload.OrderID),
		zap.Int("status", resp.StatusCode),
		zap.Int("items", len(payload.Items)),
	)
	return nil
}

func (c *Client) readBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, c.maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, c.maxBodySize)
	}
	return body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
