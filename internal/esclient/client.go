// Package esclient provides the Elasticsearch transport layer for exports.
package esclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/esdrain/esdrain/internal/scroll"
)

// DefaultTimeout bounds how long the client waits for a single network
// round-trip. It is distinct from the scroll keep-alive, which bounds how
// long the server keeps cursor state alive between calls.
const DefaultTimeout = 10 * time.Second

// Config contains Elasticsearch connection configuration.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Timeout   time.Duration

	// Transport overrides the HTTP transport. Used in tests.
	Transport http.RoundTripper
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addresses: []string{"http://localhost:9200"},
		Timeout:   DefaultTimeout,
	}
}

// Client wraps the official Elasticsearch client with the three round-trips
// the export core depends on. It is stateless with respect to any single
// session and may be shared across concurrently running sessions.
type Client struct {
	es      *elasticsearch.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Ensure *Client satisfies the export core's transport surface at compile time.
var _ scroll.Backend = (*Client)(nil)

// Option configures the client.
type Option func(*Client)

// WithLogger sets the logger used for request-level diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a connected client from the given configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New("at least one elasticsearch address is required")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client; %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		es:      es,
		timeout: timeout,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Search issues the initial query, requesting a scroll cursor kept alive
// for keepAlive. The raw body is returned regardless of HTTP status; the
// extraction layer detects backend errors embedded in the payload, which
// some responses carry inside an otherwise-successful envelope.
func (c *Client) Search(ctx context.Context, index string, body io.Reader, size int, keepAlive time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(body),
		c.es.Search.WithSize(size),
		c.es.Search.WithScroll(keepAlive),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed; %w", err)
	}

	c.logger.Debug("search round-trip", "index", index, "size", size, "status", res.StatusCode)
	return readBody(res)
}

// Scroll advances the cursor, renewing its keep-alive window.
func (c *Client) Scroll(ctx context.Context, scrollID string, keepAlive time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.es.Scroll(
		c.es.Scroll.WithContext(ctx),
		c.es.Scroll.WithScrollID(scrollID),
		c.es.Scroll.WithScroll(keepAlive),
	)
	if err != nil {
		return nil, fmt.Errorf("scroll request failed; %w", err)
	}

	c.logger.Debug("scroll round-trip", "status", res.StatusCode)
	return readBody(res)
}

// ClearScroll releases the server-side cursor state. Unlike Search and
// Scroll, a non-2xx status is a failure here: release has no payload worth
// inspecting.
func (c *Client) ClearScroll(ctx context.Context, scrollID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.es.ClearScroll(
		c.es.ClearScroll.WithContext(ctx),
		c.es.ClearScroll.WithScrollID(scrollID),
	)
	if err != nil {
		return fmt.Errorf("clear scroll request failed; %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("clear scroll returned status %s", res.Status())
	}

	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

// readBody drains and closes the response body.
func readBody(res *esapi.Response) ([]byte, error) {
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body; %w", err)
	}
	return data, nil
}
