// Package scroll implements a resilient bulk-export cursor over an
// Elasticsearch-style scroll API: an initial query opens a server-side
// cursor, continuations drain the result set in bounded batches with a
// bounded immediate-retry budget, and the cursor is released exactly once
// when the export finishes or is abandoned.
package scroll

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/esdrain/esdrain/internal/metrics"
)

const (
	// DefaultKeepAlive is the server-side cursor validity window, renewed
	// on every successful continuation. Distinct from the per-call network
	// timeout, which the transport layer owns.
	DefaultKeepAlive = 10 * time.Minute

	// DefaultMaxRetries is the continuation retry budget.
	DefaultMaxRetries = 3
)

const (
	opSearch   = "search"
	opContinue = "continue"
	opRelease  = "release"
)

// Backend is the transport surface the scroller depends on. Implementations
// issue the network round-trips and return raw response bodies; they must
// not interpret the payload, since backend errors can be embedded in
// otherwise-successful responses and are detected during extraction.
type Backend interface {
	// Search issues the initial query against index, requesting a cursor
	// kept alive for keepAlive between calls.
	Search(ctx context.Context, index string, body io.Reader, size int, keepAlive time.Duration) ([]byte, error)

	// Scroll advances the cursor identified by scrollID, renewing its
	// validity window.
	Scroll(ctx context.Context, scrollID string, keepAlive time.Duration) ([]byte, error)

	// ClearScroll releases the server-side cursor state.
	ClearScroll(ctx context.Context, scrollID string) error
}

// Scroller drains a query's full result set through a scroll cursor.
// It is safe for concurrent use; each export session must use its own
// cursor, but sessions may share one Scroller and its Backend.
type Scroller struct {
	backend    Backend
	index      string
	query      string
	keepAlive  time.Duration
	retryDelay time.Duration
	logger     *slog.Logger
}

// Option configures a Scroller.
type Option func(*Scroller)

// WithKeepAlive overrides the cursor validity window.
func WithKeepAlive(d time.Duration) Option {
	return func(s *Scroller) {
		if d > 0 {
			s.keepAlive = d
		}
	}
}

// WithRetryDelay sets a delay between continuation retry attempts.
// The default is zero: retries are immediate.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Scroller) {
		if d > 0 {
			s.retryDelay = d
		}
	}
}

// WithLogger sets the logger used for retry reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scroller) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Scroller for the given index and raw query body.
func New(backend Backend, index, query string, opts ...Option) *Scroller {
	s := &Scroller{
		backend:   backend,
		index:     index,
		query:     query,
		keepAlive: DefaultKeepAlive,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Search issues the initial query and opens the cursor. The query body is
// validated before any network call; a parse failure is a MalformedQuery
// error. Exactly one attempt is made; retry policy belongs to the caller.
func (s *Scroller) Search(ctx context.Context, batchSize int) (*Result, error) {
	if batchSize <= 0 {
		return nil, &Error{Kind: KindMalformedQuery, Op: opSearch, Err: fmt.Errorf("batch size must be positive, got %d", batchSize)}
	}
	if !json.Valid([]byte(s.query)) {
		return nil, &Error{Kind: KindMalformedQuery, Op: opSearch, Err: fmt.Errorf("query body is not valid JSON")}
	}

	raw, err := s.backend.Search(ctx, s.index, strings.NewReader(s.query), batchSize, s.keepAlive)
	if err != nil {
		return nil, &Error{Kind: KindTransportFailure, Op: opSearch, Err: err}
	}

	return extract(opSearch, raw)
}

// Continue makes a single continuation attempt with the given cursor. On
// success the returned Result carries a new cursor that supersedes the one
// passed in; the caller must always continue with the latest cursor.
func (s *Scroller) Continue(ctx context.Context, scrollID string) (*Result, error) {
	raw, err := s.backend.Scroll(ctx, scrollID, s.keepAlive)
	if err != nil {
		return nil, &Error{Kind: KindTransportFailure, Op: opContinue, Err: err}
	}

	return extract(opContinue, raw)
}

// ContinueWithRetry wraps Continue with a bounded retry loop: maxRetries
// failures are retried (immediately unless a retry delay is configured)
// before the last error is propagated unchanged. Every retry reuses the
// same cursor, since a failed continuation does not consume it, and every
// triggering error is logged before the next attempt.
func (s *Scroller) ContinueWithRetry(ctx context.Context, scrollID string, maxRetries int) (*Result, error) {
	retries := maxRetries
	for {
		result, err := s.Continue(ctx, scrollID)
		if err == nil {
			return result, nil
		}
		if retries <= 0 {
			return nil, err
		}
		retries--

		metrics.RetriesTotal.Inc()
		s.logger.Warn("retrying continuation", "error", err, "remaining", retries)

		if s.retryDelay > 0 {
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
				return nil, err
			}
		}
	}
}

// Release destroys the server-side cursor. The backend does not guarantee
// idempotency, so callers release at most once per session; a failure is a
// ReleaseFailure, to be reported but never retried.
func (s *Scroller) Release(ctx context.Context, scrollID string) error {
	if err := s.backend.ClearScroll(ctx, scrollID); err != nil {
		return &Error{Kind: KindReleaseFailure, Op: opRelease, Err: err}
	}
	return nil
}
