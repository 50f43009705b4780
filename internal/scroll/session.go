package scroll

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/esdrain/esdrain/internal/metrics"
)

// Consumer receives export batches. Implementations are expected to keep
// pace; the session applies no backpressure. Close is called exactly once
// with the terminal summary, on both successful and failed exports.
type Consumer interface {
	// Consume receives one batch of documents and the backend-reported
	// total match count. A non-nil error aborts the session.
	Consume(batch []json.RawMessage, total int64) error

	// Close receives the terminal signal. Documents already consumed
	// remain valid even when the summary carries an error.
	Close(summary Summary) error
}

// Summary describes how an export session ended.
type Summary struct {
	SessionID string
	Batches   int
	Documents int64
	Total     int64
	Duration  time.Duration
	Err       error
}

// Session drives one export from the initial query to exhaustion or
// failure, feeding batches to a consumer and releasing the cursor exactly
// once. A Session is single-use: one cursor, one in-flight request at a
// time.
type Session struct {
	scroller   *Scroller
	consumer   Consumer
	batchSize  int
	maxRetries int
	id         string
	logger     *slog.Logger
}

// NewSession creates a session over the given scroller and consumer.
func NewSession(scroller *Scroller, consumer Consumer, batchSize, maxRetries int) *Session {
	id := uuid.NewString()
	return &Session{
		scroller:   scroller,
		consumer:   consumer,
		batchSize:  batchSize,
		maxRetries: maxRetries,
		id:         id,
		logger:     scroller.logger.With("session", id),
	}
}

// ID returns the session identifier used in logs and the summary.
func (s *Session) ID() string {
	return s.id
}

// Run executes the export: one initial query, then continuations until the
// backend returns an empty batch (the authoritative exhaustion signal; the
// reported total can be approximate under concurrent mutation) or an
// unrecoverable error occurs. The cursor is released on both paths.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{SessionID: s.id}
	logger := s.logger

	finish := func(err error) (Summary, error) {
		summary.Duration = time.Since(start)
		summary.Err = err

		if closeErr := s.consumer.Close(summary); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to finalize consumer; %w", closeErr)
			summary.Err = err
		}

		if err != nil {
			metrics.SessionsTotal.WithLabelValues("failure").Inc()
			metrics.ErrorsTotal.WithLabelValues(KindOf(err).String()).Inc()
			logger.Error("export failed", "error", err, "documents", summary.Documents, "batches", summary.Batches)
			return summary, err
		}

		metrics.SessionsTotal.WithLabelValues("success").Inc()
		logger.Info("export finished",
			"documents", summary.Documents,
			"batches", summary.Batches,
			"total", summary.Total,
			"duration", summary.Duration)
		return summary, nil
	}

	result, err := s.scroller.Search(ctx, s.batchSize)
	if err != nil {
		return finish(err)
	}

	summary.Total = result.Total
	scrollID := result.ScrollID
	logger.Info("export started", "total", result.Total, "batch_size", s.batchSize)

	var runErr error
	for len(result.Hits) > 0 {
		batchStart := time.Now()

		if err := s.consumer.Consume(result.Hits, result.Total); err != nil {
			runErr = fmt.Errorf("consumer rejected batch; %w", err)
			break
		}

		summary.Batches++
		summary.Documents += int64(len(result.Hits))
		summary.Total = result.Total
		metrics.BatchesTotal.Inc()
		metrics.DocumentsTotal.Add(float64(len(result.Hits)))
		logger.Debug("batch delivered", "batch", summary.Batches, "documents", len(result.Hits), "total", result.Total)

		result, err = s.scroller.ContinueWithRetry(ctx, scrollID, s.maxRetries)
		metrics.BatchDuration.Observe(time.Since(batchStart).Seconds())
		if err != nil {
			runErr = err
			break
		}

		// Each continuation returns a fresh cursor that supersedes the
		// previous one.
		scrollID = result.ScrollID
	}

	// Release exactly once, from both the exhaustion and failure paths.
	// Release failure is reported, never fatal: the documents already
	// delivered remain valid. The release must go out even when the
	// session context was cancelled.
	releaseCtx := context.WithoutCancel(ctx)
	if err := s.scroller.Release(releaseCtx, scrollID); err != nil {
		metrics.ReleaseFailuresTotal.Inc()
		logger.Warn("failed to release cursor", "error", err)
	}

	return finish(runErr)
}
