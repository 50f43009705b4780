package scroll

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

// captureConsumer records everything a session delivers.
type captureConsumer struct {
	batches    [][]json.RawMessage
	totals     []int64
	closed     int
	summary    Summary
	consumeErr error
	closeErr   error
}

func (c *captureConsumer) Consume(batch []json.RawMessage, total int64) error {
	if c.consumeErr != nil {
		return c.consumeErr
	}
	c.batches = append(c.batches, batch)
	c.totals = append(c.totals, total)
	return nil
}

func (c *captureConsumer) Close(summary Summary) error {
	c.closed++
	c.summary = summary
	return c.closeErr
}

func docs(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = `{"_id":"d"}`
	}
	return out
}

// Five documents drained with batch size 2: batches of 2, 2, 1, then the
// empty batch that signals exhaustion.
func TestSessionRun_DrainsUntilEmptyBatch(t *testing.T) {
	backend := &fakeBackend{
		searchBody: []byte(body(`"s1"`, docs(2), "5")),
		scrollSteps: []scrollStep{
			{body: []byte(body(`"s2"`, docs(2), "5"))},
			{body: []byte(body(`"s3"`, docs(1), "5"))},
			{body: []byte(body(`"s4"`, docs(0), "5"))},
		},
	}
	consumer := &captureConsumer{}
	session := NewSession(New(backend, "logs", `{"query":{"match_all":{}}}`), consumer, 2, 3)

	summary, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	wantLens := []int{2, 2, 1}
	if len(consumer.batches) != len(wantLens) {
		t.Fatalf("consumed %d batches, want %d", len(consumer.batches), len(wantLens))
	}
	for i, want := range wantLens {
		if len(consumer.batches[i]) != want {
			t.Errorf("batch %d has %d documents, want %d", i, len(consumer.batches[i]), want)
		}
	}
	for i, total := range consumer.totals {
		if total != 5 {
			t.Errorf("batch %d reported total %d, want 5", i, total)
		}
	}

	if summary.Documents != 5 {
		t.Errorf("Documents = %d, want 5", summary.Documents)
	}
	if summary.Batches != 3 {
		t.Errorf("Batches = %d, want 3", summary.Batches)
	}
	if summary.Total != 5 {
		t.Errorf("Total = %d, want 5", summary.Total)
	}

	// Release happens exactly once, with the freshest cursor.
	if len(backend.clearCalls) != 1 {
		t.Fatalf("release called %d times, want exactly 1", len(backend.clearCalls))
	}
	if backend.clearCalls[0] != "s4" {
		t.Errorf("released cursor %q, want %q", backend.clearCalls[0], "s4")
	}

	if consumer.closed != 1 {
		t.Errorf("consumer closed %d times, want 1", consumer.closed)
	}
	if consumer.summary.Err != nil {
		t.Errorf("terminal summary carries error: %v", consumer.summary.Err)
	}
}

func TestSessionRun_EmptyResultSet(t *testing.T) {
	backend := &fakeBackend{
		searchBody: []byte(body(`"s1"`, docs(0), "0")),
	}
	consumer := &captureConsumer{}
	session := NewSession(New(backend, "logs", `{"query":{"match_all":{}}}`), consumer, 10, 3)

	summary, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	if len(consumer.batches) != 0 {
		t.Errorf("consumed %d batches, want 0", len(consumer.batches))
	}
	if summary.Documents != 0 || summary.Total != 0 {
		t.Errorf("summary = %+v, want zero documents and total", summary)
	}
	if len(backend.clearCalls) != 1 {
		t.Errorf("release called %d times, want 1", len(backend.clearCalls))
	}
	if consumer.closed != 1 {
		t.Errorf("consumer closed %d times, want 1", consumer.closed)
	}
}

func TestSessionRun_SearchFailureSkipsRelease(t *testing.T) {
	backend := &fakeBackend{searchErr: errors.New("connection refused")}
	consumer := &captureConsumer{}
	session := NewSession(New(backend, "logs", `{"query":{"match_all":{}}}`), consumer, 10, 3)

	_, err := session.Run(context.Background())
	if err == nil {
		t.Fatal("Run() succeeded, want failure")
	}

	// No cursor was ever opened, so there is nothing to release.
	if len(backend.clearCalls) != 0 {
		t.Errorf("release called %d times, want 0", len(backend.clearCalls))
	}
	if consumer.closed != 1 {
		t.Errorf("consumer closed %d times, want 1 (terminal signal on failure too)", consumer.closed)
	}
	if consumer.summary.Err == nil {
		t.Error("terminal summary should carry the error")
	}
}

func TestSessionRun_ContinuationFailureReleasesOnce(t *testing.T) {
	backend := &fakeBackend{
		searchBody: []byte(body(`"s1"`, docs(2), "10")),
		scrollErr:  errors.New("backend down"),
	}
	consumer := &captureConsumer{}
	const maxRetries = 2
	session := NewSession(New(backend, "logs", `{"query":{"match_all":{}}}`), consumer, 2, maxRetries)

	summary, err := session.Run(context.Background())
	if err == nil {
		t.Fatal("Run() succeeded, want failure")
	}
	if got := KindOf(err); got != KindTransportFailure {
		t.Errorf("KindOf(err) = %v, want %v", got, KindTransportFailure)
	}

	if backend.scrollCalls != maxRetries+1 {
		t.Errorf("scrollCalls = %d, want %d", backend.scrollCalls, maxRetries+1)
	}

	// The first batch was already delivered and stays delivered.
	if summary.Documents != 2 {
		t.Errorf("Documents = %d, want 2 (partial results remain valid)", summary.Documents)
	}

	if len(backend.clearCalls) != 1 {
		t.Fatalf("release called %d times, want exactly 1", len(backend.clearCalls))
	}
	if backend.clearCalls[0] != "s1" {
		t.Errorf("released cursor %q, want %q", backend.clearCalls[0], "s1")
	}
}

func TestSessionRun_ConsumerErrorAborts(t *testing.T) {
	backend := &fakeBackend{
		searchBody: []byte(body(`"s1"`, docs(2), "5")),
	}
	consumer := &captureConsumer{consumeErr: errors.New("disk full")}
	session := NewSession(New(backend, "logs", `{"query":{"match_all":{}}}`), consumer, 2, 3)

	_, err := session.Run(context.Background())
	if err == nil {
		t.Fatal("Run() succeeded, want failure")
	}
	if backend.scrollCalls != 0 {
		t.Errorf("scrollCalls = %d, want 0 (abort before continuing)", backend.scrollCalls)
	}
	if len(backend.clearCalls) != 1 {
		t.Errorf("release called %d times, want 1", len(backend.clearCalls))
	}
}

func TestSessionRun_ReleaseFailureIsNotFatal(t *testing.T) {
	backend := &fakeBackend{
		searchBody: []byte(body(`"s1"`, docs(0), "0")),
		clearErr:   errors.New("already released"),
	}
	consumer := &captureConsumer{}
	session := NewSession(New(backend, "logs", `{"query":{"match_all":{}}}`), consumer, 10, 3)

	_, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned error: %v (release failure must not fail the export)", err)
	}
	if len(backend.clearCalls) != 1 {
		t.Errorf("release called %d times, want 1 (never retried)", len(backend.clearCalls))
	}
}

func TestSessionRun_ReleaseSurvivesCancelledContext(t *testing.T) {
	backend := &fakeBackend{
		searchBody: []byte(body(`"s1"`, docs(1), "1")),
		scrollErr:  context.Canceled,
	}
	consumer := &captureConsumer{}
	session := NewSession(New(backend, "logs", `{"query":{"match_all":{}}}`), consumer, 1, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := session.Run(ctx)
	if err == nil {
		t.Fatal("Run() succeeded, want failure")
	}
	if len(backend.clearCalls) != 1 {
		t.Errorf("release called %d times, want 1 even after cancellation", len(backend.clearCalls))
	}
}

func TestSessionID_IsStablePerSession(t *testing.T) {
	backend := &fakeBackend{}
	scroller := New(backend, "logs", `{}`)

	a := NewSession(scroller, &captureConsumer{}, 1, 0)
	b := NewSession(scroller, &captureConsumer{}, 1, 0)

	if a.ID() == "" {
		t.Error("ID() should not be empty")
	}
	if a.ID() == b.ID() {
		t.Error("two sessions should not share an ID")
	}
	if a.ID() != a.ID() {
		t.Error("ID() should be stable")
	}
}
