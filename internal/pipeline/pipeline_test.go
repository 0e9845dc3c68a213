package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/fault-render-etl/internal/domain"
	"github.com/couchcryptid/fault-render-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.LoadMessage
	index   atomic.Int64
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.LoadMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockPublisher struct {
	mu        sync.Mutex
	published []domain.DatasetSummary
	err       error
}

func (m *mockPublisher) PublishBatch(_ context.Context, summaries []domain.DatasetSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, summaries...)
	return nil
}

type commitRecorder struct {
	mu      sync.Mutex
	offsets []int64
}

func (c *commitRecorder) message(offset int64, body string) domain.LoadMessage {
	return domain.LoadMessage{
		Value:  []byte(body),
		Topic:  "fault-load-requests",
		Offset: offset,
		Commit: func(context.Context) error {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.offsets = append(c.offsets, offset)
			return nil
		},
	}
}

func (c *commitRecorder) committed() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.offsets...)
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	commits := &commitRecorder{}
	ext := &mockExtractor{batches: [][]domain.LoadMessage{{
		commits.message(0, `{"slot":1,"folder":"a"}`),
		commits.message(1, `{"slot":2,"folder":"b"}`),
	}}}
	source := &fakeSource{folders: map[string]domain.Tables{"a": goodTables(), "b": goodTables()}}
	asm, store, metrics := newAssembler(source)
	pub := &mockPublisher{}

	p := pipeline.New(ext, asm, pub, discardLogger(), metrics, 10)
	runFor(t, p, 500*time.Millisecond)

	require.Len(t, pub.published, 2)
	assert.Equal(t, domain.SlotOne, pub.published[0].Slot)
	assert.Equal(t, "b", pub.published[1].Folder)
	assert.Equal(t, []int64{0, 1}, commits.committed())

	_, err := store.Get(domain.SlotTwo)
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RequestsConsumed))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SummariesProduced))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{}
	asm, _, metrics := newAssembler(&fakeSource{})
	pub := &mockPublisher{}

	p := pipeline.New(ext, asm, pub, discardLogger(), metrics, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, pub.published)
}

func TestPipeline_Run_SkipsBadRequests(t *testing.T) {
	commits := &commitRecorder{}
	ext := &mockExtractor{batches: [][]domain.LoadMessage{{
		commits.message(0, `not-json{{{`),
		commits.message(1, `{"slot":7,"folder":"a"}`),
		commits.message(2, `{"slot":1,"folder":"missing"}`),
		commits.message(3, `{"slot":1,"folder":"a"}`),
	}}}
	source := &fakeSource{folders: map[string]domain.Tables{"a": goodTables()}}
	asm, _, metrics := newAssembler(source)
	pub := &mockPublisher{}

	p := pipeline.New(ext, asm, pub, discardLogger(), metrics, 10)
	runFor(t, p, 500*time.Millisecond)

	require.Len(t, pub.published, 1)
	assert.Equal(t, "a", pub.published[0].Folder)
	assert.ElementsMatch(t, []int64{0, 1, 2, 3}, commits.committed(), "poison pills are committed and skipped")
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.RequestErrors))
	assert.Equal(t, []string{"missing", "a"}, source.calls)
}

func TestPipeline_Run_PublishFailureDoesNotCommit(t *testing.T) {
	commits := &commitRecorder{}
	ext := &mockExtractor{batches: [][]domain.LoadMessage{{
		commits.message(5, `{"slot":1,"folder":"a"}`),
	}}}
	source := &fakeSource{folders: map[string]domain.Tables{"a": goodTables()}}
	asm, store, metrics := newAssembler(source)
	pub := &mockPublisher{err: errors.New("broker down")}

	p := pipeline.New(ext, asm, pub, discardLogger(), metrics, 10)
	runFor(t, p, 300*time.Millisecond)

	assert.Empty(t, commits.committed())
	assert.Zero(t, testutil.ToFloat64(metrics.SummariesProduced))

	// The dataset itself was swapped in before publishing.
	_, err := store.Get(domain.SlotOne)
	require.NoError(t, err)
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	ext := &mockExtractor{err: errors.New("kafka unavailable")}
	asm, _, metrics := newAssembler(&fakeSource{})
	pub := &mockPublisher{}

	p := pipeline.New(ext, asm, pub, discardLogger(), metrics, 10)

	start := time.Now()
	runFor(t, p, 300*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond, "run returns only when the context ends")
	assert.Empty(t, pub.published)
}
