package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/fault-render-etl/internal/domain"
	"github.com/couchcryptid/fault-render-etl/internal/observability"
)

// BatchExtractor reads up to batchSize load requests from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.LoadMessage, error)
}

// DatasetLoader loads a folder into a slot. It is implemented by Assembler.
type DatasetLoader interface {
	Load(ctx context.Context, slot domain.Slot, folder string) (*domain.ProjectedDataset, error)
}

// SummaryPublisher announces loaded datasets.
type SummaryPublisher interface {
	PublishBatch(ctx context.Context, summaries []domain.DatasetSummary) error
}

// Pipeline consumes load requests, loads the requested folders and publishes
// a summary of every dataset that was swapped in.
type Pipeline struct {
	extractor BatchExtractor
	loader    DatasetLoader
	publisher SummaryPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	batchSize int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, l DatasetLoader, p SummaryPublisher, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor: e,
		loader:    l,
		publisher: p,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// Run executes the load-request loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-load-publish cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(batch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.RequestsConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))
	*backoff = 200 * time.Millisecond

	return p.loadAndPublish(ctx, batch, backoff, maxBackoff)
}

// loadAndPublish loads every request in the batch, publishes the summaries of
// successful loads and commits offsets. Malformed requests and failed loads are
// committed and skipped. Returns false if the pipeline should stop.
func (p *Pipeline) loadAndPublish(ctx context.Context, batch []domain.LoadMessage, backoff *time.Duration, maxBackoff time.Duration) bool {
	summaries := make([]domain.DatasetSummary, 0, len(batch))
	loaded := make([]domain.LoadMessage, 0, len(batch))

	for _, msg := range batch {
		req, err := domain.ParseLoadRequest(msg)
		if err != nil {
			p.skip(ctx, msg, "invalid load request", err)
			continue
		}
		ds, err := p.loader.Load(ctx, req.Slot, req.Folder)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			p.skip(ctx, msg, "load failed, skipping request", err)
			continue
		}
		summaries = append(summaries, domain.Summarize(ds))
		loaded = append(loaded, msg)
	}

	if len(summaries) == 0 {
		return true
	}

	if err := p.publisher.PublishBatch(ctx, summaries); err != nil {
		p.logger.Error("publish summaries failed", "error", err, "batch_size", len(summaries))
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}
	p.metrics.SummariesProduced.Add(float64(len(summaries)))

	for _, msg := range loaded {
		p.commitOffset(ctx, msg)
	}
	return true
}

func (p *Pipeline) skip(ctx context.Context, msg domain.LoadMessage, reason string, err error) {
	p.logger.Warn(reason,
		"error", err,
		"input_error", domain.IsInputError(err),
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
	)
	p.metrics.RequestErrors.Inc()
	p.commitOffset(ctx, msg)
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, msg domain.LoadMessage) {
	if msg.Commit == nil {
		return
	}
	if err := msg.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
