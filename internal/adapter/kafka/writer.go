package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/fault-render-etl/internal/config"
	"github.com/couchcryptid/fault-render-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes dataset summaries to a Kafka topic.
// It implements pipeline.SummaryPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes and publishes summaries in a single WriteMessages
// call. Messages are keyed by slot so each slot's history stays ordered.
func (w *Writer) PublishBatch(ctx context.Context, summaries []domain.DatasetSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(summaries))
	for i := range summaries {
		msg, err := serializeToMessage(summaries[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d summaries: %w", len(msgs), err)
	}
	w.logger.Debug("summaries published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a DatasetSummary into a Kafka message.
func serializeToMessage(s domain.DatasetSummary) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize dataset summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.Slot.String()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "slot", Value: []byte(s.Slot.String())},
			{Key: "dataset_id", Value: []byte(s.ID)},
			{Key: "loaded_at", Value: []byte(s.LoadedAt.Format(time.RFC3339Nano))},
		},
	}, nil
}
