//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/fault-render-etl/internal/adapter/csvtable"
	"github.com/couchcryptid/fault-render-etl/internal/adapter/kafka"
	"github.com/couchcryptid/fault-render-etl/internal/config"
	"github.com/couchcryptid/fault-render-etl/internal/domain"
	"github.com/couchcryptid/fault-render-etl/internal/observability"
	"github.com/couchcryptid/fault-render-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSourceTopic = "test-load-requests"
	testSinkTopic   = "test-datasets"
)

// publishedSummary holds a deserialized message read from the sink topic.
type publishedSummary struct {
	Summary domain.DatasetSummary
	Key     string
	Headers map[string]string
}

// readSummary reads a single message from the sink consumer and deserializes it.
func readSummary(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedSummary {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var summary domain.DatasetSummary
	require.NoError(t, json.Unmarshal(msg.Value, &summary), "unmarshal sink message")

	return publishedSummary{Summary: summary, Key: string(msg.Key), Headers: headers}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (extractor) and
// kafka.Writer (publisher) correctly round-trip messages through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("req-1"),
		Value: []byte(`{"slot":2,"folder":"/data/run_b"}`),
	}))

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.LoadMessage
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	assert.Equal(t, testSourceTopic, batch[0].Topic)
	require.NotNil(t, batch[0].Commit, "commit callback should be set")
	require.NoError(t, batch[0].Commit(ctx))

	req, err := domain.ParseLoadRequest(batch[0])
	require.NoError(t, err)
	assert.Equal(t, domain.LoadRequest{Slot: domain.SlotTwo, Folder: "/data/run_b"}, req)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	loadedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	require.NoError(t, writer.PublishBatch(ctx, []domain.DatasetSummary{{
		ID:          "slot2-0011223344556677",
		Slot:        domain.SlotTwo,
		Folder:      req.Folder,
		LoadedAt:    loadedAt,
		SteepGroups: []int{},
	}}))

	got := readSummary(ctx, t, sinkConsumer(t, broker))
	assert.Equal(t, "2", got.Key)
	assert.Equal(t, "2", got.Headers["slot"])
	assert.Equal(t, "slot2-0011223344556677", got.Headers["dataset_id"])
	parsed, err := time.Parse(time.RFC3339Nano, got.Headers["loaded_at"])
	require.NoError(t, err)
	assert.True(t, loadedAt.Equal(parsed))
	assert.Equal(t, "/data/run_b", got.Summary.Folder)
}

// TestPipelineEndToEnd wires the full loop (Reader → Assembler → Writer) with
// real Kafka and CSV folders on disk. A malformed request and a missing folder
// are skipped without blocking the valid loads.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	folderA := writeResultFolder(t)
	folderB := writeResultFolder(t)

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Value: []byte("not-json{{{")},
		kafkago.Message{Value: []byte(fmt.Sprintf(`{"slot":1,"folder":%q}`, folderA))},
		kafkago.Message{Value: []byte(`{"slot":2,"folder":"/does/not/exist"}`)},
		kafkago.Message{Value: []byte(fmt.Sprintf(`{"slot":2,"folder":%q}`, folderB))},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	store := pipeline.NewStore()
	source := csvtable.NewFolderSource(csvtable.DefaultFiles, discardLogger())
	asm := pipeline.NewAssembler(source, store, domain.BuildOptions{DepthConvention: domain.PositiveDown}, discardLogger(), metrics)
	p := pipeline.New(reader, asm, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	first := readSummary(ctx, t, consumer)
	second := readSummary(ctx, t, consumer)

	pipelineCancel()
	require.NoError(t, <-errCh)

	assert.Equal(t, folderA, first.Summary.Folder)
	assert.Equal(t, "1", first.Key)
	assert.Equal(t, folderB, second.Summary.Folder)
	assert.Equal(t, "2", second.Key)

	for _, s := range []domain.DatasetSummary{first.Summary, second.Summary} {
		assert.Equal(t, 2, s.Stations)
		assert.Equal(t, 2, s.Triangles)
		assert.Equal(t, []int{1}, s.SteepGroups)
		assert.InDelta(t, 5, s.MaxResidual, 1e-12)
	}

	for _, slot := range domain.Slots {
		ds, err := store.Get(slot)
		require.NoError(t, err)
		assert.NotEmpty(t, ds.Triangles)
	}

	// No third message: the poison pill and the missing folder were skipped.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no further messages on sink topic")
}
