//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("fault-render-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

const (
	stationCSV = `lon,lat,east_vel,north_vel,model_east_vel,model_north_vel,model_east_vel_residual,model_north_vel_residual
-122.0,37.0,10,5,7,1,3,4
-118.25,34.05,1,1,1,1,0.5,0
`
	segmentCSV = `lon1,lat1,lon2,lat2,model_strike_slip_rate,model_dip_slip_rate
-120.2,38.5,-120.95,40.7,-21.5,0.3
`
	// mesh_idx 0 is a flat patch, mesh_idx 1 a vertical one.
	meshCSV = `lon1,lat1,dep1,lon2,lat2,dep2,lon3,lat3,dep3,mesh_idx
240,35,10,240.1,35,10,240,35.1,10,0
-120,36,0,-119.9,36,0,-120,36,12,1
`
)

// writeResultFolder writes a complete result folder and returns its path.
func writeResultFolder(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{
		"model_station.csv": stationCSV,
		"model_segment.csv": segmentCSV,
		"model_meshes.csv":  meshCSV,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}
