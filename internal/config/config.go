package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka load-request loop.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration

	// Folders preloaded into slots 1 and 2 at startup; empty means none.
	Folder1 string
	Folder2 string

	// Table file names inside a result folder.
	StationFile string
	SegmentFile string
	MeshFile    string

	// Geometry pipeline.
	SteepDipThreshold float64
	DepthConvention   string
	ProjectionWorkers int

	EncodingCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	threshold, err := parseThreshold()
	if err != nil {
		return nil, err
	}

	workers, err := parsePositiveInt("PROJECTION_WORKERS", 4)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("ENCODING_CACHE_SIZE", 16)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "fault-load-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "fault-datasets"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "fault-render-etl"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		Folder1: os.Getenv("FOLDER_1"),
		Folder2: os.Getenv("FOLDER_2"),

		StationFile: sharedcfg.EnvOrDefault("STATION_FILE", "model_station.csv"),
		SegmentFile: sharedcfg.EnvOrDefault("SEGMENT_FILE", "model_segment.csv"),
		MeshFile:    sharedcfg.EnvOrDefault("MESH_FILE", "model_meshes.csv"),

		SteepDipThreshold: threshold,
		DepthConvention:   sharedcfg.EnvOrDefault("DEPTH_CONVENTION", "positive-down"),
		ProjectionWorkers: workers,

		EncodingCacheSize: cacheSize,
	}

	if cfg.DepthConvention != "positive-down" && cfg.DepthConvention != "negative-down" {
		return nil, fmt.Errorf("invalid DEPTH_CONVENTION %q", cfg.DepthConvention)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}

	return cfg, nil
}

func parseThreshold() (float64, error) {
	s := sharedcfg.EnvOrDefault("STEEP_DIP_THRESHOLD", "75")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || v >= 90 {
		return 0, errors.New("invalid STEEP_DIP_THRESHOLD: must be a number of degrees in (0, 90)")
	}
	return v, nil
}

func parsePositiveInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", name)
	}
	return n, nil
}
