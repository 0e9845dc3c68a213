package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/fault-render-etl/internal/adapter/csvtable"
	httpadapter "github.com/couchcryptid/fault-render-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/fault-render-etl/internal/adapter/kafka"
	"github.com/couchcryptid/fault-render-etl/internal/config"
	"github.com/couchcryptid/fault-render-etl/internal/domain"
	"github.com/couchcryptid/fault-render-etl/internal/observability"
	"github.com/couchcryptid/fault-render-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	convention, err := domain.ParseDepthConvention(cfg.DepthConvention)
	if err != nil {
		logger.Error("invalid depth convention", "error", err)
		os.Exit(1)
	}

	store := pipeline.NewStore()
	source := csvtable.NewFolderSource(csvtable.Files{
		Station: cfg.StationFile,
		Segment: cfg.SegmentFile,
		Mesh:    cfg.MeshFile,
	}, logger)
	asm := pipeline.NewAssembler(source, store, domain.BuildOptions{
		DepthConvention: convention,
		SteepDip: domain.SteepDipOptions{
			Threshold: cfg.SteepDipThreshold,
			Workers:   cfg.ProjectionWorkers,
		},
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Preload configured folders. A failed slot stays empty; the service
	// still starts so the folder can be reloaded over HTTP.
	folders := make(map[domain.Slot]string, len(domain.Slots))
	if cfg.Folder1 != "" {
		folders[domain.SlotOne] = cfg.Folder1
	}
	if cfg.Folder2 != "" {
		folders[domain.SlotTwo] = cfg.Folder2
	}
	if err := asm.LoadAll(ctx, folders); err != nil {
		logger.Warn("initial load incomplete", "error", err)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, store, store, asm, cfg.EncodingCacheSize, metrics, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// The load-request loop is feature-flagged via KAFKA_ENABLED.
	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p := pipeline.New(reader, asm, writer, logger, metrics, cfg.BatchSize)

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
		logger.Info("kafka load requests enabled", "topic", cfg.KafkaSourceTopic, "sink", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka load requests disabled")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
