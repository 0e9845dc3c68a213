package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/fault-render-etl/internal/domain"
	"github.com/couchcryptid/fault-render-etl/internal/observability"
	"golang.org/x/sync/errgroup"
)

// TableSource reads the raw tables of a result folder.
type TableSource interface {
	Load(ctx context.Context, folder string) (domain.Tables, error)
}

// Assembler loads result folders into the Store. Loads of the same slot are
// serialized; loads of different slots run independently.
type Assembler struct {
	source  TableSource
	store   *Store
	opts    domain.BuildOptions
	logger  *slog.Logger
	metrics *observability.Metrics
	slotMu  [2]sync.Mutex
}

// NewAssembler creates an Assembler writing into store.
func NewAssembler(source TableSource, store *Store, opts domain.BuildOptions, logger *slog.Logger, metrics *observability.Metrics) *Assembler {
	return &Assembler{
		source:  source,
		store:   store,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// Load reads folder, runs the geometry pipeline and swaps the result into
// slot. On any error the slot keeps its previous dataset.
func (a *Assembler) Load(ctx context.Context, slot domain.Slot, folder string) (*domain.ProjectedDataset, error) {
	if !slot.Valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownSlot, slot)
	}

	mu := &a.slotMu[slot.Index()]
	mu.Lock()
	defer mu.Unlock()

	start := time.Now()
	label := slot.String()
	logger := a.logger.With("slot", int(slot), "folder", folder)

	ds, err := a.build(ctx, slot, folder)
	if err != nil {
		a.metrics.Loads.WithLabelValues(label, outcome(err)).Inc()
		logger.Error("load failed, keeping previous dataset", "error", err)
		return nil, err
	}

	if _, err := a.store.Replace(ds); err != nil {
		a.metrics.Loads.WithLabelValues(label, "error").Inc()
		return nil, err
	}

	for _, w := range ds.Warnings {
		logger.Warn("degenerate mesh element", "row", w.Row, "mesh_idx", w.MeshIdx)
	}
	summary := domain.Summarize(ds)
	a.metrics.Loads.WithLabelValues(label, "success").Inc()
	a.metrics.LoadDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	a.metrics.DegenerateElements.WithLabelValues(label).Add(float64(summary.DegenerateElements))
	a.metrics.SteepGroups.WithLabelValues(label).Set(float64(len(summary.SteepGroups)))
	a.metrics.DatasetRows.WithLabelValues(label, "station").Set(float64(summary.Stations))
	a.metrics.DatasetRows.WithLabelValues(label, "segment").Set(float64(summary.Segments))
	a.metrics.DatasetRows.WithLabelValues(label, "mesh").Set(float64(summary.Triangles))

	logger.Info("dataset loaded",
		"dataset_id", ds.ID,
		"stations", summary.Stations,
		"segments", summary.Segments,
		"mesh_elements", summary.Triangles,
		"mesh_groups", summary.MeshGroups,
		"steep_groups", summary.SteepGroups,
		"duration", time.Since(start),
	)
	return ds, nil
}

func (a *Assembler) build(ctx context.Context, slot domain.Slot, folder string) (*domain.ProjectedDataset, error) {
	tables, err := a.source.Load(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("read folder %s: %w", folder, err)
	}
	ds, err := domain.BuildDataset(ctx, slot, folder, tables, a.opts)
	if err != nil {
		return nil, fmt.Errorf("build dataset from %s: %w", folder, err)
	}
	return ds, nil
}

// LoadAll loads several slots concurrently and returns the first error. Slots
// that load successfully are swapped in even if another slot fails.
func (a *Assembler) LoadAll(ctx context.Context, folders map[domain.Slot]string) error {
	var g errgroup.Group
	for slot, folder := range folders {
		g.Go(func() error {
			_, err := a.Load(ctx, slot, folder)
			return err
		})
	}
	return g.Wait()
}

func outcome(err error) string {
	var schemaErr *domain.SchemaError
	var domainErr *domain.DomainError
	switch {
	case errors.As(err, &schemaErr):
		return "schema_error"
	case errors.As(err, &domainErr):
		return "domain_error"
	default:
		return "error"
	}
}
