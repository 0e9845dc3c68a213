// Package csvtable reads the station, segment and mesh tables of a result
// folder from CSV files with a header row.
package csvtable

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/fault-render-etl/internal/domain"
)

// Files names the three tables inside a result folder.
type Files struct {
	Station string
	Segment string
	Mesh    string
}

// DefaultFiles are the file names written by the block model solver.
var DefaultFiles = Files{
	Station: "model_station.csv",
	Segment: "model_segment.csv",
	Mesh:    "model_meshes.csv",
}

// FolderSource loads Tables from a directory of CSV files.
// It implements pipeline.TableSource.
type FolderSource struct {
	files  Files
	logger *slog.Logger
}

// NewFolderSource creates a source reading the given file names. Empty names
// fall back to DefaultFiles.
func NewFolderSource(files Files, logger *slog.Logger) *FolderSource {
	if files.Station == "" {
		files.Station = DefaultFiles.Station
	}
	if files.Segment == "" {
		files.Segment = DefaultFiles.Segment
	}
	if files.Mesh == "" {
		files.Mesh = DefaultFiles.Mesh
	}
	return &FolderSource{files: files, logger: logger}
}

// Load reads all three tables of folder. Schema problems are returned as
// *domain.SchemaError; missing files and I/O failures are wrapped as-is.
func (s *FolderSource) Load(ctx context.Context, folder string) (domain.Tables, error) {
	var tables domain.Tables

	stations, err := loadFile(ctx, folder, s.files.Station, "station", parseStations)
	if err != nil {
		return tables, err
	}
	segments, err := loadFile(ctx, folder, s.files.Segment, "segment", parseSegments)
	if err != nil {
		return tables, err
	}
	meshes, err := loadFile(ctx, folder, s.files.Mesh, "meshes", parseMeshes)
	if err != nil {
		return tables, err
	}

	s.logger.Debug("tables read",
		"folder", folder,
		"stations", len(stations),
		"segments", len(segments),
		"mesh_elements", len(meshes),
	)
	return domain.Tables{Stations: stations, Segments: segments, Meshes: meshes}, nil
}

func loadFile[T any](ctx context.Context, folder, file, name string, parse func(*table) ([]T, error)) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(folder, file)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s table: %w", name, err)
	}
	defer f.Close()

	t, err := readTable(name, f)
	if err != nil {
		return nil, err
	}
	return parse(t)
}
