package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// BuildOptions configures BuildDataset.
type BuildOptions struct {
	SteepDip        SteepDipOptions
	DepthConvention DepthConvention
}

// BuildDataset runs the full geometry pipeline over one folder's tables and
// returns a new dataset. Nothing in tables is modified. Any schema or domain
// violation aborts the build; degenerate mesh elements do not.
func BuildDataset(ctx context.Context, slot Slot, folder string, tables Tables, opts BuildOptions) (*ProjectedDataset, error) {
	if !slot.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSlot, slot)
	}

	if err := ValidateStations(tables.Stations); err != nil {
		return nil, err
	}
	if err := ValidateSegments(tables.Segments); err != nil {
		return nil, err
	}
	if err := ValidateMeshes(tables.Meshes, opts.DepthConvention); err != nil {
		return nil, err
	}

	stations := projectStations(tables.Stations)
	segments := projectSegments(tables.Segments)

	wrapped := wrapMeshLongitudes(tables.Meshes)
	geometry := AnalyzeTriangles(wrapped)
	corrected, groups, err := ProjectSteepDip(ctx, wrapped, geometry, opts.SteepDip)
	if err != nil {
		return nil, fmt.Errorf("project steep-dip groups: %w", err)
	}
	// Displacement can push a vertex past a pole.
	if err := ValidateMeshes(corrected, ""); err != nil {
		return nil, err
	}

	steep := make(map[int]bool, len(groups))
	for _, g := range groups {
		steep[g.MeshIdx] = g.Steep
	}
	triangles := make([]ProjectedTriangle, len(corrected))
	for i, e := range corrected {
		t := ProjectedTriangle{
			Element:   wrapped[i],
			Corrected: e,
			Geometry:  geometry[i],
			Steep:     steep[e.MeshIdx],
		}
		for v, vx := range e.Vertices {
			t.Vertices[v] = ProjectPoint(vx.Lon, vx.Lat)
		}
		triangles[i] = t
	}

	loadedAt := clock.Now().UTC()
	return &ProjectedDataset{
		ID:        datasetID(slot, folder, loadedAt),
		Slot:      slot,
		Folder:    folder,
		LoadedAt:  loadedAt,
		Stations:  stations,
		Segments:  segments,
		Triangles: triangles,
		Groups:    groups,
		Warnings:  DegenerateWarnings(wrapped, geometry),
	}, nil
}

func projectStations(in []Station) []ProjectedStation {
	out := make([]ProjectedStation, len(in))
	for i, s := range in {
		out[i] = ProjectedStation{
			Station:           s,
			Point:             ProjectPoint(s.Lon, s.Lat),
			ResidualMagnitude: s.ResidualMagnitude(),
		}
	}
	return out
}

func projectSegments(in []Segment) []ProjectedSegment {
	out := make([]ProjectedSegment, len(in))
	for i, s := range in {
		out[i] = ProjectedSegment{
			Segment: s,
			Start:   ProjectPoint(s.Lon1, s.Lat1),
			End:     ProjectPoint(s.Lon2, s.Lat2),
		}
	}
	return out
}

// wrapMeshLongitudes returns a copy of elements with every vertex longitude in [0, 360).
func wrapMeshLongitudes(in []MeshElement) []MeshElement {
	out := make([]MeshElement, len(in))
	for i, e := range in {
		for v := range e.Vertices {
			e.Vertices[v].Lon = WrapTo360(e.Vertices[v].Lon)
		}
		out[i] = e
	}
	return out
}

// datasetID is a deterministic hash of slot, folder and load time, so
// encodings of the same dataset can be cached by ID.
func datasetID(slot Slot, folder string, loadedAt time.Time) string {
	input := fmt.Sprintf("%d|%s|%s", slot, folder, loadedAt.Format(time.RFC3339Nano))
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("slot%d-%s", slot, hex.EncodeToString(hash[:8]))
}
