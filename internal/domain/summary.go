package domain

import (
	"math"
	"time"

	"github.com/twpayne/go-polyline"
)

// Bounds is a planar bounding box in Web Mercator meters.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// DatasetSummary is the lightweight description of a dataset published after each load.
type DatasetSummary struct {
	ID                 string    `json:"id"`
	Slot               Slot      `json:"slot"`
	Folder             string    `json:"folder"`
	LoadedAt           time.Time `json:"loaded_at"`
	Stations           int       `json:"stations"`
	Segments           int       `json:"segments"`
	Triangles          int       `json:"triangles"`
	MeshGroups         int       `json:"mesh_groups"`
	SteepGroups        []int     `json:"steep_groups"`
	DegenerateElements int       `json:"degenerate_elements"`
	MaxResidual        float64   `json:"max_residual"`
	Bounds             *Bounds   `json:"bounds,omitempty"`

	// SegmentTraces holds one encoded polyline (precision 1e-5) per segment.
	SegmentTraces []string `json:"segment_traces"`
}

// Summarize describes ds without copying its geometry.
func Summarize(ds *ProjectedDataset) DatasetSummary {
	s := DatasetSummary{
		ID:                 ds.ID,
		Slot:               ds.Slot,
		Folder:             ds.Folder,
		LoadedAt:           ds.LoadedAt,
		Stations:           len(ds.Stations),
		Segments:           len(ds.Segments),
		Triangles:          len(ds.Triangles),
		MeshGroups:         len(ds.Groups),
		SteepGroups:        []int{},
		DegenerateElements: len(ds.Warnings),
		SegmentTraces:      make([]string, len(ds.Segments)),
	}
	for _, g := range ds.Groups {
		if g.Steep {
			s.SteepGroups = append(s.SteepGroups, g.MeshIdx)
		}
	}
	for _, st := range ds.Stations {
		s.MaxResidual = math.Max(s.MaxResidual, st.ResidualMagnitude)
	}
	for i, seg := range ds.Segments {
		s.SegmentTraces[i] = string(polyline.EncodeCoords([][]float64{
			{seg.Lat1, seg.Lon1},
			{seg.Lat2, seg.Lon2},
		}))
	}
	s.Bounds = datasetBounds(ds)
	return s
}

func datasetBounds(ds *ProjectedDataset) *Bounds {
	var b *Bounds
	extend := func(p PlanarPoint) {
		if b == nil {
			b = &Bounds{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
			return
		}
		b.MinX, b.MaxX = math.Min(b.MinX, p.X), math.Max(b.MaxX, p.X)
		b.MinY, b.MaxY = math.Min(b.MinY, p.Y), math.Max(b.MaxY, p.Y)
	}
	for _, s := range ds.Stations {
		extend(s.Point)
	}
	for _, s := range ds.Segments {
		extend(s.Start)
		extend(s.End)
	}
	for _, t := range ds.Triangles {
		for _, p := range t.Vertices {
			extend(p)
		}
	}
	return b
}
