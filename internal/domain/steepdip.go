package domain

import (
	"context"
	"errors"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
)

// DefaultSteepDipThreshold is the mean dip (degrees) above which a mesh group is projected.
const DefaultSteepDipThreshold = 75.0

// SteepDipOptions configures ProjectSteepDip.
type SteepDipOptions struct {
	// Threshold is compared with a strict greater-than. Zero means DefaultSteepDipThreshold.
	Threshold float64
	// Workers bounds concurrent group processing. Values < 1 mean one worker.
	Workers int
}

func (o SteepDipOptions) threshold() float64 {
	if o.Threshold == 0 {
		return DefaultSteepDipThreshold
	}
	return o.Threshold
}

// MeshGroup indexes the elements of one mesh_idx into the flat element slice.
type MeshGroup struct {
	MeshIdx int
	Rows    []int
}

// GroupElements partitions element rows by mesh_idx, ordered by mesh_idx.
// Rows within a group keep their input order.
func GroupElements(elements []MeshElement) []MeshGroup {
	index := make(map[int]int)
	var groups []MeshGroup
	for row, e := range elements {
		gi, ok := index[e.MeshIdx]
		if !ok {
			gi = len(groups)
			index[e.MeshIdx] = gi
			groups = append(groups, MeshGroup{MeshIdx: e.MeshIdx})
		}
		groups[gi].Rows = append(groups[gi].Rows, row)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].MeshIdx < groups[j].MeshIdx })
	return groups
}

// ProjectSteepDip returns a copy of elements in which every vertex of a steep
// group is displaced down-dip in proportion to its depth, together with one
// summary per group. geometry must be aligned with elements. The input slices
// are never modified.
func ProjectSteepDip(ctx context.Context, elements []MeshElement, geometry []TriangleGeometry, opts SteepDipOptions) ([]MeshElement, []GroupSummary, error) {
	if len(elements) != len(geometry) {
		return nil, nil, errors.New("steep-dip projection: geometry not aligned with elements")
	}

	corrected := make([]MeshElement, len(elements))
	copy(corrected, elements)

	groups := GroupElements(elements)
	summaries := make([]GroupSummary, len(groups))
	threshold := opts.threshold()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for i, group := range groups {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			summaries[i] = projectGroup(corrected, geometry, group, threshold)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return corrected, summaries, nil
}

// projectGroup writes only the rows of its own group, so groups may run concurrently.
func projectGroup(corrected []MeshElement, geometry []TriangleGeometry, group MeshGroup, threshold float64) GroupSummary {
	summary := GroupSummary{MeshIdx: group.MeshIdx, Elements: len(group.Rows)}

	var dipSum, dirSum float64
	valid := 0
	for _, row := range group.Rows {
		geo := geometry[row]
		if geo.Degenerate {
			summary.Degenerate++
			continue
		}
		dipSum += geo.Dip
		dirSum += Deg2Rad(geo.Strike + 90)
		valid++
	}
	if valid == 0 {
		summary.MeanDip = DegenerateDip
		return summary
	}

	summary.MeanDip = dipSum / float64(valid)
	if summary.MeanDip <= threshold {
		return summary
	}

	summary.Steep = true
	summary.DipDirection = dirSum / float64(valid)
	sinDir, cosDir := math.Sin(summary.DipDirection), math.Cos(summary.DipDirection)
	for _, row := range group.Rows {
		e := corrected[row]
		for v := range e.Vertices {
			shift := Rad2Deg(math.Abs(e.Vertices[v].Dep * KM2M / EarthRadius))
			e.Vertices[v].Lon += sinDir * shift
			e.Vertices[v].Lat += cosDir * shift
		}
		corrected[row] = e
	}
	return summary
}
