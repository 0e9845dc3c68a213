package domain

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// DegenerateDip marks elements whose orientation is undefined.
	DegenerateDip = -1.0

	// degenerateSine is the largest sine of the angle between the two legs
	// treated as zero. Collinear rows leave rounding noise near 1e-13.
	degenerateSine = 1e-12
)

// vertexVector maps a vertex into the pseudo-Cartesian frame
// (rad(lon), rad(lat), radius fraction).
func vertexVector(v Vertex) r3.Vec {
	return r3.Vec{
		X: Deg2Rad(WrapTo360(v.Lon)),
		Y: Deg2Rad(v.Lat),
		Z: 1 + v.Dep*KM2M/EarthRadius,
	}
}

func legs(e MeshElement) (leg1, leg2 r3.Vec) {
	v1 := vertexVector(e.Vertices[0])
	return r3.Sub(vertexVector(e.Vertices[1]), v1), r3.Sub(vertexVector(e.Vertices[2]), v1)
}

// ElementNormal returns the unnormalized normal of a mesh element, the cross
// product of its two legs from the first vertex.
func ElementNormal(e MeshElement) r3.Vec {
	leg1, leg2 := legs(e)
	return r3.Cross(leg1, leg2)
}

// isDegenerate reports whether an element has a zero-length leg or legs that
// are parallel up to rounding. The area is compared relative to the legs.
func isDegenerate(leg1, leg2 r3.Vec, area float64) bool {
	scale := r3.Norm(leg1) * r3.Norm(leg2)
	return scale == 0 || area <= degenerateSine*scale
}

// Orientation derives strike and dip in degrees from an element normal.
// Strike is in [0, 360) and dip in [0, 90].
func Orientation(normal r3.Vec) (strike, dip float64) {
	azimuth, elevation, _ := CartesianToSpherical(normal)
	strike = WrapTo360(-Rad2Deg(azimuth))
	dip = 90 - Rad2Deg(elevation)
	if dip > 90 {
		dip = 180 - dip
	}
	// Rounding in Rad2Deg(π/2) can leave a horizontal element at -1e-14.
	return strike, math.Max(dip, 0)
}

// AnalyzeTriangles computes normal, area, strike and dip for every element.
// The result is aligned by index with elements. Collinear and coincident
// elements are marked Degenerate with Strike 0 and Dip DegenerateDip.
func AnalyzeTriangles(elements []MeshElement) []TriangleGeometry {
	out := make([]TriangleGeometry, len(elements))
	for i, e := range elements {
		leg1, leg2 := legs(e)
		normal := r3.Cross(leg1, leg2)
		area := r3.Norm(normal)
		if isDegenerate(leg1, leg2, area) {
			out[i] = TriangleGeometry{Normal: normal, Area: area, Dip: DegenerateDip, Degenerate: true}
			continue
		}
		strike, dip := Orientation(normal)
		out[i] = TriangleGeometry{Normal: normal, Area: area, Strike: strike, Dip: dip}
	}
	return out
}

// DegenerateWarnings lists a warning for each degenerate element.
func DegenerateWarnings(elements []MeshElement, geometry []TriangleGeometry) []DegenerateGeometryWarning {
	var warnings []DegenerateGeometryWarning
	for i, g := range geometry {
		if g.Degenerate {
			warnings = append(warnings, DegenerateGeometryWarning{Row: i, MeshIdx: elements[i].MeshIdx})
		}
	}
	return warnings
}
