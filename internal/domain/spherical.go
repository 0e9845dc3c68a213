package domain

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// SphericalToCartesian converts azimuth and elevation (radians, elevation
// measured from the equatorial plane) and radius to a Cartesian vector.
func SphericalToCartesian(azimuth, elevation, radius float64) r3.Vec {
	horizontal := radius * math.Cos(elevation)
	return r3.Vec{
		X: horizontal * math.Cos(azimuth),
		Y: horizontal * math.Sin(azimuth),
		Z: radius * math.Sin(elevation),
	}
}

// CartesianToSpherical is the inverse of SphericalToCartesian. Azimuth is in
// (−π, π], elevation in [−π/2, π/2].
func CartesianToSpherical(v r3.Vec) (azimuth, elevation, radius float64) {
	azimuth = math.Atan2(v.Y, v.X)
	elevation = math.Atan2(v.Z, math.Hypot(v.X, v.Y))
	radius = r3.Norm(v)
	return azimuth, elevation, radius
}
