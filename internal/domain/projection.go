package domain

import "math"

const (
	// MercatorRadius is the spherical Web Mercator radius in meters.
	MercatorRadius = 6378137.0

	// EarthRadius normalizes mesh depths into radius fractions.
	EarthRadius = 6371000.0

	// KM2M converts kilometers to meters.
	KM2M = 1.0e3

	// VelocityScale converts station velocities (mm/yr) to arrow lengths in map meters.
	VelocityScale = 1000
)

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 { return deg * math.Pi / 180.0 }

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 { return rad * 180.0 / math.Pi }

// Project maps a geodetic coordinate to spherical Web Mercator meters.
// The result is infinite at lat = ±90; callers validate latitude first.
func Project(lon, lat float64) (x, y float64) {
	x = MercatorRadius * Deg2Rad(lon)
	y = MercatorRadius * math.Log(math.Tan(math.Pi/4.0+Deg2Rad(lat)/2.0))
	return x, y
}

// ProjectPoint is Project returning a PlanarPoint.
func ProjectPoint(lon, lat float64) PlanarPoint {
	x, y := Project(lon, lat)
	return PlanarPoint{X: x, Y: y}
}

// ProjectPoints projects equal-length longitude and latitude columns.
// It panics if the columns differ in length.
func ProjectPoints(lons, lats []float64) []PlanarPoint {
	if len(lons) != len(lats) {
		panic("domain: ProjectPoints called with columns of different length")
	}
	out := make([]PlanarPoint, len(lons))
	for i := range lons {
		out[i] = ProjectPoint(lons[i], lats[i])
	}
	return out
}

// Unproject is the inverse of Project.
func Unproject(x, y float64) (lon, lat float64) {
	lon = Rad2Deg(x / MercatorRadius)
	lat = Rad2Deg(2.0*math.Atan(math.Exp(y/MercatorRadius)) - math.Pi/2.0)
	return lon, lat
}

// WrapTo360 moves negative longitudes into [0, 360). Non-negative values pass
// through unchanged, so the function is idempotent.
func WrapTo360(lon float64) float64 {
	if lon >= 0 {
		return lon
	}
	lon += 360.0
	if lon >= 360.0 {
		// Tiny negative inputs round up to exactly 360.
		return 0
	}
	return lon
}
