package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapTo360(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "zero", in: 0, want: 0},
		{name: "positive passes through", in: 238.5, want: 238.5},
		{name: "just below 360", in: 359.999, want: 359.999},
		{name: "negative wraps", in: -122, want: 238},
		{name: "minus 180", in: -180, want: 180},
		{name: "tiny negative rounds to zero", in: -1e-15, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, WrapTo360(tc.in), 1e-12)
		})
	}
}

func TestWrapTo360_IdentityOnWrappedDomain(t *testing.T) {
	for lon := 0.0; lon < 360; lon += 0.75 {
		assert.Equal(t, lon, WrapTo360(lon))
		assert.Equal(t, WrapTo360(lon), WrapTo360(WrapTo360(lon)))
	}
}

func TestWrapTo360_RangeAndCongruence(t *testing.T) {
	for lon := -180.0; lon < 180; lon += 0.5 {
		got := WrapTo360(lon)
		require.GreaterOrEqual(t, got, 0.0)
		require.Less(t, got, 360.0)
		assert.InDelta(t, 0, math.Mod(got-lon, 360), 1e-9, "lon %v", lon)
		assert.Equal(t, got, WrapTo360(got), "idempotent at %v", lon)
	}
}

func TestProject_KnownValues(t *testing.T) {
	x, y := Project(-122.0, 0)
	assert.Equal(t, MercatorRadius*Deg2Rad(-122.0), x)
	assert.InDelta(t, 0, y, 1e-9)

	// Web Mercator northing of 45°N.
	_, y = Project(0, 45)
	assert.InDelta(t, 5621521.486, y, 1e-3)
}

func TestProject_UnprojectRoundTrip(t *testing.T) {
	for lon := -180.0; lon <= 360; lon += 15 {
		for lat := -89.5; lat <= 89.5; lat += 8.5 {
			x, y := Project(lon, lat)
			gotLon, gotLat := Unproject(x, y)
			assert.InDelta(t, lon, gotLon, 1e-9)
			assert.InDelta(t, lat, gotLat, 1e-9)
		}
	}
}

func TestProject_PoleLeavesMercatorExtent(t *testing.T) {
	// The projection is unbounded at the pole; in floating point tan(π/2)
	// is merely huge, so the northing lands far outside the square world.
	_, y := Project(0, 90)
	assert.Greater(t, y, 5*math.Pi*MercatorRadius)
}

func TestProjectPoints(t *testing.T) {
	pts := ProjectPoints([]float64{0, 10}, []float64{0, 20})
	require.Len(t, pts, 2)
	assert.Equal(t, ProjectPoint(10, 20), pts[1])

	assert.Panics(t, func() { ProjectPoints([]float64{1}, nil) })
}
