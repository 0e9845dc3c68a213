package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datasetWithStations(stations ...Station) *ProjectedDataset {
	return &ProjectedDataset{Stations: projectStations(stations)}
}

func TestCompareResiduals(t *testing.T) {
	a := datasetWithStations(
		Station{Lon: -122, Lat: 37, EastResidual: 3, NorthResidual: 4},
		Station{Lon: -121, Lat: 36, EastResidual: 1},
		Station{Lon: -110, Lat: 30, EastResidual: 2},
	)
	b := datasetWithStations(
		Station{Lon: -121, Lat: 36, NorthResidual: 4},
		Station{Lon: -122, Lat: 37, EastResidual: 6, NorthResidual: 8},
	)

	got, err := CompareResiduals(a, b)
	require.NoError(t, err)
	require.Len(t, got, 2, "unmatched stations are skipped")

	assert.Equal(t, -122.0, got[0].Lon)
	assert.InDelta(t, 5, got[0].MagnitudeA, 1e-12)
	assert.InDelta(t, 10, got[0].MagnitudeB, 1e-12)
	assert.InDelta(t, 5, got[0].Difference, 1e-12)
	assert.Equal(t, ProjectPoint(-122, 37), got[0].Point)

	assert.Equal(t, -121.0, got[1].Lon)
	assert.InDelta(t, 3, got[1].Difference, 1e-12)
}

func TestCompareResiduals_MatchesWithinGrid(t *testing.T) {
	a := datasetWithStations(Station{Lon: 10.0000001, Lat: 20, EastResidual: 1})
	b := datasetWithStations(Station{Lon: 10, Lat: 20, EastResidual: 2})

	got, err := CompareResiduals(a, b)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 1, got[0].Difference, 1e-12)
}

func TestCompareResiduals_RequiresBoth(t *testing.T) {
	_, err := CompareResiduals(datasetWithStations(), nil)
	require.Error(t, err)
	_, err = CompareResiduals(nil, datasetWithStations())
	require.Error(t, err)
}
