package domain

import (
	"errors"
	"fmt"
)

// ResidualComparison pairs one station's residual magnitude across both slots.
type ResidualComparison struct {
	Lon        float64     `json:"lon"`
	Lat        float64     `json:"lat"`
	Point      PlanarPoint `json:"point"`
	MagnitudeA float64     `json:"magnitude_a"`
	MagnitudeB float64     `json:"magnitude_b"`
	Difference float64     `json:"difference"` // B − A
}

// CompareResiduals matches stations of a and b by position (1e-6° grid) and
// reports the change in residual magnitude. Stations present in only one
// dataset are skipped. Output follows the station order of a.
func CompareResiduals(a, b *ProjectedDataset) ([]ResidualComparison, error) {
	if a == nil || b == nil {
		return nil, errors.New("compare residuals: both slots must be loaded")
	}

	byPos := make(map[string]ProjectedStation, len(b.Stations))
	for _, s := range b.Stations {
		byPos[stationKey(s.Station)] = s
	}

	out := make([]ResidualComparison, 0, len(a.Stations))
	for _, sa := range a.Stations {
		sb, ok := byPos[stationKey(sa.Station)]
		if !ok {
			continue
		}
		out = append(out, ResidualComparison{
			Lon:        sa.Lon,
			Lat:        sa.Lat,
			Point:      sa.Point,
			MagnitudeA: sa.ResidualMagnitude,
			MagnitudeB: sb.ResidualMagnitude,
			Difference: sb.ResidualMagnitude - sa.ResidualMagnitude,
		})
	}
	return out, nil
}

func stationKey(s Station) string {
	return fmt.Sprintf("%.6f,%.6f", s.Lon, s.Lat)
}
