package domain

import (
	"fmt"
	"math"
)

// DepthConvention names the sign convention of mesh depths.
type DepthConvention string

const (
	// PositiveDown expects depths >= 0; negative depths are rejected.
	PositiveDown DepthConvention = "positive-down"
	// NegativeDown expects depths <= 0; positive depths are rejected.
	NegativeDown DepthConvention = "negative-down"
)

// ParseDepthConvention validates a convention name.
func ParseDepthConvention(v string) (DepthConvention, error) {
	switch c := DepthConvention(v); c {
	case PositiveDown, NegativeDown:
		return c, nil
	default:
		return "", fmt.Errorf("unknown depth convention %q (want %q or %q)", v, PositiveDown, NegativeDown)
	}
}

func (c DepthConvention) check(dep float64) string {
	switch {
	case c == PositiveDown && dep < 0:
		return "negative depth with positive-down convention"
	case c == NegativeDown && dep > 0:
		return "positive depth with negative-down convention"
	}
	return ""
}

// checkLonLat enforces finite coordinates and a latitude strictly inside
// (−90, 90), where the Mercator projection is finite.
func checkLonLat(table string, row int, lonField string, lon float64, latField string, lat float64) error {
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return &DomainError{Table: table, Row: row, Field: lonField, Value: lon, Reason: "longitude is not finite"}
	}
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return &DomainError{Table: table, Row: row, Field: latField, Value: lat, Reason: "latitude is not finite"}
	}
	if lat <= -90 || lat >= 90 {
		return &DomainError{Table: table, Row: row, Field: latField, Value: lat, Reason: "latitude outside (-90, 90)"}
	}
	return nil
}

// ValidateStations checks every station coordinate.
func ValidateStations(stations []Station) error {
	for i, s := range stations {
		if err := checkLonLat("station", i, "lon", s.Lon, "lat", s.Lat); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSegments checks both endpoints of every segment.
func ValidateSegments(segments []Segment) error {
	for i, s := range segments {
		if err := checkLonLat("segment", i, "lon1", s.Lon1, "lat1", s.Lat1); err != nil {
			return err
		}
		if err := checkLonLat("segment", i, "lon2", s.Lon2, "lat2", s.Lat2); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMeshes checks every vertex coordinate and, unless convention is
// empty, the depth sign.
func ValidateMeshes(elements []MeshElement, convention DepthConvention) error {
	for i, e := range elements {
		for v, vx := range e.Vertices {
			n := v + 1
			if err := checkLonLat("meshes", i, fmt.Sprintf("lon%d", n), vx.Lon, fmt.Sprintf("lat%d", n), vx.Lat); err != nil {
				return err
			}
			field := fmt.Sprintf("dep%d", n)
			if math.IsNaN(vx.Dep) || math.IsInf(vx.Dep, 0) {
				return &DomainError{Table: "meshes", Row: i, Field: field, Value: vx.Dep, Reason: "depth is not finite"}
			}
			if reason := convention.check(vx.Dep); reason != "" {
				return &DomainError{Table: "meshes", Row: i, Field: field, Value: vx.Dep, Reason: reason}
			}
		}
	}
	return nil
}
