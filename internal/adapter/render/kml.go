package render

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/couchcryptid/fault-render-etl/internal/domain"
	"github.com/twpayne/go-kml"
)

// normalizeLon maps any longitude into [-180, 180) for KML viewers.
func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// vertexCoordinate places a mesh vertex at its depth below sea level.
func vertexCoordinate(v domain.Vertex) kml.Coordinate {
	return kml.Coordinate{Lon: normalizeLon(v.Lon), Lat: v.Lat, Alt: -math.Abs(v.Dep) * domain.KM2M}
}

// KMLDocument builds a KML document of ds in geodetic coordinates. Mesh
// polygons use the corrected vertices, so steep groups appear as drawn on the map.
func KMLDocument(ds *domain.ProjectedDataset) *kml.CompoundElement {
	stations := []kml.Element{kml.Name("Stations")}
	for i, s := range ds.Stations {
		stations = append(stations, kml.Placemark(
			kml.Name(fmt.Sprintf("station %d", i)),
			kml.Description(fmt.Sprintf("residual %.3f (east %.3f, north %.3f)", s.ResidualMagnitude, s.EastResidual, s.NorthResidual)),
			kml.Point(kml.Coordinates(kml.Coordinate{Lon: normalizeLon(s.Lon), Lat: s.Lat})),
		))
	}

	segments := []kml.Element{kml.Name("Segments")}
	for i, s := range ds.Segments {
		segments = append(segments, kml.Placemark(
			kml.Name(fmt.Sprintf("segment %d", i)),
			kml.Description(fmt.Sprintf("strike-slip %.3f, dip-slip %.3f", s.StrikeSlipRate, s.DipSlipRate)),
			kml.LineString(kml.Coordinates(
				kml.Coordinate{Lon: normalizeLon(s.Lon1), Lat: s.Lat1},
				kml.Coordinate{Lon: normalizeLon(s.Lon2), Lat: s.Lat2},
			)),
		))
	}

	mesh := []kml.Element{kml.Name("Mesh")}
	for i, t := range ds.Triangles {
		v := t.Corrected.Vertices
		mesh = append(mesh, kml.Placemark(
			kml.Name(fmt.Sprintf("mesh %d element %d", t.Corrected.MeshIdx, i)),
			kml.Description(fmt.Sprintf("strike %.1f, dip %.1f, steep %t", t.Geometry.Strike, t.Geometry.Dip, t.Steep)),
			kml.Polygon(kml.OuterBoundaryIs(kml.LinearRing(kml.Coordinates(
				vertexCoordinate(v[0]),
				vertexCoordinate(v[1]),
				vertexCoordinate(v[2]),
				vertexCoordinate(v[0]),
			)))),
		))
	}

	return kml.KML(kml.Document(
		kml.Name(ds.ID),
		kml.Description(fmt.Sprintf("slot %d: %s", ds.Slot, ds.Folder)),
		kml.Folder(stations...),
		kml.Folder(segments...),
		kml.Folder(mesh...),
	))
}

// WriteKML writes the indented KML document of ds to w.
func WriteKML(w io.Writer, ds *domain.ProjectedDataset) error {
	if err := KMLDocument(ds).WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("encode kml for %s: %w", ds.ID, err)
	}
	return nil
}

// KML returns the encoded KML document of ds.
func KML(ds *domain.ProjectedDataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteKML(&buf, ds); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
