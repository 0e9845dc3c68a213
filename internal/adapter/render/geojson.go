// Package render encodes projected datasets for map clients: GeoJSON in Web
// Mercator meters and KML in geodetic degrees.
package render

import (
	"fmt"

	"github.com/couchcryptid/fault-render-etl/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Layer names carried in the "layer" property of every feature.
const (
	LayerStation = "station"
	LayerSegment = "segment"
	LayerMesh    = "mesh"
)

func point(p domain.PlanarPoint) orb.Point { return orb.Point{p.X, p.Y} }

// FeatureCollection converts ds into planar features: one Point per station,
// one LineString per segment and one Polygon per mesh element.
func FeatureCollection(ds *domain.ProjectedDataset) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, s := range ds.Stations {
		f := geojson.NewFeature(point(s.Point))
		f.Properties["layer"] = LayerStation
		f.Properties["lon"] = s.Lon
		f.Properties["lat"] = s.Lat
		f.Properties["east_vel"] = s.EastVel
		f.Properties["north_vel"] = s.NorthVel
		f.Properties["model_east_vel"] = s.ModelEastVel
		f.Properties["model_north_vel"] = s.ModelNorthVel
		f.Properties["model_east_vel_residual"] = s.EastResidual
		f.Properties["model_north_vel_residual"] = s.NorthResidual
		f.Properties["residual_magnitude"] = s.ResidualMagnitude
		f.Properties["model_east_vel_rotation"] = s.RotationEastVel
		f.Properties["model_north_vel_rotation"] = s.RotationNorthVel
		f.Properties["model_east_vel_tde"] = s.TDEEastVel
		f.Properties["model_north_vel_tde"] = s.TDENorthVel
		f.Properties["model_east_vel_block_strain_rotation"] = s.StrainEastVel
		f.Properties["model_north_vel_block_strain_rotation"] = s.StrainNorthVel
		f.Properties["model_east_vel_mogi"] = s.MogiEastVel
		f.Properties["model_north_vel_mogi"] = s.MogiNorthVel
		fc.Append(f)
	}

	for _, s := range ds.Segments {
		f := geojson.NewFeature(orb.LineString{point(s.Start), point(s.End)})
		f.Properties["layer"] = LayerSegment
		f.Properties["model_strike_slip_rate"] = s.StrikeSlipRate
		f.Properties["model_dip_slip_rate"] = s.DipSlipRate
		fc.Append(f)
	}

	for i, t := range ds.Triangles {
		ring := orb.Ring{point(t.Vertices[0]), point(t.Vertices[1]), point(t.Vertices[2]), point(t.Vertices[0])}
		f := geojson.NewFeature(orb.Polygon{ring})
		f.ID = i
		f.Properties["layer"] = LayerMesh
		f.Properties["mesh_idx"] = t.Element.MeshIdx
		f.Properties["strike"] = t.Geometry.Strike
		f.Properties["dip"] = t.Geometry.Dip
		f.Properties["degenerate"] = t.Geometry.Degenerate
		f.Properties["steep"] = t.Steep
		f.Properties["strike_slip_rate"] = t.Element.StrikeSlipRate
		f.Properties["dip_slip_rate"] = t.Element.DipSlipRate
		fc.Append(f)
	}

	if b := domain.Summarize(ds).Bounds; b != nil {
		fc.BBox = geojson.BBox{b.MinX, b.MinY, b.MaxX, b.MaxY}
	}
	return fc
}

// GeoJSON marshals ds as a FeatureCollection.
func GeoJSON(ds *domain.ProjectedDataset) ([]byte, error) {
	data, err := FeatureCollection(ds).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geojson for %s: %w", ds.ID, err)
	}
	return data, nil
}
