// Package domain turns tabulated geodetic model output into render-ready,
// planar datasets.
//
// # Input Tables
//
// A result folder holds three CSV tables (see the csvtable adapter for file names):
//
//	station:  lon, lat, model_east_vel_residual, model_north_vel_residual
//	          (optional: east_vel, north_vel, model_east_vel, model_north_vel)
//	segment:  lon1, lat1, lon2, lat2
//	          (optional: model_strike_slip_rate, model_dip_slip_rate)
//	meshes:   lon1..3, lat1..3, dep1..3, mesh_idx
//	          (optional: strike_slip_rate, dip_slip_rate)
//
// Angles are decimal degrees. Velocities are in consistent linear units (mm/yr).
// Mesh depths are kilometers; the sign convention is configurable (see
// [DepthConvention]) and only affects validation, never the geometry formulas.
//
// # Longitude Domains
//
// Stations and segments are projected with the longitudes they were loaded
// with. Mesh longitudes are wrapped into [0, 360) with [WrapTo360] before any
// mesh geometry is computed, and the projected mesh keeps that domain.
//
// # Mesh Geometry
//
// Each triangle vertex is mapped into a pseudo-Cartesian frame
//
//	(rad(lon), rad(lat), 1 + dep·1000/6371000)
//
// which treats small angular and depth-fraction displacements as locally
// Cartesian. The element normal is the cross product of the two legs from the
// first vertex; its magnitude is reported as the element area (angular units,
// not square meters). Strike is the negated normal azimuth wrapped to
// [0, 360); dip is 90 minus the normal elevation, reflected into [0, 90].
// Constants are fixed so output matches existing viewers bit for bit.
//
// # Steep-Dip Projection
//
// Near-vertical fault surfaces collapse to lines on a map. Elements are grouped
// by mesh_idx; groups whose mean dip exceeds the threshold (75° by default,
// strict comparison) are shifted in the mean down-dip direction by
// deg(|dep·1000/6371000|) per vertex, so deeper vertices move further:
//
//	lon += sin(dipDir) · deg(|dep·1000/R|)
//	lat += cos(dipDir) · deg(|dep·1000/R|)
//
// The strike and dip reported for coloring are always those of the
// uncorrected element.
//
// # Projection
//
// Planar coordinates are spherical Web Mercator with R = 6378137 m. Latitudes
// of ±90° have no finite image and are rejected as a [DomainError].
package domain
