package domain

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Slot identifies one of the two independently loaded result folders.
type Slot int

const (
	SlotOne Slot = 1
	SlotTwo Slot = 2
)

// Slots lists every valid slot in order.
var Slots = []Slot{SlotOne, SlotTwo}

// Valid reports whether s is slot 1 or 2.
func (s Slot) Valid() bool { return s == SlotOne || s == SlotTwo }

// Index returns the zero-based array index for a valid slot.
func (s Slot) Index() int { return int(s) - 1 }

func (s Slot) String() string { return strconv.Itoa(int(s)) }

// ParseSlot parses "1" or "2".
func ParseSlot(v string) (Slot, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || !Slot(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSlot, v)
	}
	return Slot(n), nil
}

// Station is one GNSS station row with observed, modeled and residual
// velocities plus the components the model velocity is summed from.
type Station struct {
	Lon           float64 `json:"lon"`
	Lat           float64 `json:"lat"`
	EastVel       float64 `json:"east_vel"`
	NorthVel      float64 `json:"north_vel"`
	ModelEastVel  float64 `json:"model_east_vel"`
	ModelNorthVel float64 `json:"model_north_vel"`
	EastResidual  float64 `json:"model_east_vel_residual"`
	NorthResidual float64 `json:"model_north_vel_residual"`

	// Model velocity components, in the same units as the velocities above.
	RotationEastVel  float64 `json:"model_east_vel_rotation"`
	RotationNorthVel float64 `json:"model_north_vel_rotation"`
	TDEEastVel       float64 `json:"model_east_vel_tde"`
	TDENorthVel      float64 `json:"model_north_vel_tde"`
	StrainEastVel    float64 `json:"model_east_vel_block_strain_rotation"`
	StrainNorthVel   float64 `json:"model_north_vel_block_strain_rotation"`
	MogiEastVel      float64 `json:"model_east_vel_mogi"`
	MogiNorthVel     float64 `json:"model_north_vel_mogi"`
}

// ResidualMagnitude is the Euclidean norm of the east/north residual components.
func (s Station) ResidualMagnitude() float64 {
	return math.Hypot(s.EastResidual, s.NorthResidual)
}

// Segment is a linear fault trace between two geodetic endpoints.
type Segment struct {
	Lon1 float64 `json:"lon1"`
	Lat1 float64 `json:"lat1"`
	Lon2 float64 `json:"lon2"`
	Lat2 float64 `json:"lat2"`

	// Slip rates are carried through for strike-slip / dip-slip coloring.
	StrikeSlipRate float64 `json:"model_strike_slip_rate"`
	DipSlipRate    float64 `json:"model_dip_slip_rate"`
}

// Vertex is a mesh vertex; Dep is depth in kilometers.
type Vertex struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
	Dep float64 `json:"dep"`
}

// MeshElement is one triangular dislocation element of the surface MeshIdx.
type MeshElement struct {
	Vertices [3]Vertex `json:"vertices"`
	MeshIdx  int       `json:"mesh_idx"`

	StrikeSlipRate float64 `json:"strike_slip_rate"`
	DipSlipRate    float64 `json:"dip_slip_rate"`
}

// Tables is the raw content of one result folder.
type Tables struct {
	Stations []Station
	Segments []Segment
	Meshes   []MeshElement
}

// TriangleGeometry holds the derived orientation of one mesh element.
type TriangleGeometry struct {
	Normal     r3.Vec  `json:"normal"`
	Area       float64 `json:"area"`
	Strike     float64 `json:"strike"`
	Dip        float64 `json:"dip"`
	Degenerate bool    `json:"degenerate,omitempty"`
}

// PlanarPoint is a Web Mercator coordinate in meters.
type PlanarPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ProjectedStation is a station placed on the map with its residual magnitude.
type ProjectedStation struct {
	Station
	Point             PlanarPoint `json:"point"`
	ResidualMagnitude float64     `json:"residual_magnitude"`
}

// ProjectedSegment is a segment trace placed on the map.
type ProjectedSegment struct {
	Segment
	Start PlanarPoint `json:"start"`
	End   PlanarPoint `json:"end"`
}

// ProjectedTriangle is a mesh element placed on the map. Element holds the
// wrapped geodetic input; Corrected holds the vertices after steep-dip
// projection (identical to Element for non-steep groups).
type ProjectedTriangle struct {
	Element   MeshElement      `json:"element"`
	Corrected MeshElement      `json:"corrected"`
	Vertices  [3]PlanarPoint   `json:"vertices"`
	Geometry  TriangleGeometry `json:"geometry"`
	Steep     bool             `json:"steep"`
}

// GroupSummary describes the dip statistics of one mesh_idx group.
type GroupSummary struct {
	MeshIdx      int     `json:"mesh_idx"`
	Elements     int     `json:"elements"`
	Degenerate   int     `json:"degenerate"`
	MeanDip      float64 `json:"mean_dip"`
	DipDirection float64 `json:"dip_direction"` // radians, only meaningful when Steep
	Steep        bool    `json:"steep"`
}

// ProjectedDataset is the render-ready result of one folder load.
type ProjectedDataset struct {
	ID        string                      `json:"id"`
	Slot      Slot                        `json:"slot"`
	Folder    string                      `json:"folder"`
	LoadedAt  time.Time                   `json:"loaded_at"`
	Stations  []ProjectedStation          `json:"stations"`
	Segments  []ProjectedSegment          `json:"segments"`
	Triangles []ProjectedTriangle         `json:"triangles"`
	Groups    []GroupSummary              `json:"groups"`
	Warnings  []DegenerateGeometryWarning `json:"warnings,omitempty"`
}

// LoadRequest asks for a folder to be loaded into a slot.
type LoadRequest struct {
	Slot   Slot   `json:"slot"`
	Folder string `json:"folder"`
}

// LoadMessage is an unparsed load request from the message bus.
type LoadMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}
