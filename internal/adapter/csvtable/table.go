package csvtable

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/fault-render-etl/internal/domain"
)

// table is a parsed CSV file with columns addressed by header name.
type table struct {
	name    string
	columns map[string]int
	rows    [][]string
}

func readTable(name string, r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	all, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s table: %w", name, err)
	}
	if len(all) == 0 {
		return nil, &domain.SchemaError{Table: name, Row: -1, Reason: "missing header row"}
	}

	t := &table{name: name, columns: make(map[string]int, len(all[0])), rows: all[1:]}
	for i, h := range all[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := t.columns[h]; !dup {
			t.columns[h] = i
		}
	}
	return t, nil
}

// require reports a SchemaError for the first absent column.
func (t *table) require(columns ...string) error {
	for _, c := range columns {
		if _, ok := t.columns[c]; !ok {
			return &domain.SchemaError{Table: t.name, Column: c, Row: -1, Reason: "column is missing"}
		}
	}
	return nil
}

func (t *table) has(column string) bool {
	_, ok := t.columns[column]
	return ok
}

// float parses a finite numeric cell. Absent optional columns read as zero.
func (t *table) float(row int, column string) (float64, error) {
	idx, ok := t.columns[column]
	if !ok {
		return 0, nil
	}
	var cell string
	if idx < len(t.rows[row]) {
		cell = strings.TrimSpace(t.rows[row][idx])
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, &domain.SchemaError{Table: t.name, Column: column, Row: row, Reason: "not a number"}
	}
	// ParseFloat accepts NaN and Inf, which no column can encode downstream.
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &domain.SchemaError{Table: t.name, Column: column, Row: row, Reason: "non-finite value"}
	}
	return v, nil
}

// integer parses an integer cell; integral floats such as "3.0" are accepted.
func (t *table) integer(row int, column string) (int, error) {
	v, err := t.float(row, column)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, &domain.SchemaError{Table: t.name, Column: column, Row: row, Reason: fmt.Sprintf("%g is not an integer", v)}
	}
	return int(v), nil
}

// floats reads several columns of one row, stopping at the first error.
func (t *table) floats(row int, columns ...string) ([]float64, error) {
	out := make([]float64, len(columns))
	var err error
	for i, c := range columns {
		if out[i], err = t.float(row, c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Required columns come first; the rest are optional.
var stationColumns = []string{
	"lon", "lat", "model_east_vel_residual", "model_north_vel_residual",
	"east_vel", "north_vel", "model_east_vel", "model_north_vel",
	"model_east_vel_rotation", "model_north_vel_rotation",
	"model_east_vel_tde", "model_north_vel_tde",
	"model_east_vel_block_strain_rotation", "model_north_vel_block_strain_rotation",
	"model_east_vel_mogi", "model_north_vel_mogi",
}

func parseStations(t *table) ([]domain.Station, error) {
	if err := t.require(stationColumns[:4]...); err != nil {
		return nil, err
	}
	out := make([]domain.Station, len(t.rows))
	for i := range t.rows {
		v, err := t.floats(i, stationColumns...)
		if err != nil {
			return nil, err
		}
		out[i] = domain.Station{
			Lon: v[0], Lat: v[1],
			EastResidual: v[2], NorthResidual: v[3],
			EastVel: v[4], NorthVel: v[5],
			ModelEastVel: v[6], ModelNorthVel: v[7],
			RotationEastVel: v[8], RotationNorthVel: v[9],
			TDEEastVel: v[10], TDENorthVel: v[11],
			StrainEastVel: v[12], StrainNorthVel: v[13],
			MogiEastVel: v[14], MogiNorthVel: v[15],
		}
	}
	return out, nil
}

var segmentColumns = []string{"lon1", "lat1", "lon2", "lat2", "model_strike_slip_rate", "model_dip_slip_rate"}

func parseSegments(t *table) ([]domain.Segment, error) {
	if err := t.require(segmentColumns[:4]...); err != nil {
		return nil, err
	}
	out := make([]domain.Segment, len(t.rows))
	for i := range t.rows {
		v, err := t.floats(i, segmentColumns...)
		if err != nil {
			return nil, err
		}
		out[i] = domain.Segment{
			Lon1: v[0], Lat1: v[1], Lon2: v[2], Lat2: v[3],
			StrikeSlipRate: v[4], DipSlipRate: v[5],
		}
	}
	return out, nil
}

var meshColumns = []string{
	"lon1", "lat1", "dep1",
	"lon2", "lat2", "dep2",
	"lon3", "lat3", "dep3",
	"strike_slip_rate", "dip_slip_rate",
}

func parseMeshes(t *table) ([]domain.MeshElement, error) {
	if err := t.require(meshColumns[:9]...); err != nil {
		return nil, err
	}
	if err := t.require("mesh_idx"); err != nil {
		return nil, err
	}
	out := make([]domain.MeshElement, len(t.rows))
	for i := range t.rows {
		v, err := t.floats(i, meshColumns...)
		if err != nil {
			return nil, err
		}
		idx, err := t.integer(i, "mesh_idx")
		if err != nil {
			return nil, err
		}
		var e domain.MeshElement
		for k := range e.Vertices {
			e.Vertices[k] = domain.Vertex{Lon: v[3*k], Lat: v[3*k+1], Dep: v[3*k+2]}
		}
		e.MeshIdx = idx
		e.StrikeSlipRate, e.DipSlipRate = v[9], v[10]
		out[i] = e
	}
	return out, nil
}
