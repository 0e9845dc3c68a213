package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownSlot is returned for folder slots other than 1 and 2.
var ErrUnknownSlot = errors.New("unknown folder slot")

// ErrSlotEmpty is returned when a slot has never been loaded.
var ErrSlotEmpty = errors.New("no dataset loaded in slot")

// SchemaError reports a missing or mistyped input column. It aborts the whole load.
type SchemaError struct {
	Table  string
	Column string
	Row    int // 0-based data row; -1 when the whole column is absent
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%s table: column %q: %s", e.Table, e.Column, e.Reason)
	}
	return fmt.Sprintf("%s table: column %q row %d: %s", e.Table, e.Column, e.Row, e.Reason)
}

// DomainError reports a coordinate outside its valid range. It aborts the load.
type DomainError struct {
	Table  string
	Row    int
	Field  string
	Value  float64
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s table: row %d: %s=%g: %s", e.Table, e.Row, e.Field, e.Value, e.Reason)
}

// DegenerateGeometryWarning flags a mesh element whose vertices are collinear
// or coincident. The element is kept with [DegenerateDip] and left out of its
// group's dip statistics.
type DegenerateGeometryWarning struct {
	Row     int `json:"row"`
	MeshIdx int `json:"mesh_idx"`
}

func (w DegenerateGeometryWarning) Error() string {
	return fmt.Sprintf("mesh element %d (mesh_idx %d) has zero area; strike and dip are undefined", w.Row, w.MeshIdx)
}

// IsInputError reports whether err is caused by bad input tables rather than
// an I/O or internal failure.
func IsInputError(err error) bool {
	var schemaErr *SchemaError
	var domainErr *DomainError
	return errors.As(err, &schemaErr) || errors.As(err, &domainErr)
}
