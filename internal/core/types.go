// Package core implements the import pipeline: readers, conversion,
// validation, writing and result aggregation. It has no transport
// dependencies and is shared by the CLI and the HTTP server.
package core

import (
	"context"
	"time"
)

// FieldKind selects the converter applied to a raw field value.
type FieldKind int

const (
	KindText FieldKind = iota
	KindInteger
	KindDecimal
	KindTimestamp
	// KindDiscontinued is a timestamp where "yes" means the conversion time.
	KindDiscontinued
)

func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindTimestamp:
		return "timestamp"
	case KindDiscontinued:
		return "discontinued timestamp"
	default:
		return "unknown"
	}
}

// FieldSpec describes one importable field of a target.
type FieldSpec struct {
	Name     string    // Field name as it appears in headers
	Kind     FieldKind // Converter selection
	DBColumn string    // Sink column; derived from Name when empty
}

// Column returns the sink column for the field.
func (f FieldSpec) Column() string {
	if f.DBColumn != "" {
		return f.DBColumn
	}
	return f.Name
}

// TargetInfo contains display information about a target.
type TargetInfo struct {
	Key   string `json:"key"`   // Registry key: "product"
	Label string `json:"label"` // Display name: "Products"
	Table string `json:"table"` // Sink table: "products"
}

// NewFunc builds a domain object from converted field values keyed by
// field name. Absent fields are missing from the map.
type NewFunc func(values map[string]any) (any, error)

// RowFunc returns the values of an object in the order of Columns.
type RowFunc func(obj any) ([]any, error)

// TargetDefinition contains everything needed to import one kind of object.
type TargetDefinition struct {
	Info       TargetInfo
	FieldSpecs []FieldSpec
	New        NewFunc
	Rules      []Rule

	// Columns and Row describe how writers persist the object.
	Columns []string
	Row     RowFunc
}

// Field returns the spec named name.
func (t TargetDefinition) Field(name string) (FieldSpec, bool) {
	for _, f := range t.FieldSpecs {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Persistable objects are stamped by writers right before staging.
type Persistable interface {
	PrePersist(now time.Time)
}

// UniqueChecker reports whether a value already exists in a sink column.
type UniqueChecker interface {
	Exists(ctx context.Context, table, column string, value any) (bool, error)
}
