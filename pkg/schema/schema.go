// Package schema defines the column type model for conversions and the
// inference engine that derives a schema from sampled string columns.
// A Schema is built once per file from the sample, frozen, and then
// shared read-only by the streaming writer and the verifier.
package schema

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// ColumnType is the inferred storage type of a column.
type ColumnType string

const (
	TypeInt32    ColumnType = "int32"
	TypeInt64    ColumnType = "int64"
	TypeFloat64  ColumnType = "float64"
	TypeBool     ColumnType = "bool"
	TypeDatetime ColumnType = "datetime"
	TypeString   ColumnType = "string"
)

// Column is a single schema entry. For datetime columns Format holds
// the strftime-style form from configuration and Layout its Go
// reference-layout translation.
type Column struct {
	Name   string
	Type   ColumnType
	Format string
	Layout string
}

// String renders the column as "name: type" with the datetime format
// attached when present.
func (c Column) String() string {
	if c.Type == TypeDatetime && c.Format != "" {
		return c.Name + ": datetime(" + c.Format + ")"
	}
	return c.Name + ": " + string(c.Type)
}

// Schema is an ordered set of columns; order matches the source column
// order. Schemas are immutable once built.
type Schema struct {
	Columns []Column
}

// Names returns the column names in schema order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.Columns) }

// String renders the schema as "{a: int64, b: string}".
func (s *Schema) String() string {
	parts := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		parts[i] = c.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Arrow converts the schema to its Arrow form; all columns are nullable.
func (s *Schema) Arrow() *arrow.Schema {
	fields := make([]arrow.Field, len(s.Columns))
	for i, c := range s.Columns {
		fields[i] = arrow.Field{
			Name:     c.Name,
			Type:     arrowType(c.Type),
			Nullable: true,
		}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(t ColumnType) arrow.DataType {
	switch t {
	case TypeInt32:
		return arrow.PrimitiveTypes.Int32
	case TypeInt64:
		return arrow.PrimitiveTypes.Int64
	case TypeFloat64:
		return arrow.PrimitiveTypes.Float64
	case TypeBool:
		return arrow.FixedWidthTypes.Boolean
	case TypeDatetime:
		return arrow.FixedWidthTypes.Timestamp_ns
	default:
		return arrow.BinaryTypes.String
	}
}

// FromArrow maps an Arrow schema back to the column model. Datetime
// layouts are not recoverable from parquet metadata and are left empty.
func FromArrow(as *arrow.Schema) *Schema {
	cols := make([]Column, as.NumFields())
	for i := 0; i < as.NumFields(); i++ {
		f := as.Field(i)
		cols[i] = Column{Name: f.Name, Type: fromArrowType(f.Type)}
	}
	return &Schema{Columns: cols}
}

func fromArrowType(t arrow.DataType) ColumnType {
	switch t.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.UINT8, arrow.UINT16:
		return TypeInt32
	case arrow.INT64, arrow.UINT32, arrow.UINT64:
		return TypeInt64
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return TypeFloat64
	case arrow.BOOL:
		return TypeBool
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		return TypeDatetime
	default:
		return TypeString
	}
}
