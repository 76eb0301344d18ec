package schema

import (
	"blockstore/pkg/types"
	"fmt"
)

// ColumnDef defines a column for schema building
type ColumnDef struct {
	Name  string
	Type  types.Type
	Width int
}

// SchemaBuilder helps construct schemas with less boilerplate. The first
// column added becomes the primary key.
type SchemaBuilder struct {
	columns []ColumnDef
}

// NewSchemaBuilder creates a new schema builder
func NewSchemaBuilder() *SchemaBuilder {
	return &SchemaBuilder{
		columns: make([]ColumnDef, 0),
	}
}

// AddColumn adds a fixed-width column
func (sb *SchemaBuilder) AddColumn(name string, fieldType types.Type, width int) *SchemaBuilder {
	sb.columns = append(sb.columns, ColumnDef{
		Name:  name,
		Type:  fieldType,
		Width: width,
	})
	return sb
}

// AddVariableColumn adds a column with no declared width, for delimited layouts
func (sb *SchemaBuilder) AddVariableColumn(name string, fieldType types.Type) *SchemaBuilder {
	return sb.AddColumn(name, fieldType, 0)
}

// Build constructs the schema
func (sb *SchemaBuilder) Build() (*Schema, error) {
	columns := make([]Column, 0, len(sb.columns))

	for i, colDef := range sb.columns {
		col, err := NewColumn(colDef.Name, colDef.Type, colDef.Width, i)
		if err != nil {
			return nil, fmt.Errorf("failed to create column: %v", err)
		}
		columns = append(columns, *col)
	}

	sch, err := NewSchema(columns)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}
	return sch, nil
}

// FromLists builds a schema from the parallel name, width and type lists a
// catalog stores. widths may be nil for delimited layouts.
func FromLists(names []string, widths []int, fieldTypes []types.Type) (*Schema, error) {
	if len(names) != len(fieldTypes) {
		return nil, fmt.Errorf("schema has %d names but %d types", len(names), len(fieldTypes))
	}
	if widths != nil && len(widths) != len(names) {
		return nil, fmt.Errorf("schema has %d names but %d widths", len(names), len(widths))
	}

	builder := NewSchemaBuilder()
	for i, name := range names {
		width := 0
		if widths != nil {
			width = widths[i]
		}
		builder.AddColumn(name, fieldTypes[i], width)
	}
	return builder.Build()
}
