package schema

import (
	"fmt"
	"slices"

	"blockstore/pkg/types"
)

// Schema is the ordered field list of a store. Field 0 is always the primary
// key, and the column count never changes over the lifetime of a store.
type Schema struct {
	Columns []Column

	// Fast lookup indices
	fieldNameToIndex map[string]int
}

// NewSchema creates a new Schema from column metadata. Columns are ordered by
// Position; names must be unique.
func NewSchema(columns []Column) (*Schema, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("schema must have at least one column")
	}

	sortedCols := slices.Clone(columns)
	slices.SortFunc(sortedCols, func(a, b Column) int {
		return a.Position - b.Position
	})

	fieldNameToIndex := make(map[string]int, len(sortedCols))
	for i, col := range sortedCols {
		if _, dup := fieldNameToIndex[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", col.Name)
		}
		fieldNameToIndex[col.Name] = i
		sortedCols[i].Position = i
	}

	return &Schema{
		Columns:          sortedCols,
		fieldNameToIndex: fieldNameToIndex,
	}, nil
}

// GetFieldIndex returns the field index for a given field name.
// Returns -1 if the field doesn't exist.
func (s *Schema) GetFieldIndex(fieldName string) int {
	if idx, ok := s.fieldNameToIndex[fieldName]; ok {
		return idx
	}
	return -1
}

// HasColumn returns true if the schema contains a column with the given name.
func (s *Schema) HasColumn(fieldName string) bool {
	_, ok := s.fieldNameToIndex[fieldName]
	return ok
}

// Column returns the column at index, or nil if the index is out of bounds.
func (s *Schema) Column(index int) *Column {
	if index < 0 || index >= len(s.Columns) {
		return nil
	}
	return &s.Columns[index]
}

// PrimaryKeyName returns the name of field 0.
func (s *Schema) PrimaryKeyName() string {
	return s.Columns[0].Name
}

// NumFields returns the number of fields in the schema.
func (s *Schema) NumFields() int {
	return len(s.Columns)
}

// FieldNames returns a slice of all field names in order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// FieldTypes returns a slice of all field types in order.
func (s *Schema) FieldTypes() []types.Type {
	fieldTypes := make([]types.Type, len(s.Columns))
	for i, col := range s.Columns {
		fieldTypes[i] = col.Type
	}
	return fieldTypes
}

// FieldWidths returns a slice of all declared widths in order.
func (s *Schema) FieldWidths() []int {
	widths := make([]int, len(s.Columns))
	for i, col := range s.Columns {
		widths[i] = col.Width
	}
	return widths
}

// IsFixedWidth reports whether every column declares a positive width.
func (s *Schema) IsFixedWidth() bool {
	for _, col := range s.Columns {
		if col.Width <= 0 {
			return false
		}
	}
	return true
}

// RecordSize is the byte length of a fixed-width record: every field padded
// to its width and followed by the field separator.
func (s *Schema) RecordSize() int {
	size := 0
	for _, col := range s.Columns {
		size += col.Width + 1
	}
	return size
}

// BlockingFactor returns how many fixed-width records fit in a block.
func (s *Schema) BlockingFactor(blockSize int) int {
	size := s.RecordSize()
	if size == 0 {
		return 0
	}
	return blockSize / size
}
