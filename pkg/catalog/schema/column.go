package schema

import (
	"blockstore/pkg/primitives"
	"blockstore/pkg/types"
	"fmt"
)

// Column describes one field of a store's schema.
type Column struct {
	Name     string     // Field name as written in the catalog
	Width    int        // Declared byte width; 0 for delimited layouts
	Type     types.Type // Inferred field type
	Position int        // Field index (0 is the primary key)
}

// NewColumn creates a new Column instance.
func NewColumn(name string, fieldType types.Type, width, position int) (*Column, error) {
	if name == "" {
		return nil, fmt.Errorf("column name cannot be empty")
	}

	if primitives.ContainsReserved(name) {
		return nil, fmt.Errorf("column name %q contains a reserved character", name)
	}

	if width < 0 {
		return nil, fmt.Errorf("column width must be non-negative, got %d for column '%s'", width, name)
	}

	if position < 0 {
		return nil, fmt.Errorf("column position must be non-negative, got %d for column '%s'", position, name)
	}

	return &Column{
		Name:     name,
		Width:    width,
		Type:     fieldType,
		Position: position,
	}, nil
}

// IsPrimary reports whether the column holds the primary key.
func (c Column) IsPrimary() bool {
	return c.Position == 0
}
