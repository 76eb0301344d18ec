package types

import (
	"fmt"
	"strings"
)

// Type is the inferred domain of a field's textual value. All values are
// stored as decimal text; Type only governs validation and range queries.
type Type int

const (
	IntegerType Type = iota
	RealType
	DateType
	TimeType
	TextType
)

const (
	// DateLayout is the only accepted date format.
	DateLayout = "2006-01-02"
	// TimeLayout is the only accepted time-of-day format.
	TimeLayout = "15:04:05"
)

// String returns the name written into store catalogs.
func (t Type) String() string {
	switch t {
	case IntegerType:
		return "integer"
	case RealType:
		return "real"
	case DateType:
		return "date"
	case TimeType:
		return "time"
	case TextType:
		return "text"
	default:
		return "unknown"
	}
}

// Parse maps a catalog type name back to its Type. The short names used by
// older stores (int, float, string) are accepted as aliases.
func Parse(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "integer", "int":
		return IntegerType, nil
	case "real", "float":
		return RealType, nil
	case "date":
		return DateType, nil
	case "time":
		return TimeType, nil
	case "text", "string":
		return TextType, nil
	default:
		return TextType, fmt.Errorf("unknown field type %q", name)
	}
}

// IsEnumerable reports whether values of t can be expanded into a discrete range.
func (t Type) IsEnumerable() bool {
	return t == IntegerType || t == DateType || t == TimeType
}
