package types

import (
	"regexp"
	"strings"
	"time"
)

var (
	integerPattern = regexp.MustCompile(`^[+-]?\d+$`)
	realPattern    = regexp.MustCompile(`^[+-]?\d*\.\d+$`)
	datePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern    = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
)

// Infer classifies a field's text. Surrounding spaces are ignored so padded
// fixed-width values classify the same as their trimmed form. Strings that
// look like dates or times but do not name a real calendar day or clock
// time are text.
func Infer(value string) Type {
	v := strings.TrimSpace(value)
	switch {
	case integerPattern.MatchString(v):
		return IntegerType
	case realPattern.MatchString(v):
		return RealType
	case datePattern.MatchString(v):
		if _, err := time.Parse(DateLayout, v); err == nil {
			return DateType
		}
		return TextType
	case timePattern.MatchString(v):
		if _, err := time.Parse(TimeLayout, v); err == nil {
			return TimeType
		}
		return TextType
	default:
		return TextType
	}
}

// InferAll classifies every field of a record.
func InferAll(fields []string) []Type {
	out := make([]Type, len(fields))
	for i, f := range fields {
		out[i] = Infer(f)
	}
	return out
}
