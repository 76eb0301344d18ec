package types

import (
	"blockstore/pkg/dberror"
	"strconv"
	"strings"
	"time"
)

// Interval is a checked range over an enumerable type. Integers cover
// [start, end); dates cover [start, end] day by day and times cover
// [start, end] second by second.
type Interval struct {
	Type       Type
	start, end int64
}

// ParseInterval verifies that (start, end) is a non-empty interval of type t.
// Only integers, dates and times can be enumerated; start must be strictly
// before end.
func ParseInterval(t Type, start, end string) (Interval, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	iv := Interval{Type: t}

	switch t {
	case IntegerType:
		s, e, err := parseIntegerBounds(start, end)
		if err != nil {
			return iv, err
		}
		if s >= e {
			return iv, dberror.InvalidInterval("integer interval [%d, %d) is empty", s, e)
		}
		iv.start, iv.end = s, e

	case DateType, TimeType:
		s, ok := iv.Ordinal(start)
		if !ok {
			return iv, dberror.InvalidInterval("start %q is not a valid %s", start, t)
		}
		e, ok := iv.Ordinal(end)
		if !ok {
			return iv, dberror.InvalidInterval("end %q is not a valid %s", end, t)
		}
		if s >= e {
			return iv, dberror.InvalidInterval("%s interval %s..%s is empty", t, start, end)
		}
		iv.start, iv.end = s, e

	default:
		return iv, dberror.InvalidInterval("%s values cannot be enumerated", t)
	}
	return iv, nil
}

// CheckInterval reports whether ParseInterval accepts (start, end).
func CheckInterval(t Type, start, end string) error {
	_, err := ParseInterval(t, start, end)
	return err
}

// Ordinal places value on the line the interval is measured on: the integer
// itself, days since the epoch for dates, seconds since midnight for times.
// ok is false when value is not of the interval's type.
func (iv Interval) Ordinal(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	switch iv.Type {
	case IntegerType:
		v, err := strconv.ParseInt(value, 10, 64)
		return v, err == nil

	case DateType:
		d, err := time.Parse(DateLayout, value)
		if err != nil {
			return 0, false
		}
		return d.Unix() / 86400, true

	case TimeType:
		c, err := time.Parse(TimeLayout, value)
		if err != nil {
			return 0, false
		}
		return int64(c.Hour()*3600 + c.Minute()*60 + c.Second()), true
	}
	return 0, false
}

// Contains reports whether value falls inside the interval.
func (iv Interval) Contains(value string) bool {
	v, ok := iv.Ordinal(value)
	if !ok {
		return false
	}
	if iv.Type == IntegerType {
		return v >= iv.start && v < iv.end
	}
	return v >= iv.start && v <= iv.end
}

func parseIntegerBounds(start, end string) (int64, int64, error) {
	s, err := strconv.ParseInt(start, 10, 64)
	if err != nil {
		return 0, 0, dberror.InvalidInterval("start %q is not an integer", start)
	}
	e, err := strconv.ParseInt(end, 10, 64)
	if err != nil {
		return 0, 0, dberror.InvalidInterval("end %q is not an integer", end)
	}
	return s, e, nil
}
