package catalog

import (
	"fmt"
	"strings"
)

// Kind identifies the access method a store file was built for. It selects
// the catalog line layout and the block discipline.
type Kind int

const (
	FixedHeap Kind = iota
	VariableHeap
	OrderedFile
	StaticHash
)

var kindNames = map[Kind]string{
	FixedHeap:    "fixed-heap",
	VariableHeap: "variable-heap",
	OrderedFile:  "ordered",
	StaticHash:   "hash",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind maps a method name (as used on the command line) to a Kind.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k, kn := range kindNames {
		if kn == n {
			return k, nil
		}
	}
	switch n {
	case "fixed", "heap":
		return FixedHeap, nil
	case "variable", "varheap":
		return VariableHeap, nil
	case "ordered-file", "sorted":
		return OrderedFile, nil
	case "static-hash", "hashed":
		return StaticHash, nil
	}
	return 0, fmt.Errorf("unknown access method %q", name)
}

// HasWidths reports whether the catalog carries field widths and a blocking
// factor, i.e. whether records are stored in fixed-size slots.
func (k Kind) HasWidths() bool {
	return k != VariableHeap
}

// LineCount is the number of header lines the catalog occupies.
func (k Kind) LineCount() int {
	switch k {
	case FixedHeap:
		return 9
	case VariableHeap:
		return 8
	default:
		return 10
	}
}
