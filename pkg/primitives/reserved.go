package primitives

import "strings"

// Reserved bytes of the block format. Field content may contain none of them.
const (
	Filler     byte = '#'
	Sentinel   byte = '$'
	Separator  byte = ','
	Terminator byte = '\n'
)

const reservedSet = "#$,\n"

// ContainsReserved reports whether s contains a byte reserved by the block format.
func ContainsReserved(s string) bool {
	return strings.ContainsAny(s, reservedSet)
}
