package types

import (
	"blockstore/pkg/dberror"
	"strconv"
	"strings"
)

// ParseKey reads a primary key as a base-10 integer. Ordered files sort on
// it and hashed stores bucket on it, so both reject non-integral keys.
func ParseKey(value string) (int64, error) {
	v := strings.TrimSpace(value)
	k, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, dberror.InvalidKey("key %q", v)
	}
	return k, nil
}

// CanonicalKey rewrites an integral key in its shortest base-10 form, so
// "007", "+7" and "7" name the same record.
func CanonicalKey(value string) (string, error) {
	k, err := ParseKey(value)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(k, 10), nil
}
