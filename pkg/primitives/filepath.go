package primitives

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Filepath is the path of a store, an ordered-file extension region, a
// rewrite target, a source file or an archive.
//
// Example usage:
//
//	store := primitives.Filepath("/data/users.txt")
//	ext := store.WithSuffix("_ext") // "/data/users_ext.txt"
//	if ext.Exists() {
//	    ext.Remove()
//	}
type Filepath string

// Dir returns the directory holding the file.
func (f Filepath) Dir() string {
	return filepath.Dir(string(f))
}

func (f Filepath) String() string {
	return string(f)
}

// Base returns the file name without its directory.
func (f Filepath) Base() string {
	return filepath.Base(string(f))
}

// Exists reports whether the file can be stat'ed.
func (f Filepath) Exists() bool {
	_, err := os.Stat(string(f))
	return err == nil
}

// Remove deletes the file. A missing file is not an error.
func (f Filepath) Remove() error {
	if !f.Exists() {
		return nil
	}
	return os.Remove(string(f))
}

// MkdirAll creates the directory holding the file, with any missing parents.
func (f Filepath) MkdirAll(perm os.FileMode) error {
	return os.MkdirAll(f.Dir(), perm)
}

// Ext returns the file extension including the dot, or "" when there is none.
func (f Filepath) Ext() string {
	return filepath.Ext(string(f))
}

// TableName returns the file name without directory and extension.
// Stores use it as the table name recorded in their catalog.
//
// Example:
//
//	primitives.Filepath("/data/users.txt").TableName() // Returns "users"
func (f Filepath) TableName() string {
	base := f.Base()
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// WithSuffix inserts suffix between the file name and its extension.
//
// Example:
//
//	primitives.Filepath("/data/users.txt").WithSuffix("_ext") // Returns "/data/users_ext.txt"
func (f Filepath) WithSuffix(suffix string) Filepath {
	ext := f.Ext()
	return Filepath(strings.TrimSuffix(string(f), ext) + suffix + ext)
}

// TempSibling returns a unique path in the same directory as f, suitable as
// the target of a write-then-rename rewrite. Keeping it in the same directory
// keeps the final rename on one filesystem.
func (f Filepath) TempSibling() Filepath {
	return Filepath(string(f) + ".tmp-" + uuid.NewString())
}

// RenameTo atomically replaces target with f.
func (f Filepath) RenameTo(target Filepath) error {
	return os.Rename(string(f), string(target))
}

// Size returns the size of the file in bytes.
func (f Filepath) Size() (int64, error) {
	info, err := os.Stat(string(f))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
