package primitives

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFilepath_String(t *testing.T) {
	path := Filepath("/data/users.txt")
	if path.String() != "/data/users.txt" {
		t.Errorf("expected '/data/users.txt', got '%s'", path.String())
	}
}

func TestFilepath_Base(t *testing.T) {
	path := Filepath("/data/stores/users.txt")
	base := path.Base()
	if base != "users.txt" {
		t.Errorf("expected 'users.txt', got '%s'", base)
	}
}

func TestFilepath_Dir(t *testing.T) {
	path := Filepath("/data/stores/users.txt")
	dir := path.Dir()
	expected := filepath.Dir("/data/stores/users.txt")
	if dir != expected {
		t.Errorf("expected '%s', got '%s'", expected, dir)
	}
}

func TestFilepath_ExistsAndRemove(t *testing.T) {
	// Create a temporary file
	tmpDir := t.TempDir()
	testPath := Filepath(filepath.Join(tmpDir, "test_file.txt"))

	// File should not exist initially
	if testPath.Exists() {
		t.Errorf("file should not exist initially")
	}

	// Create the file
	f, err := os.Create(testPath.String())
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	f.Close()

	// File should now exist
	if !testPath.Exists() {
		t.Errorf("file should exist after creation")
	}

	// Remove the file
	err = testPath.Remove()
	if err != nil {
		t.Errorf("Remove() failed: %v", err)
	}

	// File should not exist after removal
	if testPath.Exists() {
		t.Errorf("file should not exist after removal")
	}

	// Remove again should be idempotent (no error)
	err = testPath.Remove()
	if err != nil {
		t.Errorf("second Remove() should not error: %v", err)
	}
}

func TestFilepath_MkdirAll(t *testing.T) {
	tmpDir := t.TempDir()
	testPath := Filepath(filepath.Join(tmpDir, "nested", "directories", "file.txt"))

	// Create parent directories
	err := testPath.MkdirAll(0755)
	if err != nil {
		t.Fatalf("MkdirAll() failed: %v", err)
	}

	// Verify directory was created
	dirPath := testPath.Dir()
	info, err := os.Stat(dirPath)
	if err != nil {
		t.Errorf("directory should exist: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("path should be a directory")
	}
}

func TestFilepath_TableName(t *testing.T) {
	tests := []struct {
		path     Filepath
		expected string
	}{
		{"/data/users.txt", "users"},
		{"students.csv", "students"},
		{"/data/noext", "noext"},
		{"/data/archive.txt.xz", "archive.txt"},
	}

	for _, tt := range tests {
		if got := tt.path.TableName(); got != tt.expected {
			t.Errorf("TableName(%q) = %q, want %q", tt.path, got, tt.expected)
		}
	}
}

func TestFilepath_WithSuffix(t *testing.T) {
	tests := []struct {
		path     Filepath
		suffix   string
		expected Filepath
	}{
		{"/data/users.txt", "_ext", "/data/users_ext.txt"},
		{"/data/users", "_ext", "/data/users_ext"},
	}

	for _, tt := range tests {
		if got := tt.path.WithSuffix(tt.suffix); got != tt.expected {
			t.Errorf("WithSuffix(%q, %q) = %q, want %q", tt.path, tt.suffix, got, tt.expected)
		}
	}
}

func TestFilepath_TempSiblingAndRename(t *testing.T) {
	tmpDir := t.TempDir()
	target := Filepath(filepath.Join(tmpDir, "store.txt"))
	if err := os.WriteFile(target.String(), []byte("old"), 0644); err != nil {
		t.Fatalf("failed to write target: %v", err)
	}

	tmp := target.TempSibling()
	if tmp.Dir() != target.Dir() {
		t.Errorf("temp sibling %q not in %q", tmp, target.Dir())
	}
	if tmp == target.TempSibling() {
		t.Errorf("expected distinct temp siblings")
	}

	if err := os.WriteFile(tmp.String(), []byte("new"), 0644); err != nil {
		t.Fatalf("failed to write temp: %v", err)
	}
	if err := tmp.RenameTo(target); err != nil {
		t.Fatalf("RenameTo() failed: %v", err)
	}

	data, err := os.ReadFile(target.String())
	if err != nil {
		t.Fatalf("failed to read target: %v", err)
	}
	if string(data) != "new" {
		t.Errorf("expected renamed content 'new', got %q", data)
	}
	if tmp.Exists() {
		t.Errorf("temp sibling should be gone after rename")
	}

	size, err := target.Size()
	if err != nil || size != 3 {
		t.Errorf("Size() = %d, %v; want 3, nil", size, err)
	}
}

func TestPosition_IsValid(t *testing.T) {
	if InvalidPosition.IsValid() {
		t.Errorf("InvalidPosition should not be valid")
	}
	if !(Position{Block: 0, Slot: 0}).IsValid() {
		t.Errorf("Position{0,0} should be valid")
	}
}

func TestContainsReserved(t *testing.T) {
	tests := map[string]bool{
		"Alice":     false,
		"a,b":       true,
		"###":       true,
		"cost$":     true,
		"two\nline": true,
		"":          false,
	}
	for value, want := range tests {
		if got := ContainsReserved(value); got != want {
			t.Errorf("ContainsReserved(%q) = %v, want %v", value, got, want)
		}
	}
}

func TestFilepath_Size(t *testing.T) {
	path := Filepath(filepath.Join(t.TempDir(), "users.txt"))
	if _, err := path.Size(); err == nil {
		t.Error("expected an error for a missing file")
	}

	if err := os.WriteFile(path.String(), []byte("0123456789"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	size, err := path.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != 10 {
		t.Errorf("expected 10 bytes, got %d", size)
	}
}
