package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blockstore/pkg/dberror"
)

const sampleSource = `id,name,city
1,Ana,Lisbon
2,Bo,Oslo
3,Cy,Lisbon
4,Di,Rome
`

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func newTestApp(t *testing.T, method string) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	app, err := newApp(&Globals{Method: method, BlockSize: 64}, &out)
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	return app, &out
}

func loadSample(t *testing.T, app *App) string {
	t.Helper()
	dir := t.TempDir()
	src := createTestFile(t, dir, "people.csv", sampleSource)
	store := filepath.Join(dir, "people.txt")
	if err := (&LoadCmd{Source: src, Store: store}).Run(app); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return store
}

func TestNewApp(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		app, _ := newTestApp(t, "ordered")
		if app.cfg.Storage.BlockSize != 64 {
			t.Errorf("expected block size 64, got %d", app.cfg.Storage.BlockSize)
		}
		if app.kind.String() != "ordered" {
			t.Errorf("unexpected kind %s", app.kind)
		}
	})

	t.Run("unknown method", func(t *testing.T) {
		if _, err := newApp(&Globals{Method: "btree"}, &bytes.Buffer{}); err == nil {
			t.Error("expected an error for an unknown method")
		}
	})

	t.Run("invalid override", func(t *testing.T) {
		_, err := newApp(&Globals{Method: "hash", BlockSize: 1}, &bytes.Buffer{})
		if !errors.Is(err, dberror.ErrInvalidConfig) {
			t.Errorf("expected INVALID_CONFIG, got %v", err)
		}
	})
}

func TestCommands_LoadSelectDelete(t *testing.T) {
	for _, method := range []string{"fixed-heap", "variable-heap", "ordered", "hash"} {
		t.Run(method, func(t *testing.T) {
			app, out := newTestApp(t, method)
			store := loadSample(t, app)

			out.Reset()
			if err := (&SelectKeyCmd{Store: store, Key: "3"}).Run(app); err != nil {
				t.Fatalf("select key failed: %v", err)
			}
			if !strings.Contains(out.String(), "Cy") {
				t.Errorf("expected Cy in output, got %q", out.String())
			}

			out.Reset()
			if err := (&DeleteWhereCmd{Store: store, Field: "city", Value: "Lisbon"}).Run(app); err != nil {
				t.Fatalf("delete where failed: %v", err)
			}
			if !strings.Contains(out.String(), "2 row(s) deleted") {
				t.Errorf("unexpected output %q", out.String())
			}

			err := (&SelectKeysCmd{Store: store, Keys: []string{"1", "3"}}).Run(app)
			if !errors.Is(err, dberror.ErrNotFound) {
				t.Errorf("expected NOT_FOUND after delete, got %v", err)
			}

			if err := (&InsertCmd{Store: store, Records: []string{"5,Ed,Paris", "6,Fa,Nice"}}).Run(app); err != nil {
				t.Fatalf("insert failed: %v", err)
			}

			out.Reset()
			if err := (&SelectRangeCmd{Store: store, Field: "id", Start: "4", End: "7"}).Run(app); err != nil {
				t.Fatalf("select range failed: %v", err)
			}
			if !strings.Contains(out.String(), "3 row(s) returned") {
				t.Errorf("unexpected output %q", out.String())
			}
		})
	}
}

func TestCommands_Catalog(t *testing.T) {
	app, out := newTestApp(t, "hash")
	store := loadSample(t, app)

	out.Reset()
	if err := (&CatalogCmd{Store: store}).Run(app); err != nil {
		t.Fatalf("catalog failed: %v", err)
	}
	for _, want := range []string{"Buckets", "Overflow buckets", "id, name, city"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in output %q", want, out.String())
		}
	}
}

func TestCommands_Compact(t *testing.T) {
	t.Run("variable heap", func(t *testing.T) {
		app, _ := newTestApp(t, "variable-heap")
		store := loadSample(t, app)
		if err := (&CompactCmd{Store: store}).Run(app); err != nil {
			t.Errorf("compact failed: %v", err)
		}
	})

	t.Run("fixed heap", func(t *testing.T) {
		app, _ := newTestApp(t, "fixed-heap")
		store := loadSample(t, app)
		if err := (&CompactCmd{Store: store}).Run(app); !errors.Is(err, dberror.ErrInvalidConfig) {
			t.Errorf("expected INVALID_CONFIG, got %v", err)
		}
	})
}

func TestCommands_ArchiveRestore(t *testing.T) {
	app, out := newTestApp(t, "fixed-heap")
	store := loadSample(t, app)

	if err := (&ArchiveCmd{Store: store}).Run(app); err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if !strings.Contains(out.String(), "blake3 ") {
		t.Errorf("expected checksum in output %q", out.String())
	}

	restored := filepath.Join(t.TempDir(), "restored.txt")
	if err := (&RestoreCmd{Archive: store + ".xz", Store: restored}).Run(app); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	out.Reset()
	if err := (&SelectKeyCmd{Store: restored, Key: "4"}).Run(app); err != nil {
		t.Fatalf("select on restored store failed: %v", err)
	}
	if !strings.Contains(out.String(), "Rome") {
		t.Errorf("expected Rome in output %q", out.String())
	}
}

func TestCommands_LoadAll(t *testing.T) {
	app, out := newTestApp(t, "ordered")
	dir := t.TempDir()
	src := createTestFile(t, dir, "people.csv", sampleSource)

	pairs := []string{
		filepath.Join(dir, "a.txt") + "=" + src,
		filepath.Join(dir, "b.txt") + "=" + src,
	}
	if err := (&LoadAllCmd{Pairs: pairs}).Run(app); err != nil {
		t.Fatalf("load-all failed: %v", err)
	}
	if !strings.Contains(out.String(), "Loaded 2 store(s), 8 record(s)") {
		t.Errorf("unexpected output %q", out.String())
	}

	if err := (&LoadAllCmd{Pairs: []string{"nosource"}}).Run(app); err == nil {
		t.Error("expected an error for a malformed pair")
	}
}
