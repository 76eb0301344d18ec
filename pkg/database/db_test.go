package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blockstore/pkg/catalog"
	"blockstore/pkg/dberror"
	"blockstore/pkg/primitives"
	"blockstore/pkg/storage"
)

func writeSource(t *testing.T, dir, name string, n int) primitives.Filepath {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("id,name,joined\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "%d,user%d,2024-01-%02d\n", i, i, (i%28)+1)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(sb.String()), 0o600); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}
	return primitives.Filepath(path)
}

func testOptions() storage.Options {
	opts := storage.DefaultOptions()
	opts.BlockSize = 128
	return opts
}

var allKinds = []catalog.Kind{
	catalog.FixedHeap,
	catalog.VariableHeap,
	catalog.OrderedFile,
	catalog.StaticHash,
}

func TestNew_Registry(t *testing.T) {
	for _, kind := range allKinds {
		am, err := New(kind, "store.txt", testOptions())
		if err != nil {
			t.Fatalf("New(%s) failed: %v", kind, err)
		}
		if am.Kind() != kind {
			t.Errorf("New(%s) returned a %s", kind, am.Kind())
		}
	}

	if _, err := New(catalog.Kind(42), "store.txt", testOptions()); !errors.Is(err, dberror.ErrInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG for unknown kind, got %v", err)
	}
}

func TestDatabase_LoadEveryKind(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "users.csv", 20)

	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			db := NewDatabase(testOptions())
			store := primitives.Filepath(filepath.Join(dir, kind.String()+".txt"))

			am, err := db.Load(LoadRequest{Path: store, Kind: kind, Source: src})
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			rec, err := am.SelectByKey("7")
			if err != nil {
				t.Fatalf("SelectByKey failed: %v", err)
			}
			if rec.Field(1) != "user7" {
				t.Errorf("unexpected record %v", rec)
			}

			cat, err := am.Catalog()
			if err != nil {
				t.Fatalf("Catalog failed: %v", err)
			}
			if cat.RecordCount != 20 {
				t.Errorf("expected 20 records, got %d", cat.RecordCount)
			}
		})
	}
}

func TestDatabase_LoadAll(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase(testOptions())

	var reqs []LoadRequest
	for i, kind := range allKinds {
		reqs = append(reqs, LoadRequest{
			Path:   primitives.Filepath(filepath.Join(dir, fmt.Sprintf("store%d.txt", i))),
			Kind:   kind,
			Source: writeSource(t, dir, fmt.Sprintf("src%d.csv", i), 10+i),
		})
	}

	if err := db.LoadAll(context.Background(), reqs); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	info := db.GetStatistics()
	if info.StoreCount != 4 || info.StoresLoaded != 4 {
		t.Errorf("expected 4 stores, got %+v", info)
	}
	if info.RecordsLoaded != 10+11+12+13 {
		t.Errorf("expected 46 records loaded, got %d", info.RecordsLoaded)
	}
}

func TestDatabase_LoadAllFailures(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase(testOptions())
	store := primitives.Filepath(filepath.Join(dir, "store.txt"))
	src := writeSource(t, dir, "src.csv", 3)

	t.Run("duplicate path", func(t *testing.T) {
		err := db.LoadAll(context.Background(), []LoadRequest{
			{Path: store, Kind: catalog.FixedHeap, Source: src},
			{Path: store, Kind: catalog.OrderedFile, Source: src},
		})
		if !errors.Is(err, dberror.ErrInvalidConfig) {
			t.Errorf("expected INVALID_CONFIG, got %v", err)
		}
	})

	t.Run("missing source", func(t *testing.T) {
		err := db.LoadAll(context.Background(), []LoadRequest{
			{Path: store, Kind: catalog.FixedHeap, Source: src},
			{
				Path:   primitives.Filepath(filepath.Join(dir, "other.txt")),
				Kind:   catalog.StaticHash,
				Source: primitives.Filepath(filepath.Join(dir, "absent.csv")),
			},
		})
		if !errors.Is(err, dberror.ErrIO) {
			t.Errorf("expected IO_ERROR, got %v", err)
		}
		if db.GetStatistics().ErrorCount == 0 {
			t.Error("expected the failure to be counted")
		}
	})
}

func TestDatabase_Open(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "users.csv", 5)
	store := primitives.Filepath(filepath.Join(dir, "users.txt"))

	loader := NewDatabase(testOptions())
	if _, err := loader.Load(LoadRequest{Path: store, Kind: catalog.OrderedFile, Source: src}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	db := NewDatabase(testOptions())
	am, err := db.Open(store, catalog.OrderedFile)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := am.SelectByKey("5"); err != nil {
		t.Errorf("SelectByKey after Open failed: %v", err)
	}
	if got := db.Stores(); len(got) != 1 || got[0] != store.String() {
		t.Errorf("unexpected stores %v", got)
	}

	if _, err := db.Open(primitives.Filepath(filepath.Join(dir, "absent.txt")), catalog.FixedHeap); !errors.Is(err, dberror.ErrIO) {
		t.Errorf("expected IO_ERROR for a missing store, got %v", err)
	}
}
