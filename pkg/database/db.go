package database

import (
	"context"
	"sort"
	"sync"

	"blockstore/pkg/catalog"
	"blockstore/pkg/dberror"
	"blockstore/pkg/logging"
	"blockstore/pkg/primitives"
	"blockstore/pkg/source"
	"blockstore/pkg/storage"
	"blockstore/pkg/storage/heap"
	"blockstore/pkg/storage/index/hash"
	"blockstore/pkg/storage/ordered"

	"golang.org/x/sync/errgroup"
)

// Constructor builds an access method bound to a store path.
type Constructor func(path primitives.Filepath, opts storage.Options) storage.AccessMethod

var registry = map[catalog.Kind]Constructor{
	catalog.FixedHeap: func(p primitives.Filepath, o storage.Options) storage.AccessMethod {
		return heap.NewFixedHeap(p, o)
	},
	catalog.VariableHeap: func(p primitives.Filepath, o storage.Options) storage.AccessMethod {
		return heap.NewVariableHeap(p, o)
	},
	catalog.OrderedFile: func(p primitives.Filepath, o storage.Options) storage.AccessMethod {
		return ordered.New(p, o)
	},
	catalog.StaticHash: func(p primitives.Filepath, o storage.Options) storage.AccessMethod {
		return hash.NewHashFile(p, o)
	},
}

// New returns the access method of the given kind for path. It does not touch
// the file.
func New(kind catalog.Kind, path primitives.Filepath, opts storage.Options) (storage.AccessMethod, error) {
	ctor, ok := registry[kind]
	if !ok {
		return nil, dberror.InvalidConfig("no access method registered for %s", kind).In("New", "Database")
	}
	return ctor(path, opts), nil
}

// Database coordinates the stores opened or loaded by one process and keeps
// simple counters about the operations run through it.
type Database struct {
	opts   storage.Options
	stores map[primitives.Filepath]storage.AccessMethod

	mutex sync.RWMutex
	stats *DatabaseStats
}

// DatabaseStats tracks operation counters.
type DatabaseStats struct {
	StoresLoaded  int64
	RecordsLoaded int64
	ErrorCount    int64
	mutex         sync.RWMutex
}

// DatabaseInfo is a snapshot of the database state.
type DatabaseInfo struct {
	Stores        []string
	StoreCount    int
	StoresLoaded  int64
	RecordsLoaded int64
	ErrorCount    int64
}

// LoadRequest names a store to build and the source file it is built from.
type LoadRequest struct {
	Path   primitives.Filepath
	Kind   catalog.Kind
	Source primitives.Filepath

	// Widths overrides the field widths derived from the source.
	Widths []int
}

func NewDatabase(opts storage.Options) *Database {
	return &Database{
		opts:   opts,
		stores: make(map[primitives.Filepath]storage.AccessMethod),
		stats:  &DatabaseStats{},
	}
}

// Options returns the engine parameters every store is opened with.
func (db *Database) Options() storage.Options {
	return db.opts
}

// Load parses the request's source and builds a fresh store from it,
// replacing any existing store file at the same path.
func (db *Database) Load(req LoadRequest) (storage.AccessMethod, error) {
	am, err := db.load(req)
	if err != nil {
		db.recordError()
		return nil, err
	}
	return am, nil
}

func (db *Database) load(req LoadRequest) (storage.AccessMethod, error) {
	am, err := New(req.Kind, req.Path, db.opts)
	if err != nil {
		return nil, err
	}

	ds, err := source.ReadFile(req.Source, source.Options{
		Fixed:  req.Kind.HasWidths(),
		Widths: req.Widths,
	})
	if err != nil {
		return nil, err
	}

	if err := am.Load(ds.Schema, ds.Records); err != nil {
		return nil, err
	}

	db.register(req.Path, am)
	db.recordLoad(len(ds.Records))
	logging.WithStore(req.Path.String()).Info("store loaded",
		"method", req.Kind.String(), "source", req.Source.String(), "records", len(ds.Records))
	return am, nil
}

// LoadAll builds several independent stores concurrently. Requests must name
// distinct store paths. The first failure cancels the loads that have not
// started yet and is returned.
func (db *Database) LoadAll(ctx context.Context, reqs []LoadRequest) error {
	seen := make(map[primitives.Filepath]bool, len(reqs))
	for _, req := range reqs {
		if seen[req.Path] {
			return dberror.InvalidConfig("store %s requested twice", req.Path).In("LoadAll", "Database")
		}
		seen[req.Path] = true
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, req := range reqs {
		req := req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := db.Load(req)
			return err
		})
	}
	return g.Wait()
}

// Open returns the access method for an existing store after checking its
// catalog decodes for the given kind.
func (db *Database) Open(path primitives.Filepath, kind catalog.Kind) (storage.AccessMethod, error) {
	db.mutex.RLock()
	am, ok := db.stores[path]
	db.mutex.RUnlock()
	if ok && am.Kind() == kind {
		return am, nil
	}

	am, err := New(kind, path, db.opts)
	if err != nil {
		db.recordError()
		return nil, err
	}
	if _, err := am.Catalog(); err != nil {
		db.recordError()
		return nil, err
	}

	db.register(path, am)
	return am, nil
}

// Stores lists the paths of every store opened or loaded, sorted.
func (db *Database) Stores() []string {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	paths := make([]string, 0, len(db.stores))
	for p := range db.stores {
		paths = append(paths, p.String())
	}
	sort.Strings(paths)
	return paths
}

func (db *Database) GetStatistics() DatabaseInfo {
	stores := db.Stores()

	db.stats.mutex.RLock()
	defer db.stats.mutex.RUnlock()

	return DatabaseInfo{
		Stores:        stores,
		StoreCount:    len(stores),
		StoresLoaded:  db.stats.StoresLoaded,
		RecordsLoaded: db.stats.RecordsLoaded,
		ErrorCount:    db.stats.ErrorCount,
	}
}

func (db *Database) register(path primitives.Filepath, am storage.AccessMethod) {
	db.mutex.Lock()
	db.stores[path] = am
	db.mutex.Unlock()
}

func (db *Database) recordLoad(records int) {
	db.stats.mutex.Lock()
	db.stats.StoresLoaded++
	db.stats.RecordsLoaded += int64(records)
	db.stats.mutex.Unlock()
}

func (db *Database) recordError() {
	db.stats.mutex.Lock()
	db.stats.ErrorCount++
	db.stats.mutex.Unlock()
}
