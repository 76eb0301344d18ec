// Package storage is the root of blockstore's text block storage engine.
//
// A store is a single text file: a catalog header of newline-terminated lines
// followed by a region of fixed-size blocks. Every block is exactly
// BlockSize bytes plus one trailing newline, so block i begins at
// header_length + i*(BlockSize+1). Unused bytes hold the filler '#'.
//
// # Sub-packages
//
//   - [blockstore/pkg/storage/block]      – Block file offset arithmetic,
//     header rewrites, and the fixed-slot and greedy delimited packers.
//   - [blockstore/pkg/storage/heap]       – Fixed-size and variable-size
//     heaps: unordered stores with linear search.
//   - [blockstore/pkg/storage/ordered]    – Ordered file: a sorted main
//     region plus an unsorted extension region, reordered periodically.
//   - [blockstore/pkg/storage/index/hash] – Static external hash with a
//     fixed pool of overflow buckets.
//
// # Operation model
//
// Every public operation opens the store, decodes the catalog, performs its
// reads and writes at computed offsets, rewrites the catalog when it changed,
// and closes the store. No state is kept between calls, and callers must
// serialize access to a store themselves.
package storage
