// Package source reads the delimited text files a store is loaded from.
//
// A source file starts with a header line naming the fields, followed by one
// comma-delimited record per line. Blank lines are ignored. Field types are
// inferred from the first record; fixed-width layouts take each field's width
// from the longest value seen for it unless widths are given explicitly.
package source

import (
	"bufio"
	"io"
	"os"
	"strings"

	"blockstore/pkg/catalog/schema"
	"blockstore/pkg/dberror"
	"blockstore/pkg/logging"
	"blockstore/pkg/primitives"
	"blockstore/pkg/record"
	"blockstore/pkg/types"
)

// Options controls how a source is turned into a schema.
type Options struct {
	// Fixed derives a width for every field. When false the schema carries
	// no widths, as the variable heap requires.
	Fixed bool

	// Widths overrides the derived widths. It must name one width per field.
	Widths []int
}

// Dataset is a parsed source: the schema it implies and its records.
type Dataset struct {
	Schema  *schema.Schema
	Records []record.Record
}

// ReadFile opens path and parses it with Read.
func ReadFile(path primitives.Filepath, opts Options) (*Dataset, error) {
	f, err := os.Open(path.String())
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeIO, "ReadFile", "Source")
	}
	defer f.Close()

	ds, err := Read(f, opts)
	if err != nil {
		return nil, err
	}
	logging.WithStore(path.String()).Debug("source parsed",
		"fields", ds.Schema.NumFields(), "records", len(ds.Records))
	return ds, nil
}

// Read parses a header line and the record lines that follow it.
func Read(r io.Reader, opts Options) (*Dataset, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var names []string
	var records []record.Record
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		if names == nil {
			names = record.Parse(text)
			continue
		}

		rec := record.Parse(text)
		if len(rec) != len(names) {
			return nil, dberror.SchemaMismatch("line %d has %d fields, header has %d", line, len(rec), len(names)).
				In("Read", "Source")
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, dberror.Wrap(err, dberror.CodeIO, "Read", "Source")
	}

	if names == nil {
		return nil, dberror.SchemaMismatch("source has no header line").In("Read", "Source")
	}
	if len(records) == 0 {
		return nil, dberror.SchemaMismatch("source has no records after the header").
			In("Read", "Source").
			WithHint("field types are inferred from the first record")
	}

	sch, err := buildSchema(names, records, opts)
	if err != nil {
		return nil, err
	}
	return &Dataset{Schema: sch, Records: records}, nil
}

func buildSchema(names []string, records []record.Record, opts Options) (*schema.Schema, error) {
	fieldTypes := types.InferAll(records[0])

	var widths []int
	switch {
	case opts.Widths != nil:
		if len(opts.Widths) != len(names) {
			return nil, dberror.SchemaMismatch("%d widths given for %d fields", len(opts.Widths), len(names)).
				In("Read", "Source")
		}
		widths = opts.Widths
	case opts.Fixed:
		widths = LongestValues(records, len(names))
	}

	sch, err := schema.FromLists(names, widths, fieldTypes)
	if err != nil {
		return nil, dberror.SchemaMismatch("%v", err).In("Read", "Source")
	}
	return sch, nil
}

// LongestValues returns, for each of n fields, the length of its longest
// value across records. Every width is at least 1.
func LongestValues(records []record.Record, n int) []int {
	widths := make([]int, n)
	for i := range widths {
		widths[i] = 1
	}
	for _, rec := range records {
		for i := 0; i < n && i < len(rec); i++ {
			if l := len(rec[i]); l > widths[i] {
				widths[i] = l
			}
		}
	}
	return widths
}
