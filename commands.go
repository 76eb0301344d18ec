package main

import (
	"context"
	"fmt"
	"strings"

	"blockstore/pkg/archive"
	"blockstore/pkg/database"
	"blockstore/pkg/dberror"
	"blockstore/pkg/debug/storereader"
	"blockstore/pkg/debug/ui"
	"blockstore/pkg/primitives"
	"blockstore/pkg/record"
	"blockstore/pkg/storage"
)

// LoadCmd builds a store from a source file.
type LoadCmd struct {
	Source string `arg:"" help:"Delimited source file: header line, then one record per line" type:"existingfile"`
	Store  string `arg:"" help:"Store file to create" type:"path"`
	Widths []int  `help:"Explicit field widths instead of the longest observed values" sep:","`
}

func (c *LoadCmd) Run(app *App) error {
	am, err := app.db.Load(database.LoadRequest{
		Path:   primitives.Filepath(c.Store),
		Kind:   app.kind,
		Source: primitives.Filepath(c.Source),
		Widths: c.Widths,
	})
	if err != nil {
		return err
	}
	cat, err := am.Catalog()
	if err != nil {
		return err
	}
	app.printf("%s\n", ui.SuccessStyle.Render(fmt.Sprintf("Loaded %d record(s) into %s (%s)", cat.RecordCount, c.Store, app.kind)))
	return nil
}

// LoadAllCmd builds several independent stores at once.
type LoadAllCmd struct {
	Pairs []string `arg:"" help:"store=source pairs"`
}

func (c *LoadAllCmd) Run(app *App) error {
	reqs := make([]database.LoadRequest, 0, len(c.Pairs))
	for _, pair := range c.Pairs {
		store, src, ok := strings.Cut(pair, "=")
		if !ok || store == "" || src == "" {
			return fmt.Errorf("expected store=source, got %q", pair)
		}
		reqs = append(reqs, database.LoadRequest{
			Path:   primitives.Filepath(store),
			Kind:   app.kind,
			Source: primitives.Filepath(src),
		})
	}

	if err := app.db.LoadAll(context.Background(), reqs); err != nil {
		return err
	}
	info := app.db.GetStatistics()
	app.printf("%s\n", ui.SuccessStyle.Render(fmt.Sprintf("Loaded %d store(s), %d record(s)", info.StoresLoaded, info.RecordsLoaded)))
	return nil
}

// InsertCmd inserts records given as comma-delimited arguments.
type InsertCmd struct {
	Store   string   `arg:"" help:"Store file" type:"existingfile"`
	Records []string `arg:"" help:"Comma-delimited records"`
}

func (c *InsertCmd) Run(app *App) error {
	am, err := app.open(c.Store)
	if err != nil {
		return err
	}

	recs := make([]record.Record, len(c.Records))
	for i, line := range c.Records {
		recs[i] = record.Parse(line)
	}

	if len(recs) == 1 {
		err = am.Insert(recs[0])
	} else {
		err = am.InsertMany(recs)
	}
	if err != nil {
		return err
	}
	app.render(database.NewResultFormatter().FormatMutation("inserted", len(recs)))
	return nil
}

type SelectKeyCmd struct {
	Store string `arg:"" type:"existingfile"`
	Key   string `arg:""`
}

func (c *SelectKeyCmd) Run(app *App) error {
	return app.selectRecords(c.Store, func(am storage.AccessMethod) ([]record.Record, error) {
		rec, err := am.SelectByKey(c.Key)
		if err != nil {
			return nil, err
		}
		return []record.Record{rec}, nil
	})
}

type SelectKeysCmd struct {
	Store string   `arg:"" type:"existingfile"`
	Keys  []string `arg:""`
}

func (c *SelectKeysCmd) Run(app *App) error {
	return app.selectRecords(c.Store, func(am storage.AccessMethod) ([]record.Record, error) {
		return am.SelectByKeys(c.Keys)
	})
}

type SelectRangeCmd struct {
	Store string `arg:"" type:"existingfile"`
	Field string `arg:""`
	Start string `arg:""`
	End   string `arg:""`
}

func (c *SelectRangeCmd) Run(app *App) error {
	return app.selectRecords(c.Store, func(am storage.AccessMethod) ([]record.Record, error) {
		return am.SelectByRange(c.Field, c.Start, c.End)
	})
}

type SelectFieldCmd struct {
	Store string `arg:"" type:"existingfile"`
	Field string `arg:""`
	Value string `arg:""`
}

func (c *SelectFieldCmd) Run(app *App) error {
	return app.selectRecords(c.Store, func(am storage.AccessMethod) ([]record.Record, error) {
		return am.SelectByField(c.Field, c.Value)
	})
}

type DeleteKeyCmd struct {
	Store string `arg:"" type:"existingfile"`
	Key   string `arg:""`
}

func (c *DeleteKeyCmd) Run(app *App) error {
	am, err := app.open(c.Store)
	if err != nil {
		return err
	}
	if err := am.DeleteByKey(c.Key); err != nil {
		return err
	}
	app.render(database.NewResultFormatter().FormatMutation("deleted", 1))
	return nil
}

type DeleteWhereCmd struct {
	Store string `arg:"" type:"existingfile"`
	Field string `arg:""`
	Value string `arg:""`
}

func (c *DeleteWhereCmd) Run(app *App) error {
	am, err := app.open(c.Store)
	if err != nil {
		return err
	}
	n, err := am.DeleteByCriterion(c.Field, c.Value)
	if err != nil {
		return err
	}
	app.render(database.NewResultFormatter().FormatMutation("deleted", n))
	return nil
}

type ScanCmd struct {
	Store string `arg:"" type:"existingfile"`
}

func (c *ScanCmd) Run(app *App) error {
	am, err := app.open(c.Store)
	if err != nil {
		return err
	}
	snap, err := storereader.ReadSnapshot(am, app.cfg.Storage.BlockSize)
	if err != nil {
		return err
	}

	headers := append([]string{"block", "slot"}, snap.Catalog.Schema.FieldNames()...)
	rows := make([][]string, 0, len(snap.Matches))
	for _, m := range snap.Matches {
		rows = append(rows, append([]string{fmt.Sprint(m.Pos.Block), fmt.Sprint(m.Pos.Slot)}, m.Record...))
	}
	app.printf("%s", ui.RenderTable(headers, rows, ui.ColumnWidths(headers, rows, 40), -1))
	app.printf("%d record(s)\n", len(rows))
	return nil
}

type CompactCmd struct {
	Store string `arg:"" type:"existingfile"`
}

func (c *CompactCmd) Run(app *App) error {
	am, err := app.open(c.Store)
	if err != nil {
		return err
	}

	switch m := am.(type) {
	case interface{ Compact() error }:
		err = m.Compact()
	case interface{ Reorder() error }:
		err = m.Reorder()
	default:
		return dberror.InvalidConfig("%s stores are never compacted", app.kind).In("Compact", "CLI")
	}
	if err != nil {
		return err
	}
	app.printf("%s\n", ui.SuccessStyle.Render("Rewrote "+c.Store))
	return nil
}

type CatalogCmd struct {
	Store string `arg:"" type:"existingfile"`
}

func (c *CatalogCmd) Run(app *App) error {
	am, err := app.open(c.Store)
	if err != nil {
		return err
	}
	cat, err := am.Catalog()
	if err != nil {
		return err
	}
	app.printf("%s", ui.RenderKeyValues(storereader.Summary(cat)))
	return nil
}

type InspectCmd struct {
	Store string `arg:"" type:"existingfile"`
}

func (c *InspectCmd) Run(app *App) error {
	am, err := app.open(c.Store)
	if err != nil {
		return err
	}
	return storereader.Run(am, app.cfg.Storage.BlockSize)
}

type ArchiveCmd struct {
	Store string `arg:"" type:"existingfile"`
}

func (c *ArchiveCmd) Run(app *App) error {
	res, err := archive.Compress(primitives.Filepath(c.Store))
	if err != nil {
		return err
	}
	app.printf("%s\n", ui.SuccessStyle.Render(fmt.Sprintf("Wrote %s (%d -> %d bytes)", res.Archive, res.Original, res.Packed)))
	app.printf("blake3 %s\n", res.Checksum)
	return nil
}

type RestoreCmd struct {
	Archive string `arg:"" type:"existingfile"`
	Store   string `arg:"" type:"path"`
}

func (c *RestoreCmd) Run(app *App) error {
	if err := archive.Restore(primitives.Filepath(c.Archive), primitives.Filepath(c.Store)); err != nil {
		return err
	}
	app.printf("%s\n", ui.SuccessStyle.Render("Restored "+c.Store))
	return nil
}

type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	app.printf("blockstore %s\n", version)
	return nil
}

func (app *App) open(store string) (storage.AccessMethod, error) {
	return app.db.Open(primitives.Filepath(store), app.kind)
}

func (app *App) selectRecords(store string, sel func(storage.AccessMethod) ([]record.Record, error)) error {
	am, err := app.open(store)
	if err != nil {
		return err
	}
	recs, err := sel(am)
	if err != nil {
		return err
	}
	cat, err := am.Catalog()
	if err != nil {
		return err
	}
	app.render(database.NewResultFormatter().FormatSelect(cat.Schema, recs))
	return nil
}

func (app *App) render(res database.QueryResult) {
	if len(res.Columns) > 0 {
		app.printf("%s", ui.RenderTable(res.Columns, res.Rows, ui.ColumnWidths(res.Columns, res.Rows, 40), -1))
	}
	app.printf("%s\n", ui.SuccessStyle.Render(res.Message))
}

func (app *App) printf(format string, args ...any) {
	fmt.Fprintf(app.out, format, args...)
}
