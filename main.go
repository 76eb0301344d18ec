// Command blockstore loads, queries and maintains block-structured store files
// under one of four record organizations.
package main

import (
	"fmt"
	"io"
	"os"

	"blockstore/pkg/catalog"
	"blockstore/pkg/config"
	"blockstore/pkg/database"
	"blockstore/pkg/logging"

	"github.com/alecthomas/kong"
)

const version = "0.4.0"

// Globals are the flags shared by every command.
type Globals struct {
	Config    string `name:"config" short:"c" help:"JSON configuration file" type:"path"`
	Method    string `name:"method" short:"m" default:"fixed-heap" help:"Access method: fixed-heap, variable-heap, ordered or hash"`
	BlockSize int    `name:"block-size" help:"Block size in bytes, overriding the configuration"`
	Threshold int    `name:"threshold" help:"Compaction threshold, overriding the configuration"`
	LogLevel  string `name:"log-level" help:"DEBUG, INFO, WARN or ERROR, overriding the configuration"`
}

// CLI defines the command-line interface for blockstore.
var CLI struct {
	Globals

	Load    LoadCmd    `cmd:"" help:"Build a store from a delimited source file"`
	LoadAll LoadAllCmd `cmd:"" name:"load-all" help:"Build several stores concurrently"`
	Insert  InsertCmd  `cmd:"" help:"Insert one or more records"`
	Select  SelectGrp  `cmd:"" help:"Look records up"`
	Delete  DeleteGrp  `cmd:"" help:"Delete records"`
	Scan    ScanCmd    `cmd:"" help:"List every live record with its position"`
	Compact CompactCmd `cmd:"" help:"Rewrite a variable heap or reorder an ordered file now"`
	Catalog CatalogCmd `cmd:"" help:"Print the decoded catalog"`
	Inspect InspectCmd `cmd:"" help:"Open the interactive store inspector"`
	Archive ArchiveCmd `cmd:"" help:"Compress a store with xz and write its checksum"`
	Restore RestoreCmd `cmd:"" help:"Restore a store from an archive"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// SelectGrp contains the lookup operations.
type SelectGrp struct {
	Key   SelectKeyCmd   `cmd:"" help:"Select the record with a primary key"`
	Keys  SelectKeysCmd  `cmd:"" help:"Select the records for several primary keys"`
	Range SelectRangeCmd `cmd:"" help:"Select records whose field lies in an interval"`
	Field SelectFieldCmd `cmd:"" help:"Select records whose field equals a value"`
}

// DeleteGrp contains the delete operations.
type DeleteGrp struct {
	Key   DeleteKeyCmd   `cmd:"" help:"Delete the record with a primary key"`
	Where DeleteWhereCmd `cmd:"" help:"Delete every record whose field equals a value"`
}

// App is what every command runs against: the resolved configuration, the
// chosen access method kind and the output stream.
type App struct {
	cfg  *config.Config
	kind catalog.Kind
	db   *database.Database
	out  io.Writer
}

func newApp(g *Globals, out io.Writer) (*App, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.BlockSize > 0 {
		cfg.Storage.BlockSize = g.BlockSize
	}
	if g.Threshold > 0 {
		cfg.Storage.CompactionThreshold = g.Threshold
	}
	if g.LogLevel != "" {
		cfg.Log.Level = logging.ParseLevel(g.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kind, err := catalog.ParseKind(g.Method)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:  cfg,
		kind: kind,
		db:   database.NewDatabase(cfg.StorageOptions()),
		out:  out,
	}, nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("blockstore"),
		kong.Description("Block-structured record stores: fixed and variable heaps, ordered files, static hashing"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	app, err := newApp(&CLI.Globals, os.Stdout)
	ctx.FatalIfErrorf(err)

	// config.Load may already have created the lazy default logger.
	_ = logging.Close()
	if err := logging.Init(app.cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Close()

	err = ctx.Run(app)
	ctx.FatalIfErrorf(err)
}
