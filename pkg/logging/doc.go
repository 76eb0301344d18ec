// Package logging provides a process-wide structured logger for blockstore.
//
// The package wraps [log/slog] and exposes a single global logger instance
// that is initialized once and then retrieved via GetLogger. Access methods,
// the catalog codec and the CLI obtain their logger through this package
// rather than constructing their own slog.Logger values, so that log level
// and output destination are controlled from a single place.
//
// # Initialisation
//
// Call Init (or InitDefault for sensible defaults) once at program startup:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug}); err != nil {
//	    log.Fatal(err)
//	}
//
// InitDefault writes WARN-level logs to stderr without a log file, which keeps
// command output clean.
//
// # Retrieving the logger
//
//	logger := logging.GetLogger()
//	logger.Info("store loaded", "path", path)
//
// If GetLogger is called before Init, a default stderr logger is created
// lazily (via sync.Once) so that packages that log during init are safe.
//
// # Context helpers
//
// Several helpers return child loggers pre-populated with structured fields:
//
//	log := logging.WithStore(path)      // adds store field
//	log := logging.WithTable(name)      // adds table field
//	log := logging.WithBlock(blockNo)   // adds block field
package logging
