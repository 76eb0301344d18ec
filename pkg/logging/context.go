package logging

import (
	"log/slog"
)

// WithStore creates a logger with store file context.
// Use this inside access-method operations so every line carries the store path.
//
// Example:
//
//	log := logging.WithStore(path)
//	log.Debug("record placed", "block", 3, "slot", 1)
func WithStore(path string) *slog.Logger {
	return GetLogger().With("store", path)
}

// WithTable creates a logger with table context.
//
// Example:
//
//	log := logging.WithTable("users")
//	log.Info("table loaded", "records", 120)
func WithTable(tableName string) *slog.Logger {
	return GetLogger().With("table", tableName)
}

// WithStoreOp creates a logger with both store and operation context.
//
// Example:
//
//	log := logging.WithStoreOp(path, "DeleteByKey")
//	log.Info("record removed", "key", key)
func WithStoreOp(path, op string) *slog.Logger {
	return GetLogger().With("store", path, "op", op)
}

// WithBlock creates a logger with block context.
// Useful for block-region reads and writes.
//
// Example:
//
//	log := logging.WithBlock(blockNo)
//	log.Debug("block rewritten", "bytes", n)
func WithBlock(blockNo int) *slog.Logger {
	return GetLogger().With("block", blockNo)
}

// WithOp creates a logger with operation context.
func WithOp(op string) *slog.Logger {
	return GetLogger().With("op", op)
}

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("catalog")
//	log.Info("component initialized")
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithError creates a logger with error context.
// Use this when logging errors to include the error in structured format.
//
// Example:
//
//	log := logging.WithError(err)
//	log.Error("operation failed", "operation", "insert")
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
