// Package config holds the engine parameters shared by every access method
// and loads them from a JSON file.
package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"blockstore/pkg/dberror"
	"blockstore/pkg/logging"
	"blockstore/pkg/storage"
)

// Config holds all engine configuration parameters.
type Config struct {
	Storage struct {
		BlockSize           int     `json:"block_size"`
		CompactionThreshold int     `json:"compaction_threshold"`
		LoadFactor          float64 `json:"load_factor"`
		OverflowRatio       float64 `json:"overflow_ratio"`
	} `json:"storage"`

	Log logging.Config `json:"log"`
}

// Default returns the configuration the engine uses when no file is given.
func Default() *Config {
	cfg := &Config{}

	defaults := storage.DefaultOptions()
	cfg.Storage.BlockSize = defaults.BlockSize
	cfg.Storage.CompactionThreshold = defaults.CompactionThreshold
	cfg.Storage.LoadFactor = defaults.LoadFactor
	cfg.Storage.OverflowRatio = defaults.OverflowRatio

	cfg.Log.Level = logging.LevelWarn
	cfg.Log.Format = "text"

	return cfg
}

// Load reads a JSON configuration file. Keys missing from the file keep their
// default values, and a missing file yields the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		logging.Debug("config file not found, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeIO, "Load", "Config")
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, dberror.InvalidConfig("%s: %v", path, err).In("Load", "Config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as indented JSON, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "Save", "Config")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return dberror.Wrap(err, dberror.CodeInvalidConfig, "Save", "Config")
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return dberror.Wrap(err, dberror.CodeIO, "Save", "Config")
	}
	return nil
}

// Validate checks every parameter is usable by the access methods.
func (c *Config) Validate() error {
	s := c.Storage
	switch {
	case s.BlockSize < 2:
		return dberror.InvalidConfig("block_size must be at least 2, got %d", s.BlockSize).In("Validate", "Config")
	case s.CompactionThreshold < 1:
		return dberror.InvalidConfig("compaction_threshold must be at least 1, got %d", s.CompactionThreshold).In("Validate", "Config")
	case s.LoadFactor <= 0 || s.LoadFactor > 1:
		return dberror.InvalidConfig("load_factor must be in (0, 1], got %g", s.LoadFactor).In("Validate", "Config")
	case s.OverflowRatio < 0:
		return dberror.InvalidConfig("overflow_ratio must not be negative, got %g", s.OverflowRatio).In("Validate", "Config")
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		return dberror.InvalidConfig("log format must be text or json, got %q", c.Log.Format).In("Validate", "Config")
	}
	return nil
}

// StorageOptions converts the storage section into access method options.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		BlockSize:           c.Storage.BlockSize,
		CompactionThreshold: c.Storage.CompactionThreshold,
		LoadFactor:          c.Storage.LoadFactor,
		OverflowRatio:       c.Storage.OverflowRatio,
	}
}
