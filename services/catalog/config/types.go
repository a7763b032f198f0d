// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
)

// Config is the full ClutterBug configuration, persisted as YAML at
// ~/.clutterbug/clutterbug.yaml by default.
type Config struct {
	// Storage: where entity records and photo artifacts live
	Storage StorageConfig `yaml:"storage"`

	// Cache: in-memory photo cache budgets
	Cache CacheConfig `yaml:"cache"`

	// Log: logging destination and verbosity
	Log LogConfig `yaml:"log"`
}

type StorageConfig struct {
	// DataDir holds the embedded entity database.
	DataDir string `yaml:"data_dir" validate:"required"`

	// PhotoDir holds the originals/ and thumbnails/ directories.
	PhotoDir string `yaml:"photo_dir" validate:"required"`

	// SyncWrites forces an fsync per database write. Slower, but a
	// power loss never drops an acknowledged write.
	SyncWrites bool `yaml:"sync_writes"`
}

type CacheConfig struct {
	// MaxOriginals bounds the full-resolution image cache entry count.
	MaxOriginals int `yaml:"max_originals" validate:"gte=0"`

	// MaxThumbnails bounds the thumbnail cache entry count.
	MaxThumbnails int `yaml:"max_thumbnails" validate:"gte=0"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Dir, when non-empty, adds a dated JSON log file alongside
	// console output.
	Dir string `yaml:"dir"`

	// JSON switches console output to JSON lines.
	JSON bool `yaml:"json"`
}

// DefaultConfig returns the configuration written on first run.
// Everything lives under ~/.clutterbug.
func DefaultConfig() Config {
	root := defaultRoot()
	return Config{
		Storage: StorageConfig{
			DataDir:    filepath.Join(root, "data"),
			PhotoDir:   filepath.Join(root, "photos"),
			SyncWrites: true,
		},
		Cache: CacheConfig{
			MaxOriginals:  24,
			MaxThumbnails: 400,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".clutterbug"
	}
	return filepath.Join(home, ".clutterbug")
}

// DefaultPath is the config file location used when the caller does
// not override it.
func DefaultPath() string {
	return filepath.Join(defaultRoot(), "clutterbug.yaml")
}
