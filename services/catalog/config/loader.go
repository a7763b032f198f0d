// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads and validates the ClutterBug YAML configuration.
//
// The first run writes a commented default file; later runs read it
// back. Unknown keys are rejected so a typo fails loudly instead of
// silently falling back to a default.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the config at path, creating it with defaults first if it
// does not exist. An empty path means DefaultPath().
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	path = expandPath(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeDefault(path); err != nil {
			return Config{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates raw YAML config bytes. Missing sections
// fall back to defaults; unknown keys are an error.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// An empty file is a valid all-defaults config.
		if strings.Contains(err.Error(), "EOF") {
			return applyPaths(cfg)
		}
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return applyPaths(cfg)
}

func applyPaths(cfg Config) (Config, error) {
	cfg.Storage.DataDir = expandPath(cfg.Storage.DataDir)
	cfg.Storage.PhotoDir = expandPath(cfg.Storage.PhotoDir)
	cfg.Log.Dir = expandPath(cfg.Log.Dir)
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func writeDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory %s: %w", dir, err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write default config %s: %w", path, err)
	}
	return nil
}

// expandPath resolves a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
		}
	}
	return path
}
