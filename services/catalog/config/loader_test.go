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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("first run creates the default file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "clutterbug.yaml")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.FileExists(t, path)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.True(t, cfg.Storage.SyncWrites)
		assert.NotEmpty(t, cfg.Storage.DataDir)
	})

	t.Run("existing file is read back", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "clutterbug.yaml")
		body := `
storage:
  data_dir: /var/lib/clutterbug/data
  photo_dir: /var/lib/clutterbug/photos
log:
  level: debug
`
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/clutterbug/data", cfg.Storage.DataDir)
		assert.Equal(t, "debug", cfg.Log.Level)
		// Unspecified sections keep their defaults.
		assert.Equal(t, 24, cfg.Cache.MaxOriginals)
	})
}

func TestParse(t *testing.T) {
	t.Run("empty input is all defaults", func(t *testing.T) {
		cfg, err := Parse(nil)
		require.NoError(t, err)
		assert.Equal(t, 400, cfg.Cache.MaxThumbnails)
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		_, err := Parse([]byte("storage:\n  data_dirr: /tmp/x\n"))
		assert.Error(t, err)
	})

	t.Run("bad log level is rejected", func(t *testing.T) {
		_, err := Parse([]byte("log:\n  level: loud\n"))
		assert.Error(t, err)
	})

	t.Run("negative cache budget is rejected", func(t *testing.T) {
		_, err := Parse([]byte("cache:\n  max_originals: -1\n"))
		assert.Error(t, err)
	})

	t.Run("tilde paths are expanded", func(t *testing.T) {
		cfg, err := Parse([]byte("storage:\n  data_dir: ~/cb/data\n  photo_dir: ~/cb/photos\n"))
		require.NoError(t, err)
		home, err2 := os.UserHomeDir()
		require.NoError(t, err2)
		assert.Equal(t, filepath.Join(home, "cb", "data"), cfg.Storage.DataDir)
	})
}
