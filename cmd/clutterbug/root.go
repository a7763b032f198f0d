// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clutterbug/clutterbug/pkg/logging"
	"github.com/clutterbug/clutterbug/services/catalog/config"
	"github.com/clutterbug/clutterbug/services/catalog/hierarchy"
	"github.com/clutterbug/clutterbug/services/catalog/photo"
	"github.com/clutterbug/clutterbug/services/catalog/storage/badgerdb"
	"github.com/clutterbug/clutterbug/services/catalog/tree"
	"github.com/clutterbug/clutterbug/services/catalog/validate"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

var (
	flagConfigPath string // Path to the YAML config file
	flagDataDir    string // Override for storage.data_dir
	flagPhotoDir   string // Override for storage.photo_dir
	flagVerbose    bool   // Debug-level logging
)

// =============================================================================
// ROOT COMMAND
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "clutterbug",
	Short: "Manage a ClutterBug inventory catalog",
	Long: `ClutterBug organizes physical belongings into a configurable
hierarchy of containers (rooms, shelves, bins) with photos attached to
containers and items.

This CLI operates directly on a local catalog: inspecting and switching
hierarchy configurations, checking photo integrity, migrating thumbnails,
and reclaiming storage.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "",
		"Config file path (default ~/.clutterbug/clutterbug.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "",
		"Override the entity database directory")
	rootCmd.PersistentFlags().StringVar(&flagPhotoDir, "photo-dir", "",
		"Override the photo storage directory")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"Enable debug logging")
}

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// app holds the wired-up catalog stack for one CLI invocation.
type app struct {
	cfg       config.Config
	logger    *logging.Logger
	db        *badgerdb.DB
	hierarchy *hierarchy.Manager
	tree      *tree.Store
	photos    *photo.Store
	checker   *validate.Checker
}

// openApp loads config, opens storage, and wires every service.
// Callers must Close() the returned app.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return nil, err
	}
	if flagDataDir != "" {
		cfg.Storage.DataDir = flagDataDir
	}
	if flagPhotoDir != "" {
		cfg.Storage.PhotoDir = flagPhotoDir
	}

	level := logging.LevelInfo
	if flagVerbose {
		level = logging.LevelDebug
	} else if parsed, ok := parseLogLevel(cfg.Log.Level); ok {
		level = parsed
	}
	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Log.Dir,
		Service: "cli",
		JSON:    cfg.Log.JSON,
	})

	dbCfg := badgerdb.DefaultConfig()
	dbCfg.Path = cfg.Storage.DataDir
	dbCfg.SyncWrites = cfg.Storage.SyncWrites
	dbCfg.Logger = logger.Slog()
	db, err := badgerdb.Open(dbCfg)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("open catalog database: %w", err)
	}

	hierStore := hierarchy.NewStore(db, logger.Slog())
	manager := hierarchy.NewManager(hierStore, logger.Slog())
	treeStore := tree.NewStore(db, manager, logger.Slog())
	hierStore.SetLevelUsage(treeStore.DeepestLevelInUse)

	if err := manager.EnsureDefaults(cmd.Context()); err != nil {
		db.Close()
		logger.Close()
		return nil, fmt.Errorf("seed hierarchy presets: %w", err)
	}

	photos, err := photo.NewStore(cfg.Storage.PhotoDir, photo.Options{
		MaxCachedOriginals:  cfg.Cache.MaxOriginals,
		MaxCachedThumbnails: cfg.Cache.MaxThumbnails,
		Logger:              logger.Slog(),
	})
	if err != nil {
		db.Close()
		logger.Close()
		return nil, fmt.Errorf("open photo storage: %w", err)
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		hierarchy: manager,
		tree:      treeStore,
		photos:    photos,
		checker:   validate.NewChecker(treeStore, photos, logger.Slog()),
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("database close failed", "error", err.Error())
	}
	a.logger.Close()
}

func parseLogLevel(s string) (logging.Level, bool) {
	switch s {
	case "debug":
		return logging.LevelDebug, true
	case "info":
		return logging.LevelInfo, true
	case "warn":
		return logging.LevelWarn, true
	case "error":
		return logging.LevelError, true
	default:
		return logging.LevelInfo, false
	}
}
