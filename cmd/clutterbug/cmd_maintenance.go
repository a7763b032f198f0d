// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clutterbug/clutterbug/pkg/ux"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	resetForce bool // Skip the confirmation prompt
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete orphaned photo files",
	Long: `Deletes every photo file that no container or item references.
Run "clutterbug validate" first to see what would be removed.`,
	RunE: runCleanup,
}

var migrateCmd = &cobra.Command{
	Use:     "migrate-thumbnails",
	Aliases: []string{"migrate"},
	Short:   "Regenerate missing thumbnail sizes",
	Long: `Re-derives thumbnails for photos saved before all current sizes
existed. Photos with every size present are untouched; a photo that
fails to migrate is logged and the batch continues.`,
	RunE: runMigrate,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all catalog data and photos",
	Long: `Deletes every container, item, and photo. Hierarchy configurations
are kept and the built-in presets re-seeded.

This cannot be undone. The command prompts for confirmation unless
--force is given.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false,
		"Skip the confirmation prompt")

	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(resetCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runCleanup(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	removed, err := app.checker.CleanupOrphans(cmd.Context())
	if err != nil {
		return err
	}
	ux.Success("Removed %d orphaned file(s)", removed)
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.checker.MigrateThumbnails(cmd.Context())
	if err != nil {
		return err
	}
	ux.Success("Scanned %d photo(s): %d migrated, %d skipped, %d failed",
		result.Scanned, result.Migrated, result.Skipped, result.Failed)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetForce && !confirm("Delete ALL containers, items, and photos?") {
		ux.Muted("Aborted.")
		return nil
	}

	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.tree.DeleteAll(cmd.Context()); err != nil {
		return fmt.Errorf("clear catalog entities: %w", err)
	}
	if err := app.photos.ClearAll(); err != nil {
		return fmt.Errorf("clear photo storage: %w", err)
	}
	ux.Success("Catalog reset.")
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
