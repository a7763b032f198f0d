// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/clutterbug/clutterbug/pkg/ux"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	validateJSONOutput bool // Output the report as JSON
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check photo integrity across the catalog",
	Long: `Cross-references every photo referenced by a container or item
against the files on disk, and reports:

  - valid references (file exists)
  - missing photos (entity points at a file that is gone)
  - orphaned files (no entity references them)

Nothing is modified; use "clutterbug cleanup" to reclaim orphans.

Examples:
  clutterbug validate          # Human-readable report
  clutterbug validate --json   # JSON for scripting`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSONOutput, "json", false,
		"Output the report as JSON")
	rootCmd.AddCommand(validateCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runValidate(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.checker.ValidateIntegrity(cmd.Context())
	if err != nil {
		return err
	}

	if validateJSONOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	ux.Title("Photo integrity")
	ux.Info("Valid photos:    %d", report.ValidPhotos)
	ux.Info("Missing photos:  %d", len(report.MissingPhotos))
	for _, m := range report.MissingPhotos {
		ux.Warning("%s %q references missing photo %s",
			m.OwnerType, m.OwnerName, m.PhotoID)
	}
	ux.Info("Orphaned files:  %d", len(report.OrphanedPhotoIDs))
	for _, id := range report.OrphanedPhotoIDs {
		ux.Muted("  " + id)
	}
	if report.Healthy() {
		ux.Success("Catalog photo storage is healthy.")
	}
	return nil
}
