// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	storageJSONOutput bool // Output as JSON
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Show photo storage usage",
	Long: `Reports disk usage of the photo store: original bytes, thumbnail
bytes, file counts, and the thumbnail-to-original size ratio.`,
	RunE: runStorage,
}

func init() {
	storageCmd.Flags().BoolVar(&storageJSONOutput, "json", false,
		"Output as JSON")
	rootCmd.AddCommand(storageCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runStorage(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	info, err := app.photos.DetailedStorageInfo()
	if err != nil {
		return err
	}

	if storageJSONOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Printf("Photos:      %d originals (%s)\n", info.PhotoCount, formatBytes(info.OriginalBytes))
	fmt.Printf("Thumbnails:  %d files (%s)\n", info.ThumbnailCount, formatBytes(info.ThumbnailBytes))
	fmt.Printf("Total:       %s\n", formatBytes(info.TotalBytes()))
	if info.CompressionRatio > 0 {
		fmt.Printf("Thumbnail overhead: %.1f%% of original bytes\n", info.CompressionRatio*100)
	}
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
