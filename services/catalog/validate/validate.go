// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validate cross-references entity photo fields against the
// photo artifact store.
//
// Photo identifiers on containers and items are opaque strings with no
// foreign-key enforcement, so the two sides can drift: an entity can
// point at a file that no longer exists, and a file can outlive every
// entity that referenced it. This package reports both kinds of drift,
// reclaims orphaned files, and migrates photos saved before all
// thumbnail sizes existed.
package validate

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"time"

	"github.com/clutterbug/clutterbug/services/catalog/photo"
	"github.com/clutterbug/clutterbug/services/catalog/tree"
)

// PhotoCatalog yields every entity-side photo reference. Implemented by
// the tree store.
type PhotoCatalog interface {
	PhotoRefs(ctx context.Context) ([]tree.PhotoRef, error)
}

// ArtifactStore is the slice of the photo store the checker needs.
type ArtifactStore interface {
	Exists(id string) bool
	ThumbnailExists(id string, size photo.ThumbnailSize) bool
	OriginalIDs() ([]string, error)
	Load(ctx context.Context, id string) (image.Image, bool, error)
	SaveImage(ctx context.Context, id string, img image.Image) error
	CleanupOrphans(ctx context.Context, valid map[string]struct{}) (int, error)
}

// MissingPhoto describes an entity whose photo file is absent.
type MissingPhoto struct {
	PhotoID   string         `json:"photoId"`
	OwnerID   string         `json:"ownerId"`
	OwnerName string         `json:"ownerName"`
	OwnerType tree.OwnerType `json:"ownerType"`
}

// Report is the outcome of one integrity check.
type Report struct {
	CheckedAt time.Time `json:"checkedAt"`

	// ValidPhotos counts entity references whose original file exists.
	ValidPhotos int `json:"validPhotos"`

	// MissingPhotos lists references to files that do not exist, with
	// enough owner context to show the user which entity is affected.
	MissingPhotos []MissingPhoto `json:"missingPhotos"`

	// OrphanedPhotoIDs lists originals on disk that no entity
	// references, sorted for stable output.
	OrphanedPhotoIDs []string `json:"orphanedPhotoIds"`
}

// Healthy reports whether the check found no drift in either direction.
func (r Report) Healthy() bool {
	return len(r.MissingPhotos) == 0 && len(r.OrphanedPhotoIDs) == 0
}

// MigrationResult summarizes one thumbnail migration run.
type MigrationResult struct {
	Scanned  int `json:"scanned"`
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"` // referenced photos whose original is missing
	Failed   int `json:"failed"`
}

// Checker runs integrity checks and repairs against one catalog and
// one artifact store.
//
// Thread Safety: stateless; safe for concurrent use if its two
// dependencies are.
type Checker struct {
	catalog PhotoCatalog
	photos  ArtifactStore
	logger  *slog.Logger
}

// NewChecker wires a checker. A nil logger falls back to slog.Default().
func NewChecker(catalog PhotoCatalog, photos ArtifactStore, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{catalog: catalog, photos: photos, logger: logger}
}

// ValidateIntegrity cross-references every entity photo reference
// against the files on disk.
//
// Outputs:
//
//	Report - Valid count, missing references with owner context, and
//	  orphaned file identifiers.
//	error - Non-nil if the catalog scan or directory scan fails; a
//	  drifted state is reported, never treated as an error.
func (c *Checker) ValidateIntegrity(ctx context.Context) (Report, error) {
	report := Report{CheckedAt: time.Now().UTC()}

	refs, err := c.catalog.PhotoRefs(ctx)
	if err != nil {
		return report, fmt.Errorf("collect photo references: %w", err)
	}

	referenced := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		referenced[ref.PhotoID] = struct{}{}
		if c.photos.Exists(ref.PhotoID) {
			report.ValidPhotos++
			continue
		}
		report.MissingPhotos = append(report.MissingPhotos, MissingPhoto{
			PhotoID:   ref.PhotoID,
			OwnerID:   ref.OwnerID,
			OwnerName: ref.OwnerName,
			OwnerType: ref.OwnerType,
		})
	}

	onDisk, err := c.photos.OriginalIDs()
	if err != nil {
		return report, err
	}
	for _, id := range onDisk {
		if _, ok := referenced[id]; !ok {
			report.OrphanedPhotoIDs = append(report.OrphanedPhotoIDs, id)
		}
	}
	sort.Strings(report.OrphanedPhotoIDs)

	c.logger.Info("photo integrity check complete",
		"valid", report.ValidPhotos,
		"missing", len(report.MissingPhotos),
		"orphaned", len(report.OrphanedPhotoIDs))
	return report, nil
}

// CleanupOrphans removes every photo artifact no entity references.
// Returns the number of files removed.
func (c *Checker) CleanupOrphans(ctx context.Context) (int, error) {
	refs, err := c.catalog.PhotoRefs(ctx)
	if err != nil {
		return 0, fmt.Errorf("collect photo references: %w", err)
	}
	valid := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		valid[ref.PhotoID] = struct{}{}
	}
	return c.photos.CleanupOrphans(ctx, valid)
}

// MigrateThumbnails re-derives thumbnails for every referenced photo
// missing any thumbnail size.
//
// Description:
//
//	Photos saved by older releases predate some thumbnail sizes. For
//	each referenced photo with any size absent, the original is loaded
//	and re-saved, which rewrites the original and derives all current
//	sizes. One photo failing is logged and counted; the batch always
//	runs to completion.
func (c *Checker) MigrateThumbnails(ctx context.Context) (MigrationResult, error) {
	var result MigrationResult

	refs, err := c.catalog.PhotoRefs(ctx)
	if err != nil {
		return result, fmt.Errorf("collect photo references: %w", err)
	}

	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if _, dup := seen[ref.PhotoID]; dup {
			continue
		}
		seen[ref.PhotoID] = struct{}{}
		result.Scanned++

		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("context cancelled: %w", err)
		}
		if c.complete(ref.PhotoID) {
			continue
		}

		img, found, err := c.photos.Load(ctx, ref.PhotoID)
		if err != nil {
			c.logger.Warn("thumbnail migration load failed",
				"photo_id", ref.PhotoID, "error", err.Error())
			result.Failed++
			continue
		}
		if !found {
			// Missing original; the integrity report surfaces it.
			result.Skipped++
			continue
		}
		if err := c.photos.SaveImage(ctx, ref.PhotoID, img); err != nil {
			c.logger.Warn("thumbnail migration save failed",
				"photo_id", ref.PhotoID, "error", err.Error())
			result.Failed++
			continue
		}
		result.Migrated++
	}

	c.logger.Info("thumbnail migration complete",
		"scanned", result.Scanned,
		"migrated", result.Migrated,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return result, nil
}

// complete reports whether every thumbnail size exists for the photo.
func (c *Checker) complete(id string) bool {
	for _, size := range photo.ThumbnailSizes {
		if !c.photos.ThumbnailExists(id, size) {
			return false
		}
	}
	return true
}
