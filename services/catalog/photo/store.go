// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package photo implements ClutterBug's durable photo artifact store.
//
// Each photo is identified by an opaque string (a UUID generated when a
// user attaches a photo) and stored as one original JPEG plus three
// fixed-size thumbnails:
//
//	<root>/originals/<id>.jpg
//	<root>/thumbnails/<id>_small.jpg   (40x40,  q70)
//	<root>/thumbnails/<id>_medium.jpg  (80x80,  q80)
//	<root>/thumbnails/<id>_large.jpg   (200x200, q90)
//
// Originals are resized to fit within 1024x1024 (never upscaled) and
// recompressed at quality 85. Reads go through an in-memory cache;
// missing thumbnails are lazily regenerated from the original. A missing
// file is a normal state, not an error: loads return a found flag.
//
// Entity records reference photos by identifier only; there is no
// foreign-key enforcement. The validate package cross-references the two
// sides, and CleanupOrphans reclaims unreferenced files.
package photo

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidThumbnailSize indicates an unknown thumbnail size value.
var ErrInvalidThumbnailSize = errors.New("unknown thumbnail size")

const (
	originalsDirName  = "originals"
	thumbnailsDirName = "thumbnails"
	artifactExt       = ".jpg"
)

// Options configures a Store.
type Options struct {
	// MaxCachedOriginals bounds the full-image cache entry count.
	// Zero means the default.
	MaxCachedOriginals int

	// MaxCachedThumbnails bounds the thumbnail cache entry count.
	// Zero means the default.
	MaxCachedThumbnails int

	// Logger is optional; nil falls back to slog.Default().
	Logger *slog.Logger
}

// Store is the photo artifact store.
//
// Thread Safety: safe for concurrent use. The cache uses a
// single-writer/many-reader lock; concurrent cold loads of the same
// identifier collapse into one disk read via singleflight. Disk I/O is
// synchronous per call; callers wanting responsiveness dispatch calls
// off their primary goroutine.
type Store struct {
	originalsDir  string
	thumbnailsDir string
	cache         *imageCache
	flight        singleflight.Group
	logger        *slog.Logger
}

// loadResult carries a singleflight payload.
type loadResult struct {
	img   image.Image
	found bool
}

// NewStore creates a photo store rooted at the given directory,
// creating the originals and thumbnails directories if needed.
func NewStore(root string, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		originalsDir:  filepath.Join(root, originalsDirName),
		thumbnailsDir: filepath.Join(root, thumbnailsDirName),
		cache:         newImageCache(opts.MaxCachedOriginals, opts.MaxCachedThumbnails),
		logger:        logger,
	}
	for _, dir := range []string{s.originalsDir, s.thumbnailsDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create photo directory %s: %w", dir, err)
		}
	}
	return s, nil
}

func (s *Store) originalPath(id string) string {
	return filepath.Join(s.originalsDir, id+artifactExt)
}

func (s *Store) thumbnailPath(id string, size ThumbnailSize) string {
	return filepath.Join(s.thumbnailsDir, fmt.Sprintf("%s_%s%s", id, size, artifactExt))
}

// Save decodes, compresses, and persists a photo with its thumbnails.
//
// Description:
//
//	The source image is resized to fit within 1024x1024 (never
//	upscaled) and written atomically as the original artifact; a crash
//	never leaves a corrupted original. The three thumbnails are then
//	derived best-effort: a thumbnail write failure is logged and does
//	not fail the save (the read path self-heals missing thumbnails).
//	Cache entries for the identifier are invalidated last.
//
// Inputs:
//
//	ctx - Context, checked before starting.
//	id - The photo identifier. Replacing an existing photo overwrites
//	  all four artifacts.
//	r - The raw source image bytes (JPEG, PNG, GIF, TIFF, or BMP).
//
// Outputs:
//
//	error - Non-nil if decoding or the original write fails.
func (s *Store) Save(ctx context.Context, id string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		saveDurationHistogram.WithLabelValues("decode_error").Observe(0)
		return fmt.Errorf("decode photo %s: %w", id, err)
	}
	return s.SaveImage(ctx, id, img)
}

// SaveImage is Save for an already-decoded image. Used by the migration
// utility when re-deriving thumbnails from a loaded original.
func (s *Store) SaveImage(ctx context.Context, id string, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	start := time.Now()

	fitted := fitOriginal(img)
	if err := writeJPEGAtomic(s.originalPath(id), fitted, originalQuality); err != nil {
		saveDurationHistogram.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("write original %s: %w", id, err)
	}

	// Thumbnails are derived best-effort; the original is already
	// durable and the read path regenerates anything missing.
	for _, size := range ThumbnailSizes {
		thumb := renderThumbnail(fitted, size)
		if err := writeJPEGAtomic(s.thumbnailPath(id, size), thumb, size.Quality()); err != nil {
			s.logger.Warn("thumbnail write failed",
				"photo_id", id, "size", string(size), "error", err.Error())
		}
	}

	s.cache.invalidate(id)
	saveDurationHistogram.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	s.logger.Debug("photo saved", "photo_id", id,
		"width", fitted.Bounds().Dx(), "height", fitted.Bounds().Dy())
	return nil
}

// Load returns the original image for the identifier.
//
// Outputs:
//
//	image.Image - The decoded original, nil if not found.
//	bool - Whether the photo exists.
//	error - Non-nil only for real I/O or decode failures; a missing
//	  file is (nil, false, nil).
func (s *Store) Load(ctx context.Context, id string) (image.Image, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("context cancelled: %w", err)
	}
	if img, ok := s.cache.getOriginal(id); ok {
		loadsTotal.WithLabelValues("original", "cache").Inc()
		return img, true, nil
	}

	v, err, _ := s.flight.Do("original/"+id, func() (any, error) {
		img, err := imaging.Open(s.originalPath(id))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return loadResult{}, nil
			}
			return nil, fmt.Errorf("load photo %s: %w", id, err)
		}
		s.cache.putOriginal(id, img)
		return loadResult{img: img, found: true}, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(loadResult)
	if res.found {
		loadsTotal.WithLabelValues("original", "disk").Inc()
	} else {
		loadsTotal.WithLabelValues("original", "miss").Inc()
	}
	return res.img, res.found, nil
}

// LoadThumbnail returns the thumbnail at the given size.
//
// Description:
//
//	Cache first, then disk. If the thumbnail file is missing but the
//	original exists, the thumbnail is regenerated from the original
//	and persisted before returning: reads self-heal. Only when both
//	the thumbnail and the original are absent is (nil, false, nil)
//	returned.
func (s *Store) LoadThumbnail(ctx context.Context, id string, size ThumbnailSize) (image.Image, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("context cancelled: %w", err)
	}
	if !size.Valid() {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidThumbnailSize, size)
	}
	if img, ok := s.cache.getThumbnail(id, size); ok {
		loadsTotal.WithLabelValues("thumbnail", "cache").Inc()
		return img, true, nil
	}

	v, err, _ := s.flight.Do("thumbnail/"+thumbCacheKey(id, size), func() (any, error) {
		img, err := imaging.Open(s.thumbnailPath(id, size))
		if err == nil {
			s.cache.putThumbnail(id, size, img)
			loadsTotal.WithLabelValues("thumbnail", "disk").Inc()
			return loadResult{img: img, found: true}, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load thumbnail %s_%s: %w", id, size, err)
		}

		// Thumbnail missing: regenerate from the original if present.
		original, found, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if !found {
			loadsTotal.WithLabelValues("thumbnail", "miss").Inc()
			return loadResult{}, nil
		}
		thumb := renderThumbnail(original, size)
		if err := writeJPEGAtomic(s.thumbnailPath(id, size), thumb, size.Quality()); err != nil {
			// Persisting failed but the pixels are good; serve them
			// and let a later read retry the write.
			s.logger.Warn("thumbnail regeneration write failed",
				"photo_id", id, "size", string(size), "error", err.Error())
		}
		thumbnailRegenerationsTotal.Inc()
		loadsTotal.WithLabelValues("thumbnail", "regenerated").Inc()
		s.cache.putThumbnail(id, size, thumb)
		s.logger.Info("thumbnail regenerated from original", "photo_id", id, "size", string(size))
		return loadResult{img: thumb, found: true}, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(loadResult)
	return res.img, res.found, nil
}

// Delete removes the original and all three thumbnails.
//
// Each file is removed best-effort: one missing or failing file does
// not abort the others. Cache entries for the identifier are always
// purged.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	var errs []error
	paths := []string{s.originalPath(id)}
	for _, size := range ThumbnailSizes {
		paths = append(paths, s.thumbnailPath(id, size))
	}
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		}
	}
	s.cache.invalidate(id)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.logger.Debug("photo deleted", "photo_id", id)
	return nil
}

// DeleteAll removes the artifacts for every identifier in ids,
// continuing past per-photo failures. Used after cascade deletes to
// reclaim files for every removed entity.
func (s *Store) DeleteAll(ctx context.Context, ids []string) error {
	var errs []error
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Exists reports whether the original artifact exists on disk.
func (s *Store) Exists(id string) bool {
	_, err := os.Stat(s.originalPath(id))
	return err == nil
}

// ThumbnailExists reports whether the thumbnail artifact for the given
// size exists on disk. Used by the thumbnail migration to find photos
// saved before a size was introduced.
func (s *Store) ThumbnailExists(id string, size ThumbnailSize) bool {
	_, err := os.Stat(s.thumbnailPath(id, size))
	return err == nil
}

// OriginalIDs lists the identifiers of every original artifact on disk,
// in directory order. Used by the integrity checker to find files no
// entity references.
func (s *Store) OriginalIDs() ([]string, error) {
	entries, err := os.ReadDir(s.originalsDir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.originalsDir, err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, ok := identifierFromFilename(entry.Name()); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// identifierFromFilename recovers the photo identifier from an artifact
// filename. Thumbnail names strip the trailing _<size> suffix; names
// without the artifact extension are rejected.
func identifierFromFilename(name string) (string, bool) {
	if !strings.HasSuffix(name, artifactExt) {
		return "", false
	}
	base := strings.TrimSuffix(name, artifactExt)
	for _, size := range ThumbnailSizes {
		if suffix := "_" + string(size); strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix), true
		}
	}
	return base, true
}

// CleanupOrphans deletes every artifact whose identifier is not in the
// valid set.
//
// Description:
//
//	Scans both the originals and thumbnails directories. Thumbnail
//	filenames strip their _<size> suffix before the membership check.
//	The entire cache is cleared afterward: any file may have been
//	removed, so conservative invalidation is the only safe option.
//
// Outputs:
//
//	int - Number of files removed.
//	error - Non-nil if a directory scan fails; individual file removal
//	  failures are logged and skipped.
func (s *Store) CleanupOrphans(ctx context.Context, valid map[string]struct{}) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context cancelled: %w", err)
	}
	removed := 0
	for _, dir := range []string{s.originalsDir, s.thumbnailsDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return removed, fmt.Errorf("scan %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			id, ok := identifierFromFilename(entry.Name())
			if !ok {
				continue // stray non-artifact file; leave it alone
			}
			if _, referenced := valid[id]; referenced {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				s.logger.Warn("orphan removal failed", "path", path, "error", err.Error())
				continue
			}
			removed++
			orphansRemovedTotal.Inc()
		}
	}
	s.cache.clear()
	if removed > 0 {
		s.logger.Info("orphaned photo files removed", "count", removed)
	}
	return removed, nil
}

// StorageInfo is the filesystem accounting report for diagnostics.
type StorageInfo struct {
	OriginalBytes  int64 `json:"originalBytes"`
	ThumbnailBytes int64 `json:"thumbnailBytes"`
	PhotoCount     int   `json:"photoCount"`
	ThumbnailCount int   `json:"thumbnailCount"`

	// CompressionRatio is thumbnail bytes over original bytes: how much
	// smaller the derived artifacts are. Zero when no originals exist.
	CompressionRatio float64 `json:"compressionRatio"`
}

// TotalBytes returns the combined size of all artifacts.
func (i StorageInfo) TotalBytes() int64 {
	return i.OriginalBytes + i.ThumbnailBytes
}

// TotalStorageUsed returns the combined byte size of all photo artifacts.
func (s *Store) TotalStorageUsed() (int64, error) {
	info, err := s.DetailedStorageInfo()
	if err != nil {
		return 0, err
	}
	return info.TotalBytes(), nil
}

// DetailedStorageInfo walks both artifact directories and returns
// per-kind byte and file counts.
func (s *Store) DetailedStorageInfo() (StorageInfo, error) {
	var info StorageInfo

	originalBytes, originalCount, err := dirUsage(s.originalsDir)
	if err != nil {
		return info, err
	}
	thumbBytes, thumbCount, err := dirUsage(s.thumbnailsDir)
	if err != nil {
		return info, err
	}

	info.OriginalBytes = originalBytes
	info.PhotoCount = originalCount
	info.ThumbnailBytes = thumbBytes
	info.ThumbnailCount = thumbCount
	if originalBytes > 0 {
		info.CompressionRatio = float64(thumbBytes) / float64(originalBytes)
	}
	return info, nil
}

func dirUsage(dir string) (bytes int64, count int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("scan %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), artifactExt) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		bytes += fi.Size()
		count++
	}
	return bytes, count, nil
}

// ClearAll deletes and recreates both storage directories and clears
// the cache. Used only for a destructive user-initiated reset.
func (s *Store) ClearAll() error {
	for _, dir := range []string{s.originalsDir, s.thumbnailsDir} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("recreate %s: %w", dir, err)
		}
	}
	s.cache.clear()
	s.logger.Info("photo storage cleared")
	return nil
}
