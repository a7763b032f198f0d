// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package photo

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Original artifact bounds: resized to fit within 1024x1024 preserving
// aspect ratio (never upscaled), recompressed as JPEG at quality 85.
const (
	originalMaxDimension = 1024
	originalQuality      = 85
)

// ThumbnailSize names one of the three fixed thumbnail resolutions.
type ThumbnailSize string

const (
	ThumbnailSmall  ThumbnailSize = "small"
	ThumbnailMedium ThumbnailSize = "medium"
	ThumbnailLarge  ThumbnailSize = "large"
)

// ThumbnailSizes lists all sizes in ascending pixel order.
var ThumbnailSizes = []ThumbnailSize{ThumbnailSmall, ThumbnailMedium, ThumbnailLarge}

// Pixels returns the square edge length of the thumbnail.
func (s ThumbnailSize) Pixels() int {
	switch s {
	case ThumbnailSmall:
		return 40
	case ThumbnailMedium:
		return 80
	case ThumbnailLarge:
		return 200
	default:
		return 0
	}
}

// Quality returns the JPEG quality used when encoding the thumbnail.
func (s ThumbnailSize) Quality() int {
	switch s {
	case ThumbnailSmall:
		return 70
	case ThumbnailMedium:
		return 80
	case ThumbnailLarge:
		return 90
	default:
		return 0
	}
}

// Valid reports whether the size is a known value.
func (s ThumbnailSize) Valid() bool {
	return s.Pixels() > 0
}

// fitOriginal downscales an image to fit within the original bounds,
// preserving aspect ratio. Images already within bounds are returned
// unchanged; nothing is ever upscaled.
func fitOriginal(img image.Image) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= originalMaxDimension && bounds.Dy() <= originalMaxDimension {
		return img
	}
	return imaging.Fit(img, originalMaxDimension, originalMaxDimension, imaging.Lanczos)
}

// renderThumbnail produces the square center-cropped thumbnail for the
// given size.
func renderThumbnail(img image.Image, size ThumbnailSize) image.Image {
	px := size.Pixels()
	return imaging.Fill(img, px, px, imaging.Center, imaging.Lanczos)
}

// writeJPEGAtomic encodes img as JPEG at the given quality into path
// using write-then-rename: a crash mid-write leaves a stray temp file,
// never a corrupted artifact at the final path.
func writeJPEGAtomic(path string, img image.Image, quality int) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".photo-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if err := imaging.Encode(tmp, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("encode jpeg: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
