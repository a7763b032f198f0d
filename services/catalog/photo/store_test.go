// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package photo

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), Options{})
	require.NoError(t, err)
	return s
}

// testJPEG encodes a solid-color image of the given dimensions as JPEG
// bytes, the way a photo would arrive from a camera roll.
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 180, G: 120, B: 40, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func mustSave(t *testing.T, s *Store, id string, width, height int) {
	t.Helper()
	require.NoError(t, s.Save(context.Background(), id, bytes.NewReader(testJPEG(t, width, height))))
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("small image survives round trip unscaled", func(t *testing.T) {
		s := newTestStore(t)
		mustSave(t, s, "p1", 640, 480)

		img, found, err := s.Load(ctx, "p1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 640, img.Bounds().Dx())
		assert.Equal(t, 480, img.Bounds().Dy())
	})

	t.Run("oversized image fits within 1024", func(t *testing.T) {
		s := newTestStore(t)
		mustSave(t, s, "big", 3000, 3000)

		img, found, err := s.Load(ctx, "big")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 1024, img.Bounds().Dx())
		assert.Equal(t, 1024, img.Bounds().Dy())
	})

	t.Run("downscale preserves aspect ratio", func(t *testing.T) {
		s := newTestStore(t)
		mustSave(t, s, "wide", 2000, 1000)

		img, found, err := s.Load(ctx, "wide")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 1024, img.Bounds().Dx())
		assert.Equal(t, 512, img.Bounds().Dy())
	})

	t.Run("save writes original and all thumbnails", func(t *testing.T) {
		s := newTestStore(t)
		mustSave(t, s, "p2", 800, 600)

		assert.FileExists(t, s.originalPath("p2"))
		for _, size := range ThumbnailSizes {
			assert.FileExists(t, s.thumbnailPath("p2", size))
		}
	})

	t.Run("save replaces existing artifacts", func(t *testing.T) {
		s := newTestStore(t)
		mustSave(t, s, "p3", 640, 480)
		mustSave(t, s, "p3", 400, 300)

		img, found, err := s.Load(ctx, "p3")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 400, img.Bounds().Dx())
	})

	t.Run("undecodable input is rejected", func(t *testing.T) {
		s := newTestStore(t)
		err := s.Save(ctx, "bad", strings.NewReader("not an image"))
		require.Error(t, err)
		assert.False(t, s.Exists("bad"))
	})

	t.Run("missing photo is found=false not error", func(t *testing.T) {
		s := newTestStore(t)
		img, found, err := s.Load(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, img)
	})

	t.Run("second load is served from cache", func(t *testing.T) {
		s := newTestStore(t)
		mustSave(t, s, "cached", 640, 480)

		_, found, err := s.Load(ctx, "cached")
		require.NoError(t, err)
		require.True(t, found)

		// Remove the file behind the cache's back; the cached copy
		// still serves.
		require.NoError(t, os.Remove(s.originalPath("cached")))
		img, found, err := s.Load(ctx, "cached")
		require.NoError(t, err)
		assert.True(t, found)
		assert.NotNil(t, img)
	})
}

func TestLoadThumbnail(t *testing.T) {
	ctx := context.Background()

	t.Run("each size has its configured dimensions", func(t *testing.T) {
		s := newTestStore(t)
		mustSave(t, s, "p1", 1200, 900)

		for _, size := range ThumbnailSizes {
			img, found, err := s.LoadThumbnail(ctx, "p1", size)
			require.NoError(t, err)
			require.True(t, found, "size %s", size)
			assert.Equal(t, size.Pixels(), img.Bounds().Dx())
			assert.Equal(t, size.Pixels(), img.Bounds().Dy())
		}
	})

	t.Run("missing thumbnail regenerates from original", func(t *testing.T) {
		s := newTestStore(t)
		mustSave(t, s, "heal", 800, 800)

		path := s.thumbnailPath("heal", ThumbnailMedium)
		require.NoError(t, os.Remove(path))

		img, found, err := s.LoadThumbnail(ctx, "heal", ThumbnailMedium)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, ThumbnailMedium.Pixels(), img.Bounds().Dx())
		assert.FileExists(t, path, "regenerated thumbnail must be persisted")

		// Idempotent: a second load serves the same dimensions with no
		// further regeneration needed.
		img2, found, err := s.LoadThumbnail(ctx, "heal", ThumbnailMedium)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, img.Bounds(), img2.Bounds())
	})

	t.Run("no original and no thumbnail is found=false", func(t *testing.T) {
		s := newTestStore(t)
		img, found, err := s.LoadThumbnail(ctx, "ghost", ThumbnailSmall)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, img)
	})

	t.Run("unknown size is rejected", func(t *testing.T) {
		s := newTestStore(t)
		_, _, err := s.LoadThumbnail(ctx, "p1", ThumbnailSize("huge"))
		assert.ErrorIs(t, err, ErrInvalidThumbnailSize)
	})

	t.Run("concurrent loads of one photo are safe", func(t *testing.T) {
		s := newTestStore(t)
		mustSave(t, s, "hot", 1000, 1000)

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for _, size := range ThumbnailSizes {
					_, found, err := s.LoadThumbnail(ctx, "hot", size)
					assert.NoError(t, err)
					assert.True(t, found)
				}
			}()
		}
		wg.Wait()
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes original and all thumbnails", func(t *testing.T) {
		s := newTestStore(t)
		mustSave(t, s, "gone", 640, 480)

		require.NoError(t, s.Delete(ctx, "gone"))
		assert.False(t, s.Exists("gone"))
		for _, size := range ThumbnailSizes {
			assert.NoFileExists(t, s.thumbnailPath("gone", size))
		}

		_, found, err := s.Load(ctx, "gone")
		require.NoError(t, err)
		assert.False(t, found, "delete must purge the cache")
	})

	t.Run("deleting a missing photo is a no-op", func(t *testing.T) {
		s := newTestStore(t)
		assert.NoError(t, s.Delete(ctx, "never-existed"))
	})

	t.Run("DeleteAll continues past every id", func(t *testing.T) {
		s := newTestStore(t)
		mustSave(t, s, "a", 100, 100)
		mustSave(t, s, "b", 100, 100)

		require.NoError(t, s.DeleteAll(ctx, []string{"a", "missing", "b"}))
		assert.False(t, s.Exists("a"))
		assert.False(t, s.Exists("b"))
	})
}

func TestCleanupOrphans(t *testing.T) {
	ctx := context.Background()

	t.Run("removes unreferenced files only", func(t *testing.T) {
		s := newTestStore(t)
		mustSave(t, s, "kept", 400, 400)
		mustSave(t, s, "orphan", 400, 400)

		valid := map[string]struct{}{"kept": {}}
		removed, err := s.CleanupOrphans(ctx, valid)
		require.NoError(t, err)
		assert.Equal(t, 4, removed, "orphan original plus three thumbnails")

		assert.True(t, s.Exists("kept"))
		for _, size := range ThumbnailSizes {
			assert.FileExists(t, s.thumbnailPath("kept", size))
		}
		assert.False(t, s.Exists("orphan"))
	})

	t.Run("stray thumbnail without original is removed", func(t *testing.T) {
		s := newTestStore(t)
		mustSave(t, s, "kept", 400, 400)
		// Simulate a leftover thumbnail from a half-finished delete.
		stray := s.thumbnailPath("leftover", ThumbnailLarge)
		require.NoError(t, os.WriteFile(stray, testJPEG(t, 200, 200), 0644))

		removed, err := s.CleanupOrphans(ctx, map[string]struct{}{"kept": {}})
		require.NoError(t, err)
		assert.Equal(t, 1, removed)
		assert.NoFileExists(t, stray)
	})

	t.Run("non artifact files are left alone", func(t *testing.T) {
		s := newTestStore(t)
		note := filepath.Join(s.originalsDir, "README.txt")
		require.NoError(t, os.WriteFile(note, []byte("do not touch"), 0644))

		removed, err := s.CleanupOrphans(ctx, map[string]struct{}{})
		require.NoError(t, err)
		assert.Zero(t, removed)
		assert.FileExists(t, note)
	})

	t.Run("empty valid set removes everything", func(t *testing.T) {
		s := newTestStore(t)
		mustSave(t, s, "a", 300, 300)
		mustSave(t, s, "b", 300, 300)

		removed, err := s.CleanupOrphans(ctx, map[string]struct{}{})
		require.NoError(t, err)
		assert.Equal(t, 8, removed)
	})
}

func TestIdentifierFromFilename(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		wantID string
		wantOK bool
	}{
		{"original", "abc-123.jpg", "abc-123", true},
		{"small thumbnail", "abc-123_small.jpg", "abc-123", true},
		{"medium thumbnail", "abc-123_medium.jpg", "abc-123", true},
		{"large thumbnail", "abc-123_large.jpg", "abc-123", true},
		{"underscore in id without size suffix", "my_photo.jpg", "my_photo", true},
		{"wrong extension", "abc-123.png", "", false},
		{"temp file", ".photo-55.tmp", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := identifierFromFilename(tt.file)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestStorageInfo(t *testing.T) {
	t.Run("empty store reports zeroes", func(t *testing.T) {
		s := newTestStore(t)
		info, err := s.DetailedStorageInfo()
		require.NoError(t, err)
		assert.Zero(t, info.PhotoCount)
		assert.Zero(t, info.TotalBytes())
		assert.Zero(t, info.CompressionRatio)
	})

	t.Run("counts and sizes after saves", func(t *testing.T) {
		s := newTestStore(t)
		mustSave(t, s, "a", 900, 900)
		mustSave(t, s, "b", 500, 500)

		info, err := s.DetailedStorageInfo()
		require.NoError(t, err)
		assert.Equal(t, 2, info.PhotoCount)
		assert.Equal(t, 6, info.ThumbnailCount)
		assert.Positive(t, info.OriginalBytes)
		assert.Positive(t, info.ThumbnailBytes)
		assert.Less(t, info.CompressionRatio, 1.0,
			"three tiny thumbnails should total less than their original")

		total, err := s.TotalStorageUsed()
		require.NoError(t, err)
		assert.Equal(t, info.TotalBytes(), total)
	})
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustSave(t, s, "a", 400, 400)
	mustSave(t, s, "b", 400, 400)

	require.NoError(t, s.ClearAll())

	assert.False(t, s.Exists("a"))
	assert.False(t, s.Exists("b"))
	_, found, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)

	// Directories come back empty and writable.
	mustSave(t, s, "fresh", 200, 200)
	assert.True(t, s.Exists("fresh"))
}
