// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package photo

import (
	"container/list"
	"image"
	"sync"
)

// imageCache is the in-memory read cache for decoded photos: one map for
// full originals, one for thumbnails (keyed id + size), both guarded by
// a single RWMutex. Reads take the read lock and do not reorder entries,
// so concurrent reads proceed in parallel; eviction is insertion-order
// and happens under the write lock.
//
// Full images dominate memory, so they get a much smaller budget than
// thumbnails.
type imageCache struct {
	mu sync.RWMutex

	originals    map[string]image.Image
	originalsLRU *list.List // of string (identifier), oldest at front
	maxOriginals int

	thumbnails    map[string]image.Image
	thumbnailsLRU *list.List // of string (identifier_size), oldest at front
	maxThumbnails int
}

// Default cache budgets. A 1024x1024 decoded image is ~4 MB; thumbnails
// are two orders of magnitude smaller.
const (
	defaultMaxCachedOriginals  = 24
	defaultMaxCachedThumbnails = 400
)

func newImageCache(maxOriginals, maxThumbnails int) *imageCache {
	if maxOriginals <= 0 {
		maxOriginals = defaultMaxCachedOriginals
	}
	if maxThumbnails <= 0 {
		maxThumbnails = defaultMaxCachedThumbnails
	}
	return &imageCache{
		originals:     make(map[string]image.Image),
		originalsLRU:  list.New(),
		maxOriginals:  maxOriginals,
		thumbnails:    make(map[string]image.Image),
		thumbnailsLRU: list.New(),
		maxThumbnails: maxThumbnails,
	}
}

func thumbCacheKey(id string, size ThumbnailSize) string {
	return id + "_" + string(size)
}

func (c *imageCache) getOriginal(id string) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.originals[id]
	return img, ok
}

func (c *imageCache) putOriginal(id string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.originals[id]; !exists {
		c.originalsLRU.PushBack(id)
		for c.originalsLRU.Len() > c.maxOriginals {
			oldest := c.originalsLRU.Remove(c.originalsLRU.Front()).(string)
			delete(c.originals, oldest)
			cacheEvictionsTotal.Inc()
		}
	}
	c.originals[id] = img
}

func (c *imageCache) getThumbnail(id string, size ThumbnailSize) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.thumbnails[thumbCacheKey(id, size)]
	return img, ok
}

func (c *imageCache) putThumbnail(id string, size ThumbnailSize, img image.Image) {
	key := thumbCacheKey(id, size)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.thumbnails[key]; !exists {
		c.thumbnailsLRU.PushBack(key)
		for c.thumbnailsLRU.Len() > c.maxThumbnails {
			oldest := c.thumbnailsLRU.Remove(c.thumbnailsLRU.Front()).(string)
			delete(c.thumbnails, oldest)
			cacheEvictionsTotal.Inc()
		}
	}
	c.thumbnails[key] = img
}

// invalidate removes every cache entry for the identifier: the original
// and all three thumbnails.
func (c *imageCache) invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(id)
}

func (c *imageCache) removeLocked(id string) {
	if _, ok := c.originals[id]; ok {
		delete(c.originals, id)
		removeFromList(c.originalsLRU, id)
	}
	for _, size := range ThumbnailSizes {
		key := thumbCacheKey(id, size)
		if _, ok := c.thumbnails[key]; ok {
			delete(c.thumbnails, key)
			removeFromList(c.thumbnailsLRU, key)
		}
	}
}

// clear drops every cached entry. Used after bulk file operations
// (orphan cleanup, reset) where any entry may have been removed on disk.
func (c *imageCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.originals = make(map[string]image.Image)
	c.originalsLRU.Init()
	c.thumbnails = make(map[string]image.Image)
	c.thumbnailsLRU.Init()
}

func (c *imageCache) len() (originals, thumbnails int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.originals), len(c.thumbnails)
}

func removeFromList(l *list.List, value string) {
	for e := l.Front(); e != nil; e = e.Next() {
		if e.Value.(string) == value {
			l.Remove(e)
			return
		}
	}
}
