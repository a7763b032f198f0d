// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package photo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	saveDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "photo_save_duration_seconds",
		Help:    "Time to compress and persist a photo with its thumbnails",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"status"})

	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photo_loads_total",
		Help: "Photo and thumbnail loads by source",
	}, []string{"kind", "source"}) // kind: original|thumbnail; source: cache|disk|regenerated|miss

	thumbnailRegenerationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "photo_thumbnail_regenerations_total",
		Help: "Thumbnails lazily regenerated from originals on read",
	})

	cacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "photo_cache_evictions_total",
		Help: "Cache entries evicted due to capacity",
	})

	orphansRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "photo_orphans_removed_total",
		Help: "Photo files removed by orphan cleanup",
	})
)
