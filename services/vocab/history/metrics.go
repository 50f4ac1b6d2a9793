// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package history

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vocab_history_commits_total",
		Help: "Total commits recorded, by chosen payload encoding",
	}, []string{"encoding"})

	evictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vocab_history_evictions_total",
		Help: "Total version nodes removed by capacity eviction",
	})

	nodeCountGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vocab_history_nodes",
		Help: "Current number of version nodes in the tree",
	})

	resolveCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vocab_history_resolve_cache_hits_total",
		Help: "Resolve cache hits",
	})

	resolveCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vocab_history_resolve_cache_misses_total",
		Help: "Resolve cache misses",
	})

	persistFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vocab_history_persist_failures_total",
		Help: "Rejected persistence writes (before and after prune-retry)",
	})
)
