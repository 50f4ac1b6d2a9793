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
	"container/list"
	"sync/atomic"
)

// resolveCache memoizes resolved collections by node id.
//
// Description:
//
//	A fixed-size insertion-order cache: when full, the oldest inserted
//	entry is evicted regardless of access recency. Lookups do not
//	reorder entries. The whole cache is purged on every structural
//	mutation, so recency tracking would buy nothing; insertion order
//	keeps eviction deterministic.
//
//	Cached slices may alias node snapshots. Callers must treat returned
//	collections as read-only.
//
// Thread Safety: NOT safe for concurrent use; the owning Tree holds its
// lock around all calls.
//
// Performance:
//
//	| Operation | Complexity |
//	|-----------|------------|
//	| Get       | O(1)       |
//	| Set       | O(1)       |
//	| Purge     | O(n)       |
type resolveCache[R Record[R]] struct {
	capacity int
	items    map[string]*list.Element
	order    *list.List // Front = newest insert, Back = oldest insert

	// Stats (atomic so Stats() stays lock-free for metrics scraping)
	hits   atomic.Int64
	misses atomic.Int64
}

// cacheEntry holds the key-value pair in the list.
type cacheEntry[R Record[R]] struct {
	key  string
	data []R
}

// newResolveCache creates a cache with the given capacity.
func newResolveCache[R Record[R]](capacity int) *resolveCache[R] {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &resolveCache[R]{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the memoized collection for a node id, if present.
func (c *resolveCache[R]) Get(key string) ([]R, bool) {
	if elem, ok := c.items[key]; ok {
		c.hits.Add(1)
		resolveCacheHits.Inc()
		return elem.Value.(*cacheEntry[R]).data, true
	}
	c.misses.Add(1)
	resolveCacheMisses.Inc()
	return nil, false
}

// Set memoizes a resolved collection, evicting the oldest insert if full.
func (c *resolveCache[R]) Set(key string, data []R) {
	if elem, ok := c.items[key]; ok {
		elem.Value.(*cacheEntry[R]).data = data
		return
	}
	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry[R]).key)
		}
	}
	c.items[key] = c.order.PushFront(&cacheEntry[R]{key: key, data: data})
}

// Purge drops every entry. Called on every structural mutation.
func (c *resolveCache[R]) Purge() {
	c.items = make(map[string]*list.Element, c.capacity)
	c.order.Init()
}

// Len returns the number of memoized entries.
func (c *resolveCache[R]) Len() int {
	return c.order.Len()
}

// Stats returns hit/miss counts since creation.
func (c *resolveCache[R]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
