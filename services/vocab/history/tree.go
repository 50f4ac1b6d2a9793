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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// newNodeID mints an opaque version identifier.
func newNodeID() string {
	return uuid.NewString()
}

// Tree is the version store: the node map, the root/current pointers,
// and the engines that operate on them.
//
// Description:
//
//	One Tree manages exactly one collection-valued document. The first
//	commit becomes the root (always a snapshot); every later commit is
//	appended under whoever `current` points at, and `current` advances
//	to every newly created, undone-to, redone-to, or jumped-to node.
//
// Thread Safety: Safe for concurrent use. A single mutex serializes all
// public operations.
type Tree[R Record[R]] struct {
	mu     sync.Mutex
	cfg    Config
	logger *slog.Logger
	store  Store
	clock  monotonicClock

	nodes     map[string]*Node[R]
	rootID    string
	currentID string
	cache     *resolveCache[R]
}

// New creates an empty version tree.
//
// Description:
//
//	The tree starts with no nodes. Pass a Store to enable persistence;
//	a nil store keeps the tree memory-only (tests, dry runs). Call
//	Load to pick up previously persisted state.
//
// Inputs:
//   - cfg: Engine parameters. Zero fields are not defaulted; use
//     DefaultConfig() as the starting point.
//   - store: Persistence backend. May be nil.
//
// Outputs:
//   - *Tree[R]: The empty tree.
//   - error: Non-nil if cfg is invalid.
//
// Thread Safety: The returned tree is safe for concurrent use.
func New[R Record[R]](cfg Config, store Store) (*Tree[R], error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Tree[R]{
		cfg:    cfg,
		logger: cfg.Logger.With(slog.String("component", "version_tree")),
		store:  store,
		nodes:  make(map[string]*Node[R]),
		cache:  newResolveCache[R](cfg.CacheSize),
	}, nil
}

// Commit records a materialized collection as a new version.
//
// Description:
//
//	Creates a node holding the collection, linked under the current
//	node (or as the root if the tree is empty). The payload encoding is
//	chosen adaptively: a delta against the parent's resolved collection
//	is used only when the parent exists, the consecutive delta chain at
//	the parent is below the depth limit, and the serialized delta is
//	smaller than DeltaSizeRatio of the serialized snapshot. The root is
//	always a snapshot.
//
//	After linking, current advances to the new node, the resolve cache
//	is invalidated, eviction runs if the node count exceeds the cap,
//	and the tree is persisted (best effort).
//
// Inputs:
//   - ctx: Context for the persistence write.
//   - collection: The materialized collection. Copied; the caller keeps
//     ownership of its slice.
//   - label: Human-readable commit description.
//
// Outputs:
//   - *Node[R]: The new node. Treat as read-only.
//
// Thread Safety: Safe for concurrent use.
func (t *Tree[R]) Commit(ctx context.Context, collection []R, label string) *Node[R] {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	node := &Node[R]{
		ID:           newNodeID(),
		CreatedAt:    now,
		LastAccessed: now,
		Label:        label,
		ItemCount:    len(collection),
	}

	encoding := "snapshot"
	if t.currentID == "" {
		node.Kind = PayloadSnapshot
		node.Snapshot = cloneCollection(collection)
		t.rootID = node.ID
	} else {
		parent := t.nodes[t.currentID]
		node.ParentID = parent.ID
		if delta, ok := t.encodeDeltaLocked(parent, collection); ok {
			node.Kind = PayloadDelta
			node.Delta = delta
			encoding = "delta"
		} else {
			node.Kind = PayloadSnapshot
			node.Snapshot = cloneCollection(collection)
		}
		parent.Children = append(parent.Children, node.ID)
	}

	t.nodes[node.ID] = node
	t.currentID = node.ID
	t.cache.Purge()

	commitsTotal.WithLabelValues(encoding).Inc()
	if len(t.nodes) > t.cfg.MaxVersions {
		t.pruneLocked(t.cfg.MaxVersions)
	}
	nodeCountGauge.Set(float64(len(t.nodes)))
	t.persistLocked(ctx)

	t.logger.Debug("version committed",
		slog.String("version_id", node.ID),
		slog.String("label", label),
		slog.String("encoding", encoding),
		slog.Int("item_count", node.ItemCount),
		slog.Int("tree_size", len(t.nodes)),
	)
	return node
}

// encodeDeltaLocked builds the candidate delta against the parent and
// decides whether delta encoding pays off. Returns ok=false when the
// parent cannot be resolved, the chain is too deep, or the delta is not
// clearly smaller than the snapshot.
func (t *Tree[R]) encodeDeltaLocked(parent *Node[R], collection []R) ([]DeltaEntry[R], bool) {
	if t.deltaChainDepthLocked(parent.ID) >= t.cfg.DeltaDepthLimit {
		return nil, false
	}
	base, ok := t.resolveLocked(parent.ID, 0)
	if !ok {
		return nil, false
	}
	delta := computeDelta(base, collection)
	deltaBytes, err := json.Marshal(delta)
	if err != nil {
		return nil, false
	}
	snapBytes, err := json.Marshal(collection)
	if err != nil {
		return nil, false
	}
	if float64(len(deltaBytes)) >= t.cfg.DeltaSizeRatio*float64(len(snapBytes)) {
		return nil, false
	}
	return delta, true
}

// deltaChainDepthLocked counts consecutive delta payloads walking up
// from id until a snapshot (or a missing node) terminates the chain.
func (t *Tree[R]) deltaChainDepthLocked(id string) int {
	depth := 0
	for n := t.nodes[id]; n != nil && n.Kind == PayloadDelta; n = t.nodes[n.ParentID] {
		depth++
	}
	return depth
}

// ResolveData materializes the collection at a version.
//
// Description:
//
//	Snapshot payloads return directly; delta payloads resolve the
//	parent first and apply the delta. Results are memoized in the
//	bounded resolve cache. An unknown id or a broken chain (parent
//	evicted out from under an imported delta) yields an absent result,
//	never an error: the caller treats it as "no data available".
//
// Inputs:
//   - id: The version id.
//
// Outputs:
//   - []R: The materialized collection. Treat as read-only; cached
//     snapshot references may be shared across calls.
//   - bool: False if the id is unknown or the chain is broken.
//
// Thread Safety: Safe for concurrent use.
func (t *Tree[R]) ResolveData(id string) ([]R, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resolveLocked(id, 0)
}

// CurrentData materializes the collection at the current version.
//
// Outputs:
//   - []R: The collection, empty (non-nil) when the tree is empty.
//   - bool: False only when the current chain is broken.
func (t *Tree[R]) CurrentData() ([]R, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.currentID == "" {
		return []R{}, true
	}
	return t.resolveLocked(t.currentID, 0)
}

// resolveLocked is the recursive resolver. depth guards against cycles in
// hostile imported data; well-formed trees never get near the bound.
func (t *Tree[R]) resolveLocked(id string, depth int) ([]R, bool) {
	if depth > len(t.nodes)+1 {
		return nil, false
	}
	node, ok := t.nodes[id]
	if !ok {
		return nil, false
	}
	if data, ok := t.cache.Get(id); ok {
		return data, true
	}

	var data []R
	switch node.Kind {
	case PayloadSnapshot:
		data = node.Snapshot
		if data == nil {
			data = []R{}
		}
	case PayloadDelta:
		base, ok := t.resolveLocked(node.ParentID, depth+1)
		if !ok {
			return nil, false
		}
		applied, err := applyDelta(base, node.Delta)
		if err != nil {
			t.logger.Warn("delta resolution failed",
				slog.String("version_id", id),
				slog.String("error", err.Error()),
			)
			return nil, false
		}
		data = applied
	default:
		return nil, false
	}

	t.cache.Set(id, data)
	return data, true
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

// Len returns the number of version nodes.
func (t *Tree[R]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nodes)
}

// RootID returns the root id, empty when the tree is empty.
func (t *Tree[R]) RootID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rootID
}

// CurrentID returns the current id, empty when the tree is empty.
func (t *Tree[R]) CurrentID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentID
}

// GetNode returns a deep copy of a node, or nil if the id is unknown.
func (t *Tree[R]) GetNode(id string) *Node[R] {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.nodes[id]; ok {
		return n.clone()
	}
	return nil
}

// Rename updates a node's label. Unknown ids are a silent no-op.
func (t *Tree[R]) Rename(ctx context.Context, id, label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	node, ok := t.nodes[id]
	if !ok {
		return
	}
	node.Label = label
	t.persistLocked(ctx)
}

// MaxVersions returns the current node cap.
func (t *Tree[R]) MaxVersions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg.MaxVersions
}
