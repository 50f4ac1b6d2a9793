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
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrRootDeletion indicates an attempt to delete the tree root.
	ErrRootDeletion = errors.New("root version cannot be deleted")

	// ErrUnknownVersion indicates the referenced version id does not exist.
	ErrUnknownVersion = errors.New("unknown version id")

	// ErrEmptyTree indicates an operation that requires an existing root.
	ErrEmptyTree = errors.New("version tree is empty")

	// ErrUnresolvableImport indicates an imported tree whose root delta
	// could not be resolved within the imported node set.
	ErrUnresolvableImport = errors.New("imported tree root is unresolvable")

	// errBadDelta indicates a delta/base mismatch during reconstruction.
	errBadDelta = errors.New("delta does not apply to base collection")
)

// -----------------------------------------------------------------------------
// Record Constraint
// -----------------------------------------------------------------------------

// Record is the constraint for values the tree can version.
//
// Description:
//
//	The tree never inspects record fields. It needs only a structural
//	fingerprint (a canonical serialization used as an equality proxy by
//	the delta codec) and a deep copy, so that snapshots are independent
//	of caller-held slices. Records must also be JSON-serializable for
//	persistence and import/export.
type Record[R any] interface {
	// Fingerprint returns a canonical serialization of the record.
	// Two records with equal fingerprints are considered identical.
	Fingerprint() string

	// Clone returns a deep copy of the record.
	Clone() R
}

// -----------------------------------------------------------------------------
// Version Node
// -----------------------------------------------------------------------------

// PayloadKind discriminates how a node stores its collection.
type PayloadKind string

const (
	// PayloadSnapshot marks a full, independent copy of the collection.
	PayloadSnapshot PayloadKind = "snapshot"

	// PayloadDelta marks a positional encoding against the parent's
	// resolved collection. Delta nodes always have a parent.
	PayloadDelta PayloadKind = "delta"
)

// DeltaEntry is one element of a delta payload.
//
// Exactly one of Ref and Item is set. Ref indexes into the parent's
// resolved collection; Item carries a record verbatim.
type DeltaEntry[R Record[R]] struct {
	Ref  *int `json:"ref,omitempty"`
	Item *R   `json:"item,omitempty"`
}

// Node is one point in the version history.
//
// Description:
//
//	Nodes are linked by ids only (arena style): ParentID names the node
//	this one was derived from, Children is the exact inverse. Timestamps
//	use Unix milliseconds UTC per repo standards.
//
// Thread Safety: owned by the Tree; callers must treat returned nodes
// as read-only.
type Node[R Record[R]] struct {
	// ID is the opaque unique identifier, assigned at creation.
	ID string `json:"id"`

	// ParentID is the id of the node this was derived from, empty for
	// the root. Changed only by reparenting and grafting surgery.
	ParentID string `json:"parent_id,omitempty"`

	// Children holds ids of nodes created with this node as parent,
	// in creation order (left to right).
	Children []string `json:"children,omitempty"`

	// CreatedAt is the creation instant (Unix milliseconds UTC).
	CreatedAt int64 `json:"created_at"`

	// LastAccessed is updated on creation and on every navigation to
	// this node. Eviction ranks survival priority by it; redo picks the
	// child with the largest value.
	LastAccessed int64 `json:"last_accessed"`

	// Label is the human-readable commit description. Mutable.
	Label string `json:"label"`

	// ItemCount caches the collection length for display. Derived at
	// creation, never re-validated.
	ItemCount int `json:"item_count"`

	// Kind selects which payload field is populated.
	Kind PayloadKind `json:"kind"`

	// Snapshot is the full collection copy (Kind == PayloadSnapshot).
	Snapshot []R `json:"snapshot,omitempty"`

	// Delta is the positional encoding (Kind == PayloadDelta).
	Delta []DeltaEntry[R] `json:"delta,omitempty"`
}

// clone returns a deep copy of the node, payload included.
func (n *Node[R]) clone() *Node[R] {
	out := &Node[R]{
		ID:           n.ID,
		ParentID:     n.ParentID,
		CreatedAt:    n.CreatedAt,
		LastAccessed: n.LastAccessed,
		Label:        n.Label,
		ItemCount:    n.ItemCount,
		Kind:         n.Kind,
	}
	if n.Children != nil {
		out.Children = append([]string(nil), n.Children...)
	}
	if n.Snapshot != nil {
		out.Snapshot = cloneCollection(n.Snapshot)
	}
	if n.Delta != nil {
		out.Delta = cloneDelta(n.Delta)
	}
	return out
}

// cloneCollection deep-copies an ordered collection of records.
func cloneCollection[R Record[R]](in []R) []R {
	out := make([]R, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

// cloneDelta deep-copies a delta sequence, inline items included.
func cloneDelta[R Record[R]](in []DeltaEntry[R]) []DeltaEntry[R] {
	out := make([]DeltaEntry[R], len(in))
	for i, e := range in {
		if e.Ref != nil {
			ref := *e.Ref
			out[i].Ref = &ref
		}
		if e.Item != nil {
			item := (*e.Item).Clone()
			out[i].Item = &item
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// Default engine parameters. Depth limit and size ratio are empirical;
// they bound resolution cost and only use deltas when they clearly help.
const (
	// DefaultMaxVersions is the default node cap before eviction.
	DefaultMaxVersions = 100

	// DefaultDeltaDepthLimit is the maximum consecutive-delta chain
	// length below a new delta node.
	DefaultDeltaDepthLimit = 9

	// DefaultDeltaSizeRatio is the maximum serialized delta size as a
	// fraction of the serialized snapshot size.
	DefaultDeltaSizeRatio = 0.6

	// DefaultCacheSize is the resolve cache capacity.
	DefaultCacheSize = 5

	// DefaultPruneFraction is the share of nodes pruned when a persist
	// write is rejected, before the single retry.
	DefaultPruneFraction = 0.2
)

// Config holds Tree tuning parameters.
type Config struct {
	// MaxVersions is the node cap. Exceeding it triggers eviction.
	MaxVersions int

	// DeltaDepthLimit bounds consecutive delta chains.
	DeltaDepthLimit int

	// DeltaSizeRatio is the delta/snapshot size threshold below which
	// delta encoding is chosen.
	DeltaSizeRatio float64

	// CacheSize is the resolve cache capacity (entries).
	CacheSize int

	// PruneFraction is the share of nodes evicted after a rejected
	// persistence write, before the write is retried once.
	PruneFraction float64

	// Logger for engine events. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MaxVersions:     DefaultMaxVersions,
		DeltaDepthLimit: DefaultDeltaDepthLimit,
		DeltaSizeRatio:  DefaultDeltaSizeRatio,
		CacheSize:       DefaultCacheSize,
		PruneFraction:   DefaultPruneFraction,
	}
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.MaxVersions < 1 {
		return fmt.Errorf("max_versions must be >= 1, got %d", c.MaxVersions)
	}
	if c.DeltaDepthLimit < 1 {
		return fmt.Errorf("delta_depth_limit must be >= 1, got %d", c.DeltaDepthLimit)
	}
	if c.DeltaSizeRatio <= 0 || c.DeltaSizeRatio > 1 {
		return fmt.Errorf("delta_size_ratio must be in (0, 1], got %v", c.DeltaSizeRatio)
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("cache_size must be >= 1, got %d", c.CacheSize)
	}
	if c.PruneFraction <= 0 || c.PruneFraction >= 1 {
		return fmt.Errorf("prune_fraction must be in (0, 1), got %v", c.PruneFraction)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Clock
// -----------------------------------------------------------------------------

// monotonicClock hands out strictly increasing Unix-millisecond stamps.
//
// Navigation tie-breaking and eviction ranking both order nodes by
// LastAccessed, so two events in the same wall-clock millisecond must not
// collide. Callers hold the tree lock, so no internal locking is needed.
type monotonicClock struct {
	last int64
}

func (c *monotonicClock) Now() int64 {
	now := time.Now().UnixMilli()
	if now <= c.last {
		now = c.last + 1
	}
	c.last = now
	return now
}
