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
	"log/slog"
)

// Undo moves current to its parent.
//
// Description:
//
//	Fails silently (nil) when current is the root or the tree is empty;
//	pressing undo at the root is routine, not an error. On success the
//	parent's LastAccessed is refreshed and the tree is persisted.
//
// Outputs:
//   - *Node[R]: The new current node, or nil when there is no parent.
//
// Thread Safety: Safe for concurrent use.
func (t *Tree[R]) Undo(ctx context.Context) *Node[R] {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.nodes[t.currentID]
	if !ok || cur.ParentID == "" {
		return nil
	}
	parent, ok := t.nodes[cur.ParentID]
	if !ok {
		return nil
	}
	parent.LastAccessed = t.clock.Now()
	t.currentID = parent.ID
	t.persistLocked(ctx)
	t.logger.Debug("undo", slog.String("version_id", parent.ID))
	return parent
}

// Redo moves current to its most recently visited child.
//
// Description:
//
//	Fails silently (nil) when current has no children. Among children,
//	the one with the largest LastAccessed wins, ties broken by the
//	first encountered. Redo after a fresh fork therefore re-enters the
//	newest branch, and repeated undo/redo cycles retrace the same path
//	until a different branch is explicitly visited.
//
// Outputs:
//   - *Node[R]: The new current node, or nil when there are no children.
//
// Thread Safety: Safe for concurrent use.
func (t *Tree[R]) Redo(ctx context.Context) *Node[R] {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.nodes[t.currentID]
	if !ok || len(cur.Children) == 0 {
		return nil
	}

	var pick *Node[R]
	for _, childID := range cur.Children {
		child, ok := t.nodes[childID]
		if !ok {
			continue
		}
		if pick == nil || child.LastAccessed > pick.LastAccessed {
			pick = child
		}
	}
	if pick == nil {
		return nil
	}

	pick.LastAccessed = t.clock.Now()
	t.currentID = pick.ID
	t.persistLocked(ctx)
	t.logger.Debug("redo", slog.String("version_id", pick.ID))
	return pick
}

// GoToVersion jumps current to an arbitrary known version.
//
// Description:
//
//	Used for history-browser jumps and for landing on forked or
//	replaced trees after import. Unknown ids fail silently (nil).
//
// Inputs:
//   - id: The target version id.
//
// Outputs:
//   - *Node[R]: The new current node, or nil if id is unknown.
//
// Thread Safety: Safe for concurrent use.
func (t *Tree[R]) GoToVersion(ctx context.Context, id string) *Node[R] {
	t.mu.Lock()
	defer t.mu.Unlock()

	node, ok := t.nodes[id]
	if !ok {
		return nil
	}
	node.LastAccessed = t.clock.Now()
	t.currentID = node.ID
	t.persistLocked(ctx)
	t.logger.Debug("jump", slog.String("version_id", node.ID))
	return node
}

// CanUndo reports whether current has a parent.
func (t *Tree[R]) CanUndo() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.nodes[t.currentID]
	return ok && cur.ParentID != ""
}

// CanRedo reports whether current has at least one child.
func (t *Tree[R]) CanRedo() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.nodes[t.currentID]
	return ok && len(cur.Children) > 0
}
