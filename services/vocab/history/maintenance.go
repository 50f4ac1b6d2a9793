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
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Eviction
// -----------------------------------------------------------------------------

// PruneOldVersions evicts least-recently-accessed subtrees until the tree
// holds at most target nodes.
//
// Description:
//
//	Candidates are ranked by LastAccessed ascending. The root and every
//	node on the current path are protected: undo must always be able to
//	walk back to the root. Each evicted candidate takes its whole
//	subtree with it, since a delta descendant without its ancestor
//	chain is unresolvable. When only protected nodes remain the tree is
//	left over target; that is accepted, not an error.
//
// Inputs:
//   - target: Desired maximum node count after eviction.
//
// Outputs:
//   - int: Number of nodes removed.
//
// Thread Safety: Safe for concurrent use.
func (t *Tree[R]) PruneOldVersions(ctx context.Context, target int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := t.pruneLocked(target)
	if removed > 0 {
		t.persistLocked(ctx)
	}
	return removed
}

// pruneLocked implements eviction. Caller holds the lock and persists.
func (t *Tree[R]) pruneLocked(target int) int {
	if target < 1 || len(t.nodes) <= target {
		return 0
	}

	protected := t.currentPathLocked()
	ranked := make([]*Node[R], 0, len(t.nodes))
	for _, n := range t.nodes {
		ranked = append(ranked, n)
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].LastAccessed < ranked[j].LastAccessed
	})

	removed := 0
	for _, candidate := range ranked {
		if len(t.nodes) <= target {
			break
		}
		if candidate.ID == t.rootID || protected[candidate.ID] {
			continue
		}
		// May already be gone as part of an earlier subtree.
		if _, ok := t.nodes[candidate.ID]; !ok {
			continue
		}
		removed += t.removeSubtreeLocked(candidate.ID)
	}

	if removed > 0 {
		t.cache.Purge()
		evictionsTotal.Add(float64(removed))
		nodeCountGauge.Set(float64(len(t.nodes)))
		t.logger.Debug("versions evicted",
			slog.Int("removed", removed),
			slog.Int("tree_size", len(t.nodes)),
			slog.Int("target", target),
		)
	}
	return removed
}

// currentPathLocked returns the set of ids from current up to the root.
func (t *Tree[R]) currentPathLocked() map[string]bool {
	path := make(map[string]bool)
	for id := t.currentID; id != ""; {
		n, ok := t.nodes[id]
		if !ok || path[id] {
			break
		}
		path[id] = true
		id = n.ParentID
	}
	return path
}

// removeSubtreeLocked detaches a node from its parent and deletes it with
// all descendants. Returns the number of nodes deleted.
func (t *Tree[R]) removeSubtreeLocked(id string) int {
	node, ok := t.nodes[id]
	if !ok {
		return 0
	}
	if parent, ok := t.nodes[node.ParentID]; ok {
		parent.Children = removeID(parent.Children, id)
	}

	count := 0
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, ok := t.nodes[cur]
		if !ok {
			continue
		}
		stack = append(stack, n.Children...)
		delete(t.nodes, cur)
		count++
	}
	return count
}

// removeID deletes the first occurrence of id, preserving order.
func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// -----------------------------------------------------------------------------
// Single-Node Deletion
// -----------------------------------------------------------------------------

// DeleteVersionAndReparentChildren removes one version without losing its
// descendants.
//
// Description:
//
//	Non-destructive deletion for explicit user action. Children whose
//	payload is a delta against the deleted node are resolved and
//	converted to snapshots first; this must happen before the parent is
//	unlinked or resolution would fail. The children are then spliced
//	into the grandparent's child list at the position the deleted node
//	occupied, preserving left-to-right branch order, and reparented.
//	If current pointed at the deleted node it moves to the parent.
//
// Inputs:
//   - id: The version to delete. Must not be the root.
//
// Outputs:
//   - error: ErrRootDeletion for the root, ErrUnknownVersion for an
//     unknown id. The tree is unchanged on error.
//
// Thread Safety: Safe for concurrent use.
func (t *Tree[R]) DeleteVersionAndReparentChildren(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	node, ok := t.nodes[id]
	if !ok {
		return ErrUnknownVersion
	}
	if id == t.rootID {
		return ErrRootDeletion
	}
	parent, ok := t.nodes[node.ParentID]
	if !ok {
		// Parent link broken; treat like an unknown reference.
		return ErrUnknownVersion
	}

	// Break delta dependencies on the doomed node while it still exists.
	for _, childID := range node.Children {
		child, ok := t.nodes[childID]
		if !ok || child.Kind != PayloadDelta {
			continue
		}
		data, ok := t.resolveLocked(childID, 0)
		if !ok {
			t.logger.Warn("child unresolvable during reparent, left as delta",
				slog.String("version_id", childID),
			)
			continue
		}
		child.Kind = PayloadSnapshot
		child.Snapshot = cloneCollection(data)
		child.Delta = nil
	}

	// Splice children into the grandparent at the deleted node's slot.
	pos := len(parent.Children)
	for i, cid := range parent.Children {
		if cid == id {
			pos = i
			break
		}
	}
	spliced := make([]string, 0, len(parent.Children)-1+len(node.Children))
	spliced = append(spliced, parent.Children[:pos]...)
	spliced = append(spliced, node.Children...)
	if pos < len(parent.Children) {
		spliced = append(spliced, parent.Children[pos+1:]...)
	}
	parent.Children = spliced

	for _, childID := range node.Children {
		if child, ok := t.nodes[childID]; ok {
			child.ParentID = parent.ID
		}
	}

	if t.currentID == id {
		t.currentID = parent.ID
	}
	delete(t.nodes, id)
	t.cache.Purge()
	nodeCountGauge.Set(float64(len(t.nodes)))
	t.persistLocked(ctx)

	t.logger.Info("version deleted",
		slog.String("version_id", id),
		slog.Int("reparented_children", len(node.Children)),
	)
	return nil
}

// -----------------------------------------------------------------------------
// Grafting
// -----------------------------------------------------------------------------

// GraftTree attaches an externally produced version tree as a new branch
// under the local root.
//
// Description:
//
//	Used when a file import should fork the history rather than replace
//	it. Every imported node receives a fresh local id; parent, child
//	and current references are rewritten through the remap, and
//	children pointing at ids absent from the import are dropped. A node
//	whose remapped parent does not survive is dropped with its subtree.
//
//	If the imported root's payload is a delta it is meaningless once
//	its true parent is replaced by the local root, so it is resolved
//	with a throwaway resolver scoped to the imported node set and
//	converted to a snapshot before insertion.
//
//	Current moves to the remapped imported-current node (or the grafted
//	root if that id did not survive). The cache is invalidated,
//	eviction runs if over cap, and the tree is persisted.
//
// Inputs:
//   - imported: The foreign node map. Not mutated.
//   - importedRootID: Id of the foreign root within imported.
//   - importedCurrentID: Id of the foreign current within imported.
//
// Outputs:
//   - string: The new local id of the imported current node.
//   - error: ErrEmptyTree when there is no local root to graft onto;
//     ErrUnresolvableImport when the foreign root cannot be materialized.
//
// Thread Safety: Safe for concurrent use.
func (t *Tree[R]) GraftTree(ctx context.Context, imported map[string]*Node[R], importedRootID, importedCurrentID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rootID == "" {
		return "", ErrEmptyTree
	}
	if _, ok := imported[importedRootID]; !ok {
		return "", fmt.Errorf("%w: root %s not in imported set", ErrUnresolvableImport, importedRootID)
	}

	// Fresh local identifiers for every imported node.
	remap := make(map[string]string, len(imported))
	for oldID := range imported {
		remap[oldID] = uuid.NewString()
	}

	grafted := make(map[string]*Node[R], len(imported))
	for oldID, n := range imported {
		nn := n.clone()
		nn.ID = remap[oldID]
		if oldID == importedRootID {
			nn.ParentID = t.rootID
		} else {
			newParent, ok := remap[n.ParentID]
			if !ok {
				continue // dangling parent: dropped
			}
			nn.ParentID = newParent
		}
		children := make([]string, 0, len(n.Children))
		for _, c := range n.Children {
			if nc, ok := remap[c]; ok {
				children = append(children, nc)
			}
		}
		nn.Children = children
		grafted[nn.ID] = nn
	}

	// Drop subtrees whose parent did not survive, and child references
	// to dropped nodes, until the grafted set is closed.
	newRootID := remap[importedRootID]
	for changed := true; changed; {
		changed = false
		for id, n := range grafted {
			if id == newRootID {
				continue
			}
			if _, ok := grafted[n.ParentID]; !ok {
				delete(grafted, id)
				changed = true
			}
		}
	}
	for _, n := range grafted {
		kept := n.Children[:0]
		for _, c := range n.Children {
			if _, ok := grafted[c]; ok {
				kept = append(kept, c)
			}
		}
		n.Children = kept
	}

	// A delta root is meaningless under a new parent: materialize it
	// against the imported tree and store a snapshot.
	newRoot := grafted[newRootID]
	if newRoot.Kind == PayloadDelta {
		data, ok := resolveForeign(imported, importedRootID)
		if !ok {
			return "", ErrUnresolvableImport
		}
		newRoot.Kind = PayloadSnapshot
		newRoot.Snapshot = cloneCollection(data)
		newRoot.Delta = nil
	}

	for id, n := range grafted {
		t.nodes[id] = n
	}
	localRoot := t.nodes[t.rootID]
	localRoot.Children = append(localRoot.Children, newRootID)

	newCurrentID, ok := remap[importedCurrentID]
	if !ok {
		newCurrentID = newRootID
	}
	if _, ok := t.nodes[newCurrentID]; !ok {
		newCurrentID = newRootID
	}
	t.nodes[newCurrentID].LastAccessed = t.clock.Now()
	t.currentID = newCurrentID

	t.cache.Purge()
	if len(t.nodes) > t.cfg.MaxVersions {
		t.pruneLocked(t.cfg.MaxVersions)
	}
	nodeCountGauge.Set(float64(len(t.nodes)))
	t.persistLocked(ctx)

	t.logger.Info("tree grafted",
		slog.Int("imported_nodes", len(grafted)),
		slog.String("graft_root", newRootID),
		slog.String("current", newCurrentID),
	)
	return newCurrentID, nil
}

// resolveForeign materializes a node within a foreign node map, without
// touching tree state or the cache. Bounded by a visited set.
func resolveForeign[R Record[R]](nodes map[string]*Node[R], id string) ([]R, bool) {
	visited := make(map[string]bool)
	var resolve func(string) ([]R, bool)
	resolve = func(id string) ([]R, bool) {
		if visited[id] {
			return nil, false
		}
		visited[id] = true
		n, ok := nodes[id]
		if !ok {
			return nil, false
		}
		switch n.Kind {
		case PayloadSnapshot:
			if n.Snapshot == nil {
				return []R{}, true
			}
			return n.Snapshot, true
		case PayloadDelta:
			base, ok := resolve(n.ParentID)
			if !ok {
				return nil, false
			}
			data, err := applyDelta(base, n.Delta)
			if err != nil {
				return nil, false
			}
			return data, true
		default:
			return nil, false
		}
	}
	return resolve(id)
}

// -----------------------------------------------------------------------------
// Wholesale Operations
// -----------------------------------------------------------------------------

// ReplaceState discards local history and adopts a foreign tree as-is.
//
// Description:
//
//	The replace-and-resume import path: nodes are loaded wholesale with
//	their original ids, root and current are taken from the document.
//	The stated current must resolve, otherwise the local tree is left
//	untouched.
//
// Outputs:
//   - error: ErrUnresolvableImport when rootID/currentID are absent or
//     the stated current does not materialize.
//
// Thread Safety: Safe for concurrent use.
func (t *Tree[R]) ReplaceState(ctx context.Context, nodes map[string]*Node[R], rootID, currentID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := nodes[rootID]; !ok {
		return fmt.Errorf("%w: root %s not in node set", ErrUnresolvableImport, rootID)
	}
	if _, ok := nodes[currentID]; !ok {
		return fmt.Errorf("%w: current %s not in node set", ErrUnresolvableImport, currentID)
	}
	if _, ok := resolveForeign(nodes, currentID); !ok {
		return ErrUnresolvableImport
	}

	adopted := make(map[string]*Node[R], len(nodes))
	for id, n := range nodes {
		adopted[id] = n.clone()
	}
	t.nodes = adopted
	t.rootID = rootID
	t.currentID = currentID
	t.cache.Purge()
	if len(t.nodes) > t.cfg.MaxVersions {
		t.pruneLocked(t.cfg.MaxVersions)
	}
	nodeCountGauge.Set(float64(len(t.nodes)))
	t.persistLocked(ctx)

	t.logger.Info("history replaced", slog.Int("nodes", len(t.nodes)))
	return nil
}

// ExportState returns a deep copy of the node map and pointers, suitable
// for embedding in an export document.
func (t *Tree[R]) ExportState() (nodes map[string]*Node[R], rootID, currentID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	nodes = make(map[string]*Node[R], len(t.nodes))
	for id, n := range t.nodes {
		nodes[id] = n.clone()
	}
	return nodes, t.rootID, t.currentID
}

// ClearHistory resets the tree to empty and persists the reset.
//
// Thread Safety: Safe for concurrent use.
func (t *Tree[R]) ClearHistory(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nodes = make(map[string]*Node[R])
	t.rootID = ""
	t.currentID = ""
	t.cache.Purge()
	nodeCountGauge.Set(0)
	t.persistLocked(ctx)
	t.logger.Info("history cleared")
}

// UpdateMaxVersions changes the node cap, evicting immediately if the
// tree is now over it. The new cap is persisted with the settings entry.
//
// Inputs:
//   - n: The new cap. Values below 1 are ignored.
//
// Thread Safety: Safe for concurrent use.
func (t *Tree[R]) UpdateMaxVersions(ctx context.Context, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n < 1 {
		return
	}
	t.cfg.MaxVersions = n
	if len(t.nodes) > n {
		t.pruneLocked(n)
	}
	t.persistSettingsLocked(ctx)
	t.persistLocked(ctx)
	t.logger.Info("version cap updated", slog.Int("max_versions", n))
}
