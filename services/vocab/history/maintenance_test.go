// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPruneOldVersions_LinearChainIsProtected verifies a tree that is all
// current path stays over target rather than losing reachable history.
func TestPruneOldVersions_LinearChainIsProtected(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		tree.Commit(ctx, entries(fmt.Sprintf("w%d", i)), fmt.Sprintf("commit %d", i))
	}

	removed := tree.PruneOldVersions(ctx, 3)
	assert.Zero(t, removed, "every node is on the current path")
	assert.Equal(t, 6, tree.Len())
	checkInvariants(t, tree)
}

// TestPruneOldVersions_EvictsStaleBranches verifies abandoned branches go
// first, oldest access first, subtree and all.
func TestPruneOldVersions_EvictsStaleBranches(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()

	tree.Commit(ctx, entries("a"), "root")

	// Branch 1: two nodes, then abandoned.
	b1 := tree.Commit(ctx, entries("a", "b1"), "branch1")
	b1child := tree.Commit(ctx, entries("a", "b1", "x"), "branch1 child")
	require.NotNil(t, tree.GoToVersion(ctx, tree.RootID()))

	// Branch 2: abandoned later, so fresher.
	b2 := tree.Commit(ctx, entries("a", "b2"), "branch2")
	require.NotNil(t, tree.GoToVersion(ctx, tree.RootID()))

	// Branch 3: where we stay.
	b3 := tree.Commit(ctx, entries("a", "b3"), "branch3")

	removed := tree.PruneOldVersions(ctx, 3)
	assert.Equal(t, 2, removed, "branch1 subtree (2 nodes) evicted")
	assert.Nil(t, tree.GetNode(b1.ID))
	assert.Nil(t, tree.GetNode(b1child.ID))
	assert.NotNil(t, tree.GetNode(b2.ID))
	assert.NotNil(t, tree.GetNode(b3.ID))
	checkInvariants(t, tree)
}

func TestPruneOldVersions_NoopUnderTarget(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()

	tree.Commit(ctx, entries("a"), "root")
	assert.Zero(t, tree.PruneOldVersions(ctx, 10))
	assert.Zero(t, tree.PruneOldVersions(ctx, 0), "target below 1 is ignored")
	assert.Equal(t, 1, tree.Len())
}

// TestDeleteVersion_Errors covers the two refusal cases.
func TestDeleteVersion_Errors(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()

	tree.Commit(ctx, entries("a"), "root")

	err := tree.DeleteVersionAndReparentChildren(ctx, tree.RootID())
	assert.ErrorIs(t, err, ErrRootDeletion)

	err = tree.DeleteVersionAndReparentChildren(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

// TestDeleteVersion_ReparentsAndPreservesData verifies children survive
// deletion with their materialized state intact, spliced into the
// grandparent at the deleted node's slot.
func TestDeleteVersion_ReparentsAndPreservesData(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()

	collection := make([]entry, 15)
	for i := range collection {
		collection[i] = entry{Term: fmt.Sprintf("word-%02d", i), Def: "a definition long enough to matter"}
	}
	root := tree.Commit(ctx, collection, "root")

	middle := tree.Commit(ctx, append(cloneCollection(collection), entry{Term: "mid"}), "middle")
	childData := append(cloneCollection(collection), entry{Term: "mid"}, entry{Term: "leaf"})
	child := tree.Commit(ctx, childData, "leaf")
	require.Equal(t, PayloadDelta, tree.GetNode(child.ID).Kind, "child should start as a delta")

	require.NoError(t, tree.DeleteVersionAndReparentChildren(ctx, middle.ID))

	assert.Nil(t, tree.GetNode(middle.ID))
	kept := tree.GetNode(child.ID)
	require.NotNil(t, kept)
	assert.Equal(t, root.ID, kept.ParentID)
	assert.Equal(t, PayloadSnapshot, kept.Kind, "delta child must be converted")

	got, ok := tree.ResolveData(child.ID)
	require.True(t, ok)
	assert.Equal(t, childData, got)

	rootNode := tree.GetNode(root.ID)
	assert.Equal(t, []string{child.ID}, rootNode.Children)
	checkInvariants(t, tree)
}

// TestDeleteVersion_CurrentMovesToParent verifies deleting the current
// version lands current on the parent.
func TestDeleteVersion_CurrentMovesToParent(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()

	first := tree.Commit(ctx, entries("a"), "first")
	second := tree.Commit(ctx, entries("a", "b"), "second")

	require.NoError(t, tree.DeleteVersionAndReparentChildren(ctx, second.ID))
	assert.Equal(t, first.ID, tree.CurrentID())
	checkInvariants(t, tree)
}

// TestDeleteVersion_SplicePreservesSiblingOrder verifies the reparented
// children take the deleted node's position among its siblings.
func TestDeleteVersion_SplicePreservesSiblingOrder(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()

	root := tree.Commit(ctx, entries("a"), "root")
	left := tree.Commit(ctx, entries("a", "l"), "left")
	require.NotNil(t, tree.GoToVersion(ctx, root.ID))
	middle := tree.Commit(ctx, entries("a", "m"), "middle")
	grandchild := tree.Commit(ctx, entries("a", "m", "g"), "grandchild")
	require.NotNil(t, tree.GoToVersion(ctx, root.ID))
	right := tree.Commit(ctx, entries("a", "r"), "right")

	require.NoError(t, tree.DeleteVersionAndReparentChildren(ctx, middle.ID))

	rootNode := tree.GetNode(root.ID)
	assert.Equal(t, []string{left.ID, grandchild.ID, right.ID}, rootNode.Children)
	checkInvariants(t, tree)
}

// TestGraftTree_EmptyLocalTree verifies grafting needs a local root.
func TestGraftTree_EmptyLocalTree(t *testing.T) {
	tree := newTestTree(t)
	other := newTestTree(t)
	ctx := context.Background()

	other.Commit(ctx, entries("x"), "foreign root")
	nodes, rootID, currentID := other.ExportState()

	_, err := tree.GraftTree(ctx, nodes, rootID, currentID)
	assert.ErrorIs(t, err, ErrEmptyTree)
}

// TestGraftTree_AttachesUnderRootWithFreshIDs verifies the imported tree
// becomes one new branch under the local root and no imported id leaks in.
func TestGraftTree_AttachesUnderRootWithFreshIDs(t *testing.T) {
	tree := newTestTree(t)
	other := newTestTree(t)
	ctx := context.Background()

	tree.Commit(ctx, entries("local"), "local root")
	tree.Commit(ctx, entries("local", "more"), "local second")

	other.Commit(ctx, entries("x"), "foreign root")
	other.Commit(ctx, entries("x", "y"), "foreign second")
	foreignCurrent, _ := other.CurrentData()
	nodes, rootID, currentID := other.ExportState()

	beforeLen := tree.Len()
	newCurrentID, err := tree.GraftTree(ctx, nodes, rootID, currentID)
	require.NoError(t, err)

	assert.Equal(t, beforeLen+len(nodes), tree.Len())
	for oldID := range nodes {
		assert.Nil(t, tree.GetNode(oldID), "imported id %s must be re-keyed", oldID)
	}

	rootNode := tree.GetNode(tree.RootID())
	require.Len(t, rootNode.Children, 2, "graft adds exactly one new branch")

	assert.Equal(t, newCurrentID, tree.CurrentID())
	got, ok := tree.CurrentData()
	require.True(t, ok)
	assert.Equal(t, foreignCurrent, got)
	checkInvariants(t, tree)
}

// TestGraftTree_RootMissingFromImport verifies a stated root id absent
// from the imported node set is refused before any mutation.
func TestGraftTree_RootMissingFromImport(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()

	tree.Commit(ctx, entries("local"), "local root")

	foreign := map[string]*Node[entry]{
		"f-child": {ID: "f-child", ParentID: "f-gone", Kind: PayloadSnapshot, Snapshot: entries("x")},
	}
	_, err := tree.GraftTree(ctx, foreign, "f-gone", "f-child")
	assert.ErrorIs(t, err, ErrUnresolvableImport)
	assert.Equal(t, 1, tree.Len(), "failed graft must not mutate the tree")
	checkInvariants(t, tree)
}

// TestGraftTree_DropsDanglingSubtrees verifies nodes whose parent is
// absent from the import are dropped, children included.
func TestGraftTree_DropsDanglingSubtrees(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()

	tree.Commit(ctx, entries("local"), "local root")

	foreign := map[string]*Node[entry]{
		"f-root": {
			ID: "f-root", Kind: PayloadSnapshot, Snapshot: entries("x"),
			Children: []string{"f-child"},
		},
		"f-child": {
			ID: "f-child", ParentID: "f-root", Kind: PayloadSnapshot, Snapshot: entries("x", "y"),
		},
		"f-orphan": {
			ID: "f-orphan", ParentID: "f-gone", Kind: PayloadSnapshot, Snapshot: entries("z"),
			Children: []string{"f-orphan-child"},
		},
		"f-orphan-child": {
			ID: "f-orphan-child", ParentID: "f-orphan", Kind: PayloadSnapshot, Snapshot: entries("z", "w"),
		},
	}

	_, err := tree.GraftTree(ctx, foreign, "f-root", "f-child")
	require.NoError(t, err)

	// Local root + grafted root + grafted child; both orphans dropped.
	assert.Equal(t, 3, tree.Len())
	got, ok := tree.CurrentData()
	require.True(t, ok)
	assert.Equal(t, entries("x", "y"), got)
	checkInvariants(t, tree)
}

// TestGraftTree_DeltaRootBecomesSnapshot verifies a foreign root carrying
// a delta payload is materialized before attachment.
func TestGraftTree_DeltaRootBecomesSnapshot(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()

	tree.Commit(ctx, entries("local"), "local root")

	ref0 := 0
	foreign := map[string]*Node[entry]{
		"f-base": {
			ID: "f-base", Kind: PayloadSnapshot, Snapshot: entries("x", "y"),
			Children: []string{"f-top"},
		},
		"f-top": {
			ID: "f-top", ParentID: "f-base", Kind: PayloadDelta,
			Delta: []DeltaEntry[entry]{{Ref: &ref0}},
		},
	}

	// Graft the subtree rooted at the delta node only.
	_, err := tree.GraftTree(ctx, map[string]*Node[entry]{
		"f-top": foreign["f-top"],
	}, "f-top", "f-top")
	assert.ErrorIs(t, err, ErrUnresolvableImport,
		"delta root without its base cannot be materialized")

	// With the full set the root resolves against the foreign map.
	newCurrentID, err := tree.GraftTree(ctx, foreign, "f-top", "f-top")
	require.NoError(t, err)

	kept := tree.GetNode(newCurrentID)
	require.NotNil(t, kept)
	assert.Equal(t, PayloadSnapshot, kept.Kind)
	got, ok := tree.CurrentData()
	require.True(t, ok)
	assert.Equal(t, entries("x"), got)
	checkInvariants(t, tree)
}

// TestReplaceState verifies wholesale adoption and its refusal cases.
func TestReplaceState(t *testing.T) {
	ctx := context.Background()

	t.Run("adopts_foreign_tree", func(t *testing.T) {
		tree := newTestTree(t)
		other := newTestTree(t)
		tree.Commit(ctx, entries("local"), "local root")
		other.Commit(ctx, entries("x"), "foreign root")
		other.Commit(ctx, entries("x", "y"), "foreign second")
		nodes, rootID, currentID := other.ExportState()

		require.NoError(t, tree.ReplaceState(ctx, nodes, rootID, currentID))
		assert.Equal(t, rootID, tree.RootID())
		assert.Equal(t, currentID, tree.CurrentID())
		got, ok := tree.CurrentData()
		require.True(t, ok)
		assert.Equal(t, entries("x", "y"), got)
		checkInvariants(t, tree)
	})

	t.Run("missing_root", func(t *testing.T) {
		tree := newTestTree(t)
		tree.Commit(ctx, entries("local"), "local root")
		err := tree.ReplaceState(ctx, map[string]*Node[entry]{}, "gone", "gone")
		assert.ErrorIs(t, err, ErrUnresolvableImport)
		assert.Equal(t, 1, tree.Len(), "failed replace must not touch local state")
	})

	t.Run("unresolvable_current", func(t *testing.T) {
		tree := newTestTree(t)
		tree.Commit(ctx, entries("local"), "local root")
		ref9 := 9
		nodes := map[string]*Node[entry]{
			"r": {ID: "r", Kind: PayloadSnapshot, Snapshot: entries("x"), Children: []string{"c"}},
			"c": {ID: "c", ParentID: "r", Kind: PayloadDelta, Delta: []DeltaEntry[entry]{{Ref: &ref9}}},
		}
		err := tree.ReplaceState(ctx, nodes, "r", "c")
		assert.ErrorIs(t, err, ErrUnresolvableImport)
		assert.Equal(t, 1, tree.Len())
	})
}

func TestClearHistory(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()

	tree.Commit(ctx, entries("a"), "first")
	tree.Commit(ctx, entries("a", "b"), "second")

	tree.ClearHistory(ctx)
	assert.Zero(t, tree.Len())
	assert.Empty(t, tree.RootID())
	assert.Empty(t, tree.CurrentID())

	data, ok := tree.CurrentData()
	require.True(t, ok)
	assert.Empty(t, data)
}

func TestUpdateMaxVersions(t *testing.T) {
	tree := newTestTree(t)
	ctx := context.Background()

	tree.Commit(ctx, entries("a"), "root")
	for i := 0; i < 3; i++ {
		tree.Commit(ctx, entries("a", fmt.Sprintf("b%d", i)), "branch")
		require.NotNil(t, tree.Undo(ctx))
	}
	require.Equal(t, 4, tree.Len())

	tree.UpdateMaxVersions(ctx, 2)
	assert.Equal(t, 2, tree.MaxVersions())
	assert.Equal(t, 2, tree.Len(), "cap reduction evicts immediately")

	tree.UpdateMaxVersions(ctx, 0)
	assert.Equal(t, 2, tree.MaxVersions(), "values below 1 are ignored")
	checkInvariants(t, tree)
}
