// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package vault

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTransfer_ExportShape verifies the document carries the format tag,
// the flat word list, and the history block.
func TestTransfer_ExportShape(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	addWords(t, v, "a", "b")
	data, err := v.Export(ctx)
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, FormatVersion, doc.FormatVersion)
	assert.NotZero(t, doc.ExportedAt)
	require.Len(t, doc.Words, 2)
	require.NotNil(t, doc.History)
	assert.Len(t, doc.History.Nodes, 2)
	assert.NotEmpty(t, doc.History.RootID)
	assert.NotEmpty(t, doc.History.CurrentID)
}

// TestTransfer_ReplaceRoundTrip verifies export → import(replace) into a
// fresh vault reproduces words and full history.
func TestTransfer_ReplaceRoundTrip(t *testing.T) {
	src := newTestVault(t)
	ctx := context.Background()

	addWords(t, src, "a", "b", "c")
	_, ok := src.Undo(ctx)
	require.True(t, ok)

	data, err := src.Export(ctx)
	require.NoError(t, err)

	dst := newTestVault(t)
	require.NoError(t, dst.Import(ctx, data, ImportReplace))

	assert.Equal(t, currentTerms(t, src), currentTerms(t, dst))
	assert.Equal(t, src.Tree().Len(), dst.Tree().Len())
	assert.Equal(t, src.Tree().CurrentID(), dst.Tree().CurrentID(),
		"replace resumes at the document's stated current")

	// The redo branch survived the trip.
	label, ok := dst.Redo(ctx)
	require.True(t, ok)
	assert.Equal(t, `add "c"`, label)
}

// TestTransfer_MergeGraftsBranch verifies import(merge) keeps local
// history and attaches the document's tree as a new branch.
func TestTransfer_MergeGraftsBranch(t *testing.T) {
	src := newTestVault(t)
	dst := newTestVault(t)
	ctx := context.Background()

	addWords(t, src, "x", "y")
	addWords(t, dst, "a", "b")

	data, err := src.Export(ctx)
	require.NoError(t, err)

	localLen := dst.Tree().Len()
	localRoot := dst.Tree().RootID()
	require.NoError(t, dst.Import(ctx, data, ImportMerge))

	assert.Equal(t, localLen+src.Tree().Len(), dst.Tree().Len())
	assert.Equal(t, localRoot, dst.Tree().RootID(), "local root survives a merge")
	assert.Equal(t, []string{"x", "y"}, currentTerms(t, dst),
		"merge lands on the imported current")

	// Local history is still reachable.
	node := dst.Tree().GoToVersion(ctx, localRoot)
	require.NotNil(t, node)
	assert.Equal(t, []string{"a"}, currentTerms(t, dst))
}

// TestTransfer_MergeIntoEmptyVault verifies merge degrades to replace
// when there is no local root to graft onto.
func TestTransfer_MergeIntoEmptyVault(t *testing.T) {
	src := newTestVault(t)
	dst := newTestVault(t)
	ctx := context.Background()

	addWords(t, src, "x", "y")
	data, err := src.Export(ctx)
	require.NoError(t, err)

	require.NoError(t, dst.Import(ctx, data, ImportMerge))
	assert.Equal(t, []string{"x", "y"}, currentTerms(t, dst))
	assert.Equal(t, src.Tree().Len(), dst.Tree().Len())
}

// TestTransfer_ImportWordsOnly verifies a history-less document becomes a
// single commit.
func TestTransfer_ImportWordsOnly(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	addWords(t, v, "a")
	doc := Document{
		FormatVersion: FormatVersion,
		Words:         wordList("x", "y", "z"),
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	require.NoError(t, v.Import(ctx, data, ImportMerge))
	assert.Equal(t, []string{"x", "y", "z"}, currentTerms(t, v))
	assert.Equal(t, 2, v.Tree().Len(), "one prior version plus one import commit")
}

// TestTransfer_ImportLegacyDocument verifies pre-versioned documents (no
// format tag, flat list only) are still accepted.
func TestTransfer_ImportLegacyDocument(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	data := []byte(`{"words": [{"term": "vestige"}]}`)
	require.NoError(t, v.Import(ctx, data, ImportReplace))
	assert.Equal(t, []string{"vestige"}, currentTerms(t, v))
}

func TestTransfer_ImportRejectsBadInput(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	t.Run("wrong_major_version", func(t *testing.T) {
		data := []byte(`{"format_version": "3.0", "words": []}`)
		err := v.Import(ctx, data, ImportReplace)
		assert.ErrorIs(t, err, ErrFormatVersion)
	})

	t.Run("oversized_document", func(t *testing.T) {
		data := make([]byte, MaxImportSize+1)
		err := v.Import(ctx, data, ImportReplace)
		assert.ErrorIs(t, err, ErrDocumentTooLarge)
	})

	t.Run("malformed_json", func(t *testing.T) {
		err := v.Import(ctx, []byte(`{"words": [`), ImportReplace)
		assert.Error(t, err)
	})

	t.Run("unresolvable_history", func(t *testing.T) {
		data := []byte(`{
			"format_version": "2.0",
			"words": [],
			"history": {
				"nodes": {"r": {"id": "r", "kind": "snapshot"}},
				"root_id": "r",
				"current_id": "missing"
			}
		}`)
		err := v.Import(ctx, data, ImportReplace)
		assert.Error(t, err)
	})
}
