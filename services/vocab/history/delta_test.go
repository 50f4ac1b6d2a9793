// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package history

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// entry is the record type used throughout the package tests.
type entry struct {
	Term string `json:"term"`
	Def  string `json:"def,omitempty"`
}

func (e entry) Fingerprint() string {
	b, _ := json.Marshal(e)
	return string(b)
}

func (e entry) Clone() entry { return e }

func entries(terms ...string) []entry {
	out := make([]entry, len(terms))
	for i, t := range terms {
		out[i] = entry{Term: t}
	}
	return out
}

// TestComputeDelta_RoundTrip verifies apply(base, compute(base, target))
// reproduces target for insertions, deletions, and reorders.
func TestComputeDelta_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		base   []entry
		target []entry
	}{
		{"identical", entries("a", "b", "c"), entries("a", "b", "c")},
		{"append", entries("a", "b"), entries("a", "b", "c")},
		{"remove", entries("a", "b", "c"), entries("a", "c")},
		{"reorder", entries("a", "b", "c"), entries("c", "a", "b")},
		{"replace_all", entries("a", "b"), entries("x", "y")},
		{"empty_base", nil, entries("a")},
		{"empty_target", entries("a", "b"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta := computeDelta(tt.base, tt.target)
			got, err := applyDelta(tt.base, delta)
			require.NoError(t, err)
			assert.Equal(t, len(tt.target), len(got))
			for i := range tt.target {
				assert.Equal(t, tt.target[i], got[i])
			}
		})
	}
}

// TestComputeDelta_DuplicateConsumption verifies duplicate records in base
// are matched one-to-one, never referenced twice.
func TestComputeDelta_DuplicateConsumption(t *testing.T) {
	base := entries("a", "a", "b")
	target := entries("a", "a", "a")

	delta := computeDelta(base, target)
	require.Len(t, delta, 3)

	// First two target elements consume the two base positions.
	require.NotNil(t, delta[0].Ref)
	require.NotNil(t, delta[1].Ref)
	assert.NotEqual(t, *delta[0].Ref, *delta[1].Ref, "base positions must not be reused")

	// Third has no base position left; carried inline.
	assert.Nil(t, delta[2].Ref)
	require.NotNil(t, delta[2].Item)
	assert.Equal(t, "a", delta[2].Item.Term)
}

// TestComputeDelta_UnchangedIsAllRefs verifies an unchanged collection
// encodes to pure back-references.
func TestComputeDelta_UnchangedIsAllRefs(t *testing.T) {
	base := entries("a", "b", "c")
	delta := computeDelta(base, base)
	for i, e := range delta {
		require.NotNil(t, e.Ref, "entry %d should be a back-reference", i)
		assert.Equal(t, i, *e.Ref)
	}
}

// TestApplyDelta_OutOfRangeRef verifies a mismatched base is reported, not
// repaired.
func TestApplyDelta_OutOfRangeRef(t *testing.T) {
	bad := 5
	delta := []DeltaEntry[entry]{{Ref: &bad}}

	_, err := applyDelta(entries("a"), delta)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBadDelta)
}

// TestApplyDelta_EmptyEntry verifies an entry with neither ref nor item is
// rejected.
func TestApplyDelta_EmptyEntry(t *testing.T) {
	delta := []DeltaEntry[entry]{{}}

	_, err := applyDelta(entries("a"), delta)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBadDelta)
}
