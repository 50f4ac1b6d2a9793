// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package words

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWord_Fingerprint(t *testing.T) {
	a := Word{Term: "ephemeral", Definition: "lasting a very short time", AddedAt: 1000}
	same := Word{Term: "ephemeral", Definition: "lasting a very short time", AddedAt: 1000}
	different := Word{Term: "ephemeral", Definition: "short-lived", AddedAt: 1000}

	assert.Equal(t, a.Fingerprint(), same.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), different.Fingerprint())
	assert.NotEmpty(t, a.Fingerprint())
}

func TestWord_Fingerprint_TagsMatter(t *testing.T) {
	a := Word{Term: "ephemeral", Tags: []string{"adjective"}}
	b := Word{Term: "ephemeral", Tags: []string{"noun"}}
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

// TestWord_Clone_Independence verifies mutating a clone's tags never
// reaches the original.
func TestWord_Clone_Independence(t *testing.T) {
	original := Word{Term: "ephemeral", Tags: []string{"adjective", "gre"}}
	clone := original.Clone()

	clone.Tags[0] = "tampered"
	assert.Equal(t, "adjective", original.Tags[0])
}

func TestWord_MatchesTerm(t *testing.T) {
	w := Word{Term: "Ephemeral"}

	assert.True(t, w.MatchesTerm("ephemeral"))
	assert.True(t, w.MatchesTerm("EPHEMERAL"))
	assert.True(t, w.MatchesTerm("Ephemeral"))
	assert.False(t, w.MatchesTerm("ephemera"))
	assert.False(t, w.MatchesTerm(""))
}
