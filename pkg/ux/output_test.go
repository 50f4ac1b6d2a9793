// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_AlignsColumns(t *testing.T) {
	out := Table(
		[]string{"TERM", "DEFINITION"},
		[][]string{
			{"ephemeral", "short-lived"},
			{"vim", "energy"},
		},
	)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "ephemeral")
	assert.Contains(t, lines[2], "vim")

	// Second column starts at the same offset in both data rows.
	assert.Equal(t,
		strings.Index(lines[1], "short-lived"),
		strings.Index(lines[2], "energy"))
}

func TestTable_PadsShortRows(t *testing.T) {
	out := Table(
		[]string{"A", "B", "C"},
		[][]string{{"only-one"}},
	)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "only-one")
}

func TestPad(t *testing.T) {
	assert.Equal(t, "ab   ", pad("ab", 5))
	assert.Equal(t, "abc", pad("abc", 2), "never truncates")
	assert.Equal(t, "abc", pad("abc", 3))
}
