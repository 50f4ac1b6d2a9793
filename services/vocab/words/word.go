// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package words defines the vocabulary record the history engine versions.
package words

import (
	"encoding/json"
	"strings"
)

// Word is one vocabulary entry.
//
// Description:
//
//	A plain value type. The history engine treats it as opaque: it only
//	needs Fingerprint for structural comparison and Clone for
//	independent copies. Timestamps are Unix milliseconds UTC.
type Word struct {
	// Term is the word or phrase being tracked.
	Term string `json:"term"`

	// Definition is the user-supplied meaning.
	Definition string `json:"definition,omitempty"`

	// Tags are free-form labels for filtering.
	Tags []string `json:"tags,omitempty"`

	// AddedAt is when the word first entered the list.
	AddedAt int64 `json:"added_at,omitempty"`
}

// Fingerprint returns the canonical serialization of the word.
//
// Description:
//
//	encoding/json emits struct fields in declaration order, so the
//	marshaled form is canonical for a given value. Two words with equal
//	fingerprints are structurally identical.
func (w Word) Fingerprint() string {
	data, err := json.Marshal(w)
	if err != nil {
		// Word contains only marshalable field types; unreachable.
		return w.Term
	}
	return string(data)
}

// Clone returns a deep copy; the tag slice is not shared.
func (w Word) Clone() Word {
	out := w
	if w.Tags != nil {
		out.Tags = append([]string(nil), w.Tags...)
	}
	return out
}

// MatchesTerm reports whether the word's term equals the given term,
// case-insensitively.
func (w Word) MatchesTerm(term string) bool {
	return strings.EqualFold(w.Term, term)
}
