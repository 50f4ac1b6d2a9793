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

import "fmt"

// computeDelta encodes target as a positional reference against base.
//
// Description:
//
//	Builds a multi-map from record fingerprint to the base positions
//	holding that fingerprint, then walks target in order. Each target
//	element that still has an unconsumed matching base position becomes
//	a back-reference; everything else is carried inline as a deep copy.
//	Positions are consumed first-available, so duplicate records in base
//	match duplicate records in target one-to-one and are never
//	referenced twice.
//
//	The scheme is greedy, not globally optimal. The dominant savings
//	come from the unchanged majority of the collection, not from a
//	minimal edit distance, so optimality is not worth the cost.
//
// Inputs:
//   - base: The parent's resolved collection.
//   - target: The collection to encode.
//
// Outputs:
//   - []DeltaEntry[R]: One entry per target element, in target order.
//
// Thread Safety: Safe for concurrent use (pure function).
func computeDelta[R Record[R]](base, target []R) []DeltaEntry[R] {
	positions := make(map[string][]int, len(base))
	for i, r := range base {
		fp := r.Fingerprint()
		positions[fp] = append(positions[fp], i)
	}

	entries := make([]DeltaEntry[R], 0, len(target))
	for _, r := range target {
		fp := r.Fingerprint()
		if avail := positions[fp]; len(avail) > 0 {
			ref := avail[0]
			positions[fp] = avail[1:]
			entries = append(entries, DeltaEntry[R]{Ref: &ref})
			continue
		}
		item := r.Clone()
		entries = append(entries, DeltaEntry[R]{Item: &item})
	}
	return entries
}

// applyDelta reconstructs a collection from base and a delta sequence.
//
// Description:
//
//	Maps each entry in order: a back-reference yields base[ref], an
//	inline entry yields a copy of the carried record. The result length
//	always equals the delta length.
//
//	An out-of-range back-reference means base and delta were mismatched.
//	The tree invariants prevent that in normal operation, so it is
//	reported as an error rather than repaired.
//
// Inputs:
//   - base: The parent's resolved collection.
//   - delta: The encoding produced by computeDelta.
//
// Outputs:
//   - []R: The reconstructed collection.
//   - error: Non-nil if an entry is malformed or references out of range.
//
// Thread Safety: Safe for concurrent use (pure function).
func applyDelta[R Record[R]](base []R, delta []DeltaEntry[R]) ([]R, error) {
	out := make([]R, 0, len(delta))
	for i, e := range delta {
		switch {
		case e.Ref != nil:
			if *e.Ref < 0 || *e.Ref >= len(base) {
				return nil, fmt.Errorf("%w: entry %d references index %d of %d",
					errBadDelta, i, *e.Ref, len(base))
			}
			out = append(out, base[*e.Ref])
		case e.Item != nil:
			out = append(out, (*e.Item).Clone())
		default:
			return nil, fmt.Errorf("%w: entry %d has neither ref nor item", errBadDelta, i)
		}
	}
	return out, nil
}
