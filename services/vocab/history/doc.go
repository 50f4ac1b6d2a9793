// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history implements the branching version tree that backs the
// VocabVault word list.
//
// # Architecture Overview
//
// The tree records every materialized state of the word list as a node,
// either as a full snapshot or as a positional delta against its parent.
// Navigation (undo/redo/jump) moves a `current` pointer along the tree;
// maintenance (prune/delete/graft) performs structural surgery while
// preserving the tree invariants.
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                       UI COLLABORATOR                         │
//	│              (vault service + vocabvault CLI)                 │
//	└───────────────────────────────┬───────────────────────────────┘
//	                                │
//	                                │ Commit(collection, label)
//	                                │ ResolveData(id)
//	                                ▼
//	┌───────────────────────────────────────────────────────────────┐
//	│                          Tree[R]                              │
//	│                                                               │
//	│  ┌───────────┐  ┌───────────┐  ┌───────────┐  ┌────────────┐ │
//	│  │   Delta   │  │  Resolve  │  │ Navigation│  │ Maintenance│ │
//	│  │   Codec   │  │   Cache   │  │  Engine   │  │   Engine   │ │
//	│  └───────────┘  └───────────┘  └───────────┘  └────────────┘ │
//	│                                                               │
//	│  nodes: map[id]*Node     rootID / currentID pointers          │
//	└───────────────────────────────┬───────────────────────────────┘
//	                                │
//	                                │ Store.Put / Store.Get
//	                                ▼
//	┌───────────────────────────────────────────────────────────────┐
//	│                    BadgerDB (badgerstore)                     │
//	└───────────────────────────────────────────────────────────────┘
//
// # Core Concepts
//
// ## Snapshot vs Delta
//
// Each commit is stored either as a full snapshot of the collection or as
// a delta that back-references positions in the parent's resolved
// collection. The encoding is chosen per commit: a delta is used only when
// a parent exists, the consecutive delta chain below the parent is shorter
// than the configured depth limit, and the serialized delta is clearly
// smaller than the serialized snapshot. The depth limit bounds resolution
// cost; the size ratio bounds storage waste.
//
// ## Current Path
//
// The chain from `current` up to the root. Undo must always be able to
// walk this chain, so eviction never removes a node on it (nor the root).
//
// ## Eviction
//
// When the node count exceeds the configured cap, whole subtrees rooted at
// the least recently accessed eligible nodes are removed. If every
// remaining node is protected, the tree is allowed to stay over the cap.
//
// # Tree Invariants
//
// After every public operation:
//
//  1. Exactly one node has no parent (the root).
//  2. Every non-root node's parent id refers to an existing node.
//  3. children lists are the exact inverse of the parent links.
//  4. No cycles (parents always pre-exist children).
//  5. current points at an existing node, or is empty iff the tree is.
//
// # Error Handling
//
// Navigation and resolution failures are routine (undo at the root, jump
// to an evicted id) and are reported as absent results, never as errors.
// Structural misuse (deleting the root, grafting into an empty tree)
// returns a sentinel error and leaves the tree unchanged. Persistence is
// best effort: a rejected write triggers one prune-and-retry, then the
// in-memory state remains the source of truth.
//
// # Thread Safety
//
// Tree is safe for concurrent use. A single mutex serializes all public
// operations; every operation is a short, bounded computation.
package history
