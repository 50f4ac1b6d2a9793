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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Persisted entry keys. Two entries: the tree state and the settings.
const (
	// TreeKey stores the node map plus root/current pointers.
	TreeKey = "vocab:history"

	// SettingsKey stores the capacity settings record.
	SettingsKey = "vocab:settings"
)

// Store is the external byte store the tree persists into.
//
// Description:
//
//	A minimal KV surface; badgerstore.DB implements it for production.
//	Get reports absence through the bool, reserving the error for real
//	storage failures.
type Store interface {
	// Put writes a value under key.
	Put(ctx context.Context, key string, value []byte) error

	// Get reads the value under key. The bool is false when the key
	// does not exist.
	Get(ctx context.Context, key string) ([]byte, bool, error)
}

// treeState is the persisted representation of the version tree.
type treeState[R Record[R]] struct {
	Nodes     map[string]*Node[R] `json:"nodes"`
	RootID    string              `json:"root_id,omitempty"`
	CurrentID string              `json:"current_id,omitempty"`
}

// settingsState is the persisted settings record.
type settingsState struct {
	MaxVersions int `json:"max_versions"`
}

// legacyVersion is one element of the pre-tree flat-list shape.
type legacyVersion[R Record[R]] struct {
	ID        string `json:"id,omitempty"`
	Label     string `json:"label"`
	Items     []R    `json:"items"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Load restores persisted state into the tree.
//
// Description:
//
//	Reads the settings entry (capacity) and the tree entry. A tree
//	entry in the older flat-list shape is migrated: each element
//	becomes a snapshot node whose parent is the previous element,
//	rooted at the first, with current set to the last. A current
//	pointer that no longer resolves to a node falls back to the root.
//
//	Call once after New, before serving operations. A nil store or a
//	missing entry leaves the tree empty.
//
// Outputs:
//   - error: Non-nil on storage failure or corrupt state; the tree is
//     left empty in that case.
//
// Thread Safety: Safe for concurrent use.
func (t *Tree[R]) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.store == nil {
		return nil
	}

	if raw, ok, err := t.store.Get(ctx, SettingsKey); err != nil {
		return fmt.Errorf("load settings: %w", err)
	} else if ok {
		var s settingsState
		if err := json.Unmarshal(raw, &s); err == nil && s.MaxVersions >= 1 {
			t.cfg.MaxVersions = s.MaxVersions
		}
	}

	raw, ok, err := t.store.Get(ctx, TreeKey)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if !ok {
		return nil
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return t.migrateFlatListLocked(ctx, trimmed)
	}

	var state treeState[R]
	if err := json.Unmarshal(trimmed, &state); err != nil {
		return fmt.Errorf("decode history: %w", err)
	}
	if state.Nodes == nil {
		state.Nodes = make(map[string]*Node[R])
	}
	if state.RootID != "" {
		if _, ok := state.Nodes[state.RootID]; !ok {
			return fmt.Errorf("decode history: root %s missing from node map", state.RootID)
		}
	}
	if _, ok := state.Nodes[state.CurrentID]; !ok {
		state.CurrentID = state.RootID
	}

	t.nodes = state.Nodes
	t.rootID = state.RootID
	t.currentID = state.CurrentID
	t.cache.Purge()
	nodeCountGauge.Set(float64(len(t.nodes)))
	t.logger.Info("history loaded",
		slog.Int("nodes", len(t.nodes)),
		slog.Int("max_versions", t.cfg.MaxVersions),
	)
	return nil
}

// migrateFlatListLocked converts the pre-tree flat-list persisted shape
// into a linear chain of snapshot nodes.
func (t *Tree[R]) migrateFlatListLocked(ctx context.Context, raw []byte) error {
	var legacy []legacyVersion[R]
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return fmt.Errorf("decode legacy history: %w", err)
	}

	t.nodes = make(map[string]*Node[R], len(legacy))
	t.rootID = ""
	t.currentID = ""

	prevID := ""
	for _, lv := range legacy {
		now := t.clock.Now()
		created := lv.Timestamp
		if created == 0 {
			created = now
		}
		id := lv.ID
		if id == "" {
			id = newNodeID()
		}
		node := &Node[R]{
			ID:           id,
			ParentID:     prevID,
			CreatedAt:    created,
			LastAccessed: now,
			Label:        lv.Label,
			ItemCount:    len(lv.Items),
			Kind:         PayloadSnapshot,
			Snapshot:     cloneCollection(lv.Items),
		}
		if prev, ok := t.nodes[prevID]; ok {
			prev.Children = append(prev.Children, id)
		} else {
			t.rootID = id
		}
		t.nodes[id] = node
		prevID = id
	}
	t.currentID = prevID

	t.cache.Purge()
	nodeCountGauge.Set(float64(len(t.nodes)))
	t.logger.Info("legacy flat-list history migrated", slog.Int("nodes", len(t.nodes)))
	t.persistLocked(ctx)
	return nil
}

// persistLocked writes the tree entry, with one prune-and-retry on a
// rejected write (e.g. the medium is over quota). A second rejection is
// swallowed; in-memory state remains the source of truth.
func (t *Tree[R]) persistLocked(ctx context.Context) {
	if t.store == nil {
		return
	}

	write := func() error {
		data, err := json.Marshal(treeState[R]{
			Nodes:     t.nodes,
			RootID:    t.rootID,
			CurrentID: t.currentID,
		})
		if err != nil {
			return fmt.Errorf("encode history: %w", err)
		}
		return t.store.Put(ctx, TreeKey, data)
	}

	err := write()
	if err == nil {
		return
	}
	persistFailuresTotal.Inc()

	cut := int(t.cfg.PruneFraction * float64(len(t.nodes)))
	if cut < 1 {
		cut = 1
	}
	t.logger.Warn("history write rejected, pruning and retrying once",
		slog.String("error", err.Error()),
		slog.Int("prune_count", cut),
	)
	t.pruneLocked(len(t.nodes) - cut)

	if err := write(); err != nil {
		persistFailuresTotal.Inc()
		t.logger.Warn("history write failed after prune, keeping in-memory state",
			slog.String("error", err.Error()),
		)
	}
}

// persistSettingsLocked writes the settings entry (best effort).
func (t *Tree[R]) persistSettingsLocked(ctx context.Context) {
	if t.store == nil {
		return
	}
	data, err := json.Marshal(settingsState{MaxVersions: t.cfg.MaxVersions})
	if err != nil {
		return
	}
	if err := t.store.Put(ctx, SettingsKey, data); err != nil {
		persistFailuresTotal.Inc()
		t.logger.Warn("settings write failed", slog.String("error", err.Error()))
	}
}
