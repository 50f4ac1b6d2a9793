// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package vault is the word-list service: the UI-facing collaborator that
// drives the history engine.
//
// Every mutating action resolves the current collection, builds the next
// collection, and records it as a commit with a human-readable label. The
// engine is consumed only through those two operations plus navigation;
// the vault never reaches into tree internals.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/VocabVault/services/vocab/history"
	"github.com/AleutianAI/VocabVault/services/vocab/words"
)

var tracer = otel.Tracer("vocab.vault")

var (
	// ErrDuplicateTerm indicates an add for a term already in the list.
	ErrDuplicateTerm = errors.New("term already exists")

	// ErrWordNotFound indicates an update/remove for an unknown term.
	ErrWordNotFound = errors.New("word not found")

	// ErrHistoryBroken indicates the current version failed to resolve.
	ErrHistoryBroken = errors.New("current version is unresolvable")
)

// Vault wraps the version tree with word-list semantics.
//
// Thread Safety: Safe for concurrent use; the underlying tree serializes
// all operations.
type Vault struct {
	tree   *history.Tree[words.Word]
	logger *slog.Logger
}

// New creates a vault over a version tree.
//
// Inputs:
//   - tree: The history engine instance. Must not be nil.
//   - logger: Logger. If nil, slog.Default() is used.
func New(tree *history.Tree[words.Word], logger *slog.Logger) *Vault {
	if logger == nil {
		logger = slog.Default()
	}
	return &Vault{
		tree:   tree,
		logger: logger.With(slog.String("component", "vault")),
	}
}

// Load restores persisted history.
func (v *Vault) Load(ctx context.Context) error {
	return v.tree.Load(ctx)
}

// Tree exposes the underlying engine for history-browser commands.
func (v *Vault) Tree() *history.Tree[words.Word] {
	return v.tree
}

// Words returns the current word list.
//
// Description:
//
//	Resolves the current version and hands back independent copies, so
//	callers may hold or mutate the result freely.
//
// Outputs:
//   - []words.Word: The current list, empty when the tree is empty.
//   - error: ErrHistoryBroken if the current version does not resolve.
func (v *Vault) Words(ctx context.Context) ([]words.Word, error) {
	current, ok := v.tree.CurrentData()
	if !ok {
		return nil, ErrHistoryBroken
	}
	out := make([]words.Word, len(current))
	for i, w := range current {
		out[i] = w.Clone()
	}
	return out, nil
}

// AddWord appends a word and commits the result.
//
// Outputs:
//   - error: ErrDuplicateTerm if the term is already present
//     (case-insensitive), ErrHistoryBroken if resolution fails.
func (v *Vault) AddWord(ctx context.Context, w words.Word) error {
	ctx, span := tracer.Start(ctx, "vault.AddWord")
	defer span.End()
	span.SetAttributes(attribute.String("term", w.Term))

	current, ok := v.tree.CurrentData()
	if !ok {
		span.SetStatus(codes.Error, "unresolvable current version")
		return ErrHistoryBroken
	}
	for _, existing := range current {
		if existing.MatchesTerm(w.Term) {
			span.SetStatus(codes.Error, "duplicate term")
			return fmt.Errorf("%w: %q", ErrDuplicateTerm, w.Term)
		}
	}

	next := make([]words.Word, 0, len(current)+1)
	for _, existing := range current {
		next = append(next, existing.Clone())
	}
	next = append(next, w.Clone())
	v.tree.Commit(ctx, next, fmt.Sprintf("add %q", w.Term))
	return nil
}

// UpdateWord replaces the entry matching w.Term and commits the result.
//
// Outputs:
//   - error: ErrWordNotFound if no entry matches the term.
func (v *Vault) UpdateWord(ctx context.Context, w words.Word) error {
	ctx, span := tracer.Start(ctx, "vault.UpdateWord")
	defer span.End()
	span.SetAttributes(attribute.String("term", w.Term))

	current, ok := v.tree.CurrentData()
	if !ok {
		span.SetStatus(codes.Error, "unresolvable current version")
		return ErrHistoryBroken
	}

	next := make([]words.Word, len(current))
	found := false
	for i, existing := range current {
		if existing.MatchesTerm(w.Term) {
			next[i] = w.Clone()
			found = true
			continue
		}
		next[i] = existing.Clone()
	}
	if !found {
		span.SetStatus(codes.Error, "word not found")
		return fmt.Errorf("%w: %q", ErrWordNotFound, w.Term)
	}
	v.tree.Commit(ctx, next, fmt.Sprintf("update %q", w.Term))
	return nil
}

// RemoveWord drops the entry matching term and commits the result.
//
// Outputs:
//   - error: ErrWordNotFound if no entry matches the term.
func (v *Vault) RemoveWord(ctx context.Context, term string) error {
	ctx, span := tracer.Start(ctx, "vault.RemoveWord")
	defer span.End()
	span.SetAttributes(attribute.String("term", term))

	current, ok := v.tree.CurrentData()
	if !ok {
		span.SetStatus(codes.Error, "unresolvable current version")
		return ErrHistoryBroken
	}

	next := make([]words.Word, 0, len(current))
	found := false
	for _, existing := range current {
		if existing.MatchesTerm(term) {
			found = true
			continue
		}
		next = append(next, existing.Clone())
	}
	if !found {
		span.SetStatus(codes.Error, "word not found")
		return fmt.Errorf("%w: %q", ErrWordNotFound, term)
	}
	v.tree.Commit(ctx, next, fmt.Sprintf("remove %q", term))
	return nil
}

// -----------------------------------------------------------------------------
// History Browsing
// -----------------------------------------------------------------------------

// VersionSummary is a display row for the history browser.
type VersionSummary struct {
	ID        string
	ParentID  string
	Label     string
	ItemCount int
	CreatedAt int64
	Kind      history.PayloadKind
	IsCurrent bool
	IsRoot    bool
}

// History lists all versions, newest first.
func (v *Vault) History() []VersionSummary {
	nodes, rootID, currentID := v.tree.ExportState()
	out := make([]VersionSummary, 0, len(nodes))
	for id, n := range nodes {
		out = append(out, VersionSummary{
			ID:        id,
			ParentID:  n.ParentID,
			Label:     n.Label,
			ItemCount: n.ItemCount,
			CreatedAt: n.CreatedAt,
			Kind:      n.Kind,
			IsCurrent: id == currentID,
			IsRoot:    id == rootID,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

// Undo steps back one version. Returns the new current label and true,
// or false when already at the root.
func (v *Vault) Undo(ctx context.Context) (string, bool) {
	node := v.tree.Undo(ctx)
	if node == nil {
		return "", false
	}
	return node.Label, true
}

// Redo re-enters the most recently visited branch. Returns the new
// current label and true, or false when there is nothing to redo.
func (v *Vault) Redo(ctx context.Context) (string, bool) {
	node := v.tree.Redo(ctx)
	if node == nil {
		return "", false
	}
	return node.Label, true
}

// Checkout jumps to a version id. Returns the label and true, or false
// when the id is unknown.
func (v *Vault) Checkout(ctx context.Context, id string) (string, bool) {
	node := v.tree.GoToVersion(ctx, id)
	if node == nil {
		return "", false
	}
	return node.Label, true
}
