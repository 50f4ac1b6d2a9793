// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/VocabVault/services/vocab/history"
	"github.com/AleutianAI/VocabVault/services/vocab/words"
)

// FormatVersion is the export document format version.
const FormatVersion = "2.0"

// MaxImportSize caps accepted import documents (16MB). Prevents memory
// issues from oversized or hostile files.
const MaxImportSize = 16 << 20

var (
	// ErrFormatVersion indicates an import document from an
	// incompatible format major version.
	ErrFormatVersion = errors.New("unsupported document format version")

	// ErrDocumentTooLarge indicates an import document over MaxImportSize.
	ErrDocumentTooLarge = errors.New("import document too large")
)

// ImportMode selects how an imported history block is applied.
type ImportMode string

const (
	// ImportMerge grafts the imported tree as a new branch under the
	// local root, keeping local history.
	ImportMerge ImportMode = "merge"

	// ImportReplace discards local history and adopts the imported
	// tree wholesale.
	ImportReplace ImportMode = "replace"
)

// Document is the import/export file shape.
//
// The flat word list is always present so documents stay readable by
// tools that ignore history; the history block is optional.
type Document struct {
	// FormatVersion tags the document shape, e.g. "2.0".
	FormatVersion string `json:"format_version"`

	// ExportedAt is when the document was produced (Unix ms UTC).
	ExportedAt int64 `json:"exported_at,omitempty"`

	// Words is the flat current collection.
	Words []words.Word `json:"words"`

	// History optionally embeds the full version tree.
	History *HistoryBlock `json:"history,omitempty"`
}

// HistoryBlock carries the version tree inside a document.
type HistoryBlock struct {
	Nodes     map[string]*history.Node[words.Word] `json:"nodes"`
	RootID    string                               `json:"root_id"`
	CurrentID string                               `json:"current_id"`
}

// Export produces a document holding the current word list and the full
// version history.
//
// Outputs:
//   - []byte: The JSON document, indented for human inspection.
//   - error: ErrHistoryBroken if the current version does not resolve.
func (v *Vault) Export(ctx context.Context) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "vault.Export")
	defer span.End()

	current, ok := v.tree.CurrentData()
	if !ok {
		span.SetStatus(codes.Error, "unresolvable current version")
		return nil, ErrHistoryBroken
	}
	nodes, rootID, currentID := v.tree.ExportState()

	doc := Document{
		FormatVersion: FormatVersion,
		ExportedAt:    time.Now().UnixMilli(),
		Words:         current,
	}
	if len(nodes) > 0 {
		doc.History = &HistoryBlock{
			Nodes:     nodes,
			RootID:    rootID,
			CurrentID: currentID,
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("encode document: %w", err)
	}
	span.SetAttributes(
		attribute.Int("words", len(doc.Words)),
		attribute.Int("history_nodes", len(nodes)),
	)
	return data, nil
}

// Import ingests a document.
//
// Description:
//
//	Documents without a history block (or from tools that only emit the
//	flat list) become a single commit of the carried words. Documents
//	with history are applied per mode: merge grafts the imported tree
//	under the local root and lands current on the imported current
//	node; replace adopts the tree wholesale and resumes at its stated
//	current. Merge into an empty local tree degrades to replace, since
//	there is no root to graft onto.
//
// Inputs:
//   - data: The JSON document bytes.
//   - mode: ImportMerge or ImportReplace.
//
// Outputs:
//   - error: ErrDocumentTooLarge, ErrFormatVersion, decode errors, or
//     history.ErrUnresolvableImport. Local state is unchanged on error.
func (v *Vault) Import(ctx context.Context, data []byte, mode ImportMode) error {
	ctx, span := tracer.Start(ctx, "vault.Import")
	defer span.End()
	span.SetAttributes(attribute.String("mode", string(mode)))

	if len(data) > MaxImportSize {
		span.SetStatus(codes.Error, "document too large")
		return fmt.Errorf("%w: %d bytes", ErrDocumentTooLarge, len(data))
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("decode document: %w", err)
	}
	if err := checkFormatVersion(doc.FormatVersion); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if doc.History == nil || len(doc.History.Nodes) == 0 {
		v.tree.Commit(ctx, doc.Words, fmt.Sprintf("import %d words", len(doc.Words)))
		return nil
	}

	if mode == ImportMerge && v.tree.RootID() != "" {
		newCurrent, err := v.tree.GraftTree(ctx, doc.History.Nodes, doc.History.RootID, doc.History.CurrentID)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("graft imported history: %w", err)
		}
		span.SetAttributes(attribute.String("grafted_current", newCurrent))
		return nil
	}

	if err := v.tree.ReplaceState(ctx, doc.History.Nodes, doc.History.RootID, doc.History.CurrentID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

// checkFormatVersion accepts any minor revision of the current major.
func checkFormatVersion(version string) error {
	if version == "" {
		// Pre-versioned documents carry only the flat list; accept.
		return nil
	}
	major, _, _ := strings.Cut(version, ".")
	wantMajor, _, _ := strings.Cut(FormatVersion, ".")
	if major != wantMajor {
		return fmt.Errorf("%w: got %q, want %s.x", ErrFormatVersion, version, wantMajor)
	}
	return nil
}
