// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/VocabVault/pkg/ux"
)

func runHistoryLog(cmd *cobra.Command, args []string) {
	runWithApp(func(ctx context.Context, a *app) error {
		summaries := a.vault.History()
		if len(summaries) == 0 {
			ux.Muted("No history yet.")
			return nil
		}

		ux.Title("Version History")
		rows := make([][]string, 0, len(summaries))
		for _, s := range summaries {
			marker := " "
			if s.IsCurrent {
				marker = "*"
			}
			label := s.Label
			if s.IsRoot {
				label += " (root)"
			}
			rows = append(rows, []string{
				marker,
				shortID(s.ID),
				label,
				strconv.Itoa(s.ItemCount),
				time.UnixMilli(s.CreatedAt).Format("2006-01-02 15:04:05"),
			})
		}
		fmt.Print(ux.Table([]string{"", "ID", "LABEL", "WORDS", "CREATED"}, rows))
		return nil
	})
}

func runUndo(cmd *cobra.Command, args []string) {
	runWithApp(func(ctx context.Context, a *app) error {
		label, ok := a.vault.Undo(ctx)
		if !ok {
			ux.Muted("Already at the oldest version.")
			return nil
		}
		ux.Success(fmt.Sprintf("Now at: %s", label))
		return nil
	})
}

func runRedo(cmd *cobra.Command, args []string) {
	runWithApp(func(ctx context.Context, a *app) error {
		label, ok := a.vault.Redo(ctx)
		if !ok {
			ux.Muted("Nothing to redo.")
			return nil
		}
		ux.Success(fmt.Sprintf("Now at: %s", label))
		return nil
	})
}

func runGoto(cmd *cobra.Command, args []string) {
	runWithApp(func(ctx context.Context, a *app) error {
		id, err := expandID(a, args[0])
		if err != nil {
			return err
		}
		label, ok := a.vault.Checkout(ctx, id)
		if !ok {
			return fmt.Errorf("unknown version %q", args[0])
		}
		ux.Success(fmt.Sprintf("Now at: %s", label))
		return nil
	})
}

func runDeleteVersion(cmd *cobra.Command, args []string) {
	runWithApp(func(ctx context.Context, a *app) error {
		id, err := expandID(a, args[0])
		if err != nil {
			return err
		}
		if err := a.vault.Tree().DeleteVersionAndReparentChildren(ctx, id); err != nil {
			return err
		}
		ux.Success(fmt.Sprintf("Deleted version %s", shortID(id)))
		return nil
	})
}

func runRenameVersion(cmd *cobra.Command, args []string) {
	runWithApp(func(ctx context.Context, a *app) error {
		id, err := expandID(a, args[0])
		if err != nil {
			return err
		}
		a.vault.Tree().Rename(ctx, id, args[1])
		ux.Success(fmt.Sprintf("Renamed %s to %q", shortID(id), args[1]))
		return nil
	})
}

func runClearHistory(cmd *cobra.Command, args []string) {
	force, _ := cmd.Flags().GetBool("force")
	if !force {
		ux.Warning("This deletes ALL version history. Re-run with --force to confirm.")
		return
	}
	runWithApp(func(ctx context.Context, a *app) error {
		current, err := a.vault.Words(ctx)
		if err != nil {
			return err
		}
		a.vault.Tree().ClearHistory(ctx)
		a.vault.Tree().Commit(ctx, current, "fresh start")
		ux.Success("History cleared. Current words kept as the new starting point.")
		return nil
	})
}

func runSetLimit(cmd *cobra.Command, args []string) {
	runWithApp(func(ctx context.Context, a *app) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("limit must be a positive integer, got %q", args[0])
		}
		a.vault.Tree().UpdateMaxVersions(ctx, n)
		ux.Success(fmt.Sprintf("Version limit set to %d", n))
		return nil
	})
}

// shortID trims a UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// expandID resolves a possibly-abbreviated version id against the tree.
// Exact matches win; otherwise a unique prefix is accepted.
func expandID(a *app, prefix string) (string, error) {
	nodes, _, _ := a.vault.Tree().ExportState()
	if _, ok := nodes[prefix]; ok {
		return prefix, nil
	}
	var match string
	for id := range nodes {
		if len(prefix) > 0 && len(id) >= len(prefix) && id[:len(prefix)] == prefix {
			if match != "" {
				return "", fmt.Errorf("version prefix %q is ambiguous", prefix)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("unknown version %q", prefix)
	}
	return match, nil
}
