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
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/VocabVault/pkg/ux"
	"github.com/AleutianAI/VocabVault/services/vocab/words"
)

func runAddWord(cmd *cobra.Command, args []string) {
	runWithApp(func(ctx context.Context, a *app) error {
		w := words.Word{
			Term:       args[0],
			Definition: wordDefinition,
			Tags:       wordTags,
			AddedAt:    time.Now().UnixMilli(),
		}
		if err := a.vault.AddWord(ctx, w); err != nil {
			return err
		}
		ux.Success(fmt.Sprintf("Added %q", w.Term))
		return nil
	})
}

func runListWords(cmd *cobra.Command, args []string) {
	runWithApp(func(ctx context.Context, a *app) error {
		list, err := a.vault.Words(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			ux.Muted("The vault is empty. Add a word with: vocabvault word add")
			return nil
		}

		rows := make([][]string, 0, len(list))
		for _, w := range list {
			rows = append(rows, []string{w.Term, w.Definition, strings.Join(w.Tags, ", ")})
		}
		fmt.Print(ux.Table([]string{"TERM", "DEFINITION", "TAGS"}, rows))
		ux.Muted(fmt.Sprintf("%d words", len(list)))
		return nil
	})
}

func runUpdateWord(cmd *cobra.Command, args []string) {
	runWithApp(func(ctx context.Context, a *app) error {
		// Keep fields the caller didn't pass.
		list, err := a.vault.Words(ctx)
		if err != nil {
			return err
		}
		var existing *words.Word
		for i := range list {
			if list[i].MatchesTerm(args[0]) {
				existing = &list[i]
				break
			}
		}
		if existing == nil {
			return fmt.Errorf("word %q not found", args[0])
		}

		next := *existing
		if cmd.Flags().Changed("definition") {
			next.Definition = wordDefinition
		}
		if cmd.Flags().Changed("tag") {
			next.Tags = wordTags
		}
		if err := a.vault.UpdateWord(ctx, next); err != nil {
			return err
		}
		ux.Success(fmt.Sprintf("Updated %q", next.Term))
		return nil
	})
}

func runRemoveWord(cmd *cobra.Command, args []string) {
	runWithApp(func(ctx context.Context, a *app) error {
		if err := a.vault.RemoveWord(ctx, args[0]); err != nil {
			return err
		}
		ux.Success(fmt.Sprintf("Removed %q", args[0]))
		return nil
	})
}
