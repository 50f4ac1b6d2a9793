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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath     string
	wordDefinition string
	wordTags       []string
	importModeFlag string
	outputPath     string

	rootCmd = &cobra.Command{
		Use:   "vocabvault",
		Short: "A cli to track your vocabulary with branching version history",
		Long: `VocabVault is a local-first vocabulary tracker. Every change to your
				word list becomes a version in a branching history tree, so you can
				undo, redo, jump to any past state, and merge word lists from others.`,
	}

	// --- Words ---
	wordCmd = &cobra.Command{
		Use:   "word",
		Short: "Manage words in the vault",
	}
	addWordCmd = &cobra.Command{
		Use:   "add [term]",
		Short: "Add a word to the vault",
		Args:  cobra.ExactArgs(1),
		Run:   runAddWord, // Defined in cmd_words.go
	}
	listWordsCmd = &cobra.Command{
		Use:     "list",
		Short:   "List all words in the current version",
		Aliases: []string{"ls"},
		Run:     runListWords, // Defined in cmd_words.go
	}
	updateWordCmd = &cobra.Command{
		Use:   "update [term]",
		Short: "Update a word's definition or tags",
		Args:  cobra.ExactArgs(1),
		Run:   runUpdateWord, // Defined in cmd_words.go
	}
	removeWordCmd = &cobra.Command{
		Use:     "remove [term]",
		Short:   "Remove a word from the vault",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		Run:     runRemoveWord, // Defined in cmd_words.go
	}

	// --- History ---
	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Inspect and navigate the version history",
	}
	historyLogCmd = &cobra.Command{
		Use:   "log",
		Short: "List all versions, newest first",
		Run:   runHistoryLog, // Defined in cmd_history.go
	}
	undoCmd = &cobra.Command{
		Use:   "undo",
		Short: "Step back to the previous version",
		Run:   runUndo, // Defined in cmd_history.go
	}
	redoCmd = &cobra.Command{
		Use:   "redo",
		Short: "Step forward along the most recently visited branch",
		Run:   runRedo, // Defined in cmd_history.go
	}
	gotoCmd = &cobra.Command{
		Use:   "goto [version_id]",
		Short: "Jump directly to a version by id",
		Args:  cobra.ExactArgs(1),
		Run:   runGoto, // Defined in cmd_history.go
	}
	deleteVersionCmd = &cobra.Command{
		Use:   "delete [version_id]",
		Short: "Delete a version, reattaching its children to its parent",
		Args:  cobra.ExactArgs(1),
		Run:   runDeleteVersion, // Defined in cmd_history.go
	}
	renameVersionCmd = &cobra.Command{
		Use:   "rename [version_id] [label]",
		Short: "Change a version's label",
		Args:  cobra.ExactArgs(2),
		Run:   runRenameVersion, // Defined in cmd_history.go
	}
	clearHistoryCmd = &cobra.Command{
		Use:   "clear",
		Short: "DANGER: Delete all history and start over from the current words",
		Run:   runClearHistory, // Defined in cmd_history.go
	}
	setLimitCmd = &cobra.Command{
		Use:   "set-limit [n]",
		Short: "Set the maximum number of retained versions",
		Args:  cobra.ExactArgs(1),
		Run:   runSetLimit, // Defined in cmd_history.go
	}

	// --- Transfer ---
	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export words and history to a JSON document",
		Run:   runExport, // Defined in cmd_transfer.go
	}
	importCmd = &cobra.Command{
		Use:   "import [file]",
		Short: "Import a JSON document, merging or replacing local history",
		Args:  cobra.ExactArgs(1),
		Run:   runImport, // Defined in cmd_transfer.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default ~/.vocabvault/config.yaml)")

	rootCmd.AddCommand(wordCmd)
	wordCmd.AddCommand(addWordCmd)
	addWordCmd.Flags().StringVarP(&wordDefinition, "definition", "d", "", "Definition for the word")
	addWordCmd.Flags().StringSliceVarP(&wordTags, "tag", "t", nil, "Tags for the word (repeatable)")
	wordCmd.AddCommand(listWordsCmd)
	wordCmd.AddCommand(updateWordCmd)
	updateWordCmd.Flags().StringVarP(&wordDefinition, "definition", "d", "", "New definition")
	updateWordCmd.Flags().StringSliceVarP(&wordTags, "tag", "t", nil, "New tags (replaces existing)")
	wordCmd.AddCommand(removeWordCmd)

	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyLogCmd)
	historyCmd.AddCommand(deleteVersionCmd)
	historyCmd.AddCommand(renameVersionCmd)
	historyCmd.AddCommand(clearHistoryCmd)
	clearHistoryCmd.Flags().Bool("force", false, "Required to confirm deleting all history.")
	historyCmd.AddCommand(setLimitCmd)

	// Navigation is frequent enough to live at the top level.
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(redoCmd)
	rootCmd.AddCommand(gotoCmd)

	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output filename (default: stdout)")
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importModeFlag, "mode", "merge",
		"How to apply imported history: 'merge' (graft as branch) or 'replace'")
}
