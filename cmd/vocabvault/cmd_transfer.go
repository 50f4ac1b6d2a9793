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
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/VocabVault/pkg/ux"
	"github.com/AleutianAI/VocabVault/services/vocab/vault"
)

func runExport(cmd *cobra.Command, args []string) {
	runWithApp(func(ctx context.Context, a *app) error {
		data, err := a.vault.Export(ctx)
		if err != nil {
			return err
		}
		if outputPath == "" {
			fmt.Println(string(data))
			return nil
		}
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		ux.Success(fmt.Sprintf("Exported to %s", outputPath))
		return nil
	})
}

func runImport(cmd *cobra.Command, args []string) {
	runWithApp(func(ctx context.Context, a *app) error {
		var mode vault.ImportMode
		switch importModeFlag {
		case "merge":
			mode = vault.ImportMerge
		case "replace":
			mode = vault.ImportReplace
		default:
			return fmt.Errorf("unknown import mode %q (want 'merge' or 'replace')", importModeFlag)
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read import file: %w", err)
		}
		if err := a.vault.Import(ctx, data, mode); err != nil {
			return err
		}
		ux.Success(fmt.Sprintf("Imported %s (%s)", args[0], mode))
		return nil
	})
}
