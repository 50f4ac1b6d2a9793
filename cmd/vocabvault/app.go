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

	"github.com/AleutianAI/VocabVault/pkg/logging"
	"github.com/AleutianAI/VocabVault/pkg/ux"
	"github.com/AleutianAI/VocabVault/services/vocab/config"
	"github.com/AleutianAI/VocabVault/services/vocab/history"
	"github.com/AleutianAI/VocabVault/services/vocab/storage/badgerstore"
	"github.com/AleutianAI/VocabVault/services/vocab/vault"
	"github.com/AleutianAI/VocabVault/services/vocab/words"
)

// app bundles the wired components every command needs.
type app struct {
	cfg    config.Config
	logger *logging.Logger
	store  *badgerstore.DB
	vault  *vault.Vault
}

// openApp loads config, opens the store, and hydrates the vault from
// disk. Callers must call close() when done.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.LogLevel),
		LogDir:  cfg.LogDir,
		Service: "cli",
	})

	store, err := badgerstore.Open(badgerstore.DefaultConfig(cfg.DataDir))
	if err != nil {
		logger.Close()
		return nil, err
	}

	treeCfg := history.DefaultConfig()
	treeCfg.MaxVersions = cfg.MaxVersions
	treeCfg.DeltaDepthLimit = cfg.DeltaDepthLimit
	treeCfg.DeltaSizeRatio = cfg.DeltaSizeRatio
	treeCfg.CacheSize = cfg.CacheSize
	treeCfg.Logger = logger.Slog()

	tree, err := history.New[words.Word](treeCfg, store)
	if err != nil {
		store.Close()
		logger.Close()
		return nil, err
	}

	v := vault.New(tree, logger.Slog())
	if err := v.Load(ctx); err != nil {
		store.Close()
		logger.Close()
		return nil, fmt.Errorf("load vault: %w", err)
	}

	return &app{cfg: cfg, logger: logger, store: store, vault: v}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", "error", err)
	}
	a.logger.Close()
}

// runWithApp wraps a command body with app setup/teardown and uniform
// error reporting.
func runWithApp(fn func(ctx context.Context, a *app) error) {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}
	if err := fn(ctx, a); err != nil {
		a.close()
		ux.Error(err.Error())
		os.Exit(1)
	}
	a.close()
}
