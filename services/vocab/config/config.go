// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config provides configuration loading for the VocabVault CLI.
//
// Configuration comes from an optional YAML file (default
// ~/.vocabvault/config.yaml) layered over built-in defaults, then
// validated. Missing files are not an error; a zero-config install works
// out of the box.
//
// Thread Safety: Load is safe for concurrent use; Config values are
// plain data.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// MaxConfigFileSize is the maximum allowed config file size (1MB).
// Prevents memory issues from malformed or hostile files.
const MaxConfigFileSize = 1024 * 1024

// Config holds the application configuration.
type Config struct {
	// DataDir is the directory for the BadgerDB store.
	DataDir string `yaml:"data_dir" validate:"required"`

	// MaxVersions is the version-tree node cap before eviction.
	MaxVersions int `yaml:"max_versions" validate:"gte=1"`

	// DeltaDepthLimit bounds consecutive delta chains in the tree.
	DeltaDepthLimit int `yaml:"delta_depth_limit" validate:"gte=1"`

	// DeltaSizeRatio is the delta/snapshot size threshold for choosing
	// delta encoding.
	DeltaSizeRatio float64 `yaml:"delta_size_ratio" validate:"gt=0,lte=1"`

	// CacheSize is the resolve cache capacity.
	CacheSize int `yaml:"cache_size" validate:"gte=1"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// LogDir optionally enables file logging.
	LogDir string `yaml:"log_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		DataDir:         filepath.Join(home, ".vocabvault", "data"),
		MaxVersions:     100,
		DeltaDepthLimit: 9,
		DeltaSizeRatio:  0.6,
		CacheSize:       5,
		LogLevel:        "info",
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".vocabvault", "config.yaml")
}

// Load reads configuration from path, layered over defaults.
//
// Description:
//
//	A missing file yields the defaults. Present files are size-checked,
//	parsed as YAML over the defaults (absent keys keep their default
//	value), and validated.
//
// Inputs:
//   - path: Config file location. Empty uses DefaultPath().
//
// Outputs:
//   - Config: The effective configuration.
//   - error: Non-nil on read, parse, or validation failure.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("stat config %s: %w", path, err)
	}
	if info.Size() > MaxConfigFileSize {
		return cfg, fmt.Errorf("config %s too large: %d bytes (max %d)",
			path, info.Size(), MaxConfigFileSize)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration against the struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	return nil
}
