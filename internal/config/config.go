// Copyright 2026 godepindex authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package config loads the optional on-disk configuration for a
// godepindex run and applies defaults for everything it omits.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

const (
	defaultCacheDir           = ".godepindex/index.db"
	defaultBatchSize          = 50
	defaultChannelCapacity    = 100
	defaultBusyTimeoutSeconds = 5
)

// Config holds the tunables for the pipeline and store. The zero value
// is never used directly; Load always applies defaults for anything the
// file omits, so the file itself is fully optional.
type Config struct {
	// CacheDir is the path to the on-disk index database, relative to
	// the working directory unless absolute.
	CacheDir string `yaml:"cache_dir"`

	// Workers is the number of parallel parser goroutines.
	Workers int `yaml:"workers"`

	// BatchSize is the number of packages committed per write
	// transaction.
	BatchSize int `yaml:"batch_size"`

	// ChannelCapacity bounds the channel connecting parser workers to
	// the writer goroutine.
	ChannelCapacity int `yaml:"channel_capacity"`

	// BusyTimeoutSeconds caps how long a write transaction waits on
	// lock contention before failing.
	BusyTimeoutSeconds int `yaml:"busy_timeout_seconds"`

	// DirectDeps lists the import paths treated as direct
	// dependencies for the +10 search-ranking bonus and for
	// direct_only filtering.
	DirectDeps []string `yaml:"direct_deps"`
}

// Default returns a Config with every field set to its documented
// default.
func Default() Config {
	return Config{
		CacheDir:           defaultCacheDir,
		Workers:            runtime.NumCPU(),
		BatchSize:          defaultBatchSize,
		ChannelCapacity:    defaultChannelCapacity,
		BusyTimeoutSeconds: defaultBusyTimeoutSeconds,
	}
}

// Load reads path if it exists and overlays it onto Default(). A
// missing file is not an error — Load simply returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return cfg, nil
}

// applyDefaults fills in zero-valued fields that a partial YAML file
// left unset, so a user can override a single tunable without
// reproducing every other default.
func applyDefaults(cfg *Config) {
	d := Default()
	if cfg.CacheDir == "" {
		cfg.CacheDir = d.CacheDir
	}
	if cfg.Workers <= 0 {
		cfg.Workers = d.Workers
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = d.BatchSize
	}
	if cfg.ChannelCapacity <= 0 {
		cfg.ChannelCapacity = d.ChannelCapacity
	}
	if cfg.BusyTimeoutSeconds <= 0 {
		cfg.BusyTimeoutSeconds = d.BusyTimeoutSeconds
	}
}

// IsDirectDep reports whether importPath is listed in cfg.DirectDeps.
func (cfg Config) IsDirectDep(importPath string) bool {
	for _, d := range cfg.DirectDeps {
		if d == importPath {
			return true
		}
	}
	return false
}
