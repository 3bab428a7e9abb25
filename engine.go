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

// Package godepindex is the facade over the parsing pipeline, symbol
// store, and search engine: the single entry point external
// collaborators (a CLI, an RPC server, agent tooling) drive to build
// and query a local dependency-closure symbol index.
package godepindex

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/godepindex/godepindex/internal/config"
	"github.com/godepindex/godepindex/internal/item"
	"github.com/godepindex/godepindex/internal/modulepath"
	"github.com/godepindex/godepindex/internal/pipeline"
	"github.com/godepindex/godepindex/internal/search"
	"github.com/godepindex/godepindex/internal/store"
	"github.com/godepindex/godepindex/internal/walk"
)

// PackageRef identifies one resolved dependency to index: a name, a
// version, and the on-disk root of its source.
type PackageRef = item.PackageRef

// BuildResult is the outcome of BuildIndex.
type BuildResult struct {
	Indexed    int
	Skipped    int
	Failed     int
	TotalItems int
}

// PeekResult is the outcome of Peek: a page of a single package's
// items plus the total count before pagination.
type PeekResult struct {
	Items []store.ItemRow
	Total int
}

// StoreStats mirrors store.Stats for external callers.
type StoreStats = store.Stats

// Engine wires the pipeline, store, and search engine together behind
// the operations external collaborators are expected to drive.
type Engine struct {
	cfg    config.Config
	store  *store.Store
	search *search.Engine
	logger *slog.Logger
}

// Open opens (creating if necessary) the index database named by
// cfg.CacheDir and returns a ready Engine. Callers must call Close
// when done.
func Open(cfg config.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	st, err := store.Open(cfg.CacheDir, time.Duration(cfg.BusyTimeoutSeconds)*time.Second, logger)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:    cfg,
		store:  st,
		search: search.New(st, cfg),
		logger: logger,
	}, nil
}

// Close releases the underlying store connection.
func (e *Engine) Close() error {
	return e.store.Close()
}

// BuildIndex walks, parses, and indexes packages, skipping any already
// present unless force is set.
func (e *Engine) BuildIndex(ctx context.Context, packages []PackageRef, force bool) (BuildResult, error) {
	p := &pipeline.Pipeline{
		Store:           e.store,
		Workers:         e.cfg.Workers,
		BatchSize:       e.cfg.BatchSize,
		ChannelCapacity: e.cfg.ChannelCapacity,
		Logger:          e.logger,
	}
	result, err := p.Run(ctx, packages, force)
	if err != nil {
		return BuildResult{}, err
	}
	return BuildResult{
		Indexed:    result.Indexed,
		Skipped:    result.Skipped,
		Failed:     result.Failed,
		TotalItems: result.TotalItems,
	}, nil
}

// Peek returns a page of name@version's items, resolving to the latest
// indexed version when version is empty.
func (e *Engine) Peek(ctx context.Context, name, version string, limit, offset int, kind item.Kind) (PeekResult, error) {
	rows, total, err := e.store.ItemsByPackage(ctx, name, version, kind, limit, offset)
	if err != nil {
		return PeekResult{}, err
	}
	return PeekResult{Items: rows, Total: total}, nil
}

// Find runs the ranked search pipeline.
func (e *Engine) Find(ctx context.Context, query string, opts search.Options) (search.Response, error) {
	return e.search.Find(ctx, query, opts)
}

// Expand returns crate-info for name, including its re-export
// classification and related-package cluster.
func (e *Engine) Expand(ctx context.Context, name string) (search.CrateInfo, error) {
	return e.search.Expand(ctx, name)
}

// Where resolves name (and, optionally, version) to the on-disk root
// path(s) recorded for it at index time.
func (e *Engine) Where(ctx context.Context, name, version string) ([]string, error) {
	packages, err := e.store.ListPackages(ctx)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, p := range packages {
		if p.Name != name {
			continue
		}
		if version != "" && p.Version != version {
			continue
		}
		paths = append(paths, p.RootPath)
	}
	return paths, nil
}

// Stats reports package count, item count, and on-disk database file
// size.
func (e *Engine) Stats(ctx context.Context) (StoreStats, error) {
	return e.store.Stats(ctx, e.cfg.CacheDir)
}

// Clear removes every indexed package and item.
func (e *Engine) Clear(ctx context.Context) error {
	return e.store.Clear(ctx)
}

// ModuleOf exposes module-path derivation for consumers that need to
// map a file path back to a symbol path, as internal/modulepath does
// internally for the extractor.
func ModuleOf(packageName, relativeFilePath string) string {
	return modulepath.Of(packageName, relativeFilePath)
}

// EnsureCacheDir returns cacheDir made absolute against the current
// working directory. Creating the file itself is left to store.Open;
// callers that pass a nested CacheDir should create the parent
// directory themselves before calling Open.
func EnsureCacheDir(cacheDir string) (string, error) {
	return filepath.Abs(cacheDir)
}

// Files exposes walk.Files for consumers assembling a PackageRef list
// outside of BuildIndex (e.g. a CLI that wants a dry-run file count).
func Files(pkg PackageRef) ([]item.SourceFile, error) {
	return walk.Files(pkg)
}
