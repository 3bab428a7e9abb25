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

// Package pipeline fans a dependency closure out across a parallel
// worker pool of parsers and fans the results in through a single
// writer goroutine that batches into the symbol store.
package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/godepindex/godepindex/internal/errtax"
	"github.com/godepindex/godepindex/internal/extract"
	"github.com/godepindex/godepindex/internal/item"
	"github.com/godepindex/godepindex/internal/store"
	"github.com/godepindex/godepindex/internal/walk"
)

// Result is the outcome of a single build_index run.
type Result struct {
	Indexed    int
	Skipped    int
	Failed     int
	TotalItems int
}

// Pipeline parses a list of package descriptors and writes the
// extracted items into a Store. Parser workers (one per configured
// worker slot) each own a dedicated extract.Extractor instance; a
// single writer goroutine owns the store connection and batches
// arriving parse results into fixed-size transactions.
type Pipeline struct {
	Store           *store.Store
	Workers         int
	BatchSize       int
	ChannelCapacity int
	Logger          *slog.Logger
	Progress        io.Writer
}

type parseOutcome struct {
	pkg   item.PackageRef
	items []item.Item
	err   error
}

// Run executes the pipeline to completion. If force is false, packages
// already present in the store are filtered out before dispatch. If
// force is true, every package is re-parsed and its rows replaced
// atomically. The pipeline runs to completion or first fatal error;
// individual parse failures are absorbed per package and reflected in
// Result.Failed, never aborting the run.
func (p *Pipeline) Run(ctx context.Context, packages []item.PackageRef, force bool) (Result, error) {
	logger := p.logger()
	logger.Info("pipeline.run.start", "package_count", len(packages), "force", force)

	work, skipped, err := p.partition(ctx, packages, force)
	if err != nil {
		return Result{}, err
	}

	var bar *progressbar.ProgressBar
	if p.Progress != nil {
		bar = progressbar.NewOptions(len(work), progressbar.OptionSetWriter(p.Progress))
	}

	outcomes := make(chan parseOutcome, p.channelCapacity())

	// runCtx is cancelled explicitly by the writer's own error path, not
	// by errgroup's Wait-driven cancellation, so a successful run never
	// yanks the context out from under the writer's final flush.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	jobs := make(chan item.PackageRef)
	g.Go(func() error {
		defer close(jobs)
		for _, pkg := range work {
			select {
			case jobs <- pkg:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < p.workerCount(); i++ {
		g.Go(func() error {
			extractor := extract.New() // parser state is thread-local per worker
			for pkg := range jobs {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				start := time.Now()
				items, parseErr := parsePackage(extractor, pkg)
				observeParse(time.Since(start).Seconds())

				select {
				case outcomes <- parseOutcome{pkg: pkg, items: items, err: parseErr}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	var result Result
	result.Skipped = skipped

	writerDone := make(chan error, 1)
	go func() {
		err := p.drainToStore(runCtx, outcomes, &result, logger, bar)
		if err != nil {
			// Halt producers and workers promptly: without this, a
			// failing writer leaves parser goroutines blocked forever
			// on a full outcomes channel since nothing else cancels
			// gctx on a writer-only failure.
			cancel()
		}
		writerDone <- err
	}()

	// The producer/worker goroutines close jobs and exit once drained
	// (or once gctx is cancelled by a failing writer); wait for them,
	// then close outcomes so the writer can finish.
	workErr := g.Wait()
	close(outcomes)
	writeErr := <-writerDone

	if writeErr != nil {
		return result, writeErr
	}
	if workErr != nil {
		return result, errtax.NewStoreIOError("pipeline aborted", workErr.Error(), "", workErr)
	}

	logger.Info("pipeline.run.complete", "indexed", result.Indexed, "skipped", result.Skipped, "failed", result.Failed, "total_items", result.TotalItems)
	return result, nil
}

func (p *Pipeline) partition(ctx context.Context, packages []item.PackageRef, force bool) (work []item.PackageRef, skipped int, err error) {
	if force {
		return packages, 0, nil
	}

	indexed, err := p.Store.IndexedSet(ctx)
	if err != nil {
		return nil, 0, err
	}
	for _, pkg := range packages {
		key := item.PackageRef{Name: pkg.Name, Version: pkg.Version}
		if indexed[key] {
			skipped++
			recordSkipped()
			continue
		}
		work = append(work, pkg)
	}
	return work, skipped, nil
}

func parsePackage(extractor *extract.Extractor, pkg item.PackageRef) ([]item.Item, error) {
	files, err := walk.Files(pkg)
	if err != nil {
		return nil, err
	}

	var all []item.Item
	for _, f := range files {
		source, err := readFile(f.AbsolutePath)
		if err != nil {
			continue // a single unreadable file is skipped, not fatal to the package
		}
		items, err := extractor.Extract(source, f.ModulePath)
		if err != nil {
			continue // extractor already returns best-effort results for bad syntax
		}
		all = append(all, items...)
	}
	return all, nil
}

// drainToStore is the single writer goroutine: it owns the store
// connection and batches arriving parse results into transactions of
// BatchSize packages.
func (p *Pipeline) drainToStore(ctx context.Context, outcomes <-chan parseOutcome, result *Result, logger *slog.Logger, bar *progressbar.ProgressBar) error {
	batchSize := p.batchSize()
	var pending []store.Batch

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		start := time.Now()
		n, err := p.Store.WriteBatches(ctx, pending, time.Now())
		observeWrite(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		result.TotalItems += n
		pending = pending[:0]
		return nil
	}

	for o := range outcomes {
		if bar != nil {
			_ = bar.Add(1)
		}
		if o.err != nil {
			result.Failed++
			recordFailed()
			logger.Warn("pipeline.package.parse_failed", "package", o.pkg.Name, "version", o.pkg.Version, "error", o.err)
			continue
		}

		pending = append(pending, store.Batch{Package: o.pkg, Items: o.items})
		result.Indexed++
		recordIndexed()
		recordItems(len(o.items))

		if len(pending) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *Pipeline) workerCount() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return 1
}

func (p *Pipeline) batchSize() int {
	if p.BatchSize > 0 {
		return p.BatchSize
	}
	return 50
}

func (p *Pipeline) channelCapacity() int {
	if p.ChannelCapacity > 0 {
		return p.ChannelCapacity
	}
	return 100
}
