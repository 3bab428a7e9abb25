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

// Command godepindex-demo is a thin binary wiring build_index, find,
// expand, and stats against a single on-disk Go package, purely to
// give the pflag and progressbar dependencies a caller. It is not the
// project's command-line surface: a real CLI or RPC server is an
// external collaborator expected to call the godepindex package
// directly.
package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/schollz/progressbar/v3"

	godepindex "github.com/godepindex/godepindex"
	"github.com/godepindex/godepindex/internal/config"
	"github.com/godepindex/godepindex/internal/search"
)

func main() {
	fs := flag.NewFlagSet("godepindex-demo", flag.ExitOnError)
	name := fs.String("name", "", "package name to index or query")
	version := fs.String("version", "1.0.0", "package version")
	root := fs.String("root", "", "on-disk root of the package source")
	query := fs.String("query", "", "search query for the find operation")
	configPath := fs.String("config", "", "path to a YAML config file")
	force := fs.Bool("force", false, "re-index even if already present")
	op := fs.String("op", "build", "operation: build, find, expand, stats")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: godepindex-demo --op <build|find|expand|stats> [options]

Examples:
  godepindex-demo --op build --name widgets --root ./vendor/widgets
  godepindex-demo --op find --query Gadget
  godepindex-demo --op expand --name widgets
  godepindex-demo --op stats

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}

	eng, err := godepindex.Open(cfg, nil)
	if err != nil {
		fatal(err)
	}
	defer eng.Close()

	ctx := context.Background()

	switch *op {
	case "build":
		runBuild(ctx, eng, *name, *version, *root, *force)
	case "find":
		runFind(ctx, eng, *query)
	case "expand":
		runExpand(ctx, eng, *name)
	case "stats":
		runStats(ctx, eng)
	default:
		fmt.Fprintf(os.Stderr, "unknown operation %q\n", *op)
		fs.Usage()
		os.Exit(1)
	}
}

func runBuild(ctx context.Context, eng *godepindex.Engine, name, version, root string, force bool) {
	if name == "" || root == "" {
		fatal(fmt.Errorf("build requires --name and --root"))
	}

	bar := progressbar.Default(1, fmt.Sprintf("indexing %s", name))
	result, err := eng.BuildIndex(ctx, []godepindex.PackageRef{
		{Name: name, Version: version, RootPath: root},
	}, force)
	_ = bar.Add(1)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("indexed=%d skipped=%d failed=%d total_items=%d\n",
		result.Indexed, result.Skipped, result.Failed, result.TotalItems)
}

func runFind(ctx context.Context, eng *godepindex.Engine, query string) {
	if query == "" {
		fatal(fmt.Errorf("find requires --query"))
	}

	resp, err := eng.Find(ctx, query, search.DefaultOptions())
	if err != nil {
		fatal(err)
	}

	for _, r := range resp.Results {
		fmt.Printf("%-6d %-10s %s@%s %s\n", r.Score, r.MatchType, r.PackageName, r.PackageVersion, r.Path)
	}
	if len(resp.Suggestions) > 0 {
		fmt.Println("suggestions:", resp.Suggestions)
	}
}

func runExpand(ctx context.Context, eng *godepindex.Engine, name string) {
	if name == "" {
		fatal(fmt.Errorf("expand requires --name"))
	}

	info, err := eng.Expand(ctx, name)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("%s@%s items=%d direct=%t reexport=%t\n", info.Name, info.Version, info.ItemCount, info.IsDirectDep, info.IsReexport)
	for _, rel := range info.RelatedPackages {
		fmt.Printf("  %s (%s) items=%d\n", rel.Name, rel.Relationship, rel.ItemCount)
	}
}

func runStats(ctx context.Context, eng *godepindex.Engine) {
	stats, err := eng.Stats(ctx)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("packages=%d items=%d size_bytes=%d\n", stats.PackageCount, stats.ItemCount, stats.FileSizeBytes)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
