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

// Package search implements the ranked symbol search and crate-info
// probe that sit on top of the symbol store: exact/prefix/contains
// scoring, a Levenshtein fuzzy fallback, direct-dependency weighting,
// package-cluster expansion, and pagination.
package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/godepindex/godepindex/internal/config"
	"github.com/godepindex/godepindex/internal/item"
	"github.com/godepindex/godepindex/internal/store"
)

// MatchType tags why a result matched the query.
type MatchType struct {
	Kind     string // exact, prefix, contains, fuzzy, crate, crate_prefix
	Distance int    // populated only when Kind == "fuzzy"
}

func (m MatchType) String() string {
	if m.Kind == "fuzzy" {
		return fmt.Sprintf("fuzzy~%d", m.Distance)
	}
	return m.Kind
}

var (
	MatchExact       = MatchType{Kind: "exact"}
	MatchPrefix      = MatchType{Kind: "prefix"}
	MatchContains    = MatchType{Kind: "contains"}
	MatchCrateName   = MatchType{Kind: "crate"}
	MatchCratePrefix = MatchType{Kind: "crate_prefix"}
)

func matchFuzzy(distance int) MatchType { return MatchType{Kind: "fuzzy", Distance: distance} }

// ScoredResult is one ranked hit.
type ScoredResult struct {
	PackageName    string
	PackageVersion string
	Path           string
	Kind           item.Kind
	Signature      string
	Score          int
	IsDirectDep    bool
	MatchType      MatchType
}

// Pagination describes the slice of the total result set returned.
type Pagination struct {
	Offset int
	Limit  int
	Total  int
}

func (p Pagination) HasMore() bool { return p.Offset+p.Limit < p.Total }

// Options configures a single Find call.
type Options struct {
	PackageFilter   string
	Limit           int
	Offset          int
	Fuzzy           bool
	MaxEditDistance int
	DirectOnly      bool
	KindFilter      item.Kind
}

// DefaultOptions returns the documented defaults: limit 25, fuzzy
// enabled, max edit distance 2.
func DefaultOptions() Options {
	return Options{Limit: 25, Fuzzy: true, MaxEditDistance: 2}
}

// Response is the outcome of a Find call.
type Response struct {
	Results         []ScoredResult
	Pagination      Pagination
	Suggestions     []string
	RelatedPackages []RelatedPackage
}

// Relationship tags how a related package connects to a crate-cluster
// query.
type Relationship string

const (
	RelationshipDirect   Relationship = "direct"
	RelationshipPrefix   Relationship = "prefix"
	RelationshipReExport Relationship = "re-export"
)

// RelatedPackage is one member of a crate cluster.
type RelatedPackage struct {
	Name         string
	Version      string
	ItemCount    int
	Relationship Relationship
}

// Engine answers Find/Expand queries against a Store, consulting cfg
// for the direct-dependency set used in ranking and filtering.
type Engine struct {
	Store *store.Store
	Cfg   config.Config
}

// New constructs a search Engine over st, scoped to the direct
// dependencies named in cfg.
func New(st *store.Store, cfg config.Config) *Engine {
	return &Engine{Store: st, Cfg: cfg}
}

// Find runs the full search pipeline: primary substring hits, scoring,
// fuzzy fallback, suggestion generation, and pagination. Callers
// should build opts from DefaultOptions() and override only the
// fields they need, since the zero Options value disables fuzzy
// matching and returns zero results per page.
func (e *Engine) Find(ctx context.Context, query string, opts Options) (Response, error) {
	queryLower := strings.ToLower(strings.TrimSpace(query))

	var related []RelatedPackage
	if queryLower != "" && e.isCrateQuery(ctx, queryLower) {
		related = e.findRelatedPackages(ctx, queryLower)
	}

	if queryLower == "" {
		return Response{Pagination: Pagination{Offset: opts.Offset, Limit: opts.Limit}}, nil
	}

	results, err := e.primaryHits(ctx, queryLower, opts)
	if err != nil {
		return Response{}, err
	}

	if len(results) < 5 && opts.Fuzzy {
		fuzzy, err := e.fuzzyHits(ctx, queryLower, opts)
		if err != nil {
			return Response{}, err
		}
		results = unionByPackageAndPath(results, fuzzy)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Path < results[j].Path
	})

	var suggestions []string
	if len(results) < 3 {
		suggestions, err = e.buildSuggestions(ctx, queryLower)
		if err != nil {
			return Response{}, err
		}
	}

	total := len(results)
	page := paginate(results, opts.Offset, opts.Limit)

	return Response{
		Results:         page,
		Pagination:      Pagination{Offset: opts.Offset, Limit: opts.Limit, Total: total},
		Suggestions:     suggestions,
		RelatedPackages: related,
	}, nil
}

func paginate(results []ScoredResult, offset, limit int) []ScoredResult {
	if offset >= len(results) || offset < 0 {
		return []ScoredResult{}
	}
	end := offset + limit
	if limit <= 0 || end > len(results) {
		end = len(results)
	}
	if limit <= 0 {
		return []ScoredResult{}
	}
	out := make([]ScoredResult, end-offset)
	copy(out, results[offset:end])
	return out
}

func (e *Engine) primaryHits(ctx context.Context, queryLower string, opts Options) ([]ScoredResult, error) {
	var rows []store.ItemRow
	var err error

	if opts.PackageFilter != "" {
		rows, _, err = e.Store.ItemsByPackage(ctx, opts.PackageFilter, "", opts.KindFilter, 1<<30, 0)
	} else {
		rows, err = e.Store.SearchSubstring(ctx, queryLower)
	}
	if err != nil {
		return nil, err
	}

	var results []ScoredResult
	for _, r := range rows {
		if opts.KindFilter != "" && r.Kind != opts.KindFilter {
			continue
		}
		isDirect := e.Cfg.IsDirectDep(r.PackageName)
		if opts.DirectOnly && !isDirect {
			continue
		}
		score, matchType := scoreItem(r.Path, queryLower)
		if score <= 0 {
			continue
		}
		if isDirect {
			score += 10
		}
		results = append(results, ScoredResult{
			PackageName: r.PackageName, PackageVersion: r.PackageVersion,
			Path: r.Path, Kind: r.Kind, Signature: r.Signature,
			Score: score, IsDirectDep: isDirect, MatchType: matchType,
		})
	}
	return results, nil
}

// scoreItem derives (score, match type) from the final path segment,
// per the fixed scoring table: exact=100, prefix=80-min(20,excess),
// simple-name contains=50, full-path contains=30, none=0 (excluded).
func scoreItem(path, queryLower string) (int, MatchType) {
	pathLower := strings.ToLower(path)
	simpleName := pathLower
	if idx := strings.LastIndexAny(pathLower, ".:"); idx >= 0 {
		simpleName = pathLower[idx+1:]
	}

	switch {
	case simpleName == queryLower:
		return 100, MatchExact
	case strings.HasPrefix(simpleName, queryLower):
		excess := len(simpleName) - len(queryLower)
		if excess > 20 {
			excess = 20
		}
		return 80 - excess, MatchPrefix
	case strings.Contains(simpleName, queryLower):
		return 50, MatchContains
	case strings.Contains(pathLower, queryLower):
		return 30, MatchContains
	default:
		return 0, MatchContains
	}
}

func (e *Engine) fuzzyHits(ctx context.Context, queryLower string, opts Options) ([]ScoredResult, error) {
	packages, err := e.Store.ListPackages(ctx)
	if err != nil {
		return nil, err
	}

	var results []ScoredResult
	for _, pkg := range packages {
		if opts.DirectOnly && !e.Cfg.IsDirectDep(pkg.Name) {
			continue
		}
		if opts.PackageFilter != "" && pkg.Name != opts.PackageFilter {
			continue
		}
		rows, _, err := e.Store.ItemsByPackage(ctx, pkg.Name, pkg.Version, opts.KindFilter, 1<<30, 0)
		if err != nil {
			return nil, err
		}
		isDirect := e.Cfg.IsDirectDep(pkg.Name)
		for _, r := range rows {
			simpleName := r.Path
			if idx := strings.LastIndexAny(r.Path, ".:"); idx >= 0 {
				simpleName = r.Path[idx+1:]
			}
			distance := levenshtein.ComputeDistance(queryLower, strings.ToLower(simpleName))
			if distance > opts.MaxEditDistance {
				continue
			}
			score := 100 - distance*25
			if score < 10 {
				score = 10
			}
			results = append(results, ScoredResult{
				PackageName: pkg.Name, PackageVersion: pkg.Version,
				Path: r.Path, Kind: r.Kind, Signature: r.Signature,
				Score: score, IsDirectDep: isDirect, MatchType: matchFuzzy(distance),
			})
		}
	}
	return results, nil
}

// unionByPackageAndPath merges fuzzy into primary, keeping primary's
// score on any (package, path) duplicate.
func unionByPackageAndPath(primary, fuzzy []ScoredResult) []ScoredResult {
	seen := make(map[[2]string]bool, len(primary))
	for _, r := range primary {
		seen[[2]string{r.PackageName, r.Path}] = true
	}
	out := append([]ScoredResult(nil), primary...)
	for _, r := range fuzzy {
		key := [2]string{r.PackageName, r.Path}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func (e *Engine) buildSuggestions(ctx context.Context, queryLower string) ([]string, error) {
	packages, err := e.Store.ListPackages(ctx)
	if err != nil {
		return nil, err
	}
	var suggestions []string
	for _, pkg := range packages {
		if pkg.Name != queryLower && strings.Contains(pkg.Name, queryLower) {
			suggestions = append(suggestions, "crate:"+pkg.Name)
		}
	}
	if len(suggestions) > 5 {
		suggestions = suggestions[:5]
	}
	return suggestions, nil
}

func (e *Engine) isCrateQuery(ctx context.Context, queryLower string) bool {
	if strings.ContainsAny(queryLower, ".:/") {
		return false
	}
	for _, r := range queryLower {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return false
		}
	}
	packages, err := e.Store.ListPackages(ctx)
	if err != nil {
		return false
	}
	prefix := queryLower + "_"
	for _, pkg := range packages {
		if pkg.Name == queryLower || strings.HasPrefix(pkg.Name, prefix) {
			return true
		}
	}
	return false
}

func (e *Engine) findRelatedPackages(ctx context.Context, queryLower string) []RelatedPackage {
	packages, err := e.Store.ListPackages(ctx)
	if err != nil {
		return nil
	}
	prefix := queryLower + "_"

	var related []RelatedPackage
	for _, pkg := range packages {
		var rel Relationship
		switch {
		case pkg.Name == queryLower:
			rel = RelationshipDirect
		case strings.HasPrefix(pkg.Name, prefix):
			rel = RelationshipPrefix
		default:
			continue
		}
		_, total, err := e.Store.ItemsByPackage(ctx, pkg.Name, pkg.Version, "", 1, 0)
		if err != nil {
			total = 0
		}
		related = append(related, RelatedPackage{Name: pkg.Name, Version: pkg.Version, ItemCount: total, Relationship: rel})
	}

	sort.Slice(related, func(i, j int) bool {
		if related[i].Relationship == RelationshipDirect && related[j].Relationship != RelationshipDirect {
			return true
		}
		if related[j].Relationship == RelationshipDirect && related[i].Relationship != RelationshipDirect {
			return false
		}
		return related[i].ItemCount > related[j].ItemCount
	})
	return related
}

// CrateInfo describes a single package's indexed state and its
// neighbourhood within a package cluster.
type CrateInfo struct {
	Name            string
	Version         string
	RootPath        string
	ItemCount       int
	IsReexport      bool
	IsDirectDep     bool
	RelatedPackages []RelatedPackage
}

// Expand returns CrateInfo for name, resolving to its latest indexed
// version.
func (e *Engine) Expand(ctx context.Context, name string) (CrateInfo, error) {
	version, ok, err := e.Store.PackageLatest(ctx, name)
	if err != nil {
		return CrateInfo{}, err
	}
	if !ok {
		return CrateInfo{}, fmt.Errorf("package %q not found", name)
	}

	packages, err := e.Store.ListPackages(ctx)
	if err != nil {
		return CrateInfo{}, err
	}
	var rootPath string
	for _, p := range packages {
		if p.Name == name && p.Version == version {
			rootPath = p.RootPath
			break
		}
	}

	_, total, err := e.Store.ItemsByPackage(ctx, name, version, "", 1, 0)
	if err != nil {
		return CrateInfo{}, err
	}

	related := e.findRelatedPackages(ctx, strings.ToLower(name))
	// A package is always related to itself via RelationshipDirect; the
	// above only includes other packages matching name/name_*, and this
	// package's own row is included by that same loop since name == name.

	return CrateInfo{
		Name: name, Version: version, RootPath: rootPath, ItemCount: total,
		IsReexport:      detectReexport(rootPath),
		IsDirectDep:     e.Cfg.IsDirectDep(name),
		RelatedPackages: related,
	}, nil
}

// detectReexport applies the heuristic: a Go package has no single
// entry file the way a Rust crate has lib.rs, so this concatenates the
// top-level statements of every non-test .go file directly in
// rootPath, strips blank/comment lines, and classifies the package as
// a re-export wrapper if what remains is short (< 20 lines) and at
// least half of it consists of dot-import or re-export-style
// statements. This is advisory only; false positives are expected and
// tolerated.
func detectReexport(rootPath string) bool {
	if rootPath == "" {
		return false
	}
	entries, err := os.ReadDir(rootPath)
	if err != nil {
		return false
	}

	var codeLines []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		codeLines = append(codeLines, reexportCodeLines(filepath.Join(rootPath, name))...)
	}
	if len(codeLines) == 0 || len(codeLines) >= 20 {
		return false
	}

	reexportCount := 0
	for _, line := range codeLines {
		if isReexportLine(line) {
			reexportCount++
		}
	}
	return reexportCount > 0 && reexportCount*2 >= len(codeLines)
}

// reexportCodeLines reads path and returns its non-blank, non-comment
// lines trimmed of surrounding whitespace.
func reexportCodeLines(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines
}

// isReexportLine matches Go's re-export idioms: a dot-import of
// another package, or a bare type/value alias declaration (`type X =
// pkg.X`, `var X = pkg.X`, `const X = pkg.X`) forwarding a symbol from
// an import.
func isReexportLine(line string) bool {
	if strings.Contains(line, `import . "`) {
		return true
	}
	if strings.HasPrefix(line, "type ") && strings.Contains(line, "=") {
		return true
	}
	if (strings.HasPrefix(line, "var ") || strings.HasPrefix(line, "const ")) && strings.Contains(line, "=") {
		return true
	}
	return false
}
