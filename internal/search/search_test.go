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

package search_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/godepindex/godepindex/internal/config"
	"github.com/godepindex/godepindex/internal/item"
	"github.com/godepindex/godepindex/internal/search"
	"github.com/godepindex/godepindex/internal/testsupport"
)

func newEngine(t *testing.T, directDeps ...string) (*search.Engine, func()) {
	st := testsupport.SetupTestStore(t)
	cfg := config.Default()
	cfg.DirectDeps = directDeps
	return search.New(st, cfg), func() {}
}

func TestFindExactBeatsPrefixBeatsContains(t *testing.T) {
	eng, _ := newEngine(t)
	testsupport.InsertTestPackage(t, eng.Store, "pkg", "1.0.0", "", []item.Item{
		{Path: "pkg.Serialize", Kind: item.KindFunction, Visibility: item.VisibilityPublic},
		{Path: "pkg.Serializer", Kind: item.KindStruct, Visibility: item.VisibilityPublic},
		{Path: "pkg.de.Deserializer", Kind: item.KindStruct, Visibility: item.VisibilityPublic},
	})

	resp, err := eng.Find(context.Background(), "Serialize", search.DefaultOptions())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(resp.Results), 3)
	require.Equal(t, "pkg.Serialize", resp.Results[0].Path)
	require.Equal(t, search.MatchExact, resp.Results[0].MatchType)
	require.Equal(t, "pkg.Serializer", resp.Results[1].Path)
	require.Equal(t, search.MatchPrefix, resp.Results[1].MatchType)
	require.Equal(t, "pkg.de.Deserializer", resp.Results[2].Path)
	require.Equal(t, search.MatchContains, resp.Results[2].MatchType)
}

func TestFindFuzzyFallbackWhenNoSubstringMatch(t *testing.T) {
	eng, _ := newEngine(t)
	testsupport.InsertTestPackage(t, eng.Store, "pkg", "1.0.0", "", []item.Item{
		{Path: "pkg.DistanceFog", Kind: item.KindStruct, Visibility: item.VisibilityPublic},
	})

	resp, err := eng.Find(context.Background(), "DistnceFog", search.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	require.Equal(t, "pkg.DistanceFog", resp.Results[0].Path)
	require.Equal(t, 1, resp.Results[0].MatchType.Distance)
	require.Equal(t, "fuzzy", resp.Results[0].MatchType.Kind)
	require.Equal(t, 75, resp.Results[0].Score)
}

func TestFindPaginationConsistency(t *testing.T) {
	eng, _ := newEngine(t)
	var items []item.Item
	for i := 0; i < 30; i++ {
		items = append(items, item.Item{
			Path: "pkg.Widget" + string(rune('A'+i%26)) + string(rune('0'+i/26)),
			Kind: item.KindFunction, Visibility: item.VisibilityPublic,
		})
	}
	testsupport.InsertTestPackage(t, eng.Store, "pkg", "1.0.0", "", items)

	full, err := eng.Find(context.Background(), "Widget", search.Options{Limit: 30, Fuzzy: true, MaxEditDistance: 2})
	require.NoError(t, err)
	require.Equal(t, 30, full.Pagination.Total)

	var pagedPaths []string
	for _, offset := range []int{0, 10, 20} {
		page, err := eng.Find(context.Background(), "Widget", search.Options{Limit: 10, Offset: offset, Fuzzy: true, MaxEditDistance: 2})
		require.NoError(t, err)
		require.Len(t, page.Results, 10)
		for _, r := range page.Results {
			pagedPaths = append(pagedPaths, r.Path)
		}
	}

	var fullPaths []string
	for _, r := range full.Results {
		fullPaths = append(fullPaths, r.Path)
	}
	require.Equal(t, fullPaths, pagedPaths)
}

func TestFindDirectOnlyFilter(t *testing.T) {
	eng, _ := newEngine(t, "direct")
	testsupport.InsertTestPackage(t, eng.Store, "direct", "1.0.0", "", []item.Item{
		{Path: "direct.Widget", Kind: item.KindFunction, Visibility: item.VisibilityPublic},
	})
	testsupport.InsertTestPackage(t, eng.Store, "indirect", "1.0.0", "", []item.Item{
		{Path: "indirect.Widget", Kind: item.KindFunction, Visibility: item.VisibilityPublic},
	})

	opts := search.DefaultOptions()
	opts.DirectOnly = true
	resp, err := eng.Find(context.Background(), "Widget", opts)
	require.NoError(t, err)
	for _, r := range resp.Results {
		require.True(t, r.IsDirectDep)
	}
	require.Contains(t, pathsOf(resp.Results), "direct.Widget")
	require.NotContains(t, pathsOf(resp.Results), "indirect.Widget")
}

func TestFindEmptyQueryReturnsEmpty(t *testing.T) {
	eng, _ := newEngine(t)
	resp, err := eng.Find(context.Background(), "", search.DefaultOptions())
	require.NoError(t, err)
	require.Empty(t, resp.Results)
}

func TestFindZeroLimitReturnsEmptyButTotalPopulated(t *testing.T) {
	eng, _ := newEngine(t)
	testsupport.InsertTestPackage(t, eng.Store, "pkg", "1.0.0", "", []item.Item{
		{Path: "pkg.Widget", Kind: item.KindFunction, Visibility: item.VisibilityPublic},
	})

	resp, err := eng.Find(context.Background(), "Widget", search.Options{Limit: 0, Fuzzy: true, MaxEditDistance: 2})
	require.NoError(t, err)
	require.Empty(t, resp.Results)
	require.Equal(t, 1, resp.Pagination.Total)
}

func TestExpandDetectsReexportPackage(t *testing.T) {
	eng, _ := newEngine(t)
	root := t.TempDir()
	reexportSource := "package wrapper\n\ntype Config = upstream.Config\ntype Client = upstream.Client\ntype Option = upstream.Option\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "doc.go"), []byte(reexportSource), 0o644))

	testsupport.InsertTestPackage(t, eng.Store, "wrapper", "1.0.0", root, []item.Item{
		{Path: "wrapper.Config", Kind: item.KindTypeAlias, Visibility: item.VisibilityPublic},
	})

	info, err := eng.Expand(context.Background(), "wrapper")
	require.NoError(t, err)
	require.True(t, info.IsReexport)
}

func TestExpandDetectsReexportOutsideConventionalRootFile(t *testing.T) {
	eng, _ := newEngine(t)
	root := t.TempDir()
	// Go has no single entry file the way a crate has lib.rs; the
	// alias declarations here live in an arbitrarily named file, not
	// doc.go or lib.go, and must still be picked up.
	reexportSource := "package wrapper\n\ntype Config = upstream.Config\ntype Client = upstream.Client\ntype Option = upstream.Option\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "aliases.go"), []byte(reexportSource), 0o644))

	testsupport.InsertTestPackage(t, eng.Store, "wrapper", "1.0.0", root, []item.Item{
		{Path: "wrapper.Config", Kind: item.KindTypeAlias, Visibility: item.VisibilityPublic},
	})

	info, err := eng.Expand(context.Background(), "wrapper")
	require.NoError(t, err)
	require.True(t, info.IsReexport)
}

func pathsOf(results []search.ScoredResult) []string {
	var out []string
	for _, r := range results {
		out = append(out, r.Path)
	}
	return out
}
