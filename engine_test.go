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

package godepindex_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	godepindex "github.com/godepindex/godepindex"
	"github.com/godepindex/godepindex/internal/config"
	"github.com/godepindex/godepindex/internal/search"
)

const gadgetSource = `package widgets

// Gadget is a thing.
type Gadget struct {
	Name string
}

func NewGadget(name string) *Gadget { return &Gadget{Name: name} }
`

func newTestEngine(t *testing.T) *godepindex.Engine {
	t.Helper()
	cfg := config.Default()
	cfg.CacheDir = filepath.Join(t.TempDir(), "index.db")
	cfg.Workers = 2

	eng, err := godepindex.Open(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestEngineBuildIndexPeekFindRoundTrip(t *testing.T) {
	eng := newTestEngine(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "gadget.go"), []byte(gadgetSource), 0o644))

	result, err := eng.BuildIndex(context.Background(), []godepindex.PackageRef{
		{Name: "widgets", Version: "1.0.0", RootPath: root},
	}, false)
	require.NoError(t, err)
	require.Equal(t, 1, result.Indexed)
	require.Greater(t, result.TotalItems, 0)

	peek, err := eng.Peek(context.Background(), "widgets", "", 100, 0, "")
	require.NoError(t, err)
	require.Equal(t, peek.Total, len(peek.Items))
	require.NotEmpty(t, peek.Items)

	resp, err := eng.Find(context.Background(), "Gadget", search.DefaultOptions())
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	paths, err := eng.Where(context.Background(), "widgets", "")
	require.NoError(t, err)
	require.Equal(t, []string{root}, paths)

	stats, err := eng.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.PackageCount)

	require.NoError(t, eng.Clear(context.Background()))
	stats, err = eng.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, stats.PackageCount)
}

func TestEngineBuildIndexEmptyPackage(t *testing.T) {
	eng := newTestEngine(t)
	root := t.TempDir()

	result, err := eng.BuildIndex(context.Background(), []godepindex.PackageRef{
		{Name: "empty", Version: "1.0.0", RootPath: root},
	}, false)
	require.NoError(t, err)
	require.Equal(t, 1, result.Indexed)
	require.Equal(t, 0, result.TotalItems)

	peek, err := eng.Peek(context.Background(), "empty", "", 100, 0, "")
	require.NoError(t, err)
	require.Empty(t, peek.Items)
}

func TestModuleOf(t *testing.T) {
	require.Equal(t, "widgets", godepindex.ModuleOf("widgets", "gadget.go"))
	require.Equal(t, "widgets.internal.store", godepindex.ModuleOf("widgets", "internal/store/store.go"))
}
