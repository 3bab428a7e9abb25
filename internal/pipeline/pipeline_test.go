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

package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/godepindex/godepindex/internal/item"
	"github.com/godepindex/godepindex/internal/pipeline"
	"github.com/godepindex/godepindex/internal/testsupport"
)

const sampleSource = `package widgets

// Gadget is a thing.
type Gadget struct {
	Name string
}

// Spin spins the gadget.
func (g *Gadget) Spin() string { return g.Name }

func NewGadget(name string) *Gadget { return &Gadget{Name: name} }
`

func writePackageSource(t *testing.T, dir, file, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(contents), 0o644))
}

func TestPipelineRunIndexesNewPackages(t *testing.T) {
	st := testsupport.SetupTestStore(t)
	root := t.TempDir()
	writePackageSource(t, root, "gadget.go", sampleSource)

	p := &pipeline.Pipeline{Store: st, Workers: 2, BatchSize: 10, ChannelCapacity: 4}
	result, err := p.Run(context.Background(), []item.PackageRef{
		{Name: "widgets", Version: "1.0.0", RootPath: root},
	}, false)

	require.NoError(t, err)
	require.Equal(t, 1, result.Indexed)
	require.Equal(t, 0, result.Skipped)
	require.Equal(t, 0, result.Failed)
	require.Greater(t, result.TotalItems, 0)

	rows, total, err := st.ItemsByPackage(context.Background(), "widgets", "1.0.0", "", 100, 0)
	require.NoError(t, err)
	require.Equal(t, total, len(rows))
	require.NotEmpty(t, rows)
}

func TestPipelineRunSkipsAlreadyIndexedUnlessForced(t *testing.T) {
	st := testsupport.SetupTestStore(t)
	root := t.TempDir()
	writePackageSource(t, root, "gadget.go", sampleSource)

	pkg := item.PackageRef{Name: "widgets", Version: "1.0.0", RootPath: root}
	p := &pipeline.Pipeline{Store: st, Workers: 2, BatchSize: 10, ChannelCapacity: 4}

	_, err := p.Run(context.Background(), []item.PackageRef{pkg}, false)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), []item.PackageRef{pkg}, false)
	require.NoError(t, err)
	require.Equal(t, 0, result.Indexed)
	require.Equal(t, 1, result.Skipped)

	result, err = p.Run(context.Background(), []item.PackageRef{pkg}, true)
	require.NoError(t, err)
	require.Equal(t, 1, result.Indexed)
	require.Equal(t, 0, result.Skipped)
}

func TestPipelineRunHandlesMissingPackageRootAsFailure(t *testing.T) {
	st := testsupport.SetupTestStore(t)
	p := &pipeline.Pipeline{Store: st, Workers: 1, BatchSize: 10, ChannelCapacity: 4}

	result, err := p.Run(context.Background(), []item.PackageRef{
		{Name: "ghost", Version: "1.0.0", RootPath: filepath.Join(t.TempDir(), "does-not-exist")},
	}, false)

	require.NoError(t, err)
	require.Equal(t, 0, result.Indexed)
	require.Equal(t, 1, result.Failed)
}

func TestPipelineRunAcrossMultiplePackages(t *testing.T) {
	st := testsupport.SetupTestStore(t)

	rootA := t.TempDir()
	writePackageSource(t, rootA, "a.go", sampleSource)
	rootB := t.TempDir()
	writePackageSource(t, rootB, "b.go", sampleSource)

	p := &pipeline.Pipeline{Store: st, Workers: 4, BatchSize: 1, ChannelCapacity: 2}
	result, err := p.Run(context.Background(), []item.PackageRef{
		{Name: "a", Version: "1.0.0", RootPath: rootA},
		{Name: "b", Version: "1.0.0", RootPath: rootB},
	}, false)

	require.NoError(t, err)
	require.Equal(t, 2, result.Indexed)

	stats, err := st.Stats(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 2, stats.PackageCount)
}
