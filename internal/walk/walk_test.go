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

package walk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/godepindex/godepindex/internal/item"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestFilesSkipsTestdataVendorAndTests(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "config.go", "package foo\n")
	writeFile(t, root, "config_test.go", "package foo\n")
	writeFile(t, root, "vendor/dep/dep.go", "package dep\n")
	writeFile(t, root, "testdata/sample.go", "package sample\n")
	writeFile(t, root, "internal/store/store.go", "package store\n")

	pkg := item.PackageRef{Name: "example.com/foo", Version: "1.0.0", RootPath: root}
	files, err := Files(pkg)
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rels = append(rels, f.RelativePath)
	}
	require.ElementsMatch(t, []string{"config.go", "internal/store/store.go"}, rels)
}

func TestFilesSkipsGenerated(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "generated.go", "// Code generated by protoc-gen-go. DO NOT EDIT.\npackage foo\n")
	writeFile(t, root, "hand_written.go", "package foo\n")

	pkg := item.PackageRef{Name: "example.com/foo", RootPath: root}
	files, err := Files(pkg)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "hand_written.go", files[0].RelativePath)
}

func TestFilesAssignsModulePath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "internal/store/store.go", "package store\n")

	pkg := item.PackageRef{Name: "example.com/foo", RootPath: root}
	files, err := Files(pkg)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "example.com/foo.internal.store", files[0].ModulePath)
}

func TestModulePaths(t *testing.T) {
	files := []item.SourceFile{
		{ModulePath: "a.b"},
		{ModulePath: "a"},
		{ModulePath: "a.b"},
	}
	require.Equal(t, []string{"a", "a.b"}, ModulePaths(files))
}
