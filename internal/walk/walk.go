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

// Package walk enumerates Go source files under a package root and
// assigns each one its module path.
package walk

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/godepindex/godepindex/internal/item"
	"github.com/godepindex/godepindex/internal/modulepath"
)

// skipDirs names directories that never contribute source files:
// vendored dependencies, version-control metadata, testdata, and
// node_modules. Example, benchmark, and build-output directories are
// not in the list and are walked like any other directory.
var skipDirs = map[string]bool{
	"vendor":      true,
	".git":        true,
	".hg":         true,
	"testdata":    true,
	"node_modules": true,
}

// Files returns every indexable Go source file under pkg.RootPath,
// with its module path assigned. Directories in the skip list, hidden
// directories, generated files, and _test.go files are excluded.
func Files(pkg item.PackageRef) ([]item.SourceFile, error) {
	var files []item.SourceFile

	err := filepath.WalkDir(pkg.RootPath, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if p != pkg.RootPath && (skipDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(p, ".go") || strings.HasSuffix(p, "_test.go") {
			return nil
		}
		generated, err := isGenerated(p)
		if err != nil {
			return err
		}
		if generated {
			return nil
		}

		rel, err := filepath.Rel(pkg.RootPath, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		files = append(files, item.SourceFile{
			Package:      pkg,
			AbsolutePath: p,
			RelativePath: rel,
			ModulePath:   modulepath.Of(pkg.Name, rel),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelativePath < files[j].RelativePath })
	return files, nil
}

// isGenerated reports whether a file begins with Go's conventional
// generated-code marker on one of its first few lines.
func isGenerated(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	// Only the header needs scanning; generated markers always appear
	// near the top of the file per the Go convention.
	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}
	for _, line := range strings.Split(string(head), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "// Code generated ") && strings.HasSuffix(line, "DO NOT EDIT.") {
			return true, nil
		}
		if !strings.HasPrefix(line, "//") && line != "" {
			break
		}
	}
	return false, nil
}

// ModulePaths returns the set of distinct module paths present in
// files, sorted. Useful for enumerating a package's sub-packages.
func ModulePaths(files []item.SourceFile) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, f := range files {
		if !seen[f.ModulePath] {
			seen[f.ModulePath] = true
			paths = append(paths, f.ModulePath)
		}
	}
	sort.Strings(paths)
	return paths
}
