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

// Package testsupport provides shared test fixtures for exercising the
// symbol store without each package re-deriving its own SQLite setup.
package testsupport

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/godepindex/godepindex/internal/item"
	"github.com/godepindex/godepindex/internal/store"
)

// SetupTestStore opens a temp-file-backed store for the duration of
// the test. SQLite's in-memory mode (":memory:") does not survive
// across the separate connections some store operations open, so a
// temp file under t.TempDir() is used instead; the directory is
// removed automatically when the test finishes.
func SetupTestStore(t *testing.T) *store.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "index.db")
	st, err := store.Open(path, 2*time.Second, nil)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// InsertTestPackage seeds a single package+items batch into st.
func InsertTestPackage(t *testing.T, st *store.Store, name, version, rootPath string, items []item.Item) {
	t.Helper()

	_, err := st.WriteBatches(context.Background(), []store.Batch{
		{Package: item.PackageRef{Name: name, Version: version, RootPath: rootPath}, Items: items},
	}, time.Now())
	if err != nil {
		t.Fatalf("failed to insert test package %s@%s: %v", name, version, err)
	}
}

// InsertTestItem is a convenience wrapper for seeding a single item
// under a package that may not exist yet.
func InsertTestItem(t *testing.T, st *store.Store, packageName, version string, it item.Item) {
	t.Helper()
	InsertTestPackage(t, st, packageName, version, "", []item.Item{it})
}
