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

// Package modulepath derives the language-neutral module path a Go
// source file's declarations should be qualified with.
package modulepath

import (
	"path"
	"strings"
)

// Of returns the module path for a file at relativeFilePath within the
// package identified by packageImportPath. Since Go packages are
// directory-granular, every file in a directory shares the same module
// path: the directory's path relative to the module root, with slashes
// rewritten to dots, or the bare package name at the module root.
func Of(packageImportPath, relativeFilePath string) string {
	dir := path.Dir(path.Clean(relativeFilePath))
	if dir == "." || dir == "/" {
		return packageImportPath
	}
	return packageImportPath + "." + strings.ReplaceAll(dir, "/", ".")
}

// Join appends name to a module path using the module separator.
func Join(modulePath, name string) string {
	if modulePath == "" {
		return name
	}
	return modulePath + "." + name
}
