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

// Package semver implements a minimal, dependency-free comparator for
// dotted version strings.
//
// It exists to fix a known bug carried by the original cache
// implementation: picking a package's "latest" version by lexicographic
// string comparison of the version column, which misorders multi-digit
// components ("1.10.0" sorts before "1.2.0"). Numeric components are
// compared as integers; a non-numeric component falls back to a plain
// string comparison against its counterpart so odd version strings
// (pre-release suffixes, "v"-prefixes) never panic or get silently
// dropped.
package semver

import (
	"strconv"
	"strings"
)

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater
// than b, comparing dot-separated components left to right. A leading
// "v" is ignored on both sides. Shorter version strings are treated as
// having trailing zero components ("1.2" == "1.2.0").
func Compare(a, b string) int {
	pa := strings.Split(strings.TrimPrefix(a, "v"), ".")
	pb := strings.Split(strings.TrimPrefix(b, "v"), ".")

	n := len(pa)
	if len(pb) > n {
		n = len(pb)
	}

	for i := 0; i < n; i++ {
		ca := component(pa, i)
		cb := component(pb, i)
		if c := compareComponent(ca, cb); c != 0 {
			return c
		}
	}
	return 0
}

// Max returns the greater of a and b per Compare. Ties favor a.
func Max(a, b string) string {
	if Compare(b, a) > 0 {
		return b
	}
	return a
}

func component(parts []string, i int) string {
	if i >= len(parts) {
		return "0"
	}
	return parts[i]
}

func compareComponent(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
