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

package errtax

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStoreIOError("cannot write batch", "disk full", "free up space", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is should see through CoreError.Unwrap")
	}
	if got, want := err.Error(), "cannot write batch: disk full"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestFormatIncludesAllSections(t *testing.T) {
	err := NewStoreUnavailableError("index not built", "no build_index run yet", "run build_index first")
	out := err.Format(true)

	for _, want := range []string{"Error: index not built", "Cause: no build_index run yet", "Fix:   run build_index first"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatOmitsEmptySections(t *testing.T) {
	err := &CoreError{Message: "boom", Kind: KindStoreIO}
	out := err.Format(true)
	if strings.Contains(out, "Cause:") || strings.Contains(out, "Fix:") {
		t.Errorf("Format should omit empty Cause/Fix sections, got:\n%s", out)
	}
}

func TestToJSON(t *testing.T) {
	err := NewParseFailureError("could not parse file.go", "unexpected token", "", nil)
	j := err.ToJSON()

	data, encErr := json.Marshal(j)
	if encErr != nil {
		t.Fatalf("Marshal failed: %v", encErr)
	}
	if !strings.Contains(string(data), `"kind":"parse_failure"`) {
		t.Errorf("expected kind field in JSON, got %s", data)
	}
	if strings.Contains(string(data), `"fix"`) {
		t.Errorf("expected fix field to be omitted when empty, got %s", data)
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		kind  Kind
		fatal bool
	}{
		{KindParseFailure, false},
		{KindExtractionInconsistency, false},
		{KindStoreIO, true},
		{KindMigrationFailure, true},
		{KindContentionTimeout, true},
		{KindStoreUnavailable, true},
	}
	for _, c := range cases {
		err := &CoreError{Kind: c.kind}
		if got := IsFatal(err); got != c.fatal {
			t.Errorf("IsFatal(%s) = %v, want %v", c.kind, got, c.fatal)
		}
	}

	if !IsFatal(errors.New("plain error")) {
		t.Errorf("a non-CoreError should be treated as fatal")
	}
}
