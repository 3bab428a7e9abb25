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

// Package errtax provides structured error handling for the
// extraction/index/search core.
//
// It defines CoreError, a type that carries what went wrong, why, and
// how to fix it, tagged with a Kind drawn from a closed taxonomy. The
// taxonomy distinguishes errors that are fatal to the current operation
// from errors that are absorbed at file granularity during parsing.
//
// Usage:
//
//	err := errtax.NewStoreIOError(
//	    "cannot open the index database",
//	    "the database file is locked by another process",
//	    "close other godepindex runs, or wait for them to finish",
//	    underlyingErr,
//	)
//	fmt.Fprint(os.Stderr, err.Format(false))
package errtax

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Kind classifies a CoreError into one of the taxonomy's six buckets.
type Kind string

const (
	// KindStoreUnavailable means the cache has never been built.
	KindStoreUnavailable Kind = "store_unavailable"

	// KindStoreIO means an underlying database or filesystem error
	// occurred; fatal to the current operation, not to the process.
	KindStoreIO Kind = "store_io"

	// KindParseFailure means an individual source file was
	// unparseable; recovered locally, logged, file skipped.
	KindParseFailure Kind = "parse_failure"

	// KindExtractionInconsistency means an impl-block-equivalent
	// target was not found among collected declarations; dropped
	// silently, since it likely points at a foreign type.
	KindExtractionInconsistency Kind = "extraction_inconsistency"

	// KindMigrationFailure means a schema migration aborted; fatal,
	// store left at its previous version.
	KindMigrationFailure Kind = "migration_failure"

	// KindContentionTimeout means a transaction's lock wait exceeded
	// the configured timeout.
	KindContentionTimeout Kind = "contention_timeout"
)

// CoreError is an error with structured context: what happened, why,
// and how to fix it, plus the taxonomy bucket it belongs to.
type CoreError struct {
	Message string
	Cause   string
	Fix     string
	Kind    Kind
	Err     error
}

// Error implements the error interface.
func (e *CoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap enables errors.Is/errors.As over the wrapped cause.
func (e *CoreError) Unwrap() error {
	return e.Err
}

// NewStoreUnavailableError reports that the index has never been built.
func NewStoreUnavailableError(msg, cause, fix string) *CoreError {
	return &CoreError{Message: msg, Cause: cause, Fix: fix, Kind: KindStoreUnavailable}
}

// NewStoreIOError reports a database or filesystem failure.
func NewStoreIOError(msg, cause, fix string, err error) *CoreError {
	return &CoreError{Message: msg, Cause: cause, Fix: fix, Kind: KindStoreIO, Err: err}
}

// NewParseFailureError reports that a single source file could not be
// parsed. Callers absorb this at file granularity; it should not
// propagate past the extractor.
func NewParseFailureError(msg, cause, fix string, err error) *CoreError {
	return &CoreError{Message: msg, Cause: cause, Fix: fix, Kind: KindParseFailure, Err: err}
}

// NewExtractionInconsistencyError reports a method/trait target that
// could not be resolved against previously-collected declarations.
func NewExtractionInconsistencyError(msg, cause, fix string) *CoreError {
	return &CoreError{Message: msg, Cause: cause, Fix: fix, Kind: KindExtractionInconsistency}
}

// NewMigrationFailureError reports a schema migration that aborted
// partway through.
func NewMigrationFailureError(msg, cause, fix string, err error) *CoreError {
	return &CoreError{Message: msg, Cause: cause, Fix: fix, Kind: KindMigrationFailure, Err: err}
}

// NewContentionTimeoutError reports a transaction whose lock wait
// exceeded the busy timeout.
func NewContentionTimeoutError(msg, cause, fix string, err error) *CoreError {
	return &CoreError{Message: msg, Cause: cause, Fix: fix, Kind: KindContentionTimeout, Err: err}
}

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format renders the error for terminal display, with colored
// Error/Cause/Fix sections. Color is disabled when noColor is true or
// when NO_COLOR is set in the environment.
func (e *CoreError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}
	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}
	return out.String()
}

// JSON is the machine-readable rendering of a CoreError, suitable for an
// external collaborator (an RPC surface outside this module) to forward
// to its own clients.
type JSON struct {
	Error string `json:"error"`
	Cause string `json:"cause,omitempty"`
	Fix   string `json:"fix,omitempty"`
	Kind  Kind   `json:"kind"`
}

// ToJSON converts the CoreError to its JSON-serializable shape.
func (e *CoreError) ToJSON() JSON {
	return JSON{Error: e.Message, Cause: e.Cause, Fix: e.Fix, Kind: e.Kind}
}

// Encode writes the JSON rendering of err to w. It is a no-op if err is
// nil.
func Encode(w *json.Encoder, err error) error {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*CoreError); ok {
		return w.Encode(ce.ToJSON())
	}
	return w.Encode(JSON{Error: err.Error(), Kind: ""})
}

// IsFatal reports whether an error kind should abort the current
// operation rather than being absorbed and logged. Parse and
// extraction-consistency errors are not fatal; the rest are.
func IsFatal(err error) bool {
	ce, ok := err.(*CoreError)
	if !ok {
		return true
	}
	switch ce.Kind {
	case KindParseFailure, KindExtractionInconsistency:
		return false
	default:
		return true
	}
}
