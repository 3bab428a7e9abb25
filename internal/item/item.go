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

// Package item defines the normalized, language-neutral declaration
// record produced by the extractor and persisted by the store.
package item

// Kind classifies a declaration. Every extractor, regardless of source
// language, emits one of these.
type Kind string

const (
	KindStruct    Kind = "struct"
	KindEnum      Kind = "enum"
	KindInterface Kind = "trait"
	KindFunction  Kind = "function"
	KindTypeAlias Kind = "type_alias"
	KindConstant  Kind = "constant"
	KindModule    Kind = "module"
	KindMacro     Kind = "macro"
)

// Visibility is the declaration's access level. Go has no explicit
// export keyword, so visibility is derived from capitalization of the
// declaration's name.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPackage Visibility = "crate"
	VisibilityPrivate Visibility = "private"
)

// Field is a named, optionally-typed member of a record-like item.
type Field struct {
	Name       string
	Type       string
	Doc        string
	Visibility Visibility
}

// Method is a named, optionally-signatured member attached to a type
// via a receiver (Go's analog of an impl block).
type Method struct {
	Name       string
	Signature  string
	Doc        string
	Visibility Visibility
}

// Variant is one case of a sum-type-like declaration.
type Variant struct {
	Name   string
	Doc    string
	Fields []Field
}

// Item is the unit of indexed knowledge: one declaration, fully
// qualified, with its structural children attached.
//
// Invariants: Path is never empty and always contains at least the
// package name as a prefix. Variants is non-empty only when Kind is
// KindEnum. Fields is non-empty only for record-like kinds
// (KindStruct, KindEnum variant fields).
type Item struct {
	Path       string
	Kind       Kind
	Signature  string
	Doc        string
	Visibility Visibility
	Fields     []Field
	Methods    []Method
	Traits     []string
	Variants   []Variant
}

// IsExported reports whether the item's visibility makes it part of a
// package's public API surface.
func (i Item) IsExported() bool {
	return i.Visibility == VisibilityPublic
}

// PackageRef identifies a resolved dependency to be indexed: a name, a
// version, and the on-disk root of its source.
type PackageRef struct {
	Name     string
	Version  string
	RootPath string
}

// SourceFile is a transient descriptor for one file under a package
// root, carrying the module path its declarations should be qualified
// with.
type SourceFile struct {
	Package      PackageRef
	AbsolutePath string
	RelativePath string
	ModulePath   string
}
