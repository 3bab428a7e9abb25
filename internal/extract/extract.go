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

// Package extract walks a parsed Go syntax tree and emits normalized
// Item records for every top-level declaration.
//
// Extraction happens in two passes because a method's receiver type can
// be declared anywhere in the file relative to the method itself (and,
// in the general case the original design targets, an impl-equivalent
// block can precede its target type entirely). Pass one collects every
// named type, function, and constant declaration. Pass two walks
// receiver-bearing function declarations and attaches them to the
// type collected in pass one, then checks each concrete type's
// accumulated method set against every interface collected in pass one
// to decide which interfaces it structurally satisfies.
package extract

import (
	"context"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/godepindex/godepindex/internal/errtax"
	"github.com/godepindex/godepindex/internal/item"
	"github.com/godepindex/godepindex/internal/modulepath"
)

// Extractor parses Go source and emits Items. An Extractor owns its own
// tree-sitter parser and must not be shared between goroutines — each
// pipeline worker constructs its own, exactly as spec requires parser
// state to be thread-local.
type Extractor struct {
	parser *sitter.Parser
}

// New constructs an Extractor with its own dedicated parser instance.
func New() *Extractor {
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	return &Extractor{parser: p}
}

// Extract parses source and returns every exported declaration's Item,
// qualified under modulePath. An unparseable file yields an empty,
// non-error result: the caller should log and move on, per the
// extractor's best-effort failure semantics.
func (e *Extractor) Extract(source []byte, modulePath string) ([]item.Item, error) {
	tree, err := e.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, errtax.NewParseFailureError("failed to parse source", err.Error(), "", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	w := newWalker(source, modulePath)

	for i := 0; i < int(root.ChildCount()); i++ {
		w.collectTop(root.Child(i))
	}
	w.resolveEnums()
	for i := 0; i < int(root.ChildCount()); i++ {
		w.attachMethods(root.Child(i))
	}
	w.resolveTraits()

	out := make([]item.Item, 0, len(w.items))
	for _, it := range w.items {
		if it.exported {
			out = append(out, it.Item)
		}
	}
	return out, nil
}

// taggedItem pairs an Item with its extraction-only bookkeeping: the
// simple (unqualified) name used for method/trait resolution, and
// whether it was exported (kept in the walker's working set either
// way, since an unexported receiver type can still own methods
// contributing to an exported interface's satisfaction check).
type taggedItem struct {
	item.Item
	simpleName string
	exported   bool
}

type walker struct {
	src        []byte
	modulePath string
	items      []*taggedItem
	byName     map[string]*taggedItem // simple name -> concrete type or function
	interfaces map[string]*taggedItem // simple name -> interface (trait)
}

func newWalker(src []byte, modulePath string) *walker {
	return &walker{
		src:        src,
		modulePath: modulePath,
		byName:     make(map[string]*taggedItem),
		interfaces: make(map[string]*taggedItem),
	}
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(w.src[n.StartByte():n.EndByte()])
}

func exported(name string) bool {
	r := []rune(name)
	return len(r) > 0 && unicode.IsUpper(r[0])
}

func visibilityOf(name string) item.Visibility {
	if exported(name) {
		return item.VisibilityPublic
	}
	return item.VisibilityPrivate
}

// collectTop handles pass-one node kinds: type, const, and
// receiver-less function declarations.
func (w *walker) collectTop(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "type_declaration":
		w.collectTypeDeclaration(n)
	case "const_declaration":
		w.collectConstDeclaration(n)
	case "function_declaration":
		w.collectFunction(n)
	}
}

func (w *walker) collectTypeDeclaration(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		spec := n.NamedChild(i)
		switch spec.Type() {
		case "type_spec":
			w.collectTypeSpec(spec)
		case "type_alias":
			w.collectTypeAlias(spec)
		}
	}
}

func (w *walker) collectTypeSpec(spec *sitter.Node) {
	nameNode := spec.ChildByFieldName("name")
	typeNode := spec.ChildByFieldName("type")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	doc := w.docComment(spec.Parent())

	var kind item.Kind
	var fields []item.Field
	var methods []item.Method
	var sig string

	switch {
	case typeNode != nil && typeNode.Type() == "struct_type":
		kind = item.KindStruct
		fields = w.structFields(typeNode)
		sig = "type " + name + " struct"
	case typeNode != nil && typeNode.Type() == "interface_type":
		kind = item.KindInterface
		sig = "type " + name + " interface"
		for i := 0; i < int(typeNode.NamedChildCount()); i++ {
			elem := typeNode.NamedChild(i)
			if elem.Type() != "method_elem" && elem.Type() != "method_spec" {
				continue
			}
			if mName := elem.ChildByFieldName("name"); mName != nil {
				methods = append(methods, item.Method{
					Name: w.text(mName), Doc: w.docComment(elem), Visibility: visibilityOf(w.text(mName)),
				})
			}
		}
	default:
		// A named type over a non-struct, non-interface underlying
		// type. Provisionally a type alias; applyEnum reclassifies it
		// if a later const block with iota targets it.
		kind = item.KindTypeAlias
		sig = "type " + name + " " + w.text(typeNode)
	}

	it := &taggedItem{
		Item: item.Item{
			Path:       modulepath.Join(w.modulePath, name),
			Kind:       kind,
			Signature:  sig,
			Doc:        doc,
			Visibility: visibilityOf(name),
			Fields:     fields,
			Methods:    methods,
		},
		simpleName: name,
		exported:   exported(name),
	}
	w.items = append(w.items, it)
	w.byName[name] = it
	if kind == item.KindInterface {
		w.interfaces[name] = it
	}
}

func (w *walker) collectTypeAlias(spec *sitter.Node) {
	nameNode := spec.ChildByFieldName("name")
	typeNode := spec.ChildByFieldName("type")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	it := &taggedItem{
		Item: item.Item{
			Path:       modulepath.Join(w.modulePath, name),
			Kind:       item.KindTypeAlias,
			Signature:  "type " + name + " = " + w.text(typeNode),
			Doc:        w.docComment(spec.Parent()),
			Visibility: visibilityOf(name),
		},
		simpleName: name,
		exported:   exported(name),
	}
	w.items = append(w.items, it)
	w.byName[name] = it
}

func (w *walker) structFields(structType *sitter.Node) []item.Field {
	var fields []item.Field
	listNode := structType.ChildByFieldName("body")
	for i := 0; listNode == nil && i < int(structType.NamedChildCount()); i++ {
		if c := structType.NamedChild(i); c.Type() == "field_declaration_list" {
			listNode = c
		}
	}
	if listNode == nil {
		return nil
	}
	for i := 0; i < int(listNode.NamedChildCount()); i++ {
		fd := listNode.NamedChild(i)
		if fd.Type() != "field_declaration" {
			continue
		}
		nameNode := fd.ChildByFieldName("name")
		typeNode := fd.ChildByFieldName("type")
		if nameNode == nil {
			continue // embedded field with no explicit name; skip rather than guess
		}
		name := w.text(nameNode)
		fields = append(fields, item.Field{
			Name:       name,
			Type:       w.text(typeNode),
			Doc:        w.docComment(fd),
			Visibility: visibilityOf(name),
		})
	}
	return fields
}

func (w *walker) collectConstDeclaration(n *sitter.Node) {
	var typeName string
	var usesIota bool
	var variants []item.Variant
	var standalone []*sitter.Node

	for i := 0; i < int(n.NamedChildCount()); i++ {
		spec := n.NamedChild(i)
		if spec.Type() != "const_spec" {
			continue
		}
		valueNode := spec.ChildByFieldName("value")
		typeNode := spec.ChildByFieldName("type")
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := w.text(nameNode)

		if typeNode != nil {
			typeName = w.text(typeNode)
		}
		if valueNode != nil && strings.Contains(w.text(valueNode), "iota") {
			usesIota = true
		}
		variants = append(variants, item.Variant{Name: name, Doc: w.constSpecDoc(n, spec)})
		standalone = append(standalone, spec)
	}

	if usesIota && typeName != "" {
		w.applyEnum(typeName, variants)
		return
	}

	// Not an enum block: emit each const as its own constant item.
	for _, spec := range standalone {
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := w.text(nameNode)
		it := &taggedItem{
			Item: item.Item{
				Path:       modulepath.Join(w.modulePath, name),
				Kind:       item.KindConstant,
				Signature:  strings.TrimSpace("const " + w.text(spec)),
				Doc:        w.constSpecDoc(n, spec),
				Visibility: visibilityOf(name),
			},
			simpleName: name,
			exported:   exported(name),
		}
		w.items = append(w.items, it)
		w.byName[name] = it
	}
}

func (w *walker) applyEnum(typeName string, variants []item.Variant) {
	if it, ok := w.byName[typeName]; ok && it.Kind == item.KindTypeAlias {
		it.Kind = item.KindEnum
		it.Variants = append(it.Variants, variants...)
	}
}

// resolveEnums is a no-op placeholder kept for symmetry with the
// extractor's documented two-pass shape; enum resolution happens
// inline in collectConstDeclaration because Go requires the type to be
// declared before a const block can reference it in practice, unlike
// the impl-block ordering problem pass two solves.
func (w *walker) resolveEnums() {}

func (w *walker) collectFunction(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	it := &taggedItem{
		Item: item.Item{
			Path:       modulepath.Join(w.modulePath, name),
			Kind:       item.KindFunction,
			Signature:  w.funcSignature(n, name),
			Doc:        w.docComment(n),
			Visibility: visibilityOf(name),
		},
		simpleName: name,
		exported:   exported(name),
	}
	w.items = append(w.items, it)
	w.byName[name] = it
}

func (w *walker) funcSignature(n *sitter.Node, name string) string {
	var b strings.Builder
	b.WriteString("func ")
	b.WriteString(name)
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		b.WriteString(w.text(tp))
	}
	b.WriteString(w.text(n.ChildByFieldName("parameters")))
	if result := n.ChildByFieldName("result"); result != nil {
		b.WriteString(" ")
		b.WriteString(w.text(result))
	}
	return b.String()
}

// attachMethods is pass two: walk receiver-bearing function
// declarations (Go's impl-block equivalent) and append each public
// method to its receiver type's Item.
func (w *walker) attachMethods(n *sitter.Node) {
	if n == nil || n.Type() != "method_declaration" {
		return
	}
	nameNode := n.ChildByFieldName("name")
	receiverNode := n.ChildByFieldName("receiver")
	if nameNode == nil || receiverNode == nil {
		return
	}
	name := w.text(nameNode)
	receiverType := w.receiverTypeName(receiverNode)

	target, ok := w.byName[receiverType]
	if !ok {
		// The receiver points at a type this extractor never
		// collected (defined elsewhere, or a builtin alias). Drop
		// the method silently: it likely targets a foreign type.
		return
	}
	if !exported(name) {
		return // private methods are not API surface
	}

	sig := w.funcSignature(n, name)
	target.Methods = append(target.Methods, item.Method{
		Name:       name,
		Signature:  sig,
		Doc:        w.docComment(n),
		Visibility: item.VisibilityPublic,
	})
}

// receiverTypeName extracts the base type name from a method's
// receiver parameter list, stripping a leading pointer `*` and any
// generic type parameter list.
func (w *walker) receiverTypeName(receiver *sitter.Node) string {
	// receiver is a parameter_list with a single parameter_declaration
	// whose type is either a type_identifier or a pointer_type
	// wrapping one.
	for i := 0; i < int(receiver.NamedChildCount()); i++ {
		param := receiver.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		typeNode := param.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		t := typeNode
		if t.Type() == "pointer_type" {
			t = t.NamedChild(0)
		}
		if t == nil {
			continue
		}
		name := w.text(t)
		if idx := strings.IndexByte(name, '['); idx >= 0 {
			name = name[:idx] // strip generic instantiation, e.g. Box[T] -> Box
		}
		return name
	}
	return ""
}

// resolveTraits checks every concrete type's accumulated method set
// against every interface collected in pass one and records which
// interfaces it structurally satisfies. This is a name-only structural
// check (it does not compare method signatures), since a full
// type-checker is out of scope for a static AST walk.
func (w *walker) resolveTraits() {
	if len(w.interfaces) == 0 {
		return
	}
	for _, concrete := range w.items {
		if concrete.Kind == item.KindInterface {
			continue
		}
		methodSet := make(map[string]bool, len(concrete.Methods))
		for _, m := range concrete.Methods {
			methodSet[m.Name] = true
		}
		for ifaceName, iface := range w.interfaces {
			if ifaceName == concrete.simpleName {
				continue
			}
			if satisfies(methodSet, iface.Methods) {
				concrete.Traits = append(concrete.Traits, ifaceName)
			}
		}
	}
}

func satisfies(methodSet map[string]bool, required []item.Method) bool {
	if len(required) == 0 {
		return false // an empty interface is satisfied by everything; not informative
	}
	for _, m := range required {
		if !methodSet[m.Name] {
			return false
		}
	}
	return true
}

// constSpecDoc returns spec's doc comment. A parenthesized const block
// has each const_spec as a named child of decl, so its preceding
// comment is a sibling of spec itself. A single, unparenthesized const
// (`const Foo = 1`) has exactly one spec, which has no previous named
// sibling to check; its doc comment instead precedes decl.
func (w *walker) constSpecDoc(decl, spec *sitter.Node) string {
	if decl.NamedChildCount() == 1 {
		return w.docComment(decl)
	}
	return w.docComment(spec)
}

// docComment collects the contiguous run of line comments immediately
// preceding n, stopping at the first non-comment sibling. Leading
// comment markers are stripped and the remaining lines are joined with
// newlines, preserving paragraph breaks within the run.
func (w *walker) docComment(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	var lines []string
	cur := n.PrevNamedSibling()
	for cur != nil && cur.Type() == "comment" {
		lines = append(lines, stripCommentMarkers(w.text(cur)))
		cur = cur.PrevNamedSibling()
	}
	if len(lines) == 0 {
		return ""
	}
	// Comments were collected nearest-first; restore source order.
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func stripCommentMarkers(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "//"):
		return strings.TrimSpace(strings.TrimPrefix(s, "//"))
	case strings.HasPrefix(s, "/*") && strings.HasSuffix(s, "*/"):
		return strings.TrimSpace(s[2 : len(s)-2])
	default:
		return s
	}
}
