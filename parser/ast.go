// Copyright 2026 The xkbcommon-go Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package parser turns a lexer.Token stream into a declaration AST: one
// File per component, carrying merge-mode flags, and a flat list of
// Decls the five sub-compilers in package xkbcomp dispatch over by
// concrete type.
package parser

import "github.com/gdamore/xkbcommon/lexer"

// MergeMode is the per-declaration merge tag.
type MergeMode int

const (
	MergeDefault MergeMode = iota
	MergeAugment
	MergeOverride
	MergeReplace
)

func (m MergeMode) String() string {
	switch m {
	case MergeAugment:
		return "augment"
	case MergeOverride:
		return "override"
	case MergeReplace:
		return "replace"
	default:
		return "default"
	}
}

// FileKind names which xkb_<kind> block a File holds.
type FileKind int

const (
	KindKeycodes FileKind = iota
	KindTypes
	KindCompat
	KindSymbols
	KindGeometry
	KindKeymap
)

// File is one parsed component file: the `keywords* xkb_<kind> "name"
// { decls };` production.
type File struct {
	Kind    FileKind
	Name    string
	Partial bool
	Hidden  bool
	Default bool
	Merge   MergeMode
	Decls   []Decl

	// Keymap-only: a multi-section xkb_keymap file nests one File per
	// section; Sections is non-empty only when Kind==KindKeymap.
	Sections []*File
}

// Decl is any top-level statement inside a component body.
type Decl interface{ declNode() }

// Expr is any value expression: identifiers, literals, key names,
// parenthesized/level references, binary +, and symbol/action arrays.
type Expr interface{ exprNode() }

// --- expressions ---------------------------------------------------------

type Ident struct{ Name string }
type KeyNameExpr struct{ Name string }
type StringLit struct{ Value string }
type IntLit struct{ Value int64 }
type FloatLit struct{ Value float64 }

// Binary represents an "A+B" mask expression; the parser builds it only
// for '+', so Op is always lexer.Plus.
type Binary struct {
	Op       lexer.Kind
	Lhs, Rhs Expr
}

// Array is a bracketed list: "[ e1, e2, ... ]".
type Array struct{ Elems []Expr }

// Call represents a parenthesized application used for action
// expressions: Name(arg1, arg2=val, ...).
type Call struct {
	Name string
	Args []Expr
}

// KeyValueArg is "name = expr" or "name" (bare) inside a Call's args.
type KeyValueArg struct {
	Name  string
	Value Expr // nil if bare
}

func (Ident) exprNode()       {}
func (KeyNameExpr) exprNode() {}
func (StringLit) exprNode()   {}
func (IntLit) exprNode()      {}
func (FloatLit) exprNode()    {}
func (Binary) exprNode()      {}
func (Array) exprNode()       {}
func (Call) exprNode()        {}
func (KeyValueArg) exprNode() {}

// --- declarations ---------------------------------------------------------

// IncludeDecl is "include <spec>;": the spec string's own "A|B:foo+C"
// operator grammar is parsed by xkbcomp's parseIncludeSpec, not here, since it
// is a sub-compiler-level concern (needs the File Resolver).
type IncludeDecl struct {
	Spec  string
	Merge MergeMode
}

// VModDecl is "virtual_modifiers Name1, Name2 = value, ...;" — a name
// may optionally be pre-bound to a real-modifier mask expression.
type VModDecl struct {
	Names []string
	Inits map[string]Expr
	Merge MergeMode
}

// VarDecl is a generic "lhs = rhs;" field assignment, used inside type/
// interpret/indicator/key bodies and for keycodes' advisory
// minimum/maximum statements. Index is non-nil for "lhs[index] = rhs;".
type VarDecl struct {
	Lhs   string
	Index Expr // e.g. a group/level/mod-mask subscript; nil if none
	Rhs   Expr
	Merge MergeMode
}

// KeycodeDecl is "<NAME> = integer;" inside xkb_keycodes.
type KeycodeDecl struct {
	Name  string
	Value int64
	Merge MergeMode
}

// AliasDecl is "alias <A> = <B>;".
type AliasDecl struct {
	Alias, Target string
	Merge         MergeMode
}

// IndicatorNameDecl is "indicator N = \"name\";" inside xkb_keycodes
// (reserves an LED slot; distinct from compat's IndicatorDecl body).
type IndicatorNameDecl struct {
	Index int64
	Name  string
	Merge MergeMode
}

// TypeDecl is "[partial] type \"NAME\" { ... };" inside xkb_types.
type TypeDecl struct {
	Name  string
	Body  []Decl // VarDecl, MapEntryDecl, PreserveDecl, LevelNameDecl
	Merge MergeMode
}

// MapEntryDecl is "map[<mods>] = Level<n>;".
type MapEntryDecl struct {
	Mods  Expr
	Level Expr
	Merge MergeMode
}

// PreserveDecl is "preserve[<mods>] = <mods>;".
type PreserveDecl struct {
	Index    Expr
	Preserve Expr
	Merge    MergeMode
}

// LevelNameDecl is "level_name[<n>] = \"text\";".
type LevelNameDecl struct {
	Level Expr
	Name  string
	Merge MergeMode
}

// InterpretDecl is "interpret <sym-or-Any> [+ <mods-pattern>] { ... };".
type InterpretDecl struct {
	Sym   Expr // Ident("Any") or a keysym name/number
	Mods  Expr // may be nil if no "+ pattern" given
	Body  []Decl
	Merge MergeMode
}

// IndicatorDecl is "indicator \"name\" { ... };" inside xkb_compatibility.
type IndicatorDecl struct {
	Name  string
	Body  []Decl
	Merge MergeMode
}

// KeyDecl is "key <NAME> { ... };" inside xkb_symbols.
type KeyDecl struct {
	Name  string
	Body  []Decl // VarDecl, GroupArrayDecl
	Merge MergeMode
}

// GroupArrayDecl is "symbols[GroupN] = [ ... ];" or
// "actions[GroupN] = [ ... ];".
type GroupArrayDecl struct {
	Field string // "symbols" or "actions"
	Group int    // 1-based; 0 means "no explicit group given"
	Elems []Expr
	Merge MergeMode
}

// ModMapDecl is "modifier_map Name { <k1>, <k2>, ... };".
type ModMapDecl struct {
	ModName string
	Keys    []string
	Merge   MergeMode
}

// GeometryDecl wraps an opaque, balanced `{ ... }` body from the
// geometry section: recognized and discarded, never interpreted.
type GeometryDecl struct{ Raw string }

func (IncludeDecl) declNode()       {}
func (VModDecl) declNode()          {}
func (VarDecl) declNode()           {}
func (KeycodeDecl) declNode()       {}
func (AliasDecl) declNode()         {}
func (IndicatorNameDecl) declNode() {}
func (TypeDecl) declNode()          {}
func (MapEntryDecl) declNode()      {}
func (PreserveDecl) declNode()      {}
func (LevelNameDecl) declNode()     {}
func (InterpretDecl) declNode()     {}
func (IndicatorDecl) declNode()     {}
func (KeyDecl) declNode()           {}
func (GroupArrayDecl) declNode()    {}
func (ModMapDecl) declNode()        {}
func (GeometryDecl) declNode()      {}
