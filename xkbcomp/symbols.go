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

package xkbcomp

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/gdamore/xkbcommon/keymap"
	"github.com/gdamore/xkbcommon/keysym"
	"github.com/gdamore/xkbcommon/parser"
	"github.com/gdamore/xkbcommon/resolver"
)

type pendingGroup struct {
	typeName string
	syms     [][]keysym.Keysym
	actions  [][]keymap.Action
}

type pendingKey struct {
	name     string
	groups   map[int]*pendingGroup
	vmods    keymap.ModMask
	repeat   *bool
	overlays map[int]string
}

// symbolsInfo is the Symbols sub-compiler's Info record.
type symbolsInfo struct {
	base
	b *keymap.KeymapBuilder

	keyOrder []string
	keys     map[string]*pendingKey

	modMap map[string]keymap.ModMask // keyname -> real mod bits contributed
}

func newSymbolsInfo(b *keymap.KeymapBuilder, logger *log.Logger) *symbolsInfo {
	return &symbolsInfo{
		base:   newBase(logger),
		b:      b,
		keys:   make(map[string]*pendingKey),
		modMap: make(map[string]keymap.ModMask),
	}
}

// CompileSymbols resolves and compiles the symbols component named
// spec into b's key table and per-key modifier maps. Key-to-type
// references are stored by name and resolved later, in Finalize.
func CompileSymbols(b *keymap.KeymapBuilder, res *resolver.Resolver, spec string, logger *log.Logger) error {
	info := newSymbolsInfo(b, logger)
	refs, err := parseIncludeSpec(spec)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if err := info.loadAndMerge(res, ref, 0); err != nil {
			return err
		}
	}
	if err := info.ok(); err != nil {
		if info.UnrecoverableErr != nil {
			return err
		}
		logCompileErrors(logger, "symbols", err)
	}
	info.flushInto(b)
	return nil
}

func (info *symbolsInfo) loadAndMerge(res *resolver.Resolver, ref includeRef, depth int) error {
	if depth > MaxIncludeDepth {
		return ErrExceedsIncludeMaxDepth
	}
	f, parseErrs, err := loadFile(res, resolver.Symbols, ref)
	if err != nil {
		return err
	}
	for _, e := range parseErrs {
		info.fail(e)
	}
	enclosing := resolveMode(f.Merge, ref.Merge)
	if enclosing == parser.MergeDefault {
		enclosing = parser.MergeOverride
	}
	return info.compileDecls(res, f.Decls, enclosing, depth)
}

func (info *symbolsInfo) compileDecls(res *resolver.Resolver, decls []parser.Decl, enclosing parser.MergeMode, depth int) error {
	for _, d := range decls {
		if info.UnrecoverableErr != nil {
			return info.UnrecoverableErr
		}
		switch v := d.(type) {
		case parser.IncludeDecl:
			refs, err := parseIncludeSpec(v.Spec)
			if err != nil {
				info.fail(err)
				continue
			}
			for _, ref := range refs {
				ref.Merge = resolveMode(v.Merge, enclosing)
				if err := info.loadAndMerge(res, ref, depth+1); err != nil {
					if err == ErrExceedsIncludeMaxDepth {
						return err
					}
					info.fail(err)
				}
			}
		case parser.VModDecl:
			for _, name := range v.Names {
				atom := info.b.Atoms.Intern(name)
				idx, err := info.b.Mods.EnsureVirtual(atom)
				if err != nil {
					info.fail(err)
					continue
				}
				if init, ok := v.Inits[name]; ok {
					info.b.Mods.SetMapping(idx, info.evalModExpr(init))
				}
			}
		case parser.KeyDecl:
			info.defineKey(v, enclosing)
		case parser.ModMapDecl:
			info.defineModMap(v)
		default:
			info.Log.Debug("symbols: unknown statement kind skipped", "decl", fmt.Sprintf("%T", v))
		}
	}
	return nil
}

func (info *symbolsInfo) defineKey(v parser.KeyDecl, enclosing parser.MergeMode) {
	mode := resolveMode(v.Merge, enclosing)
	pk, exists := info.keys[v.Name]
	if exists && !shouldReplace(mode) {
		info.Log.Warn("conflicting_key_definitions: keeping earlier", "key", v.Name)
		return
	}
	if !exists {
		pk = &pendingKey{name: v.Name, groups: make(map[int]*pendingGroup), overlays: make(map[int]string)}
		info.keyOrder = append(info.keyOrder, v.Name)
		info.keys[v.Name] = pk
	} else if shouldReplace(mode) {
		info.Log.Warn("conflicting_key_definitions: later wins", "key", v.Name)
		pk = &pendingKey{name: v.Name, groups: make(map[int]*pendingGroup), overlays: make(map[int]string)}
		info.keys[v.Name] = pk
	}

	for _, bd := range v.Body {
		info.applyKeyBodyStmt(pk, bd)
	}
}

func (info *symbolsInfo) applyKeyBodyStmt(pk *pendingKey, d parser.Decl) {
	switch v := d.(type) {
	case parser.GroupArrayDecl:
		group := v.Group
		if group == 0 {
			group = 1
		}
		pg := info.groupFor(pk, group)
		if v.Field == "symbols" {
			pg.syms = append(pg.syms, info.evalSymsArray(v.Elems))
		} else {
			pg.actions = append(pg.actions, info.evalActionsArray(v.Elems))
		}
	case parser.VarDecl:
		info.applyKeyVar(pk, v)
	default:
		info.Log.Debug("symbols: unhandled key-body statement", "decl", fmt.Sprintf("%T", v))
	}
}

func (info *symbolsInfo) groupFor(pk *pendingKey, group int) *pendingGroup {
	pg, ok := pk.groups[group]
	if !ok {
		pg = &pendingGroup{}
		pk.groups[group] = pg
	}
	return pg
}

func (info *symbolsInfo) applyKeyVar(pk *pendingKey, v parser.VarDecl) {
	switch {
	case v.Lhs == "type" && v.Index == nil:
		if s, ok := v.Rhs.(parser.StringLit); ok {
			info.groupFor(pk, 1).typeName = s.Value
		}
	case v.Lhs == "virtualmods" || v.Lhs == "virtualMods":
		pk.vmods = info.evalModExpr(v.Rhs)
	case v.Lhs == "repeat":
		b := evalBool(v.Rhs)
		pk.repeat = &b
	case hasGroupIndex(v.Lhs, v.Index):
		group := info.groupIndexOf(v.Index)
		if s, ok := v.Rhs.(parser.StringLit); ok {
			info.groupFor(pk, group).typeName = s.Value
		}
	case isOverlayField(v.Lhs):
		n := overlayNumber(v.Lhs)
		if kn, ok := v.Rhs.(parser.KeyNameExpr); ok {
			pk.overlays[n] = kn.Name
		}
	default:
		info.Log.Debug("symbols: unknown key field", "field", v.Lhs)
	}
}

func hasGroupIndex(lhs string, idx parser.Expr) bool {
	return lhs == "type" && idx != nil
}

func (info *symbolsInfo) groupIndexOf(e parser.Expr) int {
	if id, ok := e.(parser.Ident); ok {
		if n := levelSuffix(id.Name); n > 0 {
			return n
		}
	}
	if i, ok := e.(parser.IntLit); ok {
		return int(i.Value)
	}
	return 1
}

func isOverlayField(lhs string) bool {
	return len(lhs) > 7 && lhs[:7] == "overlay"
}

func overlayNumber(lhs string) int {
	return levelSuffix(lhs)
}

// evalSymsArray resolves a "[Sym1, Sym2, ...]" list to keysyms,
// accepting named keysyms and the numeric-literal form (a single
// digit is the digit keysym, larger values are raw keysym numbers).
func (info *symbolsInfo) evalSymsArray(elems []parser.Expr) []keysym.Keysym {
	out := make([]keysym.Keysym, len(elems))
	for i, e := range elems {
		switch v := e.(type) {
		case parser.Ident:
			if v.Name == "NoSymbol" {
				out[i] = keysym.NoSymbol
				continue
			}
			sym, ok := keysym.FromName(v.Name)
			if !ok {
				info.fail(fmt.Errorf("xkbcomp: unknown keysym name %q", v.Name))
				continue
			}
			out[i] = sym
		case parser.IntLit:
			// A single digit in symbol position is the digit keysym;
			// anything larger is a raw keysym value.
			if v.Value >= 0 && v.Value < 10 {
				out[i] = keysym.Keysym('0' + v.Value)
			} else {
				out[i] = keysym.Keysym(v.Value)
			}
		default:
			info.fail(fmt.Errorf("xkbcomp: unsupported symbol expression in key block"))
		}
	}
	return out
}

func (info *symbolsInfo) evalActionsArray(elems []parser.Expr) []keymap.Action {
	out := make([]keymap.Action, len(elems))
	for i, e := range elems {
		out[i] = parseAction(e)
	}
	return out
}

func (info *symbolsInfo) defineModMap(v parser.ModMapDecl) {
	mask := info.modByName(v.ModName)
	for _, kn := range v.Keys {
		info.modMap[kn] |= mask
	}
}

func (info *symbolsInfo) modByName(name string) keymap.ModMask {
	return modNameToMask(info.b, name, info)
}

func (info *symbolsInfo) evalModExpr(e parser.Expr) keymap.ModMask {
	if e == nil {
		return 0
	}
	switch v := e.(type) {
	case parser.Ident:
		return info.modByName(v.Name)
	case parser.IntLit:
		return keymap.ModMask(v.Value)
	case parser.Binary:
		return info.evalModExpr(v.Lhs) | info.evalModExpr(v.Rhs)
	default:
		return 0
	}
}

// flushInto writes every pending key into the builder: group/level
// padding, type resolution and the canonical-type heuristic for groups
// that name no type are all deferred to keymap.Finalize.
func (info *symbolsInfo) flushInto(b *keymap.KeymapBuilder) {
	for _, name := range info.keyOrder {
		pk := info.keys[name]
		atom := b.Atoms.Intern(pk.name)
		code, ok := b.Keycodes.Code(atom)
		if !ok {
			// No keycodes-section definition for this key name: the
			// key still needs a stable identity, so mint one by
			// borrowing the next unused code above anything seen so
			// far.
			code = syntheticCode(b)
			b.Keycodes.Define(code, atom)
		}
		kb := b.KeyFor(code)
		kb.Name = atom
		kb.VModMap = pk.vmods
		if pk.repeat != nil {
			kb.Repeats = *pk.repeat
		}
		kb.ModMap |= info.modMap[pk.name]

		numGroups := 0
		for g := range pk.groups {
			if g > numGroups {
				numGroups = g
			}
		}
		if numGroups == 0 {
			numGroups = 1
		}
		kb.Groups = make([]keymap.KeyGroupBuilder, numGroups)

		var lastNonEmpty *keymap.KeyGroupBuilder
		for g := 1; g <= numGroups; g++ {
			pg, has := pk.groups[g]
			gb := &kb.Groups[g-1]
			if !has {
				// Gap group: default-fill from the previous explicit
				// group, or leave TypeName unset so Finalize infers a
				// one-level NoSymbol type for it.
				if lastNonEmpty != nil {
					*gb = *lastNonEmpty
				} else {
					gb.Levels = []keymap.KeyLevel{{}}
				}
				continue
			}
			if pg.typeName != "" {
				gb.TypeName = b.Atoms.Intern(pg.typeName)
			}
			gb.Levels = mergeLevels(pg)
			lastNonEmpty = gb
		}
	}

	for keyName, mods := range info.modMap {
		atom := b.Atoms.Intern(keyName)
		code, ok := b.Keycodes.Code(atom)
		if !ok {
			continue
		}
		kb := b.KeyFor(code)
		kb.ModMap |= mods
	}
}

func syntheticCode(b *keymap.KeymapBuilder) uint32 {
	max := uint32(0)
	for _, c := range b.Keycodes.Codes() {
		if c > max {
			max = c
		}
	}
	return max + 1
}

func mergeLevels(pg *pendingGroup) []keymap.KeyLevel {
	n := 0
	for _, row := range pg.syms {
		if len(row) > n {
			n = len(row)
		}
	}
	for _, row := range pg.actions {
		if len(row) > n {
			n = len(row)
		}
	}
	if n == 0 {
		n = 1
	}
	levels := make([]keymap.KeyLevel, n)
	if len(pg.syms) > 0 {
		row := pg.syms[len(pg.syms)-1]
		for i := range levels {
			if i < len(row) {
				levels[i].Syms = []keysym.Keysym{row[i]}
			}
		}
	}
	if len(pg.actions) > 0 {
		row := pg.actions[len(pg.actions)-1]
		for i := range levels {
			if i < len(row) {
				levels[i].Action = row[i]
			}
		}
	}
	return levels
}
