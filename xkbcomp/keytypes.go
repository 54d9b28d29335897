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
	"strings"

	"github.com/charmbracelet/log"

	"github.com/gdamore/xkbcommon/keymap"
	"github.com/gdamore/xkbcommon/parser"
	"github.com/gdamore/xkbcommon/resolver"
)

type pendingType struct {
	name       string
	mods       keymap.ModMask
	modsSet    bool
	entries    []keymap.KeyTypeEntry
	levelNames map[int]keymap.Atom
}

// typesInfo is the KeyTypes sub-compiler's Info record.
type typesInfo struct {
	base
	b      *keymap.KeymapBuilder
	order  []string
	types  map[string]*pendingType
}

func newTypesInfo(b *keymap.KeymapBuilder, logger *log.Logger) *typesInfo {
	return &typesInfo{base: newBase(logger), b: b, types: make(map[string]*pendingType)}
}

// CompileTypes resolves and compiles the types component named spec
// into b's type table.
func CompileTypes(b *keymap.KeymapBuilder, res *resolver.Resolver, spec string, logger *log.Logger) error {
	info := newTypesInfo(b, logger)
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
		logCompileErrors(logger, "types", err)
	}
	info.flushInto(b)
	return nil
}

func (info *typesInfo) loadAndMerge(res *resolver.Resolver, ref includeRef, depth int) error {
	if depth > MaxIncludeDepth {
		return ErrExceedsIncludeMaxDepth
	}
	f, parseErrs, err := loadFile(res, resolver.Types, ref)
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

func (info *typesInfo) compileDecls(res *resolver.Resolver, decls []parser.Decl, enclosing parser.MergeMode, depth int) error {
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
			info.defineVMods(v)
		case parser.TypeDecl:
			info.defineType(v, enclosing)
		default:
			info.Log.Debug("types: unknown statement kind skipped", "decl", fmt.Sprintf("%T", v))
		}
	}
	return nil
}

func (info *typesInfo) defineVMods(v parser.VModDecl) {
	for _, name := range v.Names {
		atom := info.b.Atoms.Intern(name)
		idx, err := info.b.Mods.EnsureVirtual(atom)
		if err != nil {
			info.fail(err)
			continue
		}
		if init, ok := v.Inits[name]; ok {
			mask := info.evalModExpr(init)
			info.b.Mods.SetMapping(idx, mask)
		}
	}
}

func (info *typesInfo) defineType(v parser.TypeDecl, enclosing parser.MergeMode) {
	mode := resolveMode(v.Merge, enclosing)
	pt, exists := info.types[v.Name]
	if exists {
		if !shouldReplace(mode) {
			info.Log.Warn("conflicting_key_type_definitions: keeping earlier definition", "name", v.Name)
			return
		}
		info.Log.Warn("conflicting_key_type_definitions: later definition wins", "name", v.Name)
	}
	pt = &pendingType{name: v.Name, levelNames: make(map[int]keymap.Atom)}
	info.types[v.Name] = pt
	if !exists {
		info.order = append(info.order, v.Name)
	}

	for _, bd := range v.Body {
		info.applyTypeBodyStmt(pt, bd)
	}
	if !pt.modsSet {
		pt.mods = 0
	}
}

func (info *typesInfo) applyTypeBodyStmt(pt *pendingType, d parser.Decl) {
	switch v := d.(type) {
	case parser.VarDecl:
		switch {
		case v.Lhs == "modifiers":
			if pt.modsSet {
				info.Log.Warn("multiple 'modifiers' statements in type, later wins", "type", pt.name)
			}
			pt.mods = info.evalModExpr(v.Rhs)
			pt.modsSet = true
		case v.Lhs == "type.*" || strings.HasPrefix(v.Lhs, "type."):
			info.fail(fmt.Errorf("xkbcomp: global_defaults_wrong_scope: %q inside type %q", v.Lhs, pt.name))
		default:
			info.fail(fmt.Errorf("xkbcomp: unknown_field: %q in type %q", v.Lhs, pt.name))
		}
	case parser.MapEntryDecl:
		info.applyMapEntry(pt, v)
	case parser.PreserveDecl:
		info.applyPreserve(pt, v)
	case parser.LevelNameDecl:
		info.applyLevelName(pt, v)
	default:
		info.Log.Debug("types: unhandled type-body statement", "decl", fmt.Sprintf("%T", v))
	}
}

func (info *typesInfo) applyMapEntry(pt *pendingType, v parser.MapEntryDecl) {
	mods := info.evalModExpr(v.Mods)
	masked := mods &^ pt.mods
	if masked != 0 {
		info.Log.Warn("map entry references modifiers outside type.modifiers, masked off", "type", pt.name)
		mods &= pt.mods
	}
	level := info.evalLevel(v.Level)
	if level < 0 {
		info.fail(fmt.Errorf("xkbcomp: unsupported_shift_level in type %q", pt.name))
		return
	}
	if e, ok := findEntryByMods(pt.entries, mods); ok {
		e.Level = level
		return
	}
	pt.entries = append(pt.entries, keymap.KeyTypeEntry{
		Mods:  keymap.Mods{Mods: mods},
		Level: level,
	})
}

func findEntryByMods(entries []keymap.KeyTypeEntry, mods keymap.ModMask) (*keymap.KeyTypeEntry, bool) {
	for i := range entries {
		if entries[i].Mods.Mods == mods {
			return &entries[i], true
		}
	}
	return nil, false
}

func (info *typesInfo) applyPreserve(pt *pendingType, v parser.PreserveDecl) {
	idx := info.evalModExpr(v.Index)
	pres := info.evalModExpr(v.Preserve)
	masked := pres &^ idx
	if masked != 0 {
		info.Log.Warn("preserve references modifiers outside the index mask, masked off", "type", pt.name)
		pres &= idx
	}
	e, ok := findEntryByMods(pt.entries, idx)
	if !ok {
		pt.entries = append(pt.entries, keymap.KeyTypeEntry{Mods: keymap.Mods{Mods: idx}, Level: 0})
		e = &pt.entries[len(pt.entries)-1]
	}
	e.Preserve = keymap.Mods{Mods: pres}
}

func (info *typesInfo) applyLevelName(pt *pendingType, v parser.LevelNameDecl) {
	level := info.evalLevel(v.Level)
	if level < 0 {
		info.fail(fmt.Errorf("xkbcomp: unsupported_shift_level naming type %q", pt.name))
		return
	}
	newName := info.b.Atoms.Intern(v.Name)
	if existing, ok := pt.levelNames[level]; ok {
		if existing == newName {
			info.Log.Warn("duplicate level_name, dropped", "type", pt.name, "level", level+1)
			return
		}
		info.Log.Warn("conflicting level_name, later wins", "type", pt.name, "level", level+1)
	}
	pt.levelNames[level] = newName
}

// evalLevel resolves "LevelN" identifiers or bare integers to a
// 0-based level index.
func (info *typesInfo) evalLevel(e parser.Expr) int {
	switch v := e.(type) {
	case parser.IntLit:
		return int(v.Value) - 1
	case parser.Ident:
		n := levelSuffix(v.Name)
		if n > 0 {
			return n - 1
		}
	}
	return -1
}

func levelSuffix(s string) int {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return 0
	}
	n := 0
	for _, c := range s[i:] {
		n = n*10 + int(c-'0')
	}
	return n
}

// evalModExpr evaluates a modifier-mask expression: identifiers name
// real or virtual modifiers (creating the virtual modifier if unseen),
// "+" concatenates (union), "None"/"NoSymbol" is 0, and integers are
// taken as a literal mask.
func (info *typesInfo) evalModExpr(e parser.Expr) keymap.ModMask {
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

func (info *typesInfo) modByName(name string) keymap.ModMask {
	switch name {
	case "None", "NoSymbol":
		return 0
	case "Shift":
		return keymap.ModShift
	case "Lock":
		return keymap.ModLock
	case "Control":
		return keymap.ModControl
	case "Mod1":
		return keymap.ModMod1
	case "Mod2":
		return keymap.ModMod2
	case "Mod3":
		return keymap.ModMod3
	case "Mod4":
		return keymap.ModMod4
	case "Mod5":
		return keymap.ModMod5
	}
	atom := info.b.Atoms.Intern(name)
	idx, err := info.b.Mods.EnsureVirtual(atom)
	if err != nil {
		info.fail(fmt.Errorf("xkbcomp: undeclared_modifiers_in_key_type: %q: %w", name, err))
		return 0
	}
	return keymap.ModMask(1) << uint(idx)
}

func pendingNumLevels(pt *pendingType) int {
	n := 1
	for _, e := range pt.entries {
		if e.Level+1 > n {
			n = e.Level + 1
		}
	}
	for lvl := range pt.levelNames {
		if lvl+1 > n {
			n = lvl + 1
		}
	}
	return n
}

func (info *typesInfo) flushInto(b *keymap.KeymapBuilder) {
	for _, name := range info.order {
		pt := info.types[name]
		kt := &keymap.KeyType{
			Name:       b.Atoms.Intern(pt.name),
			Mods:       pt.mods,
			NumLevels:  pendingNumLevels(pt),
			Entries:    pt.entries,
			LevelNames: pt.levelNames,
		}
		b.AddType(kt)
	}
}
