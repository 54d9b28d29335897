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
	"github.com/gdamore/xkbcommon/parser"
	"github.com/gdamore/xkbcommon/resolver"
)

// keycodesInfo is the keycodes sub-compiler's Info record.
type keycodesInfo struct {
	base
	atoms *keymap.AtomTable

	codeOf  map[keymap.Atom]uint32
	aliases map[keymap.Atom]keymap.Atom
	leds    map[int64]string
	min     *int64
	max     *int64
}

func newKeycodesInfo(atoms *keymap.AtomTable, logger *log.Logger) *keycodesInfo {
	return &keycodesInfo{
		base:    newBase(logger),
		atoms:   atoms,
		codeOf:  make(map[keymap.Atom]uint32),
		aliases: make(map[keymap.Atom]keymap.Atom),
		leds:    make(map[int64]string),
	}
}

// CompileKeycodes resolves and compiles the keycodes component named
// spec (possibly an "A+B|C" composite, exactly like a nested include
// spec) into b's KeycodeTable, LED-name reservations and keycode
// atoms.
func CompileKeycodes(b *keymap.KeymapBuilder, res *resolver.Resolver, spec string, logger *log.Logger) error {
	info := newKeycodesInfo(b.Atoms, logger)
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
		logCompileErrors(logger, "keycodes", err)
	}
	info.flushInto(b)
	return nil
}

func (info *keycodesInfo) loadAndMerge(res *resolver.Resolver, ref includeRef, depth int) error {
	if depth > MaxIncludeDepth {
		return ErrExceedsIncludeMaxDepth
	}
	f, parseErrs, err := loadFile(res, resolver.Keycodes, ref)
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

func (info *keycodesInfo) compileDecls(res *resolver.Resolver, decls []parser.Decl, enclosing parser.MergeMode, depth int) error {
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
		case parser.KeycodeDecl:
			info.defineKeycode(v, enclosing)
		case parser.AliasDecl:
			info.defineAlias(v, enclosing)
		case parser.IndicatorNameDecl:
			info.defineIndicatorName(v)
		case parser.VarDecl:
			info.applyVar(v)
		default:
			info.Log.Debug("keycodes: unknown statement kind skipped", "decl", fmt.Sprintf("%T", v))
		}
	}
	return nil
}

func (info *keycodesInfo) defineKeycode(d parser.KeycodeDecl, enclosing parser.MergeMode) {
	name := info.atoms.Intern(d.Name)
	mode := resolveMode(d.Merge, enclosing)
	if existing, ok := info.codeOf[name]; ok {
		if existing == uint32(d.Value) {
			return
		}
		if !shouldReplace(mode) {
			info.Log.Warn("conflicting_key_name_definitions: keeping earlier definition", "name", d.Name, "kept", existing, "dropped", d.Value)
			return
		}
		info.Log.Warn("conflicting_key_name_definitions: later definition wins", "name", d.Name, "dropped", existing, "kept", d.Value)
	}
	info.codeOf[name] = uint32(d.Value)
}

func (info *keycodesInfo) defineAlias(d parser.AliasDecl, enclosing parser.MergeMode) {
	alias := info.atoms.Intern(d.Alias)
	target := info.atoms.Intern(d.Target)
	mode := resolveMode(d.Merge, enclosing)
	if existing, ok := info.aliases[alias]; ok && existing != target {
		if !shouldReplace(mode) {
			return
		}
		info.Log.Warn("conflicting_key_alias_definitions", "alias", d.Alias, "kept", d.Target, "dropped", info.atoms.Text(existing))
	}
	info.aliases[alias] = target
}

func (info *keycodesInfo) defineIndicatorName(d parser.IndicatorNameDecl) {
	if d.Index < 1 || d.Index > keymap.MaxIndicators {
		info.fail(fmt.Errorf("xkbcomp: indicator index %d out of range 1..%d", d.Index, keymap.MaxIndicators))
		return
	}
	info.leds[d.Index] = d.Name
}

func (info *keycodesInfo) applyVar(d parser.VarDecl) {
	switch d.Lhs {
	case "minimum":
		if v, ok := intLit(d.Rhs); ok {
			info.min = &v
		}
	case "maximum":
		if v, ok := intLit(d.Rhs); ok {
			info.max = &v
		}
	default:
		info.Log.Debug("keycodes: ignoring unrecognized top-level var", "name", d.Lhs)
	}
}

func intLit(e parser.Expr) (int64, bool) {
	if i, ok := e.(parser.IntLit); ok {
		return i.Value, true
	}
	return 0, false
}

// flushInto writes the accumulated keycode/alias/LED tables into the
// shared builder.
func (info *keycodesInfo) flushInto(b *keymap.KeymapBuilder) {
	for name, code := range info.codeOf {
		b.Keycodes.Define(code, name)
		kb := b.KeyFor(code)
		kb.Name = name
	}
	for alias, target := range info.aliases {
		b.Keycodes.AddAlias(target, alias)
	}
	for idx, name := range info.leds {
		if b.Indicators[idx-1] == nil {
			b.Indicators[idx-1] = &keymap.Indicator{Name: b.Atoms.Intern(name)}
		}
	}
}

func logCompileErrors(logger *log.Logger, section string, err error) {
	if logger == nil || err == nil {
		return
	}
	logger.Warn("recoverable errors during section compile", "section", section, "err", err)
}
