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

type interpretKey struct {
	sym      keysym.Keysym
	hasSym   bool
	modsMask keymap.ModMask
	matchOp  keymap.MatchOp
}

type pendingIndicator struct {
	name        string
	whichMods   keymap.WhichState
	mods        keymap.ModMask
	whichGroups keymap.WhichState
	groupsMask  uint32
	ctrls       uint32
	flags       keymap.IndicatorFlags
}

// compatInfo is the Compat sub-compiler's Info record.
type compatInfo struct {
	base
	b *keymap.KeymapBuilder

	order      []interpretKey
	interprets map[interpretKey]*keymap.Interpret

	indicatorOrder []string
	indicators     map[string]*pendingIndicator
}

func newCompatInfo(b *keymap.KeymapBuilder, logger *log.Logger) *compatInfo {
	return &compatInfo{
		base:       newBase(logger),
		b:          b,
		interprets: make(map[interpretKey]*keymap.Interpret),
		indicators: make(map[string]*pendingIndicator),
	}
}

// CompileCompat resolves and compiles the compat component named spec
// into b's interpret list and indicator table.
func CompileCompat(b *keymap.KeymapBuilder, res *resolver.Resolver, spec string, logger *log.Logger) error {
	info := newCompatInfo(b, logger)
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
		logCompileErrors(logger, "compat", err)
	}
	info.flushInto(b)
	return nil
}

func (info *compatInfo) loadAndMerge(res *resolver.Resolver, ref includeRef, depth int) error {
	if depth > MaxIncludeDepth {
		return ErrExceedsIncludeMaxDepth
	}
	f, parseErrs, err := loadFile(res, resolver.Compat, ref)
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

func (info *compatInfo) compileDecls(res *resolver.Resolver, decls []parser.Decl, enclosing parser.MergeMode, depth int) error {
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
		case parser.InterpretDecl:
			info.defineInterpret(v, enclosing)
		case parser.IndicatorDecl:
			info.defineIndicator(v, enclosing)
		default:
			info.Log.Debug("compat: unknown statement kind skipped", "decl", fmt.Sprintf("%T", v))
		}
	}
	return nil
}

func (info *compatInfo) defineVMods(v parser.VModDecl) {
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
}

func (info *compatInfo) defineInterpret(v parser.InterpretDecl, enclosing parser.MergeMode) {
	mode := resolveMode(v.Merge, enclosing)
	key := interpretKey{matchOp: keymap.MatchAny}
	if id, ok := v.Sym.(parser.Ident); !ok || id.Name != "Any" {
		sym, ok := info.evalKeysym(v.Sym)
		if !ok {
			info.fail(fmt.Errorf("xkbcomp: interpret references unknown keysym"))
			return
		}
		key.sym, key.hasSym = sym, true
	}
	if v.Mods != nil {
		mask, op := info.evalModsPattern(v.Mods)
		key.modsMask, key.matchOp = mask, op
	}

	it := &keymap.Interpret{
		VirtualMod: -1,
	}
	if key.hasSym {
		s := key.sym
		it.Sym = &s
	}
	it.ModsMask = key.modsMask
	it.MatchOp = key.matchOp

	for _, bd := range v.Body {
		vd, ok := bd.(parser.VarDecl)
		if !ok {
			continue
		}
		info.applyInterpretField(it, vd)
	}

	if existing, ok := info.interprets[key]; ok {
		if !shouldReplace(mode) {
			info.Log.Warn("conflicting_interpret_definitions: keeping earlier", "sym", key.sym)
			return
		}
		info.Log.Warn("conflicting_interpret_definitions: later wins", "sym", key.sym)
		*existing = *it
		return
	}
	info.interprets[key] = it
	info.order = append(info.order, key)
}

func (info *compatInfo) applyInterpretField(it *keymap.Interpret, v parser.VarDecl) {
	switch v.Lhs {
	case "action":
		it.Action = parseAction(v.Rhs)
	case "virtualmodifier", "virtualModifier":
		mask := info.evalModExpr(v.Rhs)
		idx := firstSetBitAboveReal(mask)
		it.VirtualMod = idx
	case "repeat":
		it.Repeat = evalBool(v.Rhs)
	case "usemodmapmods", "useModMapMods":
		if id, ok := v.Rhs.(parser.Ident); ok {
			it.LevelOneOnly = id.Name == "level1" || id.Name == "Level1"
		}
	default:
		info.Log.Debug("compat: unknown interpret field", "field", v.Lhs)
	}
}

func firstSetBitAboveReal(mask keymap.ModMask) int {
	for i := keymap.NumRealMods; i < keymap.MaxMods; i++ {
		if mask&(keymap.ModMask(1)<<uint(i)) != 0 {
			return i
		}
	}
	return -1
}

func (info *compatInfo) defineIndicator(v parser.IndicatorDecl, enclosing parser.MergeMode) {
	mode := resolveMode(v.Merge, enclosing)
	pi, exists := info.indicators[v.Name]
	if exists && !shouldReplace(mode) {
		info.Log.Warn("conflicting_indicator_map_definitions: keeping earlier", "name", v.Name)
		return
	}
	pi = &pendingIndicator{name: v.Name}
	if !exists {
		info.indicatorOrder = append(info.indicatorOrder, v.Name)
	}
	info.indicators[v.Name] = pi

	for _, bd := range v.Body {
		vd, ok := bd.(parser.VarDecl)
		if !ok {
			continue
		}
		switch vd.Lhs {
		case "modifiers":
			pi.mods = info.evalModExpr(vd.Rhs)
			pi.whichMods = keymap.WhichEffective
		case "groups":
			pi.groupsMask = uint32(info.evalModExpr(vd.Rhs))
			pi.whichGroups = keymap.WhichEffective
		case "controls":
			pi.ctrls = uint32(info.evalModExpr(vd.Rhs))
		case "whichmodstate", "whichModState":
			pi.whichMods = evalWhichState(vd.Rhs)
		case "whichgroupstate", "whichGroupState":
			pi.whichGroups = evalWhichState(vd.Rhs)
		case "allowexplicit", "allowExplicit":
			if evalBool(vd.Rhs) {
				pi.flags |= keymap.IndicatorAllowExplicit
			}
		case "indicatordriveskeyboard", "indicatorDrivesKeyboard":
			if evalBool(vd.Rhs) {
				pi.flags |= keymap.IndicatorDrivesKeyboard
			}
		default:
			info.Log.Debug("compat: unknown indicator field", "field", vd.Lhs)
		}
	}
}

func evalWhichState(e parser.Expr) keymap.WhichState {
	id, ok := e.(parser.Ident)
	if !ok {
		return keymap.WhichEffective
	}
	switch id.Name {
	case "base":
		return keymap.WhichBase
	case "latched":
		return keymap.WhichLatched
	case "locked":
		return keymap.WhichLocked
	case "effective":
		return keymap.WhichEffective
	case "compat":
		return keymap.WhichCompat
	case "any", "Any":
		return keymap.WhichAny
	default:
		return keymap.WhichEffective
	}
}

func evalBool(e parser.Expr) bool {
	switch v := e.(type) {
	case parser.Ident:
		return v.Name == "true" || v.Name == "True" || v.Name == "yes"
	case parser.IntLit:
		return v.Value != 0
	}
	return false
}

// evalModsPattern evaluates a "+ <mods-pattern>" interpret qualifier,
// reading an optional leading "ALL"/"ANY"/"NONE" match-op marker in the
// same expression position real xkbcomp accepts.
func (info *compatInfo) evalModsPattern(e parser.Expr) (keymap.ModMask, keymap.MatchOp) {
	switch v := e.(type) {
	case parser.Call:
		op := keymap.MatchAny
		switch v.Name {
		case "any", "Any":
			op = keymap.MatchAny
		case "all", "All":
			op = keymap.MatchAll
		case "exact", "Exact":
			op = keymap.MatchExactly
		case "none", "None":
			op = keymap.MatchNoneOf
		}
		var mask keymap.ModMask
		for _, arg := range v.Args {
			mask |= info.evalModExpr(arg)
		}
		return mask, op
	default:
		return info.evalModExpr(e), keymap.MatchAll
	}
}

func (info *compatInfo) evalKeysym(e parser.Expr) (keysym.Keysym, bool) {
	switch v := e.(type) {
	case parser.Ident:
		return keysym.FromName(v.Name)
	case parser.IntLit:
		return keysym.Keysym(v.Value), true
	}
	return 0, false
}

func (info *compatInfo) evalModExpr(e parser.Expr) keymap.ModMask {
	if e == nil {
		return 0
	}
	switch v := e.(type) {
	case parser.Ident:
		return modNameToMask(info.b, v.Name, info)
	case parser.IntLit:
		return keymap.ModMask(v.Value)
	case parser.Binary:
		return info.evalModExpr(v.Lhs) | info.evalModExpr(v.Rhs)
	case parser.Call:
		var m keymap.ModMask
		for _, a := range v.Args {
			m |= info.evalModExpr(a)
		}
		return m
	default:
		return 0
	}
}

// modNameToMask is shared between the compat and symbols sub-compilers
// (both need to resolve modifier names against the builder's ModSet,
// declaring a virtual modifier on first reference).
func modNameToMask(b *keymap.KeymapBuilder, name string, f interface{ fail(error) }) keymap.ModMask {
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
	atom := b.Atoms.Intern(name)
	idx, err := b.Mods.EnsureVirtual(atom)
	if err != nil {
		f.fail(err)
		return 0
	}
	return keymap.ModMask(1) << uint(idx)
}

func (info *compatInfo) flushInto(b *keymap.KeymapBuilder) {
	for _, key := range info.order {
		b.Interprets = append(b.Interprets, info.interprets[key])
	}
	for _, name := range info.indicatorOrder {
		pi := info.indicators[name]
		atom := b.Atoms.Intern(pi.name)
		idx := -1
		for i := 0; i < keymap.MaxIndicators; i++ {
			if b.Indicators[i] != nil && b.Indicators[i].Name == atom {
				idx = i
				break
			}
		}
		ind := &keymap.Indicator{
			Name:        atom,
			WhichMods:   pi.whichMods,
			Mods:        keymap.Mods{Mods: pi.mods},
			WhichGroups: pi.whichGroups,
			GroupsMask:  pi.groupsMask,
			Ctrls:       pi.ctrls,
			Flags:       pi.flags,
		}
		if idx < 0 {
			for i := 0; i < keymap.MaxIndicators; i++ {
				if b.Indicators[i] == nil {
					idx = i
					break
				}
			}
		}
		if idx >= 0 {
			b.Indicators[idx] = ind
		}
	}
}
