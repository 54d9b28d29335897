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

package keymap

import (
	"fmt"
	"sort"
)

// KeyGroupBuilder mirrors KeyGroup but carries a pending type name
// atom instead of a resolved *KeyType: the symbols sub-compiler builds
// these as it parses "key <NAME> { ... }" blocks, before the finalizer
// has bound cross-section references: types are bound late, by atom id.
type KeyGroupBuilder struct {
	TypeName Atom // NoAtom means "let the finalizer pick a default"
	Levels   []KeyLevel
}

// KeyBuilder mirrors Key during compilation.
type KeyBuilder struct {
	Keycode uint32
	Name    Atom
	Groups  []KeyGroupBuilder
	Repeats bool

	OutOfRangeGroupAction OutOfRangeGroupAction
	OutOfRangeGroupNumber int

	ModMap  ModMask
	VModMap ModMask
}

// KeymapBuilder owns every partially-assembled table during
// compilation. It is not safe for concurrent use; the pipeline is
// single-threaded.
type KeymapBuilder struct {
	Atoms *AtomTable
	Mods  *ModSet

	Types       []*KeyType
	TypesByName map[Atom]*KeyType

	Keycodes *KeycodeTable
	Keys     map[uint32]*KeyBuilder

	Interprets []*Interpret

	Indicators [MaxIndicators]*Indicator

	Errors []error
}

// NewBuilder returns an empty builder rooted on atoms.
func NewBuilder(atoms *AtomTable) *KeymapBuilder {
	return &KeymapBuilder{
		Atoms:       atoms,
		Mods:        NewModSet(atoms),
		TypesByName: make(map[Atom]*KeyType),
		Keycodes:    NewKeycodeTable(),
		Keys:        make(map[uint32]*KeyBuilder),
	}
}

// KeyFor returns the builder for a keycode, creating an empty one if
// this is the first reference (the keycodes, compat and symbols
// sub-compilers may each touch a key before the others have).
func (b *KeymapBuilder) KeyFor(code uint32) *KeyBuilder {
	kb, ok := b.Keys[code]
	if !ok {
		kb = &KeyBuilder{Keycode: code}
		b.Keys[code] = kb
	}
	return kb
}

// AddType registers a fully-built KeyType, replacing any previous
// definition of the same name (merge-mode conflict resolution happens
// in xkbcomp before this is called).
func (b *KeymapBuilder) AddType(t *KeyType) {
	if _, exists := b.TypesByName[t.Name]; !exists {
		b.Types = append(b.Types, t)
	} else {
		for i, old := range b.Types {
			if old.Name == t.Name {
				b.Types[i] = t
				break
			}
		}
	}
	b.TypesByName[t.Name] = t
}

// Finalize resolves cross-section references, fills in virtual-modifier
// masks, applies the compat interpret pass, and freezes the result. The
// only check it makes is that every type a key group names is defined;
// no other data-model invariant (type-entry subsets, distinct entry
// mods, level bounds) is checked.
func (b *KeymapBuilder) Finalize() (*Keymap, error) {
	if len(b.Types) == 0 {
		b.AddType(DefaultType(b.Atoms))
	}

	sorted := make([]*Interpret, len(b.Interprets))
	copy(sorted, b.Interprets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	km := &Keymap{
		Atoms:       b.Atoms,
		Mods:        b.Mods,
		Types:       b.Types,
		typesByName: b.TypesByName,
		Keycodes:    b.Keycodes,
		Keys:        make(map[uint32]*Key, len(b.Keys)),
		Interprets:  sorted,
		Indicators:  b.Indicators,
	}

	codes := make([]uint32, 0, len(b.Keys))
	for c := range b.Keys {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	// The interpret pass inside finalizeKey may still contribute
	// virtual-modifier and repeat bits to a key builder, so the
	// vmod-mapping derivation and mask resolution run after every key
	// has been finalized.
	for _, code := range codes {
		kb := b.Keys[code]
		k, err := b.finalizeKey(kb, sorted)
		if err != nil {
			return nil, err
		}
		km.Keys[code] = k
	}

	b.deriveVModMappings()
	b.resolveModMasks()

	return km, nil
}

// deriveVModMappings computes each virtual modifier's real-modifier
// mapping from the keys that carry it: a key placed in a modifier_map
// statement contributes its real bits to every virtual modifier in its
// vmodmap, so "modifier_map Mod2 { <NMLK> };" plus "virtualMods =
// NumLock" on <NMLK> maps NumLock to Mod2. The derived bits accumulate
// on top of any explicit "virtual_modifiers X = <mask>" init.
func (b *KeymapBuilder) deriveVModMappings() {
	for _, kb := range b.Keys {
		if kb.VModMap == 0 || kb.ModMap == 0 {
			continue
		}
		for i := NumRealMods; i < b.Mods.Len(); i++ {
			if kb.VModMap&(ModMask(1)<<uint(i)) != 0 {
				b.Mods.OrMapping(i, kb.ModMap)
			}
		}
	}
}

func (b *KeymapBuilder) resolveModMasks() {
	for _, t := range b.Types {
		for i := range t.Entries {
			t.Entries[i].Mods.Mask = b.Mods.ResolveMask(t.Entries[i].Mods.Mods)
			t.Entries[i].Preserve.Mask = b.Mods.ResolveMask(t.Entries[i].Preserve.Mods)
		}
	}
	for i, ind := range b.Indicators {
		if ind == nil {
			continue
		}
		ind.Mods.Mask = b.Mods.ResolveMask(ind.Mods.Mods)
		b.Indicators[i] = ind
	}
}

func (b *KeymapBuilder) finalizeKey(kb *KeyBuilder, sorted []*Interpret) (*Key, error) {
	if len(kb.Groups) == 0 {
		kb.Groups = []KeyGroupBuilder{{}}
	}
	k := &Key{
		Keycode:               kb.Keycode,
		Name:                  kb.Name,
		NumGroups:             len(kb.Groups),
		OutOfRangeGroupAction: kb.OutOfRangeGroupAction,
		OutOfRangeGroupNumber: kb.OutOfRangeGroupNumber,
		ModMap:                kb.ModMap,
	}
	k.Groups = make([]KeyGroup, len(kb.Groups))
	for gi, gb := range kb.Groups {
		var kt *KeyType
		if gb.TypeName != NoAtom {
			var ok bool
			kt, ok = b.TypesByName[gb.TypeName]
			if !ok {
				return nil, fmt.Errorf("keymap: key %q group %d references undefined type %q",
					b.Atoms.Text(kb.Name), gi+1, b.Atoms.Text(gb.TypeName))
			}
		} else {
			kt = inferType(b.Atoms, len(gb.Levels))
		}
		levels := padLevels(gb.Levels, kt.NumLevels)
		for li := range levels {
			lvl := &levels[li]
			if lvl.Action.Explicit || lvl.Action != NoAction {
				continue
			}
			if len(lvl.Syms) == 0 {
				continue
			}
			state := kt.Mods // interprets match against the type's declared active mask as a stand-in modifier state at compile time; the live state machine re-evaluates at runtime
			for _, it := range sorted {
				if li > 0 && it.LevelOneOnly {
					continue
				}
				if it.Matches(lvl.Syms[0], state) {
					lvl.Action = it.Action
					if it.VirtualMod >= 0 {
						kb.VModMap |= ModMask(1) << uint(it.VirtualMod)
					}
					if it.Repeat {
						kb.Repeats = true
					}
					break
				}
			}
		}
		k.Groups[gi] = KeyGroup{Type: kt, Levels: levels}
	}
	k.Repeats = kb.Repeats
	k.VModMap = kb.VModMap
	return k, nil
}

// inferType picks a canonical type by level-count heuristic when a
// symbols key block never named one: one level stays ONE_LEVEL,
// two levels is treated as ALPHABETIC-shaped (the common case for
// unshifted/shifted letter pairs), anything else falls back to a
// synthetic type with that many levels and no modifier binding (the
// state machine will always select level 0 for it).
func inferType(atoms *AtomTable, numLevels int) *KeyType {
	switch numLevels {
	case 0, 1:
		return &KeyType{Name: atoms.Intern("ONE_LEVEL"), NumLevels: 1}
	case 2:
		return &KeyType{
			Name:      atoms.Intern("ALPHABETIC"),
			Mods:      ModShift | ModLock,
			NumLevels: 2,
			Entries: []KeyTypeEntry{
				{Mods: Mods{Mods: ModShift, Mask: ModShift}, Level: 1},
				{Mods: Mods{Mods: ModLock, Mask: ModLock}, Level: 1},
			},
		}
	default:
		return &KeyType{Name: atoms.Intern(fmt.Sprintf("%d_LEVEL", numLevels)), NumLevels: numLevels}
	}
}

func padLevels(levels []KeyLevel, n int) []KeyLevel {
	if len(levels) == n {
		return levels
	}
	if len(levels) > n {
		return levels[:n]
	}
	out := make([]KeyLevel, n)
	copy(out, levels)
	return out
}
