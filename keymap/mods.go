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

import "fmt"

// ModMask is a bitfield over modifier indices: bit i set means the
// modifier at ModSet index i is active. Real modifiers always occupy
// the low 8 bits; virtual modifiers are appended above them.
type ModMask uint32

// The eight fixed real-modifier bit positions, in the order every
// ModSet carries them.
const (
	ModShift   ModMask = 1 << 0
	ModLock    ModMask = 1 << 1
	ModControl ModMask = 1 << 2
	ModMod1    ModMask = 1 << 3
	ModMod2    ModMask = 1 << 4
	ModMod3    ModMask = 1 << 5
	ModMod4    ModMask = 1 << 6
	ModMod5    ModMask = 1 << 7
)

// NumRealMods is the fixed count of real modifiers every ModSet starts
// with.
const NumRealMods = 8

// MaxMods is the hard cap (real + virtual) on a ModSet's length: masks
// are 32 bits wide.
const MaxMods = 32

var realModNames = [NumRealMods]string{
	"Shift", "Lock", "Control", "Mod1", "Mod2", "Mod3", "Mod4", "Mod5",
}

// ModKind distinguishes the eight fixed real modifiers from
// user-declared virtual ones.
type ModKind int

const (
	RealMod ModKind = iota
	VirtualMod
)

// ModDef is one entry of a ModSet.
type ModDef struct {
	Name Atom
	Kind ModKind
	// Mapping is, for a virtual modifier, the real-modifier mask it
	// resolves to (populated from "modifier_map"/vmod-init statements
	// during finalization). Unused for real modifiers.
	Mapping ModMask
}

// ModSet is the ordered modifier table: the fixed 8 real modifiers
// followed by up to 24 virtual modifiers declared by
// "virtual_modifiers" statements across the types/compat/symbols
// sections.
type ModSet struct {
	atoms *AtomTable
	defs  []ModDef
}

// NewModSet seeds a ModSet with the 8 real modifiers, interning their
// names in atoms.
func NewModSet(atoms *AtomTable) *ModSet {
	ms := &ModSet{atoms: atoms}
	for _, name := range realModNames {
		ms.defs = append(ms.defs, ModDef{Name: atoms.Intern(name), Kind: RealMod})
	}
	return ms
}

// Len returns the number of modifiers (real + virtual) in the set.
func (ms *ModSet) Len() int { return len(ms.defs) }

// Def returns the definition at index i.
func (ms *ModSet) Def(i int) ModDef { return ms.defs[i] }

// IndexOf finds a modifier by its interned name, real or virtual.
func (ms *ModSet) IndexOf(name Atom) (int, bool) {
	for i, d := range ms.defs {
		if d.Name == name {
			return i, true
		}
	}
	return -1, false
}

// EnsureVirtual returns the index of the virtual modifier named name,
// declaring it (appending to the set) if it hasn't been seen yet. It
// errors once MaxMods would be exceeded.
func (ms *ModSet) EnsureVirtual(name Atom) (int, error) {
	if i, ok := ms.IndexOf(name); ok {
		return i, nil
	}
	if len(ms.defs) >= MaxMods {
		return -1, fmt.Errorf("keymap: modifier set exceeds %d entries", MaxMods)
	}
	ms.defs = append(ms.defs, ModDef{Name: name, Kind: VirtualMod})
	return len(ms.defs) - 1, nil
}

// SetMapping records the real-modifier mask a virtual modifier resolves
// to (from a "virtual_modifiers Name = mask" init or an equivalent
// compat-section binding).
func (ms *ModSet) SetMapping(index int, mapping ModMask) {
	ms.defs[index].Mapping = mapping
}

// OrMapping folds additional real bits into a virtual modifier's
// mapping; per-key modifier_map contributions accumulate rather than
// replace.
func (ms *ModSet) OrMapping(index int, mapping ModMask) {
	ms.defs[index].Mapping |= mapping
}

// RealMask returns the bitmask covering only the set's real-modifier
// bits (always 0xFF for a ModSet built by NewModSet, but computed
// defensively rather than hardcoded).
func (ms *ModSet) RealMask() ModMask {
	var m ModMask
	for i, d := range ms.defs {
		if d.Kind == RealMod {
			m |= 1 << uint(i)
		}
	}
	return m
}

// ResolveMask maps every virtual-modifier bit set in mods to the real
// bits its ModDef.Mapping names, folding them together with mods' own
// real bits.
func (ms *ModSet) ResolveMask(mods ModMask) ModMask {
	real := mods & ms.RealMask()
	for i, d := range ms.defs {
		if d.Kind != VirtualMod {
			continue
		}
		bit := ModMask(1) << uint(i)
		if mods&bit != 0 {
			real |= d.Mapping
		}
	}
	return real
}

// Mods is a (virtual+real bitfield, resolved real-only mask) pair;
// KeyTypeEntry and Indicator carry one per mods field.
type Mods struct {
	Mods ModMask // the raw bitfield as written (may include virtual bits)
	Mask ModMask // resolved real-only mask (filled by the finalizer)
}

// Name returns the text of the modifier at set index i.
func (ms *ModSet) Name(i int) string {
	if i < 0 || i >= len(ms.defs) {
		return ""
	}
	return ms.atoms.Text(ms.defs[i].Name)
}
