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

// KeyTypeEntry is one row of a KeyType's level-selection table:
// under the state machine's effective modifier mask, the entry whose
// resolved Mods.Mask is a subset of that mask and has the most bits set
// selects Level (see KeyType.Level).
type KeyTypeEntry struct {
	Mods     Mods
	Preserve Mods
	Level    int // 0-based
}

// KeyType is a named modifier-to-level mapping (ONE_LEVEL, ALPHABETIC,
// ...).
type KeyType struct {
	Name       Atom
	Mods       ModMask // the type's active mask
	NumLevels  int
	Entries    []KeyTypeEntry
	LevelNames map[int]Atom
}

// FindEntry returns the entry (if any) whose raw Mods.Mods field equals
// mods exactly, used by the types sub-compiler to detect
// "map[X]=LevelN" redefinitions and by preserve[] lookups that must
// attach to an existing entry.
func (kt *KeyType) FindEntry(mods ModMask) (*KeyTypeEntry, bool) {
	for i := range kt.Entries {
		if kt.Entries[i].Mods.Mods == mods {
			return &kt.Entries[i], true
		}
	}
	return nil, false
}

// Level computes the effective level (0-based) for an active mask under
// the state machine's model: the entry whose Mods.Mask is a subset of
// mask, preferring the entry with the most bits set (longest/most
// specific match wins), or level 0 if none match.
func (kt *KeyType) Level(mask ModMask) int {
	best := -1
	bestBits := -1
	for i := range kt.Entries {
		e := &kt.Entries[i]
		if e.Mods.Mask&mask != e.Mods.Mask {
			continue
		}
		bits := popcount(uint32(e.Mods.Mask))
		if bits > bestBits {
			bestBits = bits
			best = i
		}
	}
	if best < 0 {
		return 0
	}
	return kt.Entries[best].Level
}

func popcount(x uint32) int {
	n := 0
	for x != 0 {
		n += int(x & 1)
		x >>= 1
	}
	return n
}

// DefaultType returns the synthetic one-level type the KeyTypes
// sub-compiler installs when no "type" definitions survive
// compilation.
func DefaultType(atoms *AtomTable) *KeyType {
	return &KeyType{
		Name:      atoms.Intern("default"),
		Mods:      0,
		NumLevels: 1,
	}
}
