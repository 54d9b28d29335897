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

// KeycodeEntry names one numeric keycode and its aliases. The
// core imposes no upper bound on keycode values; evdev-derived
// keymaps conventionally stay under 256 but this is never enforced.
type KeycodeEntry struct {
	Name    Atom
	Aliases []Atom
}

// KeycodeTable is the sparse keycode -> name/alias mapping plus its
// reverse lookup.
type KeycodeTable struct {
	byCode map[uint32]*KeycodeEntry
	byName map[Atom]uint32
}

func NewKeycodeTable() *KeycodeTable {
	return &KeycodeTable{
		byCode: make(map[uint32]*KeycodeEntry),
		byName: make(map[Atom]uint32),
	}
}

// Define records keycode -> name, replacing any entry already defined
// for code, and returns the new entry. Callers implementing merge
// semantics should check Lookup first.
func (t *KeycodeTable) Define(code uint32, name Atom) *KeycodeEntry {
	e := &KeycodeEntry{Name: name}
	t.byCode[code] = e
	t.byName[name] = code
	return e
}

// Lookup returns the entry defined for code, if any.
func (t *KeycodeTable) Lookup(code uint32) (*KeycodeEntry, bool) {
	e, ok := t.byCode[code]
	return e, ok
}

// Code returns the keycode a name (original or alias) resolves to.
func (t *KeycodeTable) Code(name Atom) (uint32, bool) {
	c, ok := t.byName[name]
	return c, ok
}

// AddAlias registers alias as another name for target's keycode.
func (t *KeycodeTable) AddAlias(target, alias Atom) bool {
	code, ok := t.byName[target]
	if !ok {
		return false
	}
	e := t.byCode[code]
	e.Aliases = append(e.Aliases, alias)
	t.byName[alias] = code
	return true
}

// Codes returns every defined keycode, for deterministic serialization
// callers should sort this.
func (t *KeycodeTable) Codes() []uint32 {
	out := make([]uint32, 0, len(t.byCode))
	for c := range t.byCode {
		out = append(out, c)
	}
	return out
}

func (t *KeycodeTable) Len() int { return len(t.byCode) }
