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

import "github.com/gdamore/xkbcommon/keysym"

// Keymap is the immutable, compiled result of the pipeline. Once
// returned by (*KeymapBuilder).Finalize, nothing about it is mutated
// again; it is safe to share across threads for read-only access.
type Keymap struct {
	Atoms *AtomTable

	Mods *ModSet

	Types       []*KeyType
	typesByName map[Atom]*KeyType

	Keycodes *KeycodeTable
	Keys     map[uint32]*Key

	Interprets []*Interpret

	Indicators [MaxIndicators]*Indicator
}

// Type looks up a compiled key type by name.
func (km *Keymap) Type(name Atom) (*KeyType, bool) {
	t, ok := km.typesByName[name]
	return t, ok
}

// Key looks up a compiled key by keycode.
func (km *Keymap) Key(keycode uint32) (*Key, bool) {
	k, ok := km.Keys[keycode]
	return k, ok
}

// KeyByName looks up a compiled key by its symbolic name.
func (km *Keymap) KeyByName(name Atom) (*Key, bool) {
	code, ok := km.Keycodes.Code(name)
	if !ok {
		return nil, false
	}
	return km.Key(code)
}

// --- state-machine-facing queries ----------------------------------------

// KeySymsByLevel returns the keysyms a key produces at (layout, level).
func (km *Keymap) KeySymsByLevel(keycode uint32, layout, level int) []keysym.Keysym {
	k, ok := km.Key(keycode)
	if !ok {
		return nil
	}
	return k.SymsByLevel(layout, level)
}

// NumLayoutsForKey returns a key's group count.
func (km *Keymap) NumLayoutsForKey(keycode uint32) int {
	k, ok := km.Key(keycode)
	if !ok {
		return 0
	}
	return k.NumGroups
}

// NumLevelsForKey returns the level count of a key's layout-th group.
func (km *Keymap) NumLevelsForKey(keycode uint32, layout int) int {
	k, ok := km.Key(keycode)
	if !ok {
		return 0
	}
	g := k.EffectiveGroup(layout)
	if g < 0 || g >= len(k.Groups) {
		return 0
	}
	return len(k.Groups[g].Levels)
}

// KeyRepeats reports whether a key auto-repeats.
func (km *Keymap) KeyRepeats(keycode uint32) bool {
	k, ok := km.Key(keycode)
	return ok && k.Repeats
}
