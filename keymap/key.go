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

// OutOfRangeGroupAction says what to do when the state machine's active
// group index is >= a key's NumGroups.
type OutOfRangeGroupAction int

const (
	// GroupActionWrap wraps the group index modulo NumGroups.
	GroupActionWrap OutOfRangeGroupAction = iota
	// GroupActionClamp clamps to the last valid group.
	GroupActionClamp
	// GroupActionRedirect redirects to OutOfRangeGroupNumber.
	GroupActionRedirect
)

// KeyLevel is one (group, level) slot: the keysyms it produces and the
// action bound to it (explicitly, or by the Compat finalizer pass).
type KeyLevel struct {
	Syms   []keysym.Keysym
	Action Action
}

// KeyGroup is one layout's worth of levels for a key, bound to the
// KeyType that says how many levels it has and how the active modifier
// mask selects among them.
type KeyGroup struct {
	Type   *KeyType
	Levels []KeyLevel
}

// Key is the per-keycode compiled entry.
type Key struct {
	Keycode uint32
	Name    Atom

	NumGroups int
	Groups    []KeyGroup

	Repeats bool

	OutOfRangeGroupAction OutOfRangeGroupAction
	OutOfRangeGroupNumber int

	ModMap  ModMask // real modifier bits this key contributes (modifier_map)
	VModMap ModMask // virtual modifier bits this key contributes (virtualMods)
}

// EffectiveGroup resolves a requested group index against NumGroups and
// OutOfRangeGroupAction, the way the state machine collaborator must
// before indexing Groups.
func (k *Key) EffectiveGroup(group int) int {
	if k.NumGroups == 0 {
		return 0
	}
	if group >= 0 && group < k.NumGroups {
		return group
	}
	switch k.OutOfRangeGroupAction {
	case GroupActionClamp:
		if group < 0 {
			return 0
		}
		return k.NumGroups - 1
	case GroupActionRedirect:
		if k.OutOfRangeGroupNumber < k.NumGroups {
			return k.OutOfRangeGroupNumber
		}
		return 0
	default: // GroupActionWrap
		m := group % k.NumGroups
		if m < 0 {
			m += k.NumGroups
		}
		return m
	}
}

// SymsByLevel returns the keysyms produced at (group, level). group is
// first mapped through EffectiveGroup; the result is nil if the mapped
// group or level is out of range. This is the state-machine-facing
// "key_get_syms_by_level" query.
func (k *Key) SymsByLevel(group, level int) []keysym.Keysym {
	g := k.EffectiveGroup(group)
	if g < 0 || g >= len(k.Groups) {
		return nil
	}
	levels := k.Groups[g].Levels
	if level < 0 || level >= len(levels) {
		return nil
	}
	return levels[level].Syms
}
