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

// Package state tracks live keyboard state against a compiled keymap:
// which modifiers are depressed, latched or locked, which layout group
// is active, and therefore which keysyms any key produces right now.
// A State is owned by a single goroutine; the keymap it references is
// shared and read-only.
package state

import (
	"github.com/gdamore/xkbcommon/keymap"
	"github.com/gdamore/xkbcommon/keysym"
)

// Component selects which slice of the modifier or group state a query
// reads. Effective is the union the keymap's types actually see.
type Component int

const (
	Depressed Component = iota
	Latched
	Locked
	Effective
)

// State is the keyboard state machine. The zero value is not usable;
// call New.
type State struct {
	km *keymap.Keymap

	pressed map[uint32]bool

	baseMods    keymap.ModMask
	latchedMods keymap.ModMask
	lockedMods  keymap.ModMask

	baseGroup    int
	latchedGroup int
	lockedGroup  int

	// set while a key is down so its release undoes what the press did
	onRelease map[uint32]keymap.Action
}

// New creates a state machine over km with no modifiers active and
// group 0 selected.
func New(km *keymap.Keymap) *State {
	return &State{
		km:        km,
		pressed:   make(map[uint32]bool),
		onRelease: make(map[uint32]keymap.Action),
	}
}

// Reset clears all modifier and group state, as on a keyboard detach.
func (s *State) Reset() {
	s.pressed = make(map[uint32]bool)
	s.onRelease = make(map[uint32]keymap.Action)
	s.baseMods, s.latchedMods, s.lockedMods = 0, 0, 0
	s.baseGroup, s.latchedGroup, s.lockedGroup = 0, 0, 0
}

// Mods returns the requested modifier component as a mask over the
// keymap's ModSet. The Effective component folds virtual bits down to
// their real mappings as the level-selection machinery sees them.
func (s *State) Mods(c Component) keymap.ModMask {
	switch c {
	case Depressed:
		return s.baseMods
	case Latched:
		return s.latchedMods
	case Locked:
		return s.lockedMods
	default:
		return s.km.Mods.ResolveMask(s.baseMods | s.latchedMods | s.lockedMods)
	}
}

// Group returns the requested group component. Effective is the sum of
// the three, before any per-key out-of-range policy is applied.
func (s *State) Group(c Component) int {
	switch c {
	case Depressed:
		return s.baseGroup
	case Latched:
		return s.latchedGroup
	case Locked:
		return s.lockedGroup
	default:
		return s.baseGroup + s.latchedGroup + s.lockedGroup
	}
}

// KeySyms returns the keysyms keycode produces under the current
// state, or nil if the keycode is unmapped or the active level is
// empty.
func (s *State) KeySyms(keycode uint32) []keysym.Keysym {
	k, ok := s.km.Key(keycode)
	if !ok {
		return nil
	}
	group := k.EffectiveGroup(s.Group(Effective))
	level := s.levelFor(k, group)
	return k.SymsByLevel(group, level)
}

// KeyOneSym is KeySyms reduced to the common single-keysym case; it
// returns NoSymbol when the level is empty or carries several syms.
func (s *State) KeyOneSym(keycode uint32) keysym.Keysym {
	syms := s.KeySyms(keycode)
	if len(syms) != 1 {
		return keysym.NoSymbol
	}
	return syms[0]
}

// levelFor selects the shift level the effective modifier mask picks
// for key k's group, via the group's type.
func (s *State) levelFor(k *keymap.Key, group int) int {
	if group < 0 || group >= len(k.Groups) {
		return 0
	}
	t := k.Groups[group].Type
	mask := s.Mods(Effective) & t.Mods
	return t.Level(mask)
}

// Down feeds a key-press event. It applies the action bound to the
// key's active level (or the key's modifier-map bits when no action
// was compiled) and records what the matching release must undo.
func (s *State) Down(keycode uint32) {
	k, ok := s.km.Key(keycode)
	if !ok {
		return
	}
	if s.pressed[keycode] {
		// Repeated press without an intervening release: only the
		// symbol output repeats, modifier state does not re-trigger.
		return
	}
	s.pressed[keycode] = true

	act := s.actionFor(k)
	s.onRelease[keycode] = act

	switch act.Kind {
	case keymap.ActionSetMods:
		s.baseMods |= act.Mods
	case keymap.ActionLatchMods:
		s.baseMods |= act.Mods
	case keymap.ActionLockMods:
		s.lockedMods ^= act.Mods
	case keymap.ActionSetGroup:
		if act.Relative {
			s.baseGroup += act.Group
		} else {
			s.baseGroup = act.Group
		}
	case keymap.ActionLatchGroup:
		if act.Relative {
			s.baseGroup += act.Group
		} else {
			s.baseGroup = act.Group
		}
	case keymap.ActionLockGroup:
		if act.Relative {
			s.lockedGroup += act.Group
		} else {
			s.lockedGroup = act.Group
		}
	}
}

// Up feeds a key-release event, undoing whatever the press installed.
func (s *State) Up(keycode uint32) {
	if !s.pressed[keycode] {
		return
	}
	delete(s.pressed, keycode)
	act := s.onRelease[keycode]
	delete(s.onRelease, keycode)

	switch act.Kind {
	case keymap.ActionSetMods:
		s.baseMods &^= act.Mods
		if act.ClearLocks {
			s.lockedMods &^= act.Mods
		}
	case keymap.ActionLatchMods:
		s.baseMods &^= act.Mods
		if act.LatchToLock && s.latchedMods&act.Mods != 0 {
			s.latchedMods &^= act.Mods
			s.lockedMods |= act.Mods
		} else {
			s.latchedMods |= act.Mods
		}
	case keymap.ActionSetGroup:
		if act.Relative {
			s.baseGroup -= act.Group
		} else {
			s.baseGroup = 0
		}
	case keymap.ActionLatchGroup:
		if act.Relative {
			s.baseGroup -= act.Group
		} else {
			s.baseGroup = 0
		}
	default:
		// A non-modifier key consumes any pending latches.
		if act.Kind == keymap.ActionNone {
			s.latchedMods = 0
			s.latchedGroup = 0
		}
	}
}

// actionFor finds the action the current state binds to k: the action
// at the active (group, level), else a synthetic SetMods built from
// the key's modifier map so that plain modmap-only keyboards still
// shift.
func (s *State) actionFor(k *keymap.Key) keymap.Action {
	group := k.EffectiveGroup(s.Group(Effective))
	level := s.levelFor(k, group)
	if group >= 0 && group < len(k.Groups) {
		levels := k.Groups[group].Levels
		if level >= 0 && level < len(levels) {
			act := levels[level].Action
			if act.Kind != keymap.ActionNone {
				return act
			}
		}
	}
	if k.ModMap != 0 {
		return keymap.Action{Kind: keymap.ActionSetMods, Mods: k.ModMap}
	}
	return keymap.NoAction
}

// LEDs returns the mask of lit indicators, bit i corresponding to the
// keymap's indicator slot i.
func (s *State) LEDs() uint32 {
	var out uint32
	effMods := s.Mods(Effective)
	effGroup := s.Group(Effective)
	for i, ind := range s.km.Indicators {
		if ind == nil {
			continue
		}
		lit := false
		if ind.WhichMods != keymap.WhichNone && ind.Mods.Mask&effMods != 0 {
			lit = true
		}
		if ind.WhichGroups != keymap.WhichNone && ind.GroupsMask&(1<<uint(effGroup)) != 0 {
			lit = true
		}
		if lit {
			out |= 1 << uint(i)
		}
	}
	return out
}

// KeyRepeats mirrors the keymap query so event loops driving a State
// need only one handle.
func (s *State) KeyRepeats(keycode uint32) bool {
	return s.km.KeyRepeats(keycode)
}
