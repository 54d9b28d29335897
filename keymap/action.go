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

// ActionKind names what a key level's Action does when activated. The
// set covers the modifier/group actions the symbols and compat
// sub-compilers assign; anything not recognized by the action-expr
// parser becomes ActionPrivate with the raw call text preserved for
// diagnostics.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionSetMods
	ActionLatchMods
	ActionLockMods
	ActionSetGroup
	ActionLatchGroup
	ActionLockGroup
	ActionMovePointer
	ActionPointerButton
	ActionPrivate
)

// Action is the compiled form of a symbols-section actions[] entry or
// a compat-section "action = ...;" binding. Only the fields relevant to
// Kind are meaningful; the others are left zero.
type Action struct {
	Kind ActionKind

	Mods     ModMask // SetMods/LatchMods/LockMods
	Group    int     // SetGroup/LatchGroup/LockGroup: signed, may be relative
	Relative bool    // group value is relative to the current group ("+"/"-")

	ClearLocks  bool // SetMods/SetGroup "clearLocks" flag
	LatchToLock bool // LatchMods/LatchGroup "latchToLock" flag

	// Explicit suppresses any compat-assigned action for this level even
	// though Kind==ActionNone: the "NoAction()" literal, as distinct
	// from "no action was ever specified"; the state machine and the
	// interpret pass both honor the difference.
	Explicit bool

	Raw string // original "Name(args...)" text, for diagnostics/serialize
}

// NoAction is the canonical empty, non-explicit action: "nothing was
// assigned yet, an interpret may still bind one".
var NoAction = Action{}
