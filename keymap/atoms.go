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

// Package keymap holds the compiled keymap data model (atoms, modifier
// sets, key types, the keycode table, keys, interprets and
// indicators), the mutable KeymapBuilder the xkbcomp sub-compilers
// assemble, and the finalizer that freezes a builder into an immutable
// Keymap.
package keymap

import "sync"

// Atom is a small interned integer standing in for a string. Two atoms
// compare equal iff their source strings were equal; atoms are never
// reused once an AtomTable has produced them.
type Atom int32

// NoAtom is the zero value: "no string interned here".
const NoAtom Atom = 0

// AtomTable is a process-local (really: Context-local) string interner.
// It is safe for concurrent read access once a Context stops mutating
// it; writes during compilation are serialized with a mutex the way the
// rest of the compiler is single-threaded but the atom table may be
// shared by a Context's public accessors concurrently with an
// in-flight compile of a second Keymap under the same Context.
type AtomTable struct {
	mu     sync.RWMutex
	byName map[string]Atom
	byAtom []string // index 0 unused (NoAtom)
}

// NewAtomTable returns an empty interning table.
func NewAtomTable() *AtomTable {
	return &AtomTable{
		byName: make(map[string]Atom),
		byAtom: []string{""},
	}
}

// Intern returns the atom for s, creating one if this is the first time
// s has been seen by this table.
func (t *AtomTable) Intern(s string) Atom {
	t.mu.RLock()
	if a, ok := t.byName[s]; ok {
		t.mu.RUnlock()
		return a
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.byName[s]; ok {
		return a
	}
	a := Atom(len(t.byAtom))
	t.byAtom = append(t.byAtom, s)
	t.byName[s] = a
	return a
}

// Lookup returns the atom already assigned to s, if any, without
// creating a new one.
func (t *AtomTable) Lookup(s string) (Atom, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.byName[s]
	return a, ok
}

// Text returns the string an atom was interned from. NoAtom and any
// atom not produced by this table return "".
func (t *AtomTable) Text(a Atom) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(a) <= 0 || int(a) >= len(t.byAtom) {
		return ""
	}
	return t.byAtom[a]
}
