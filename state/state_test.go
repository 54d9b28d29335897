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

package state

import (
	"testing"

	"github.com/gdamore/xkbcommon/keymap"
	"github.com/gdamore/xkbcommon/keysym"
)

const (
	kcQ    = uint32(24) // <AD01>
	kcLFSH = uint32(50)
	kcCAPS = uint32(66)
)

// testKeymap builds a tiny three-key map by hand: a shift key bound via
// modifier_map, a caps key with an explicit LockMods action, and a
// letter key with an ALPHABETIC group.
func testKeymap(t *testing.T) *keymap.Keymap {
	t.Helper()
	atoms := keymap.NewAtomTable()
	b := keymap.NewBuilder(atoms)

	alpha := &keymap.KeyType{
		Name:      atoms.Intern("ALPHABETIC"),
		Mods:      keymap.ModShift | keymap.ModLock,
		NumLevels: 2,
		Entries: []keymap.KeyTypeEntry{
			{Mods: keymap.Mods{Mods: keymap.ModShift}, Level: 1},
			{Mods: keymap.Mods{Mods: keymap.ModLock}, Level: 1},
		},
	}
	one := &keymap.KeyType{Name: atoms.Intern("ONE_LEVEL"), NumLevels: 1}
	b.AddType(alpha)
	b.AddType(one)

	q := b.KeyFor(kcQ)
	q.Name = atoms.Intern("AD01")
	q.Repeats = true
	q.Groups = []keymap.KeyGroupBuilder{{
		TypeName: alpha.Name,
		Levels: []keymap.KeyLevel{
			{Syms: []keysym.Keysym{sym(t, "q")}},
			{Syms: []keysym.Keysym{sym(t, "Q")}},
		},
	}}

	lfsh := b.KeyFor(kcLFSH)
	lfsh.Name = atoms.Intern("LFSH")
	lfsh.ModMap = keymap.ModShift
	lfsh.Groups = []keymap.KeyGroupBuilder{{
		TypeName: one.Name,
		Levels:   []keymap.KeyLevel{{Syms: []keysym.Keysym{sym(t, "Shift_L")}}},
	}}

	caps := b.KeyFor(kcCAPS)
	caps.Name = atoms.Intern("CAPS")
	caps.Groups = []keymap.KeyGroupBuilder{{
		TypeName: one.Name,
		Levels: []keymap.KeyLevel{{
			Syms:   []keysym.Keysym{sym(t, "Caps_Lock")},
			Action: keymap.Action{Kind: keymap.ActionLockMods, Mods: keymap.ModLock},
		}},
	}}

	km, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return km
}

func sym(t *testing.T, name string) keysym.Keysym {
	t.Helper()
	s, ok := keysym.FromName(name)
	if !ok {
		t.Fatalf("keysym %q not found", name)
	}
	return s
}

func TestShiftSelectsLevelTwo(t *testing.T) {
	km := testKeymap(t)
	s := New(km)

	if got := s.KeyOneSym(kcQ); got != sym(t, "q") {
		t.Fatalf("unshifted = %s", keysym.GetName(got))
	}

	s.Down(kcLFSH)
	if s.Mods(Depressed)&keymap.ModShift == 0 {
		t.Fatal("shift not depressed after press")
	}
	if got := s.KeyOneSym(kcQ); got != sym(t, "Q") {
		t.Fatalf("shifted = %s", keysym.GetName(got))
	}

	s.Up(kcLFSH)
	if s.Mods(Effective)&keymap.ModShift != 0 {
		t.Fatal("shift still effective after release")
	}
	if got := s.KeyOneSym(kcQ); got != sym(t, "q") {
		t.Fatalf("after release = %s", keysym.GetName(got))
	}
}

func TestCapsLockToggles(t *testing.T) {
	km := testKeymap(t)
	s := New(km)

	s.Down(kcCAPS)
	s.Up(kcCAPS)
	if s.Mods(Locked)&keymap.ModLock == 0 {
		t.Fatal("lock not set after caps tap")
	}
	if got := s.KeyOneSym(kcQ); got != sym(t, "Q") {
		t.Fatalf("locked = %s", keysym.GetName(got))
	}

	s.Down(kcCAPS)
	s.Up(kcCAPS)
	if s.Mods(Locked)&keymap.ModLock != 0 {
		t.Fatal("lock still set after second tap")
	}
}

func TestPressWithoutReleaseDoesNotRetrigger(t *testing.T) {
	km := testKeymap(t)
	s := New(km)

	s.Down(kcCAPS)
	s.Down(kcCAPS) // autorepeat: no second toggle
	s.Up(kcCAPS)
	if s.Mods(Locked)&keymap.ModLock == 0 {
		t.Fatal("repeat press toggled the lock back off")
	}
}

func TestResetClearsEverything(t *testing.T) {
	km := testKeymap(t)
	s := New(km)
	s.Down(kcLFSH)
	s.Down(kcCAPS)
	s.Reset()
	if s.Mods(Effective) != 0 || s.Group(Effective) != 0 {
		t.Fatal("state survived Reset")
	}
}

func TestKeyRepeats(t *testing.T) {
	km := testKeymap(t)
	s := New(km)
	if !s.KeyRepeats(kcQ) {
		t.Error("letter key should repeat")
	}
	if s.KeyRepeats(kcLFSH) {
		t.Error("shift key should not repeat")
	}
}
