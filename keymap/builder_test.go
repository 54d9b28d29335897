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
	"testing"

	"github.com/gdamore/xkbcommon/keysym"
)

func TestFinalizeSimpleKey(t *testing.T) {
	atoms := NewAtomTable()
	b := NewBuilder(atoms)

	oneLevel := &KeyType{Name: atoms.Intern("ONE_LEVEL"), NumLevels: 1}
	alpha := &KeyType{
		Name:      atoms.Intern("ALPHABETIC"),
		Mods:      ModShift | ModLock,
		NumLevels: 2,
		Entries: []KeyTypeEntry{
			{Mods: Mods{Mods: ModShift}, Level: 1},
		},
	}
	b.AddType(oneLevel)
	b.AddType(alpha)

	code := uint32(38) // <AC01>, evdev 'a'
	name := atoms.Intern("AC01")
	b.Keycodes.Define(code, name)

	kb := b.KeyFor(code)
	kb.Name = name
	kb.Groups = []KeyGroupBuilder{
		{
			TypeName: alpha.Name,
			Levels: []KeyLevel{
				{Syms: []keysym.Keysym{mustSym(t, "a")}},
				{Syms: []keysym.Keysym{mustSym(t, "A")}},
			},
		},
	}

	km, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	k, ok := km.Key(code)
	if !ok {
		t.Fatalf("key %d not found", code)
	}
	if k.NumGroups != 1 {
		t.Fatalf("NumGroups = %d, want 1", k.NumGroups)
	}
	syms := k.SymsByLevel(0, 1)
	if len(syms) != 1 || syms[0] != mustSym(t, "A") {
		t.Errorf("level 1 syms = %v", syms)
	}
}

func TestFinalizeUnresolvedTypeErrors(t *testing.T) {
	atoms := NewAtomTable()
	b := NewBuilder(atoms)
	code := uint32(1)
	kb := b.KeyFor(code)
	kb.Groups = []KeyGroupBuilder{{TypeName: atoms.Intern("GHOST")}}
	if _, err := b.Finalize(); err == nil {
		t.Fatal("expected error for undefined type reference")
	}
}

func TestModSetResolvesVirtualMask(t *testing.T) {
	atoms := NewAtomTable()
	ms := NewModSet(atoms)
	idx, err := ms.EnsureVirtual(atoms.Intern("LevelThree"))
	if err != nil {
		t.Fatal(err)
	}
	ms.SetMapping(idx, ModMod5)
	virtBit := ModMask(1) << uint(idx)
	got := ms.ResolveMask(virtBit | ModShift)
	if got != ModMod5|ModShift {
		t.Errorf("ResolveMask = %v, want Mod5|Shift", got)
	}
}

func TestVModMappingDerivedFromModifierMap(t *testing.T) {
	atoms := NewAtomTable()
	b := NewBuilder(atoms)

	idx, err := b.Mods.EnsureVirtual(atoms.Intern("NumLock"))
	if err != nil {
		t.Fatal(err)
	}
	numLock := ModMask(1) << uint(idx)

	// modifier_map Mod2 { <NMLK> }; plus virtualMods = NumLock on the
	// same key.
	kb := b.KeyFor(77)
	kb.Name = atoms.Intern("NMLK")
	kb.ModMap = ModMod2
	kb.VModMap = numLock
	kb.Groups = []KeyGroupBuilder{{
		Levels: []KeyLevel{{Syms: []keysym.Keysym{mustSym(t, "Num_Lock")}}},
	}}

	if _, err := b.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if got := b.Mods.ResolveMask(numLock); got != ModMod2 {
		t.Errorf("ResolveMask(NumLock) = %v, want Mod2", got)
	}
}

func TestInterpretAppliesVirtualModAndRepeat(t *testing.T) {
	atoms := NewAtomTable()
	b := NewBuilder(atoms)

	idx, err := b.Mods.EnsureVirtual(atoms.Intern("NumLock"))
	if err != nil {
		t.Fatal(err)
	}
	numLock := ModMask(1) << uint(idx)

	sym := mustSym(t, "Num_Lock")
	b.Interprets = append(b.Interprets, &Interpret{
		Sym:        &sym,
		MatchOp:    MatchAny,
		VirtualMod: idx,
		Action:     Action{Kind: ActionLockMods, Mods: ModMod2},
		Repeat:     true,
	})

	kb := b.KeyFor(77)
	kb.Name = atoms.Intern("NMLK")
	kb.ModMap = ModMod2
	kb.Groups = []KeyGroupBuilder{{
		Levels: []KeyLevel{{Syms: []keysym.Keysym{sym}}},
	}}

	km, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	k, ok := km.Key(77)
	if !ok {
		t.Fatal("key missing")
	}
	if k.Groups[0].Levels[0].Action.Kind != ActionLockMods {
		t.Errorf("interpret action not assigned: %+v", k.Groups[0].Levels[0].Action)
	}
	if k.VModMap&numLock == 0 {
		t.Error("interpret virtualModifier not applied to the key's vmodmap")
	}
	if !k.Repeats {
		t.Error("interpret repeat not applied to the key")
	}
	// The interpret-contributed vmod bit must feed the mapping
	// derivation too.
	if got := b.Mods.ResolveMask(numLock); got != ModMod2 {
		t.Errorf("ResolveMask(NumLock) = %v, want Mod2", got)
	}
}

func mustSym(t *testing.T, name string) keysym.Keysym {
	t.Helper()
	s, ok := keysym.FromName(name)
	if !ok {
		t.Fatalf("keysym %q not found", name)
	}
	return s
}
