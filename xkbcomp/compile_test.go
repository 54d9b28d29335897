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

package xkbcomp

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/gdamore/xkbcommon/keymap"
	"github.com/gdamore/xkbcommon/keysym"
	"github.com/gdamore/xkbcommon/parser"
	"github.com/gdamore/xkbcommon/resolver"
)

func parseDoc(t *testing.T, src string) (*parser.File, []error) {
	t.Helper()
	return parser.Parse([]byte(src))
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func writeFile(t *testing.T, root, kind, name, content string) {
	t.Helper()
	dir := filepath.Join(root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestResolver(t *testing.T) (*resolver.Resolver, string) {
	root := t.TempDir()
	return &resolver.Resolver{Path: []string{root}}, root
}

func TestConflictingTypesLaterWinsByDefault(t *testing.T) {
	res, root := newTestResolver(t)
	writeFile(t, root, "types", "dup", `xkb_types {
	type "ONE_LEVEL" {
		modifiers = None;
		level_name[Level1] = "first";
	};
	type "ONE_LEVEL" {
		modifiers = None;
		level_name[Level1] = "second";
	};
};
`)
	b := keymap.NewBuilder(keymap.NewAtomTable())
	if err := CompileTypes(b, res, "dup", quietLogger()); err != nil {
		t.Fatalf("CompileTypes: %v", err)
	}
	tt, ok := b.TypesByName[b.Atoms.Intern("ONE_LEVEL")]
	if !ok {
		t.Fatal("type missing")
	}
	if got := b.Atoms.Text(tt.LevelNames[0]); got != "second" {
		t.Errorf("default merge kept %q, want later definition", got)
	}
}

func TestConflictingTypesAugmentKeepsEarlier(t *testing.T) {
	res, root := newTestResolver(t)
	writeFile(t, root, "types", "base", `xkb_types {
	type "ONE_LEVEL" {
		modifiers = None;
		level_name[Level1] = "first";
	};
};
`)
	writeFile(t, root, "types", "extra", `xkb_types {
	type "ONE_LEVEL" {
		modifiers = None;
		level_name[Level1] = "second";
	};
};
`)
	b := keymap.NewBuilder(keymap.NewAtomTable())
	// "base|extra": the '|' operator merges extra with Augment.
	if err := CompileTypes(b, res, "base|extra", quietLogger()); err != nil {
		t.Fatalf("CompileTypes: %v", err)
	}
	tt := b.TypesByName[b.Atoms.Intern("ONE_LEVEL")]
	if got := b.Atoms.Text(tt.LevelNames[0]); got != "first" {
		t.Errorf("augment merge kept %q, want earlier definition", got)
	}
}

func TestIncludeDepthLimit(t *testing.T) {
	writeChain := func(t *testing.T, root string, hops int) {
		for i := 0; i < hops; i++ {
			body := fmt.Sprintf("\t<K%d> = %d;\n", i, i+1)
			if i+1 < hops {
				body = fmt.Sprintf("\tinclude \"c%d\";\n", i+1) + body
			}
			writeFile(t, root, "keycodes", fmt.Sprintf("c%d", i),
				"xkb_keycodes {\n"+body+"};\n")
		}
	}

	t.Run("depth5-succeeds", func(t *testing.T) {
		res, root := newTestResolver(t)
		writeChain(t, root, MaxIncludeDepth+1) // top + 5 include hops
		b := keymap.NewBuilder(keymap.NewAtomTable())
		if err := CompileKeycodes(b, res, "c0", quietLogger()); err != nil {
			t.Fatalf("depth %d should succeed: %v", MaxIncludeDepth, err)
		}
	})
	t.Run("depth6-fails", func(t *testing.T) {
		res, root := newTestResolver(t)
		writeChain(t, root, MaxIncludeDepth+2)
		b := keymap.NewBuilder(keymap.NewAtomTable())
		if err := CompileKeycodes(b, res, "c0", quietLogger()); err == nil {
			t.Fatalf("depth %d should fail", MaxIncludeDepth+1)
		}
	})
}

func TestModifierMapSetsShiftOnBothKeys(t *testing.T) {
	res, root := newTestResolver(t)
	writeFile(t, root, "symbols", "shift", `xkb_symbols {
	key <LFSH> { [ Shift_L ] };
	key <RTSH> { [ Shift_R ] };
	modifier_map Shift { <LFSH>, <RTSH> };
};
`)
	b := keymap.NewBuilder(keymap.NewAtomTable())
	if err := CompileSymbols(b, res, "shift", quietLogger()); err != nil {
		t.Fatalf("CompileSymbols: %v", err)
	}
	for _, name := range []string{"LFSH", "RTSH"} {
		code, ok := b.Keycodes.Code(b.Atoms.Intern(name))
		if !ok {
			t.Fatalf("key %s not defined", name)
		}
		if b.Keys[code].ModMap&keymap.ModShift == 0 {
			t.Errorf("key %s missing Shift in modmap", name)
		}
	}
}

func TestAlphabeticHeuristic(t *testing.T) {
	res, root := newTestResolver(t)
	writeFile(t, root, "symbols", "qw", `xkb_symbols {
	key <AD01> { [ q, Q ] };
};
`)
	b := keymap.NewBuilder(keymap.NewAtomTable())
	if err := CompileSymbols(b, res, "qw", quietLogger()); err != nil {
		t.Fatalf("CompileSymbols: %v", err)
	}
	km, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	k, ok := km.KeyByName(km.Atoms.Intern("AD01"))
	if !ok {
		t.Fatal("key <AD01> missing")
	}
	g := k.Groups[0]
	if name := km.Atoms.Text(g.Type.Name); name != "ALPHABETIC" {
		t.Errorf("inferred type = %q, want ALPHABETIC", name)
	}
	if len(g.Levels) != 2 {
		t.Fatalf("levels = %d, want 2", len(g.Levels))
	}
	q, _ := keysym.FromName("Q")
	if syms := k.SymsByLevel(0, 1); len(syms) != 1 || syms[0] != q {
		t.Errorf("level 2 = %v, want Q", syms)
	}
}

func TestVirtualModMappingFromSymbols(t *testing.T) {
	res, root := newTestResolver(t)
	writeFile(t, root, "symbols", "numpad", `xkb_symbols {
	virtual_modifiers NumLock;
	key <NMLK> { [ Num_Lock ], virtualMods = NumLock };
	modifier_map Mod2 { <NMLK> };
};
`)
	b := keymap.NewBuilder(keymap.NewAtomTable())
	if err := CompileSymbols(b, res, "numpad", quietLogger()); err != nil {
		t.Fatalf("CompileSymbols: %v", err)
	}
	if _, err := b.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	idx, ok := b.Mods.IndexOf(b.Atoms.Intern("NumLock"))
	if !ok {
		t.Fatal("NumLock not declared")
	}
	bit := keymap.ModMask(1) << uint(idx)
	if got := b.Mods.ResolveMask(bit); got != keymap.ModMod2 {
		t.Errorf("ResolveMask(NumLock) = %v, want Mod2", got)
	}
}

func TestKeymapDocumentCompiles(t *testing.T) {
	res, _ := newTestResolver(t)
	doc := `xkb_keymap {
	xkb_keycodes { <AD01> = 24; };
	xkb_types {
		type "TWO_LEVEL" {
			modifiers = Shift;
			map[Shift] = Level2;
		};
	};
	xkb_compatibility { };
	xkb_symbols {
		key <AD01> { type = "TWO_LEVEL"; [ q, Q ] };
	};
};
`
	f, errs := parseDoc(t, doc)
	if len(errs) > 0 {
		t.Fatalf("parse: %v", errs)
	}
	km, err := CompileKeymapFile(keymap.NewAtomTable(), res, f, quietLogger())
	if err != nil {
		t.Fatalf("CompileKeymapFile: %v", err)
	}
	q, _ := keysym.FromName("Q")
	if syms := km.KeySymsByLevel(24, 0, 1); len(syms) != 1 || syms[0] != q {
		t.Errorf("shifted <AD01> = %v, want Q", syms)
	}
}
