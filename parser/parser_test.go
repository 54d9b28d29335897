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

package parser

import "testing"

func mustParse(t *testing.T, src string) *File {
	t.Helper()
	f, errs := Parse([]byte(src))
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	return f
}

func TestParseKeycodesFile(t *testing.T) {
	src := `
xkb_keycodes "evdev" {
	minimum = 8;
	maximum = 255;
	<ESC> = 9;
	<AE01> = 10;
	alias <AE00> = <AE10>;
	indicator 1 = "Caps Lock";
};
`
	f := mustParse(t, src)
	if f.Kind != KindKeycodes || f.Name != "evdev" {
		t.Fatalf("got kind=%v name=%q", f.Kind, f.Name)
	}
	if len(f.Decls) != 6 {
		t.Fatalf("got %d decls, want 6: %#v", len(f.Decls), f.Decls)
	}
	if kc, ok := f.Decls[2].(KeycodeDecl); !ok || kc.Name != "ESC" || kc.Value != 9 {
		t.Errorf("decl[2] = %#v", f.Decls[2])
	}
	if al, ok := f.Decls[4].(AliasDecl); !ok || al.Alias != "AE00" || al.Target != "AE10" {
		t.Errorf("decl[4] = %#v", f.Decls[4])
	}
	if ind, ok := f.Decls[5].(IndicatorNameDecl); !ok || ind.Index != 1 || ind.Name != "Caps Lock" {
		t.Errorf("decl[5] = %#v", f.Decls[5])
	}
}

func TestParseTypesFile(t *testing.T) {
	src := `
xkb_types "complete" {
	virtual_modifiers LevelThree, NumLock;

	type "TWO_LEVEL" {
		modifiers = Shift;
		map[Shift] = Level2;
		level_name[Level1] = "Base";
		level_name[Level2] = "Shift";
	};
};
`
	f := mustParse(t, src)
	if len(f.Decls) != 2 {
		t.Fatalf("got %d decls, want 2", len(f.Decls))
	}
	vm, ok := f.Decls[0].(VModDecl)
	if !ok || len(vm.Names) != 2 || vm.Names[0] != "LevelThree" {
		t.Fatalf("decl[0] = %#v", f.Decls[0])
	}
	ty, ok := f.Decls[1].(TypeDecl)
	if !ok || ty.Name != "TWO_LEVEL" {
		t.Fatalf("decl[1] = %#v", f.Decls[1])
	}
	if len(ty.Body) != 4 {
		t.Fatalf("type body has %d decls, want 4: %#v", len(ty.Body), ty.Body)
	}
	if _, ok := ty.Body[0].(VarDecl); !ok {
		t.Errorf("body[0] = %#v, want VarDecl", ty.Body[0])
	}
	if _, ok := ty.Body[1].(MapEntryDecl); !ok {
		t.Errorf("body[1] = %#v, want MapEntryDecl", ty.Body[1])
	}
	if ln, ok := ty.Body[2].(LevelNameDecl); !ok || ln.Name != "Base" {
		t.Errorf("body[2] = %#v", ty.Body[2])
	}
}

func TestParseCompatFile(t *testing.T) {
	src := `
xkb_compatibility "basic" {
	interpret Shift_L+AnyOf(All) {
		action = SetMods(modifiers=Shift,clearLocks);
	};
	indicator "Caps Lock" {
		whichModState = Locked;
		modifiers = Lock;
	};
};
`
	f := mustParse(t, src)
	if len(f.Decls) != 2 {
		t.Fatalf("got %d decls, want 2: %#v", len(f.Decls), f.Decls)
	}
	it, ok := f.Decls[0].(InterpretDecl)
	if !ok {
		t.Fatalf("decl[0] = %#v, want InterpretDecl", f.Decls[0])
	}
	if _, ok := it.Sym.(Ident); !ok {
		t.Errorf("interpret sym = %#v, want Ident", it.Sym)
	}
	if it.Mods == nil {
		t.Errorf("interpret mods = nil, want AnyOf(All) call")
	}
	if len(it.Body) != 1 {
		t.Fatalf("interpret body has %d decls, want 1", len(it.Body))
	}
	vd, ok := it.Body[0].(VarDecl)
	if !ok || vd.Lhs != "action" {
		t.Fatalf("interpret body[0] = %#v", it.Body[0])
	}
	call, ok := vd.Rhs.(Call)
	if !ok || call.Name != "SetMods" || len(call.Args) != 2 {
		t.Fatalf("action rhs = %#v", vd.Rhs)
	}
	if kv, ok := call.Args[0].(KeyValueArg); !ok || kv.Name != "modifiers" {
		t.Errorf("call arg 0 = %#v", call.Args[0])
	}

	ind, ok := f.Decls[1].(IndicatorDecl)
	if !ok || ind.Name != "Caps Lock" || len(ind.Body) != 2 {
		t.Fatalf("decl[1] = %#v", f.Decls[1])
	}
}

func TestParseSymbolsFile(t *testing.T) {
	src := `
xkb_symbols "pc" {
	key <AE01> {
		symbols[Group1] = [ 1, exclam ];
	};
	key <AE02> {
		[ 2, at ];
	};
	modifier_map Shift { <LFSH>, <RTSH> };
};
`
	f := mustParse(t, src)
	if len(f.Decls) != 3 {
		t.Fatalf("got %d decls, want 3: %#v", len(f.Decls), f.Decls)
	}
	k1, ok := f.Decls[0].(KeyDecl)
	if !ok || k1.Name != "AE01" {
		t.Fatalf("decl[0] = %#v", f.Decls[0])
	}
	ga, ok := k1.Body[0].(GroupArrayDecl)
	if !ok || ga.Field != "symbols" || ga.Group != 1 || len(ga.Elems) != 2 {
		t.Fatalf("key body[0] = %#v", k1.Body[0])
	}
	k2, ok := f.Decls[1].(KeyDecl)
	if !ok {
		t.Fatalf("decl[1] = %#v", f.Decls[1])
	}
	ga2, ok := k2.Body[0].(GroupArrayDecl)
	if !ok || ga2.Group != 1 {
		t.Fatalf("bare array shorthand = %#v", k2.Body[0])
	}
	mm, ok := f.Decls[2].(ModMapDecl)
	if !ok || mm.ModName != "Shift" || len(mm.Keys) != 2 {
		t.Fatalf("decl[2] = %#v", f.Decls[2])
	}
}

func TestParseKeyBodyCommaSeparated(t *testing.T) {
	src := `
xkb_symbols "ralt" {
	key <RALT> { type[Group1] = "TWO_LEVEL", symbols[Group1] = [ ISO_Level3_Shift ], virtualMods = LevelThree };
};
`
	f := mustParse(t, src)
	k, ok := f.Decls[0].(KeyDecl)
	if !ok || len(k.Body) != 3 {
		t.Fatalf("decl[0] = %#v", f.Decls[0])
	}
	if vd, ok := k.Body[0].(VarDecl); !ok || vd.Lhs != "type" || vd.Index == nil {
		t.Errorf("body[0] = %#v", k.Body[0])
	}
	if ga, ok := k.Body[1].(GroupArrayDecl); !ok || ga.Field != "symbols" {
		t.Errorf("body[1] = %#v", k.Body[1])
	}
	if vd, ok := k.Body[2].(VarDecl); !ok || vd.Lhs != "virtualMods" {
		t.Errorf("body[2] = %#v", k.Body[2])
	}
}

func TestParseIncludeAndFlags(t *testing.T) {
	src := `
default partial xkb_symbols "pc" {
	include "pc+us(basic)";
	augment key <TLDE> {
		symbols[Group1] = [ grave ];
	};
};
`
	f := mustParse(t, src)
	if !f.Default || !f.Partial {
		t.Fatalf("leading flags not recorded: %#v", f)
	}
	inc, ok := f.Decls[0].(IncludeDecl)
	if !ok || inc.Spec != "pc+us(basic)" {
		t.Fatalf("decl[0] = %#v", f.Decls[0])
	}
	key, ok := f.Decls[1].(KeyDecl)
	if !ok || key.Merge != MergeAugment {
		t.Fatalf("decl[1] = %#v", f.Decls[1])
	}
}

func TestParseGeometryIsDiscarded(t *testing.T) {
	src := `
xkb_geometry "pc" {
	shape "KEY" { { [0,0], [72,72] } };
};
`
	f := mustParse(t, src)
	if len(f.Decls) != 1 {
		t.Fatalf("got %d decls, want 1", len(f.Decls))
	}
	if _, ok := f.Decls[0].(GeometryDecl); !ok {
		t.Errorf("decl[0] = %#v, want GeometryDecl", f.Decls[0])
	}
}

func TestParseMultiSectionKeymap(t *testing.T) {
	src := `
xkb_keymap {
	xkb_keycodes "evdev" { <ESC> = 9; };
	xkb_types "complete" { virtual_modifiers NumLock; };
};
`
	f := mustParse(t, src)
	if f.Kind != KindKeymap || len(f.Sections) != 2 {
		t.Fatalf("got kind=%v sections=%d", f.Kind, len(f.Sections))
	}
	if f.Sections[0].Kind != KindKeycodes || f.Sections[1].Kind != KindTypes {
		t.Fatalf("section kinds = %v, %v", f.Sections[0].Kind, f.Sections[1].Kind)
	}
}

func TestParseModMaskExpression(t *testing.T) {
	src := `
xkb_types "t" {
	type "T" {
		map[Shift+Lock] = Level2;
	};
};
`
	f := mustParse(t, src)
	ty := f.Decls[0].(TypeDecl)
	me := ty.Body[0].(MapEntryDecl)
	bin, ok := me.Mods.(Binary)
	if !ok {
		t.Fatalf("mods = %#v, want Binary", me.Mods)
	}
	if lhs, ok := bin.Lhs.(Ident); !ok || lhs.Name != "Shift" {
		t.Errorf("lhs = %#v", bin.Lhs)
	}
	if rhs, ok := bin.Rhs.(Ident); !ok || rhs.Name != "Lock" {
		t.Errorf("rhs = %#v", bin.Rhs)
	}
}
