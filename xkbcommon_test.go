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

package xkbcommon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gdamore/xkbcommon/keymap"
	"github.com/gdamore/xkbcommon/keysym"
)

const minimalKeymap = `xkb_keymap {
	xkb_keycodes {
		<AE01> = 10;
		<LFSH> = 50;
	};
	xkb_types {
		type "TWO_LEVEL" {
			modifiers = Shift;
			map[Shift] = Level2;
		};
		type "ONE_LEVEL" {
			modifiers = None;
		};
	};
	xkb_compatibility {
	};
	xkb_symbols {
		key <AE01> { type = "TWO_LEVEL"; [ 1, exclam ] };
		key <LFSH> { type = "ONE_LEVEL"; [ Shift_L ] };
		modifier_map Shift { <LFSH> };
	};
};
`

func testContext(t *testing.T, root string) *Context {
	t.Helper()
	getenv := func(k string) string {
		if k == "XKB_CONFIG_ROOT" {
			return root
		}
		return ""
	}
	return NewContext(ContextNoFlags, WithGetenv(getenv))
}

func TestKeymapFromString(t *testing.T) {
	ctx := testContext(t, t.TempDir())
	km, err := ctx.KeymapFromString(minimalKeymap, TextV1)
	if err != nil {
		t.Fatalf("KeymapFromString: %v", err)
	}

	syms := km.KeySymsByLevel(10, 0, 0)
	if len(syms) != 1 || syms[0] != mustSym(t, "1") {
		t.Errorf("level 1 = %v, want keysym 1", symNames(syms))
	}
	syms = km.KeySymsByLevel(10, 0, 1)
	if len(syms) != 1 || syms[0] != mustSym(t, "exclam") {
		t.Errorf("level 2 = %v, want exclam", symNames(syms))
	}

	k, ok := km.Key(50)
	if !ok {
		t.Fatal("shift key missing")
	}
	if k.ModMap&keymap.ModShift == 0 {
		t.Error("modifier_map did not set Shift on <LFSH>")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	ctx := testContext(t, t.TempDir())
	km, err := ctx.KeymapFromString(minimalKeymap, TextV1)
	if err != nil {
		t.Fatal(err)
	}
	text, err := km.Serialize(keymap.TextV1)
	if err != nil {
		t.Fatal(err)
	}

	ctx2 := testContext(t, t.TempDir())
	km2, err := ctx2.KeymapFromString(text, TextV1)
	if err != nil {
		t.Fatalf("reparse of serialized form: %v\n%s", err, text)
	}
	text2, err := km2.Serialize(keymap.TextV1)
	if err != nil {
		t.Fatal(err)
	}
	if text != text2 {
		t.Errorf("serialize not stable across a round trip:\n--- first\n%s\n--- second\n%s", text, text2)
	}
}

func TestKeymapFromNames(t *testing.T) {
	root := t.TempDir()
	write := func(sub, name, content string) {
		t.Helper()
		dir := filepath.Join(root, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("rules", "testrules", `
! model layout = keycodes types compat symbols
*       *      = test     test  test   test
`)
	write("keycodes", "test", `xkb_keycodes {
	<AE01> = 10;
	<LFSH> = 50;
};
`)
	write("types", "test", `xkb_types {
	type "TWO_LEVEL" {
		modifiers = Shift;
		map[Shift] = Level2;
	};
};
`)
	write("compat", "test", `xkb_compatibility {
};
`)
	write("symbols", "test", `xkb_symbols {
	key <AE01> { type = "TWO_LEVEL"; [ 1, exclam ] };
	key <LFSH> { [ Shift_L ] };
	modifier_map Shift { <LFSH> };
};
`)

	ctx := testContext(t, root)
	km, err := ctx.KeymapFromNames(RuleNames{Rules: "testrules", Model: "pc105", Layout: "us"})
	if err != nil {
		t.Fatalf("KeymapFromNames: %v", err)
	}
	syms := km.KeySymsByLevel(10, 0, 1)
	if len(syms) != 1 || syms[0] != mustSym(t, "exclam") {
		t.Errorf("shifted <AE01> = %v, want exclam", symNames(syms))
	}
}

func TestDistinctContextsSerializeEqual(t *testing.T) {
	a, err := testContext(t, t.TempDir()).KeymapFromString(minimalKeymap, TextV1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := testContext(t, t.TempDir()).KeymapFromString(minimalKeymap, TextV1)
	if err != nil {
		t.Fatal(err)
	}
	ta, _ := a.Serialize(keymap.TextV1)
	tb, _ := b.Serialize(keymap.TextV1)
	if ta != tb {
		t.Error("identical input compiled on distinct contexts serialized differently")
	}
}

func TestUnknownCharsetRejected(t *testing.T) {
	ctx := testContext(t, t.TempDir())
	if err := ctx.SetFileCharset("EBCDIC-NOPE"); err == nil {
		t.Fatal("expected error for unregistered charset")
	}
	if err := ctx.SetFileCharset(""); err != nil {
		t.Fatalf("clearing charset: %v", err)
	}
}

func mustSym(t *testing.T, name string) keysym.Keysym {
	t.Helper()
	s, ok := keysym.FromName(name)
	if !ok {
		t.Fatalf("keysym %q unknown", name)
	}
	return s
}

func symNames(syms []keysym.Keysym) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = keysym.GetName(s)
	}
	return out
}
