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
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/xkbcommon/keysym"
)

// Format names a serialization format for Keymap.Serialize. Only
// TextV1 is defined; it is the one format KeymapFromString accepts
// back.
type Format int

const (
	TextV1 Format = iota
)

// Serialize renders km in the requested format. The TextV1 output is a
// single "xkb_keymap { xkb_keycodes {...}; xkb_types {...};
// xkb_compatibility {...}; xkb_symbols {...}; };" document, built
// deterministically (sorted keycodes/type names) so that two keymaps
// compiled from identical inputs on distinct Contexts produce
// byte-identical text.
func (km *Keymap) Serialize(format Format) (string, error) {
	if format != TextV1 {
		return "", fmt.Errorf("keymap: unsupported serialize format %d", format)
	}
	var b strings.Builder
	b.WriteString("xkb_keymap {\n")
	km.writeKeycodes(&b)
	km.writeTypes(&b)
	km.writeCompat(&b)
	km.writeSymbols(&b)
	b.WriteString("};\n")
	return b.String(), nil
}

func (km *Keymap) writeKeycodes(b *strings.Builder) {
	b.WriteString("\txkb_keycodes {\n")
	codes := km.Keycodes.Codes()
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	for _, c := range codes {
		e, _ := km.Keycodes.Lookup(c)
		fmt.Fprintf(b, "\t\t<%s> = %d;\n", km.Atoms.Text(e.Name), c)
		for _, alias := range e.Aliases {
			fmt.Fprintf(b, "\t\talias <%s> = <%s>;\n", km.Atoms.Text(alias), km.Atoms.Text(e.Name))
		}
	}
	b.WriteString("\t};\n")
}

func (km *Keymap) writeTypes(b *strings.Builder) {
	b.WriteString("\txkb_types {\n")
	names := make([]string, 0, len(km.Types))
	byName := make(map[string]*KeyType, len(km.Types))
	for _, t := range km.Types {
		n := km.Atoms.Text(t.Name)
		names = append(names, n)
		byName[n] = t
	}
	sort.Strings(names)
	for _, n := range names {
		t := byName[n]
		fmt.Fprintf(b, "\t\ttype \"%s\" {\n", n)
		fmt.Fprintf(b, "\t\t\tmodifiers = %s;\n", maskString(km, t.Mods))
		for _, e := range t.Entries {
			fmt.Fprintf(b, "\t\t\tmap[%s] = Level%d;\n", maskString(km, e.Mods.Mods), e.Level+1)
			if e.Preserve.Mods != 0 {
				fmt.Fprintf(b, "\t\t\tpreserve[%s] = %s;\n", maskString(km, e.Mods.Mods), maskString(km, e.Preserve.Mods))
			}
		}
		for i := 0; i < t.NumLevels; i++ {
			if name, ok := t.LevelNames[i]; ok {
				fmt.Fprintf(b, "\t\t\tlevel_name[Level%d] = \"%s\";\n", i+1, km.Atoms.Text(name))
			}
		}
		b.WriteString("\t\t};\n")
	}
	b.WriteString("\t};\n")
}

func (km *Keymap) writeCompat(b *strings.Builder) {
	b.WriteString("\txkb_compatibility {\n")
	for _, it := range km.Interprets {
		sym := "Any"
		if it.Sym != nil {
			sym = keysym.GetName(*it.Sym)
		}
		fmt.Fprintf(b, "\t\tinterpret %s", sym)
		if it.ModsMask != 0 {
			fmt.Fprintf(b, " + %s", maskString(km, it.ModsMask))
		}
		b.WriteString(" {\n")
		fmt.Fprintf(b, "\t\t\taction = %s;\n", actionString(it.Action))
		b.WriteString("\t\t};\n")
	}
	b.WriteString("\t};\n")
}

func (km *Keymap) writeSymbols(b *strings.Builder) {
	b.WriteString("\txkb_symbols {\n")
	codes := km.Keycodes.Codes()
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	for _, c := range codes {
		k, ok := km.Key(c)
		if !ok {
			continue
		}
		e, _ := km.Keycodes.Lookup(c)
		fmt.Fprintf(b, "\t\tkey <%s> {\n", km.Atoms.Text(e.Name))
		for gi, g := range k.Groups {
			fmt.Fprintf(b, "\t\t\ttype[Group%d] = \"%s\";\n", gi+1, km.Atoms.Text(g.Type.Name))
			syms := make([]string, len(g.Levels))
			for li, lvl := range g.Levels {
				if len(lvl.Syms) == 0 {
					syms[li] = "NoSymbol"
				} else {
					syms[li] = keysym.GetName(lvl.Syms[0])
				}
			}
			fmt.Fprintf(b, "\t\t\tsymbols[Group%d] = [ %s ];\n", gi+1, strings.Join(syms, ", "))
		}
		b.WriteString("\t\t};\n")
	}
	for bit := 0; bit < NumRealMods; bit++ {
		mask := ModMask(1) << uint(bit)
		var names []string
		for _, c := range codes {
			if k, ok := km.Key(c); ok && k.ModMap&mask != 0 {
				names = append(names, "<"+km.Atoms.Text(k.Name)+">")
			}
		}
		if len(names) > 0 {
			fmt.Fprintf(b, "\t\tmodifier_map %s { %s };\n", km.Mods.Name(bit), strings.Join(names, ", "))
		}
	}
	b.WriteString("\t};\n")
}

func maskString(km *Keymap, m ModMask) string {
	if m == 0 {
		return "None"
	}
	var parts []string
	for i := 0; i < km.Mods.Len(); i++ {
		if m&(1<<uint(i)) != 0 {
			parts = append(parts, km.Mods.Name(i))
		}
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, "+")
}

func actionString(a Action) string {
	if a.Raw != "" {
		return a.Raw
	}
	switch a.Kind {
	case ActionNone:
		return "NoAction()"
	case ActionSetMods:
		return "SetMods(modifiers=modMapMods)"
	case ActionLatchMods:
		return "LatchMods(modifiers=modMapMods)"
	case ActionLockMods:
		return "LockMods(modifiers=modMapMods)"
	default:
		return "NoAction()"
	}
}
