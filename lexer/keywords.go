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

package lexer

import "golang.org/x/text/cases"

// KeywordID names a reserved word recognized by the grammar. The lookup
// table is case-insensitive: XKB_KEYMAP, Xkb_KeyMap and xkb_keymap all
// tokenize identically.
type KeywordID int

const (
	KwNone KeywordID = iota
	KwXkbKeymap
	KwXkbKeycodes
	KwXkbTypes
	KwXkbCompatibility
	KwXkbSymbols
	KwXkbGeometry
	KwInclude
	KwOverride
	KwAugment
	KwReplace
	KwDefault
	KwPartial
	KwHidden
	KwVirtualModifiers
	KwModifierMap
	KwType
	KwKey
	KwAlias
	KwInterpret
	KwIndicator
	KwAction
	KwVirtualModifier
	KwLevelName
	KwAny
	KwAllNone
	KwRepeat
)

var foldCaser = cases.Fold()

func foldCase(s string) string { return foldCaser.String(s) }

// keywordTable maps the case-folded spelling to its KeywordID. A plain
// map gives the same case-insensitive lookup behavior a perfect-hash
// table would, without the generated-code overhead.
var keywordTable = map[string]KeywordID{
	"xkb_keymap":         KwXkbKeymap,
	"xkb_keycodes":       KwXkbKeycodes,
	"xkb_types":          KwXkbTypes,
	"xkb_compatibility":  KwXkbCompatibility,
	"xkb_compat_map":     KwXkbCompatibility,
	"xkb_symbols":        KwXkbSymbols,
	"xkb_geometry":       KwXkbGeometry,
	"include":            KwInclude,
	"override":           KwOverride,
	"augment":            KwAugment,
	"replace":            KwReplace,
	"default":            KwDefault,
	"partial":            KwPartial,
	"hidden":             KwHidden,
	"virtual_modifiers":  KwVirtualModifiers,
	"modifier_map":       KwModifierMap,
	"mod_map":            KwModifierMap,
	"modmap":             KwModifierMap,
	"type":               KwType,
	"key":                KwKey,
	"alias":              KwAlias,
	"interpret":          KwInterpret,
	"indicator":          KwIndicator,
	"action":             KwAction,
	"virtualmodifier":    KwVirtualModifier,
	"virtualmods":        KwVirtualModifier,
	"level_name":         KwLevelName,
	"any":                KwAny,
	"none":                KwAllNone,
	"all":                KwAllNone,
	"repeat":             KwRepeat,
}

// LookupKeyword performs the case-insensitive keyword lookup.
func LookupKeyword(ident string) (KeywordID, bool) {
	id, ok := keywordTable[foldCase(ident)]
	return id, ok
}
