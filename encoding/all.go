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

// Package encoding registers the legacy character sets that installed
// XKB component trees have historically been written in, so that a
// Context can transcode them before lexing. Importing this package
// does nothing by itself; call Register once at startup.
package encoding

import (
	"golang.org/x/text/encoding/charmap"

	xkb "github.com/gdamore/xkbcommon"
)

// Register installs the ISO8859 family, KOI8, and their common alias
// spellings. Symbol files with non-UTF-8 content are nearly always
// Latin-N or KOI8-R/U commentary; anything else can be registered by
// the application via xkbcommon.RegisterEncoding directly.
func Register() {
	xkb.RegisterEncoding("ISO8859-1", charmap.ISO8859_1)
	xkb.RegisterEncoding("ISO8859-2", charmap.ISO8859_2)
	xkb.RegisterEncoding("ISO8859-3", charmap.ISO8859_3)
	xkb.RegisterEncoding("ISO8859-4", charmap.ISO8859_4)
	xkb.RegisterEncoding("ISO8859-5", charmap.ISO8859_5)
	xkb.RegisterEncoding("ISO8859-6", charmap.ISO8859_6)
	xkb.RegisterEncoding("ISO8859-7", charmap.ISO8859_7)
	xkb.RegisterEncoding("ISO8859-8", charmap.ISO8859_8)
	// ISO8859-9 is not in x/text; we build it ourselves (charmap.go).
	xkb.RegisterEncoding("ISO8859-9", ISO8859_9)
	xkb.RegisterEncoding("ISO8859-13", charmap.ISO8859_13)
	xkb.RegisterEncoding("ISO8859-14", charmap.ISO8859_14)
	xkb.RegisterEncoding("ISO8859-15", charmap.ISO8859_15)
	xkb.RegisterEncoding("ISO8859-16", charmap.ISO8859_16)
	xkb.RegisterEncoding("KOI8-R", charmap.KOI8R)
	xkb.RegisterEncoding("KOI8-U", charmap.KOI8U)

	aliases := map[string]string{
		"8859-1":      "ISO8859-1",
		"ISO-8859-1":  "ISO8859-1",
		"8859-2":      "ISO8859-2",
		"ISO-8859-2":  "ISO8859-2",
		"8859-3":      "ISO8859-3",
		"ISO-8859-3":  "ISO8859-3",
		"8859-4":      "ISO8859-4",
		"ISO-8859-4":  "ISO8859-4",
		"8859-5":      "ISO8859-5",
		"ISO-8859-5":  "ISO8859-5",
		"8859-6":      "ISO8859-6",
		"ISO-8859-6":  "ISO8859-6",
		"8859-7":      "ISO8859-7",
		"ISO-8859-7":  "ISO8859-7",
		"8859-8":      "ISO8859-8",
		"ISO-8859-8":  "ISO8859-8",
		"8859-9":      "ISO8859-9",
		"ISO-8859-9":  "ISO8859-9",
		"Latin-5":     "ISO8859-9",
		"8859-13":     "ISO8859-13",
		"ISO-8859-13": "ISO8859-13",
		"8859-14":     "ISO8859-14",
		"ISO-8859-14": "ISO8859-14",
		"8859-15":     "ISO8859-15",
		"ISO-8859-15": "ISO8859-15",
		"8859-16":     "ISO8859-16",
		"ISO-8859-16": "ISO8859-16",
	}
	for n, v := range aliases {
		xkb.RegisterEncoding(n, xkb.GetEncoding(v))
	}
}
