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

package encoding

import (
	"testing"

	xkb "github.com/gdamore/xkbcommon"
)

func TestISO8859_9(t *testing.T) {
	Register()
	enc := xkb.GetEncoding("ISO-8859-9")
	if enc == nil {
		t.Fatal("nil encoding for ISO-8859-9")
	}
	glyph, err := enc.NewDecoder().Bytes([]byte{0xFD})
	if err != nil {
		t.Fatal(err)
	}
	if string(glyph) != "ı" {
		t.Errorf("failed to match: %s != ı", string(glyph))
	}
	// Positions Latin-5 shares with Latin-1 stay put.
	glyph, err = enc.NewDecoder().Bytes([]byte{0xE9})
	if err != nil {
		t.Fatal(err)
	}
	if string(glyph) != "é" {
		t.Errorf("failed to match: %s != é", string(glyph))
	}
}

func TestAscii(t *testing.T) {
	Register()
	encodings := []string{
		"ISO-8859-1",
		"ISO-8859-9",
		"KOI8-R",
		"KOI8-U",
	}

	for _, name := range encodings {
		t.Run(name, func(t *testing.T) {
			enc := xkb.GetEncoding(name)
			if enc == nil {
				t.Errorf("failed getting encoding for %s", name)
				return
			}
			encoder := enc.NewEncoder()
			decoder := enc.NewDecoder()
			// All lower 7-bit values must encode and decode identically.
			for i := byte(0); i < 128; i++ {
				s := string([]byte{i})
				if x, err := encoder.String(s); err != nil || x != s {
					t.Errorf("failed encoding for character: %d, err %v expect %q got %q", i, err, s, x)
				}
				if x, err := decoder.String(s); err != nil || x != s {
					t.Errorf("failed decoding for character: %d, err %v expect %q got %q", i, err, s, x)
				}
			}
		})
	}
}
