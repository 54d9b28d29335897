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
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// cmap is an 8-bit charset defined by a byte-to-rune table, for the
// charsets golang.org/x/text does not ship. Decoding is the hot path
// (component files are read, not written); the encoder exists so a
// cmap is a full encoding.Encoding and builds its reverse table on
// demand.
type cmap struct {
	runes [256]rune
}

func (c *cmap) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: cmapDecoder{tab: &c.runes}}
}

func (c *cmap) NewEncoder() *encoding.Encoder {
	rev := make(map[rune]byte, 256)
	for i := 255; i >= 0; i-- {
		rev[c.runes[i]] = byte(i)
	}
	return &encoding.Encoder{Transformer: cmapEncoder{rev: rev}}
}

type cmapDecoder struct {
	transform.NopResetter
	tab *[256]rune
}

func (d cmapDecoder) Transform(dst, src []byte, atEOF bool) (int, int, error) {
	var ndst, nsrc int
	for nsrc < len(src) {
		r := d.tab[src[nsrc]]
		if ndst+utf8.RuneLen(r) > len(dst) {
			return ndst, nsrc, transform.ErrShortDst
		}
		ndst += utf8.EncodeRune(dst[ndst:], r)
		nsrc++
	}
	return ndst, nsrc, nil
}

type cmapEncoder struct {
	transform.NopResetter
	rev map[rune]byte
}

func (e cmapEncoder) Transform(dst, src []byte, atEOF bool) (int, int, error) {
	var ndst, nsrc int
	for nsrc < len(src) {
		if ndst >= len(dst) {
			return ndst, nsrc, transform.ErrShortDst
		}
		r, sz := utf8.DecodeRune(src[nsrc:])
		if r == utf8.RuneError && sz == 1 && !atEOF && !utf8.FullRune(src[nsrc:]) {
			return ndst, nsrc, transform.ErrShortSrc
		}
		b, ok := e.rev[r]
		if !ok {
			b = encoding.ASCIISub
		}
		dst[ndst] = b
		ndst++
		nsrc += sz
	}
	return ndst, nsrc, nil
}

// ISO8859_9 (Latin-5, Turkish) is Latin-1 with six positions swapped
// for the dotless/dotted i family and G-breve/S-cedilla.
var ISO8859_9 encoding.Encoding = newISO8859_9()

func newISO8859_9() *cmap {
	c := &cmap{}
	// Latin-1 is the identity mapping into Unicode.
	for i := range c.runes {
		c.runes[i] = rune(i)
	}
	c.runes[0xD0] = 'Ğ'
	c.runes[0xDD] = 'İ'
	c.runes[0xDE] = 'Ş'
	c.runes[0xF0] = 'ğ'
	c.runes[0xFD] = 'ı'
	c.runes[0xFE] = 'ş'
	return c
}
