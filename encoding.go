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
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/encoding"
)

var encodings map[string]encoding.Encoding
var encodingLk sync.Mutex

// RegisterEncoding may be called by the application to register a
// character set by name. The lexer consumes UTF-8; some installed
// component trees (notably older xkb_symbols collections) still carry
// ISO8859-family comments, and a registered charset lets a Context
// transcode such trees before parsing. Most of the common charsets
// exist already as stock variables under golang.org/x/text/encoding;
// the encoding subpackage registers the usual suspects in bulk.
func RegisterEncoding(charset string, enc encoding.Encoding) {
	encodingLk.Lock()
	charset = strings.ToLower(charset)
	if encodings == nil {
		encodings = make(map[string]encoding.Encoding)
	}
	encodings[charset] = enc
	encodingLk.Unlock()
}

// GetEncoding returns the registered encoding for a charset name, or
// nil if none was registered.
func GetEncoding(charset string) encoding.Encoding {
	charset = strings.ToLower(charset)
	encodingLk.Lock()
	defer encodingLk.Unlock()
	if enc, ok := encodings[charset]; ok {
		return enc
	}
	return nil
}

// SetFileCharset tells the context that component files on its include
// path are stored in the named charset rather than UTF-8. Every file
// the resolver reads from then on is transcoded before lexing. An
// empty name restores plain UTF-8 reads.
func (c *Context) SetFileCharset(charset string) error {
	if charset == "" {
		c.res.Decode = nil
		return nil
	}
	enc := GetEncoding(charset)
	if enc == nil {
		return fmt.Errorf("xkbcommon: charset %q not registered", charset)
	}
	c.res.Decode = func(raw []byte) []byte {
		out, err := enc.NewDecoder().Bytes(raw)
		if err != nil {
			// Transcoding failures leave the raw bytes in place; the
			// lexer reports anything it cannot tokenize.
			return raw
		}
		return out
	}
	return nil
}
