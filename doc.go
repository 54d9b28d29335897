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

// Package xkbcommon compiles symbolic keyboard descriptions written in
// the XKB configuration language into immutable, queryable keymaps.
//
// A Context owns the string-interning atom table and the include path
// derived from the XKB environment variables. KeymapFromNames resolves
// a rules/model/layout/variant/options tuple through the installed
// rules files into keycodes/types/compat/symbols components and
// compiles them; KeymapFromString compiles a complete textual
// xkb_keymap document, such as the output of Keymap.Serialize.
//
// Once compiled, a keymap is never mutated and may be shared freely
// across goroutines. The state machine in the state subpackage tracks
// depressed, latched and locked modifiers against a compiled keymap
// and answers which keysyms a key produces under the current state.
package xkbcommon
