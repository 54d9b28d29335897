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
	"os"

	"github.com/charmbracelet/log"

	"github.com/gdamore/xkbcommon/keymap"
	"github.com/gdamore/xkbcommon/parser"
	"github.com/gdamore/xkbcommon/resolver"
)

// CompileKeymapFile compiles an already-parsed xkb_keymap document, as
// produced by Keymap.Serialize or hand-written and fed through
// parser.Parse. Sections are compiled in dependency order (keycodes,
// types, compat, symbols, geometry discarded) regardless of their
// textual order in the document. Includes inside a section still
// resolve through res, so a textual keymap may reference installed
// component files.
func CompileKeymapFile(atoms *keymap.AtomTable, res *resolver.Resolver, f *parser.File, logger *log.Logger) (*keymap.Keymap, error) {
	if f.Kind != parser.KindKeymap {
		return nil, fmt.Errorf("xkbcomp: expected an xkb_keymap document, got %s block", kindName(f.Kind))
	}
	if logger == nil {
		logger = log.New(os.Stderr)
		logger.SetLevel(log.WarnLevel)
	}
	b := keymap.NewBuilder(atoms)

	sections := make(map[parser.FileKind]*parser.File)
	for _, sec := range f.Sections {
		if _, dup := sections[sec.Kind]; dup {
			logger.Warn("duplicate section in keymap document, first wins", "section", kindName(sec.Kind))
			continue
		}
		sections[sec.Kind] = sec
	}

	type step struct {
		kind    parser.FileKind
		compile func(sec *parser.File) error
	}
	steps := []step{
		{parser.KindKeycodes, func(sec *parser.File) error {
			info := newKeycodesInfo(b.Atoms, logger)
			return runSection(&info.base, "keycodes", logger,
				func() error { return info.compileDecls(res, sec.Decls, sectionMode(sec), 0) },
				func() { info.flushInto(b) })
		}},
		{parser.KindTypes, func(sec *parser.File) error {
			info := newTypesInfo(b, logger)
			return runSection(&info.base, "types", logger,
				func() error { return info.compileDecls(res, sec.Decls, sectionMode(sec), 0) },
				func() { info.flushInto(b) })
		}},
		{parser.KindCompat, func(sec *parser.File) error {
			info := newCompatInfo(b, logger)
			return runSection(&info.base, "compat", logger,
				func() error { return info.compileDecls(res, sec.Decls, sectionMode(sec), 0) },
				func() { info.flushInto(b) })
		}},
		{parser.KindSymbols, func(sec *parser.File) error {
			info := newSymbolsInfo(b, logger)
			return runSection(&info.base, "symbols", logger,
				func() error { return info.compileDecls(res, sec.Decls, sectionMode(sec), 0) },
				func() { info.flushInto(b) })
		}},
	}
	for _, s := range steps {
		sec, ok := sections[s.kind]
		if !ok {
			continue
		}
		if err := s.compile(sec); err != nil {
			return nil, err
		}
	}

	return b.Finalize()
}

// runSection applies the shared compile-then-flush shape the four
// Compile* wrappers use, against an in-memory section instead of a
// resolved component name.
func runSection(b *base, section string, logger *log.Logger, compile func() error, flush func()) error {
	if err := compile(); err != nil {
		return err
	}
	if err := b.ok(); err != nil {
		if b.UnrecoverableErr != nil {
			return err
		}
		logCompileErrors(logger, section, err)
	}
	flush()
	return nil
}

// sectionMode resolves a section's textual merge flags for use as the
// enclosing mode of its declarations.
func sectionMode(sec *parser.File) parser.MergeMode {
	if sec.Merge == parser.MergeDefault {
		return parser.MergeOverride
	}
	return sec.Merge
}

func kindName(k parser.FileKind) string {
	switch k {
	case parser.KindKeycodes:
		return "xkb_keycodes"
	case parser.KindTypes:
		return "xkb_types"
	case parser.KindCompat:
		return "xkb_compatibility"
	case parser.KindSymbols:
		return "xkb_symbols"
	case parser.KindGeometry:
		return "xkb_geometry"
	case parser.KindKeymap:
		return "xkb_keymap"
	default:
		return fmt.Sprintf("FileKind(%d)", int(k))
	}
}
