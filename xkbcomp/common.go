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

// Package xkbcomp implements the per-section sub-compilers (keycodes,
// key types, compat, symbols): each consumes one or more parser.File
// ASTs, honors the per-declaration merge mode, follows "include"
// directives through the File Resolver, and writes into a shared
// keymap.KeymapBuilder. Compile drives the four sections in order and
// hands the assembled builder to keymap.Finalize. Geometry is
// recognized by the parser and discarded; no compiler runs for it.
package xkbcomp

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/gdamore/xkbcommon/parser"
	"github.com/gdamore/xkbcommon/resolver"
)

// MaxIncludeDepth bounds "include" nesting within a single section,
// shared across all four sub-compilers.
const MaxIncludeDepth = 5

// ErrExceedsIncludeMaxDepth is fatal to the enclosing sub-compilation.
var ErrExceedsIncludeMaxDepth = fmt.Errorf("xkbcomp: include nesting exceeds max depth %d", MaxIncludeDepth)

// maxSectionErrors: ten accumulated recoverable errors abandons the
// section.
const maxSectionErrors = 10

// base is embedded by every sub-compiler's Info record: the name,
// the accumulated recoverable errors, the short-circuiting
// unrecoverable error, the include depth counter, and a logger for
// "conflicting_*"/"unknown_field"-style diagnostics.
type base struct {
	Name             string
	Errors           []error
	UnrecoverableErr error
	IncludeDepth     int
	Log              *log.Logger
}

func newBase(log *log.Logger) base {
	return base{Log: log}
}

func (b *base) fail(err error) {
	if err == nil {
		return
	}
	b.Errors = append(b.Errors, err)
	if len(b.Errors) >= maxSectionErrors && b.UnrecoverableErr == nil {
		b.UnrecoverableErr = fmt.Errorf("xkbcomp: %d errors accumulated, abandoning section", len(b.Errors))
	}
}

func (b *base) ok() error {
	if b.UnrecoverableErr != nil {
		return b.UnrecoverableErr
	}
	if len(b.Errors) > 0 {
		return &CompileError{Errors: b.Errors}
	}
	return nil
}

// CompileError aggregates the recoverable errors a sub-compiler
// collected while still producing a usable (if partial) result; it
// implements the stdlib errors.Join aggregation shape via
// Unwrap() []error.
type CompileError struct{ Errors []error }

func (e *CompileError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("xkbcomp: %d errors (first: %v)", len(e.Errors), e.Errors[0])
}

func (e *CompileError) Unwrap() []error { return e.Errors }

// resolveMode resolves a declaration's textual merge mode against the
// mode of the include that brought it in: MergeDefault inherits the
// enclosing mode.
func resolveMode(declMode, enclosing parser.MergeMode) parser.MergeMode {
	if declMode == parser.MergeDefault {
		return enclosing
	}
	return declMode
}

// shouldReplace reports whether a new definition wins over an existing
// one under mode: Replace/Override favor the new entity, Augment keeps
// the old one, and a caller-resolved Default should never reach here
// (resolveMode already turned it into a concrete mode upstream).
func shouldReplace(mode parser.MergeMode) bool {
	return mode != parser.MergeAugment
}

// includeRef is one element of an "include" spec or of a top-level
// KcCGST component-name string handed down from the Rules Matcher
// (which uses the identical "A|B:foo+C" grammar).
type includeRef struct {
	Name    string
	Section string
	Merge   parser.MergeMode
}

// parseIncludeSpec splits "A|B:foo+C" into an ordered list of
// (name, explicit_section, merge_mode) triples. '+' introduces an
// Override-merged component, '|' an Augment-merged one; the first
// component carries no operator and its Merge field is MergeDefault
// (it has nothing to merge into yet).
func parseIncludeSpec(spec string) ([]includeRef, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("xkbcomp: empty include spec")
	}
	var refs []includeRef
	mode := parser.MergeDefault
	start := 0
	depth := 0
	flush := func(end int) error {
		tok := strings.TrimSpace(spec[start:end])
		if tok == "" {
			return fmt.Errorf("xkbcomp: empty component in include spec %q", spec)
		}
		name, section := tok, ""
		if i := strings.IndexByte(tok, ':'); i >= 0 {
			name, section = tok[:i], tok[i+1:]
		}
		refs = append(refs, includeRef{Name: name, Section: section, Merge: mode})
		return nil
	}
	for i := 0; i < len(spec); i++ {
		switch spec[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '+', '|':
			if depth > 0 {
				continue
			}
			if err := flush(i); err != nil {
				return nil, err
			}
			if spec[i] == '+' {
				mode = parser.MergeOverride
			} else {
				mode = parser.MergeAugment
			}
			start = i + 1
		}
	}
	if err := flush(len(spec)); err != nil {
		return nil, err
	}
	return refs, nil
}

// loadFile resolves name under fileType, reads it through the
// resolver (which applies any installed charset decoder), and parses
// it into a single File. ref.Section is not consulted: when one physical
// file holds several sequential xkb_<kind> blocks, the first block is
// always the one used.
func loadFile(res *resolver.Resolver, ft resolver.FileType, ref includeRef) (*parser.File, []error, error) {
	raw, path, err := res.ReadFile(ref.Name, ft)
	if err != nil {
		return nil, nil, fmt.Errorf("xkbcomp: %w", err)
	}
	f, errs := parser.Parse(raw)
	if f == nil {
		return nil, nil, fmt.Errorf("xkbcomp: %s: failed to parse", path)
	}
	var wrapped []error
	for _, e := range errs {
		wrapped = append(wrapped, fmt.Errorf("xkbcomp: %s: %w", path, e))
	}
	return f, wrapped, nil
}
