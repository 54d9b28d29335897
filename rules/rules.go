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

// Package rules implements the Rules Matcher: it turns a
// RuleNames (RMLVO) tuple into a ComponentNames (KcCGST) tuple by
// interpreting a rules file written in a small line-oriented DSL.
package rules

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gdamore/xkbcommon/resolver"
)

// MaxIncludeDepth bounds rules-file include nesting.
const MaxIncludeDepth = 5

// MaxGroups bounds the [n] index on layout/variant mlvo columns.
const MaxGroups = 4

// RuleNames is the user-facing RMLVO tuple. Layout, Variant and Options
// are comma-separated lists (XKB convention for multi-group layouts and
// multi-valued options); Rules and Model are single values.
type RuleNames struct {
	Rules   string
	Model   string
	Layout  string
	Variant string
	Options string
}

// WithDefaults fills any empty field from the XKB_DEFAULT_* environment
// variables, via getenv (nil means os.Getenv).
func (n RuleNames) WithDefaults(getenv func(string) string) RuleNames {
	if getenv == nil {
		getenv = os.Getenv
	}
	fill := func(v string, env string) string {
		if v != "" {
			return v
		}
		return getenv(env)
	}
	n.Rules = fill(n.Rules, "XKB_DEFAULT_RULES")
	n.Model = fill(n.Model, "XKB_DEFAULT_MODEL")
	n.Layout = fill(n.Layout, "XKB_DEFAULT_LAYOUT")
	n.Variant = fill(n.Variant, "XKB_DEFAULT_VARIANT")
	n.Options = fill(n.Options, "XKB_DEFAULT_OPTIONS")
	return n
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (n RuleNames) layouts() []string  { return splitList(n.Layout) }
func (n RuleNames) variants() []string { return splitList(n.Variant) }
func (n RuleNames) options() []string  { return splitList(n.Options) }

// ComponentNames is the resolved KcCGST tuple. Geometry is tracked
// internally during matching but is not surfaced here: geometry is
// recognized and discarded.
type ComponentNames struct {
	Keycodes string
	Types    string
	Compat   string
	Symbols  string
}

// ErrNoComponentsReturned is returned when, after matching, at least
// one of keycodes/types/compat/symbols is still empty.
var ErrNoComponentsReturned = fmt.Errorf("rules: no components returned")

// ErrExceedsIncludeMaxDepth is returned when rules-file includes nest
// deeper than MaxIncludeDepth.
var ErrExceedsIncludeMaxDepth = fmt.Errorf("rules: include nesting exceeds max depth %d", MaxIncludeDepth)

// Matcher interprets a rules file against a Resolver-backed include
// path.
type Matcher struct {
	Resolver *resolver.Resolver
	Getenv   func(string) string
}

func New(r *resolver.Resolver) *Matcher {
	return &Matcher{Resolver: r, Getenv: os.Getenv}
}

func (m *Matcher) getenv(k string) string {
	if m.Getenv != nil {
		return m.Getenv(k)
	}
	return os.Getenv(k)
}

// Match resolves an RMLVO tuple into a ComponentNames.
func (m *Matcher) Match(names RuleNames) (ComponentNames, error) {
	names = names.WithDefaults(m.getenv)
	if names.Rules == "" {
		return ComponentNames{}, fmt.Errorf("rules: no rules file specified")
	}

	lines, err := m.expandFile(names.Rules, map[string]bool{}, 0)
	if err != nil {
		return ComponentNames{}, err
	}

	st := newMatchState(names)
	for _, ln := range lines {
		if err := st.process(ln); err != nil {
			return ComponentNames{}, err
		}
	}

	out := ComponentNames{
		Keycodes: st.acc[kcKeycodes],
		Types:    st.acc[kcTypes],
		Compat:   st.acc[kcCompat],
		Symbols:  st.acc[kcSymbols],
	}
	if out.Keycodes == "" || out.Types == "" || out.Compat == "" || out.Symbols == "" {
		return ComponentNames{}, ErrNoComponentsReturned
	}

	if err := m.verifyComponents(out); err != nil {
		return ComponentNames{}, err
	}
	return out, nil
}

// verifyComponents checks that the four resolved component names
// actually exist on the include path, one goroutine per component
// (golang.org/x/sync/errgroup) since the four lookups are independent
// stat-like checks; the compilation pipeline itself remains synchronous
// and single-threaded.
func (m *Matcher) verifyComponents(c ComponentNames) error {
	if m.Resolver == nil {
		return nil
	}
	checks := []struct {
		kind resolver.FileType
		name string
	}{
		{resolver.Keycodes, firstComponent(c.Keycodes)},
		{resolver.Types, firstComponent(c.Types)},
		{resolver.Compat, firstComponent(c.Compat)},
		{resolver.Symbols, firstComponent(c.Symbols)},
	}
	g, _ := errgroup.WithContext(context.Background())
	for _, chk := range checks {
		chk := chk
		g.Go(func() error {
			if chk.name == "" {
				return nil
			}
			_, err := m.Resolver.Resolve(chk.name, chk.kind)
			if err != nil {
				return fmt.Errorf("rules: resolved component %q (%s) not found: %w", chk.name, chk.kind, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// firstComponent extracts the base file name from a possibly-composite
// component string such as "evdev+aliases(qwerty)" or "pc+us+inet(evdev)",
// i.e. the portion before the first '+' or '|' operator, and strips any
// ":section" / "(variant)" qualifier. This is only used for the existence
// pre-check; the xkbcomp include resolver parses the full operator
// grammar in detail.
func firstComponent(s string) string {
	if s == "" {
		return ""
	}
	for i, r := range s {
		if r == '+' || r == '|' {
			s = s[:i]
			break
		}
	}
	if i := strings.IndexAny(s, "(:"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// --- file loading & include expansion ---------------------------------

// expandFile loads name (as a Rules-type component, or a raw path if it
// contains a path separator) and recursively inlines any "! include"
// directives, enforcing MaxIncludeDepth and cycle detection against the
// visited set of paths already expanded in this chain.
func (m *Matcher) expandFile(name string, visited map[string]bool, depth int) ([]string, error) {
	if depth > MaxIncludeDepth {
		return nil, ErrExceedsIncludeMaxDepth
	}
	var raw []byte
	var path string
	var err error
	if m.Resolver != nil && !strings.ContainsRune(name, os.PathSeparator) {
		raw, path, err = m.Resolver.ReadFile(name, resolver.Rules)
	} else {
		path = name
		raw, err = osReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	if visited[path] {
		return nil, fmt.Errorf("rules: include cycle detected at %q", path)
	}
	visited[path] = true
	defer delete(visited, path)

	logical := joinContinuations(raw)
	var out []string
	for _, ln := range logical {
		trimmed := strings.TrimSpace(ln)
		if incPath, ok := parseIncludeDirective(trimmed); ok {
			expanded, err := m.expandIncludePath(incPath)
			if err != nil {
				return nil, err
			}
			sub, err := m.expandFile(expanded, visited, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		out = append(out, ln)
	}
	return out, nil
}

func osReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// joinContinuations splits raw text into logical lines, stripping
// comments and honoring a trailing backslash as a line continuation.
func joinContinuations(raw []byte) []string {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var logical []string
	var pending strings.Builder
	for scanner.Scan() {
		line := stripComment(scanner.Text())
		if strings.HasSuffix(line, "\\") {
			pending.WriteString(strings.TrimSuffix(line, "\\"))
			continue
		}
		pending.WriteString(line)
		logical = append(logical, pending.String())
		pending.Reset()
	}
	if pending.Len() > 0 {
		logical = append(logical, pending.String())
	}
	return logical
}

func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		return line[:i]
	}
	return line
}

// parseIncludeDirective recognizes "! include <path>".
func parseIncludeDirective(line string) (string, bool) {
	if !strings.HasPrefix(line, "!") {
		return "", false
	}
	rest := strings.TrimSpace(line[1:])
	const kw = "include"
	if !strings.HasPrefix(rest, kw) {
		return "", false
	}
	rest = strings.TrimSpace(rest[len(kw):])
	if rest == "" {
		return "", false
	}
	return rest, true
}

// expandIncludePath implements the %-expansions for include paths:
// %%→%, %H→$HOME, %S→system rules dir, %E→extra rules dir.
func (m *Matcher) expandIncludePath(raw string) (string, error) {
	var out strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '%' || i+1 >= len(raw) {
			out.WriteByte(c)
			continue
		}
		next := raw[i+1]
		switch next {
		case '%':
			out.WriteByte('%')
			i++
		case 'H':
			home := m.getenv("HOME")
			if home == "" {
				return "", fmt.Errorf("rules: %%H expansion requires $HOME to be set")
			}
			out.WriteString(home)
			i++
		case 'S':
			out.WriteString(systemRulesDir(m))
			i++
		case 'E':
			out.WriteString(extraRulesDir(m))
			i++
		default:
			out.WriteByte(c)
		}
	}
	return out.String(), nil
}

func systemRulesDir(m *Matcher) string {
	root := m.getenv("XKB_CONFIG_ROOT")
	if root == "" {
		root = "/usr/share/X11/xkb"
	}
	return root + "/rules"
}

func extraRulesDir(m *Matcher) string {
	extra := m.getenv("XKB_CONFIG_EXTRA_PATH")
	return extra + "/rules"
}

// --- mlvo / kccgst vocabularies -----------------------------------------

type mlvoField int

const (
	mlvoModel mlvoField = iota
	mlvoLayout
	mlvoVariant
	mlvoOption
)

func parseMlvoField(s string) (mlvoField, bool) {
	switch s {
	case "model":
		return mlvoModel, true
	case "layout":
		return mlvoLayout, true
	case "variant":
		return mlvoVariant, true
	case "option":
		return mlvoOption, true
	}
	return 0, false
}

type kccgstField int

const (
	kcKeycodes kccgstField = iota
	kcTypes
	kcCompat
	kcSymbols
	kcGeometry
)

func parseKccgstField(s string) (kccgstField, bool) {
	switch s {
	case "keycodes":
		return kcKeycodes, true
	case "types":
		return kcTypes, true
	case "compat":
		return kcCompat, true
	case "symbols":
		return kcSymbols, true
	case "geometry":
		return kcGeometry, true
	}
	return 0, false
}

// mlvoColumn is one column of a mapping header, e.g. "layout[2]".
type mlvoColumn struct {
	field mlvoField
	index int // 0 means "no [n] given"
}

func parseMlvoColumn(tok string) (mlvoColumn, error) {
	name, idx, err := splitIndex(tok)
	if err != nil {
		return mlvoColumn{}, err
	}
	field, ok := parseMlvoField(name)
	if !ok {
		return mlvoColumn{}, fmt.Errorf("rules: unknown mlvo field %q", tok)
	}
	if idx != 0 && field != mlvoLayout && field != mlvoVariant {
		return mlvoColumn{}, fmt.Errorf("rules: only layout/variant may carry [n]: %q", tok)
	}
	return mlvoColumn{field: field, index: idx}, nil
}

func splitIndex(tok string) (string, int, error) {
	open := strings.IndexByte(tok, '[')
	if open < 0 {
		return tok, 0, nil
	}
	if !strings.HasSuffix(tok, "]") {
		return "", 0, fmt.Errorf("rules: malformed index in %q", tok)
	}
	idxStr := tok[open+1 : len(tok)-1]
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 1 || idx > MaxGroups {
		return "", 0, fmt.Errorf("rules: index out of range in %q", tok)
	}
	return tok[:open], idx, nil
}
