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

package rules

import (
	"fmt"
	"strings"
)

// mapping is a "! <mlvo-list> = <kccgst-list>" header.
type mapping struct {
	mlvo   []mlvoColumn
	kccgst []kccgstField
}

// resolvedColumn is what a mapping column evaluates to once RMLVO is
// known, computed once per mapping header: the layout/variant "which
// index, or skip the whole set" decision depends only on the header and
// the RMLVO input, not on individual rule lines.
type resolvedColumn struct {
	isOption bool   // option columns are matched specially, see matchState.process
	value    string // resolved candidate value for non-option columns
}

type matchState struct {
	names  RuleNames
	groups map[string][]string
	acc    map[kccgstField]string

	mapping  *mapping
	resolved []resolvedColumn
	abort    bool // current mapping's header made it impossible to match (ambiguous multi-layout)
	done     bool // non-option mapping already had its one match; skip remaining lines
}

func newMatchState(names RuleNames) *matchState {
	return &matchState{
		names:  names,
		groups: map[string][]string{},
		acc:    map[kccgstField]string{},
	}
}

// process consumes one logical line of (include-expanded) rules text.
func (st *matchState) process(line string) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, "!") {
		return st.processBang(strings.TrimSpace(trimmed[1:]))
	}
	return st.processRuleLine(trimmed)
}

func (st *matchState) processBang(rest string) error {
	switch {
	case strings.HasPrefix(rest, "$"):
		return st.processGroupDef(rest)
	case strings.HasPrefix(rest, "include"):
		// Already inlined by expandFile; nothing to do here, but a
		// malformed leftover (e.g. missing path) should not occur.
		return nil
	default:
		return st.processMappingHeader(rest)
	}
}

// processGroupDef handles "$groupname = elt1 elt2 ...".
func (st *matchState) processGroupDef(rest string) error {
	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		return fmt.Errorf("rules: malformed group definition: %q", rest)
	}
	name := strings.TrimSpace(rest[1:eq])
	members := strings.Fields(rest[eq+1:])
	st.groups[name] = members
	return nil
}

// processMappingHeader handles "<mlvo-list> = <kccgst-list>".
func (st *matchState) processMappingHeader(rest string) error {
	left, right, err := splitEquals(rest)
	if err != nil {
		return err
	}
	mlvoToks := strings.Fields(left)
	kccgstToks := strings.Fields(right)

	mlvoSeen := map[mlvoField]bool{}
	var cols []mlvoColumn
	invalid := false
	for _, tok := range mlvoToks {
		col, err := parseMlvoColumn(tok)
		if err != nil {
			return err
		}
		key := col.field
		if mlvoSeen[key] && col.index == 0 {
			invalid = true
		}
		mlvoSeen[key] = true
		cols = append(cols, col)
	}

	kcSeen := map[kccgstField]bool{}
	var kcs []kccgstField
	for _, tok := range kccgstToks {
		kc, ok := parseKccgstField(tok)
		if !ok {
			return fmt.Errorf("rules: unknown kccgst field %q", tok)
		}
		if kcSeen[kc] {
			invalid = true
		}
		kcSeen[kc] = true
		kcs = append(kcs, kc)
	}

	if invalid {
		// Duplicate items on a mapping header invalidate the whole rule
		// set; subsequent rules are skipped until the next mapping.
		st.mapping = nil
		st.abort = true
		st.done = false
		return nil
	}

	st.mapping = &mapping{mlvo: cols, kccgst: kcs}
	st.done = false
	st.abort = false
	st.resolved = make([]resolvedColumn, len(cols))
	for i, col := range cols {
		rc, skip := st.resolveColumn(col)
		if skip {
			st.abort = true
		}
		st.resolved[i] = rc
	}
	return nil
}

// resolveColumn decides what one mapping column evaluates to for the
// current RMLVO input, or that the whole rule set should be skipped.
func (st *matchState) resolveColumn(col mlvoColumn) (resolvedColumn, bool) {
	switch col.field {
	case mlvoModel:
		return resolvedColumn{value: st.names.Model}, false
	case mlvoOption:
		return resolvedColumn{isOption: true}, false
	case mlvoLayout:
		return st.resolveListColumn(st.names.layouts(), col.index)
	case mlvoVariant:
		return st.resolveListColumn(st.names.variants(), col.index)
	}
	return resolvedColumn{}, true
}

func (st *matchState) resolveListColumn(list []string, index int) (resolvedColumn, bool) {
	if index > 0 {
		if index-1 < len(list) {
			return resolvedColumn{value: list[index-1]}, false
		}
		return resolvedColumn{}, true
	}
	if len(list) == 1 {
		return resolvedColumn{value: list[0]}, false
	}
	return resolvedColumn{}, true
}

// processRuleLine handles "<mlvo-values> = <kccgst-values>".
func (st *matchState) processRuleLine(line string) error {
	if st.mapping == nil || st.abort || st.done {
		return nil
	}
	left, right, err := splitEquals(line)
	if err != nil {
		return err
	}
	values := strings.Fields(left)
	exprs := strings.Fields(right)
	if len(values) > len(st.mapping.mlvo) {
		// More mlvo values than mapping columns: skip this rule,
		// continue with the rest of the set.
		return nil
	}
	if len(exprs) > len(st.mapping.kccgst) {
		return nil
	}

	hasOption := false
	for i, col := range st.resolved {
		if i >= len(values) {
			return nil
		}
		tok := values[i]
		if col.isOption {
			hasOption = true
			if !st.matchesAnyOption(tok) {
				return nil
			}
			continue
		}
		if !st.matchesValue(tok, col.value) {
			return nil
		}
	}

	for i, exprTok := range exprs {
		if i >= len(st.mapping.kccgst) {
			break
		}
		kc := st.mapping.kccgst[i]
		if kc == kcGeometry {
			continue
		}
		expanded := st.expandKccgstValue(exprTok)
		st.acc[kc] = appendValue(st.acc[kc], expanded)
	}

	if !hasOption {
		st.done = true
	}
	return nil
}

func (st *matchState) matchesValue(tok, candidate string) bool {
	if tok == "*" {
		return true
	}
	if strings.HasPrefix(tok, "$") {
		return contains(st.groups[tok[1:]], candidate)
	}
	return tok == candidate
}

func (st *matchState) matchesAnyOption(tok string) bool {
	for _, opt := range st.names.options() {
		if st.matchesValue(tok, opt) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}

func splitEquals(s string) (string, string, error) {
	eq := strings.IndexByte(s, '=')
	if eq < 0 {
		return "", "", fmt.Errorf("rules: expected '=' in %q", s)
	}
	return s[:eq], s[eq+1:], nil
}

// appendValue implements the KcCGST accumulation rule: a leading '+' or
// '|' on the new value appends it after the existing accumulation, a
// leading '+'/'|' on the existing accumulation prepends the new value
// before it, and otherwise the new value simply replaces/extends it.
func appendValue(acc, expanded string) string {
	if expanded == "" {
		return acc
	}
	switch {
	case strings.HasPrefix(expanded, "+") || strings.HasPrefix(expanded, "|"):
		return acc + expanded
	case strings.HasPrefix(acc, "+") || strings.HasPrefix(acc, "|"):
		return expanded + acc
	case acc == "":
		return expanded
	default:
		return acc + expanded
	}
}

// expandKccgstValue implements the "%"-expansion tokenizer for kccgst
// values, kept deliberately separate from the include-path tokenizer in
// rules.go: the two mini-languages share a leading '%' but nothing else.
func (st *matchState) expandKccgstValue(raw string) string {
	var out strings.Builder
	for i := 0; i < len(raw); {
		c := raw[i]
		if c != '%' {
			out.WriteByte(c)
			i++
			continue
		}
		consumed, piece := st.expandOneToken(raw[i:])
		if consumed == 0 {
			out.WriteByte('%')
			i++
			continue
		}
		out.WriteString(piece)
		i += consumed
	}
	return out.String()
}

// expandOneToken parses a single %[prefix]<m|l|v>[[n]] token starting at
// s[0]=='%' and returns how many bytes of s it consumed and the
// replacement text (possibly empty, meaning fully suppressed).
func (st *matchState) expandOneToken(s string) (int, string) {
	j := 1
	if j >= len(s) {
		return 0, ""
	}
	var prefix byte
	if strings.IndexByte("(+|_-", s[j]) >= 0 {
		prefix = s[j]
		j++
	}
	if j >= len(s) {
		return 0, ""
	}
	letter := s[j]
	if letter != 'm' && letter != 'l' && letter != 'v' {
		return 0, ""
	}
	j++
	index := 0
	if j < len(s) && s[j] == '[' && letter != 'm' {
		k := j + 1
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			index = index*10 + int(s[k]-'0')
			k++
		}
		if k >= len(s) || s[k] != ']' || index == 0 {
			return 0, ""
		}
		j = k + 1
	}
	if prefix == '(' && j < len(s) && s[j] == ')' {
		j++
	}

	var value string
	var ok bool
	switch letter {
	case 'm':
		value, ok = st.names.Model, st.names.Model != ""
	case 'l':
		value, ok = pickIndexed(st.names.layouts(), index)
	case 'v':
		value, ok = pickIndexed(st.names.variants(), index)
	}
	if !ok || value == "" {
		return j, ""
	}
	switch prefix {
	case '(':
		return j, "(" + value + ")"
	case '+', '|', '_', '-':
		return j, string(prefix) + value
	default:
		return j, value
	}
}

func pickIndexed(list []string, index int) (string, bool) {
	if index > 0 {
		if index-1 < len(list) {
			return list[index-1], true
		}
		return "", false
	}
	if len(list) == 1 {
		return list[0], true
	}
	return "", false
}
