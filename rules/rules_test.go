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
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gdamore/xkbcommon/resolver"
)

func writeRules(t *testing.T, root, name, content string) {
	t.Helper()
	dir := filepath.Join(root, "rules")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeComponent(t *testing.T, root, kind, name string) {
	t.Helper()
	dir := filepath.Join(root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("// stub\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestMatcher(t *testing.T) (*Matcher, string) {
	root := t.TempDir()
	r := &resolver.Resolver{Path: []string{root}}
	return &Matcher{Resolver: r, Getenv: func(string) string { return "" }}, root
}

func TestBasicMatch(t *testing.T) {
	m, root := newTestMatcher(t)
	writeRules(t, root, "simple", `
! model layout = keycodes symbols types compat
pc105    us      = evdev    us      complete complete
*        *       = evdev    basic   complete complete
`)
	writeComponent(t, root, "keycodes", "evdev")
	writeComponent(t, root, "types", "complete")
	writeComponent(t, root, "compat", "complete")
	writeComponent(t, root, "symbols", "us")

	names := RuleNames{Rules: "simple", Model: "pc105", Layout: "us"}
	got, err := m.Match(names)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got.Keycodes != "evdev" || got.Symbols != "us" || got.Types != "complete" || got.Compat != "complete" {
		t.Errorf("got %+v", got)
	}
}

func TestGroupMatching(t *testing.T) {
	m, root := newTestMatcher(t)
	writeRules(t, root, "grp", `
! $abc = a b c
! layout = symbols
$abc  = matched
*     = nomatch
`)
	writeComponent(t, root, "keycodes", "x")
	writeComponent(t, root, "types", "x")
	writeComponent(t, root, "compat", "x")
	writeComponent(t, root, "symbols", "matched")

	st := newMatchState(RuleNames{Layout: "b"})
	lines, err := m.expandFile("grp", map[string]bool{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, ln := range lines {
		if err := st.process(ln); err != nil {
			t.Fatal(err)
		}
	}
	if st.acc[kcSymbols] != "matched" {
		t.Errorf("expected group match to select 'matched', got %q", st.acc[kcSymbols])
	}
}

func TestGroupNoMatch(t *testing.T) {
	st := newMatchState(RuleNames{Layout: "z"})
	lines := []string{
		`! $abc = a b c`,
		`! layout = symbols`,
		`$abc = matched`,
		`*    = nomatch`,
	}
	for _, ln := range lines {
		if err := st.process(ln); err != nil {
			t.Fatal(err)
		}
	}
	if st.acc[kcSymbols] != "nomatch" {
		t.Errorf("expected fallback 'nomatch', got %q", st.acc[kcSymbols])
	}
}

func TestPercentExpansion(t *testing.T) {
	st := newMatchState(RuleNames{Model: "pc105", Layout: "us,gb", Variant: ",intl"})
	lines := []string{
		`! model layout = keycodes symbols`,
		`* * = evdev %l(%v)`,
	}
	for _, ln := range lines {
		if err := st.process(ln); err != nil {
			t.Fatal(err)
		}
	}
	// layout has 2 elements so %l without [n] is ambiguous -> column
	// resolution aborts the whole set, nothing should be set.
	if st.acc[kcSymbols] != "" {
		t.Errorf("expected no match for ambiguous multi-layout, got %q", st.acc[kcSymbols])
	}
}

func TestPercentExpansionIndexed(t *testing.T) {
	st := newMatchState(RuleNames{Model: "pc105", Layout: "us,gb", Variant: ",intl"})
	lines := []string{
		`! model layout[1] variant[1] = keycodes symbols`,
		`* * * = evdev %l[1]%(v[1])`,
	}
	for _, ln := range lines {
		if err := st.process(ln); err != nil {
			t.Fatal(err)
		}
	}
	if st.acc[kcSymbols] != "us" {
		t.Errorf("got %q", st.acc[kcSymbols])
	}
}

func TestAppendOperators(t *testing.T) {
	st := newMatchState(RuleNames{Options: "grp:alt,compose:rwin"})
	lines := []string{
		`! option = symbols`,
		`grp:alt     = +grp_alt`,
		`compose:rwin = +compose(rwin)`,
	}
	for _, ln := range lines {
		if err := st.process(ln); err != nil {
			t.Fatal(err)
		}
	}
	if st.acc[kcSymbols] != "+grp_alt+compose(rwin)" {
		t.Errorf("got %q", st.acc[kcSymbols])
	}
}

func TestDuplicateColumnInvalidatesSet(t *testing.T) {
	st := newMatchState(RuleNames{Model: "pc105"})
	lines := []string{
		`! model model = symbols`,
		`pc105 pc105 = shouldnotmatch`,
	}
	for _, ln := range lines {
		if err := st.process(ln); err != nil {
			t.Fatal(err)
		}
	}
	if st.acc[kcSymbols] != "" {
		t.Errorf("duplicate mlvo column should invalidate the rule set, got %q", st.acc[kcSymbols])
	}
}

func TestOptionRuleSetDoesNotStopAfterMatch(t *testing.T) {
	st := newMatchState(RuleNames{Options: "a,b"})
	lines := []string{
		`! option = symbols`,
		`a = +a`,
		`b = +b`,
	}
	for _, ln := range lines {
		if err := st.process(ln); err != nil {
			t.Fatal(err)
		}
	}
	if st.acc[kcSymbols] != "+a+b" {
		t.Errorf("expected both option rules to apply, got %q", st.acc[kcSymbols])
	}
}

func TestMoreValuesThanColumnsSkipsLine(t *testing.T) {
	st := newMatchState(RuleNames{Model: "pc105"})
	lines := []string{
		`! model = symbols`,
		`pc105 extra = badrule`,
		`pc105 = goodrule`,
	}
	for _, ln := range lines {
		if err := st.process(ln); err != nil {
			t.Fatal(err)
		}
	}
	if st.acc[kcSymbols] != "goodrule" {
		t.Errorf("got %q", st.acc[kcSymbols])
	}
}

func TestIncludeDepthExceeded(t *testing.T) {
	m, root := newTestMatcher(t)
	for i := 0; i <= MaxIncludeDepth+1; i++ {
		name := "chain" + strconv.Itoa(i)
		next := "chain" + strconv.Itoa(i+1)
		writeRules(t, root, name, "! include "+next+"\n")
	}
	_, err := m.expandFile("chain0", map[string]bool{}, 0)
	if err == nil {
		t.Fatal("expected ExceedsIncludeMaxDepth error")
	}
}

func TestIncludeCycle(t *testing.T) {
	m, root := newTestMatcher(t)
	writeRules(t, root, "a", "! include b\n")
	writeRules(t, root, "b", "! include a\n")
	_, err := m.expandFile("a", map[string]bool{}, 0)
	if err == nil {
		t.Fatal("expected include cycle error")
	}
}
