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

package resolver

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveFindsFile(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "symbols"), 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "symbols", "us")
	if err := os.WriteFile(want, []byte("xkb_symbols \"basic\" {};\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &Resolver{Path: []string{root}}
	got, err := r.Resolve("us", Symbols)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestResolveNotFound(t *testing.T) {
	r := &Resolver{Path: []string{t.TempDir()}}
	if _, err := r.Resolve("missing", Types); err == nil {
		t.Fatal("expected error for missing component")
	}
}

func TestResolvePriorityOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	for _, dir := range []string{first, second} {
		if err := os.MkdirAll(filepath.Join(dir, "compat"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	os.WriteFile(filepath.Join(second, "compat", "complete"), []byte("second"), 0o644)
	os.WriteFile(filepath.Join(first, "compat", "complete"), []byte("first"), 0o644)

	r := &Resolver{Path: []string{first, second}}
	path, err := r.Resolve("complete", Compat)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(filepath.Dir(path)) != first {
		t.Errorf("expected first directory to win, got %q", path)
	}
}

func TestNewFromEnv(t *testing.T) {
	getenv := func(k string) string {
		switch k {
		case "XKB_CONFIG_ROOT":
			return "/opt/xkb"
		case "HOME":
			return "/home/u"
		}
		return ""
	}
	r := New(getenv)
	if len(r.Path) == 0 {
		t.Fatal("expected non-empty path")
	}
	if r.Path[len(r.Path)-1] != "/opt/xkb" {
		t.Errorf("expected XKB_CONFIG_ROOT last in path, got %v", r.Path)
	}
}
