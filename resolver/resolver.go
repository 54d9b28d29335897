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

// Package resolver implements the include-path resolver: given a
// component name and a file-type tag, it walks an ordered search path
// built from environment variables, read once and cached for the life
// of the owning Context, and opens the first readable matching file.
package resolver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileType identifies which KcCGST (or ancillary) component is being
// resolved; each has its own search subdirectory.
type FileType int

const (
	Rules FileType = iota
	Keycodes
	Types
	Compat
	Symbols
	Geometry
	Keymap
)

func (t FileType) subdir() string {
	switch t {
	case Rules:
		return "rules"
	case Keycodes:
		return "keycodes"
	case Types:
		return "types"
	case Compat:
		return "compat"
	case Symbols:
		return "symbols"
	case Geometry:
		return "geometry"
	case Keymap:
		return "keymaps"
	default:
		return ""
	}
}

func (t FileType) String() string {
	if s := t.subdir(); s != "" {
		return s
	}
	return fmt.Sprintf("FileType(%d)", int(t))
}

// ErrNotFound is returned when no directory on the include path has a
// matching file.
var ErrNotFound = errors.New("resolver: component not found on include path")

// Resolver walks a fixed, ordered include path computed once at
// construction, exactly the way a Context builds it from the XKB
// environment variables.
type Resolver struct {
	// Path is the ordered list of root directories to search, highest
	// priority first. Each candidate file is <dir>/<subdir>/<name>.
	Path []string

	// Decode, if non-nil, is applied to the raw bytes of every file
	// ReadFile returns. Contexts install a charset decoder here when
	// the component tree is not UTF-8 (see RegisterEncoding in the
	// root package).
	Decode func([]byte) []byte
}

// New builds a Resolver from the environment, in priority order:
// XKB_CONFIG_EXTRA_PATH, $XDG_CONFIG_HOME/xkb (or $HOME/.config/xkb),
// $HOME/.xkb, then XKB_CONFIG_ROOT (falling back to the conventional
// system install location if unset). Computed once; callers that want a
// custom path can construct a Resolver literal directly instead.
func New(getenv func(string) string) *Resolver {
	if getenv == nil {
		getenv = os.Getenv
	}
	var path []string
	if extra := getenv("XKB_CONFIG_EXTRA_PATH"); extra != "" {
		path = append(path, extra)
	}
	if xdg := getenv("XDG_CONFIG_HOME"); xdg != "" {
		path = append(path, filepath.Join(xdg, "xkb"))
	} else if home := getenv("HOME"); home != "" {
		path = append(path, filepath.Join(home, ".config", "xkb"))
	}
	if home := getenv("HOME"); home != "" {
		path = append(path, filepath.Join(home, ".xkb"))
	}
	if root := getenv("XKB_CONFIG_ROOT"); root != "" {
		path = append(path, root)
	} else {
		path = append(path, "/usr/share/X11/xkb")
	}
	return &Resolver{Path: path}
}

// Resolve returns the absolute path of the first readable file named
// name under fileType's subdirectory on the include path.
func (r *Resolver) Resolve(name string, fileType FileType) (string, error) {
	sub := fileType.subdir()
	for _, dir := range r.Path {
		candidate := filepath.Join(dir, sub, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s/%s", ErrNotFound, sub, name)
}

// Open resolves name and opens it for reading, returning the path
// alongside the open file so callers can use it for diagnostics
// (include-cycle detection, error messages).
func (r *Resolver) Open(name string, fileType FileType) (*os.File, string, error) {
	path, err := r.Resolve(name, fileType)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, path, fmt.Errorf("resolver: open %s: %w", path, err)
	}
	return f, path, nil
}

// ReadFile is a convenience wrapper combining Resolve and a full read,
// used by the Rules Matcher and the sub-compilers' include handling
// alike.
func (r *Resolver) ReadFile(name string, fileType FileType) ([]byte, string, error) {
	f, path, err := r.Open(name, fileType)
	if err != nil {
		return nil, path, err
	}
	defer f.Close()
	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, path, fmt.Errorf("resolver: read %s: %w", path, err)
	}
	if r.Decode != nil {
		buf = r.Decode(buf)
	}
	return buf, path, nil
}
