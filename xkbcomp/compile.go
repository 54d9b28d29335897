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
	"os"

	"github.com/charmbracelet/log"

	"github.com/gdamore/xkbcommon/keymap"
	"github.com/gdamore/xkbcommon/resolver"
	"github.com/gdamore/xkbcommon/rules"
)

// Compile drives the four KcCGST sub-compilers in the fixed order the
// cross-section references depend on (keycodes before types before
// compat before symbols) and finalizes the result.
// names.Keycodes/.Types/.Compat/.Symbols are themselves "A+B|C"
// component-name strings using the identical grammar "include"
// directives use inside a component file.
func Compile(atoms *keymap.AtomTable, res *resolver.Resolver, names rules.ComponentNames, logger *log.Logger) (*keymap.Keymap, error) {
	if logger == nil {
		logger = log.New(os.Stderr)
		logger.SetLevel(log.WarnLevel)
	}
	b := keymap.NewBuilder(atoms)

	if names.Keycodes != "" {
		if err := CompileKeycodes(b, res, names.Keycodes, logger); err != nil {
			return nil, err
		}
	}
	if names.Types != "" {
		if err := CompileTypes(b, res, names.Types, logger); err != nil {
			return nil, err
		}
	}
	if names.Compat != "" {
		if err := CompileCompat(b, res, names.Compat, logger); err != nil {
			return nil, err
		}
	}
	if names.Symbols != "" {
		if err := CompileSymbols(b, res, names.Symbols, logger); err != nil {
			return nil, err
		}
	}

	return b.Finalize()
}
