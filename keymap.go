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
	"errors"
	"fmt"

	"github.com/gdamore/xkbcommon/keymap"
	"github.com/gdamore/xkbcommon/parser"
	"github.com/gdamore/xkbcommon/rules"
	"github.com/gdamore/xkbcommon/xkbcomp"
)

// Keymap is the compiled, immutable keymap. It is an alias so callers
// can stay within this package for the common path while the full data
// model remains addressable in the keymap package.
type Keymap = keymap.Keymap

// RuleNames is the RMLVO tuple KeymapFromNames resolves.
type RuleNames = rules.RuleNames

// TextV1 is the only defined keymap serialization format.
const TextV1 = keymap.TextV1

// Built-in fallbacks applied when a RuleNames field is empty and the
// environment supplies nothing either.
const (
	DefaultRules  = "evdev"
	DefaultModel  = "pc105"
	DefaultLayout = "us"
)

// KeymapFromNames resolves names through the installed rules files and
// compiles the resulting components into a keymap.
func (c *Context) KeymapFromNames(names RuleNames) (*Keymap, error) {
	names = names.WithDefaults(c.ruleGetenv)
	if names.Rules == "" {
		names.Rules = DefaultRules
	}
	if names.Model == "" {
		names.Model = DefaultModel
	}
	if names.Layout == "" {
		names.Layout = DefaultLayout
	}

	m := rules.New(c.res)
	m.Getenv = c.ruleGetenv
	components, err := m.Match(names)
	if err != nil {
		return nil, err
	}
	return xkbcomp.Compile(c.atoms, c.res, components, c.logger)
}

// KeymapFromString compiles a complete textual xkb_keymap document.
// Only TextV1 input is accepted; the document must carry all its
// sections inline or reference installed component files via include
// statements.
func (c *Context) KeymapFromString(text string, format keymap.Format) (*Keymap, error) {
	if format != keymap.TextV1 {
		return nil, fmt.Errorf("xkbcommon: unsupported keymap format %d", int(format))
	}
	f, errs := parser.Parse([]byte(text))
	if f == nil {
		if err := errors.Join(errs...); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("xkbcommon: empty keymap text")
	}
	for _, e := range errs {
		c.logger.Warn("parse diagnostic in keymap text", "err", e)
	}
	return xkbcomp.CompileKeymapFile(c.atoms, c.res, f, c.logger)
}
