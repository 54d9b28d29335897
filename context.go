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
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/gdamore/xkbcommon/keymap"
	"github.com/gdamore/xkbcommon/resolver"
)

// ContextFlags adjust how a Context reads its environment.
type ContextFlags int

const (
	// ContextNoFlags is the default behavior.
	ContextNoFlags ContextFlags = 0

	// ContextNoEnvironmentNames ignores the XKB_DEFAULT_* variables
	// when filling missing RuleNames fields; the built-in fallbacks
	// (evdev/us) still apply.
	ContextNoEnvironmentNames ContextFlags = 1 << iota
)

// Context is the root owner of everything compilation shares: the atom
// table, the include-path resolver, and the diagnostic logger. Atoms
// interned during one compilation remain valid for every keymap built
// on the same Context. A Context is not safe for concurrent
// compilation; the keymaps it produces are safe for concurrent reads.
type Context struct {
	flags  ContextFlags
	atoms  *keymap.AtomTable
	res    *resolver.Resolver
	logger *log.Logger
	getenv func(string) string
}

// Option customizes a Context at construction.
type Option func(*Context)

// WithLogger replaces the default stderr warning logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Context) { c.logger = l }
}

// WithGetenv replaces os.Getenv for both include-path construction and
// RMLVO defaulting. Tests use this to run hermetically.
func WithGetenv(getenv func(string) string) Option {
	return func(c *Context) { c.getenv = getenv }
}

// NewContext creates a Context, computing the include path from the
// environment once, up front.
func NewContext(flags ContextFlags, opts ...Option) *Context {
	c := &Context{
		flags:  flags,
		atoms:  keymap.NewAtomTable(),
		getenv: os.Getenv,
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = log.New(os.Stderr)
		c.logger.SetLevel(log.WarnLevel)
	}
	c.res = resolver.New(c.getenv)
	return c
}

// Atoms exposes the context's atom table, needed to turn the Atom
// fields of a compiled keymap back into strings.
func (c *Context) Atoms() *keymap.AtomTable { return c.atoms }

// Resolver exposes the context's include-path resolver.
func (c *Context) Resolver() *resolver.Resolver { return c.res }

// ruleGetenv is the environment the Rules Matcher sees: identical to
// the context's, except that ContextNoEnvironmentNames blanks the
// XKB_DEFAULT_* family.
func (c *Context) ruleGetenv(k string) string {
	if c.flags&ContextNoEnvironmentNames != 0 && strings.HasPrefix(k, "XKB_DEFAULT_") {
		return ""
	}
	return c.getenv(k)
}
