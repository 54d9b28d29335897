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

	"github.com/gdamore/xkbcommon/keymap"
	"github.com/gdamore/xkbcommon/parser"
)

// parseAction turns a compat/symbols action-expr Call ("SetMods(...)",
// "NoAction()", ...) into a keymap.Action. A call it does not
// recognize becomes an ActionPrivate with the original text preserved
// for diagnostics and round-tripping; an expression that is not a call
// yields NoAction.
func parseAction(e parser.Expr) keymap.Action {
	call, ok := e.(parser.Call)
	if !ok {
		return keymap.NoAction
	}
	a := keymap.Action{Raw: renderCall(call)}
	switch call.Name {
	case "NoAction":
		a.Kind = keymap.ActionNone
		a.Explicit = true
	case "SetMods":
		a.Kind = keymap.ActionSetMods
		applyModsArgs(&a, call.Args)
	case "LatchMods":
		a.Kind = keymap.ActionLatchMods
		applyModsArgs(&a, call.Args)
	case "LockMods":
		a.Kind = keymap.ActionLockMods
		applyModsArgs(&a, call.Args)
	case "SetGroup":
		a.Kind = keymap.ActionSetGroup
		applyGroupArgs(&a, call.Args)
	case "LatchGroup":
		a.Kind = keymap.ActionLatchGroup
		applyGroupArgs(&a, call.Args)
	case "LockGroup":
		a.Kind = keymap.ActionLockGroup
		applyGroupArgs(&a, call.Args)
	case "MovePtr", "MovePointer":
		a.Kind = keymap.ActionMovePointer
	case "PtrBtn", "PointerButton":
		a.Kind = keymap.ActionPointerButton
	default:
		a.Kind = keymap.ActionPrivate
	}
	return a
}

func applyModsArgs(a *keymap.Action, args []parser.Expr) {
	for _, arg := range args {
		if applyBoolFlag(a, arg) {
			continue
		}
		kv, ok := arg.(parser.KeyValueArg)
		if !ok || kv.Value == nil {
			continue
		}
		switch kv.Name {
		case "modifiers":
			a.Mods = evalStaticModExpr(kv.Value)
		case "clearLocks":
			a.ClearLocks = evalBool(kv.Value)
		case "latchToLock":
			a.LatchToLock = evalBool(kv.Value)
		}
	}
}

// applyBoolFlag handles the bare-identifier spelling of boolean action
// flags ("SetMods(modifiers=Shift,clearLocks)").
func applyBoolFlag(a *keymap.Action, arg parser.Expr) bool {
	id, ok := arg.(parser.Ident)
	if !ok {
		return false
	}
	switch id.Name {
	case "clearLocks":
		a.ClearLocks = true
	case "latchToLock":
		a.LatchToLock = true
	default:
		return false
	}
	return true
}

func applyGroupArgs(a *keymap.Action, args []parser.Expr) {
	for _, arg := range args {
		if applyBoolFlag(a, arg) {
			continue
		}
		kv, ok := arg.(parser.KeyValueArg)
		if !ok || kv.Value == nil {
			continue
		}
		switch kv.Name {
		case "group":
			g, relative := evalGroupExpr(kv.Value)
			a.Group, a.Relative = g, relative
		case "clearLocks":
			a.ClearLocks = evalBool(kv.Value)
		case "latchToLock":
			a.LatchToLock = evalBool(kv.Value)
		}
	}
}

func evalGroupExpr(e parser.Expr) (int, bool) {
	switch v := e.(type) {
	case parser.IntLit:
		return int(v.Value), false
	case parser.Call:
		// "+N"/"-N" is parsed by the expression grammar as a unary
		// Call{Name: "+"/"-"}; treat as relative.
		if (v.Name == "+" || v.Name == "-") && len(v.Args) == 1 {
			n, _ := evalGroupExpr(v.Args[0])
			if v.Name == "-" {
				n = -n
			}
			return n, true
		}
	}
	return 0, false
}

// evalStaticModExpr resolves a modifier-mask expression without access
// to a KeymapBuilder (action args inside a "modMapMods"-style symbolic
// reference are left at 0; the finalizer's per-key ModMap already
// carries the concrete bits for that common case). Named real
// modifiers still resolve directly.
func evalStaticModExpr(e parser.Expr) keymap.ModMask {
	switch v := e.(type) {
	case parser.Ident:
		switch v.Name {
		case "Shift":
			return keymap.ModShift
		case "Lock":
			return keymap.ModLock
		case "Control":
			return keymap.ModControl
		case "Mod1":
			return keymap.ModMod1
		case "Mod2":
			return keymap.ModMod2
		case "Mod3":
			return keymap.ModMod3
		case "Mod4":
			return keymap.ModMod4
		case "Mod5":
			return keymap.ModMod5
		}
		return 0
	case parser.IntLit:
		return keymap.ModMask(v.Value)
	case parser.Binary:
		return evalStaticModExpr(v.Lhs) | evalStaticModExpr(v.Rhs)
	default:
		return 0
	}
}

func renderCall(c parser.Call) string {
	s := c.Name + "("
	for i, a := range c.Args {
		if i > 0 {
			s += ", "
		}
		if kv, ok := a.(parser.KeyValueArg); ok {
			s += kv.Name + "=" + renderExpr(kv.Value)
		} else {
			s += renderExpr(a)
		}
	}
	return s + ")"
}

func renderExpr(e parser.Expr) string {
	switch v := e.(type) {
	case parser.Ident:
		return v.Name
	case parser.StringLit:
		return fmt.Sprintf("%q", v.Value)
	case parser.IntLit:
		return fmt.Sprintf("%d", v.Value)
	default:
		return ""
	}
}
