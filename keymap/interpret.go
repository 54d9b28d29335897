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

package keymap

import "github.com/gdamore/xkbcommon/keysym"

// MatchOp names how an Interpret's ModsMask compares against a
// candidate modifier state.
type MatchOp int

const (
	MatchAny MatchOp = iota
	MatchAll
	MatchExactly
	MatchNoneOf
)

// Matches reports whether state satisfies op against mask.
func (op MatchOp) Matches(mask, state ModMask) bool {
	switch op {
	case MatchAll:
		return mask&state == mask
	case MatchExactly:
		return state == mask
	case MatchNoneOf:
		return mask&state == 0
	default: // MatchAny
		return mask == 0 || mask&state != 0
	}
}

// Interpret is one compiled "interpret" rule. Sym is nil
// for an "interpret Any + ..." rule.
type Interpret struct {
	Sym          *keysym.Keysym
	ModsMask     ModMask
	MatchOp      MatchOp
	VirtualMod   int // index into the keymap's ModSet, -1 if none
	Action       Action
	LevelOneOnly bool
	Repeat       bool
}

// specificity orders interprets for finalizer priority:
// sym-specific before Any, MatchAll before MatchAny, and within a tier,
// a longer (more specific) mask before a shorter one.
func (it *Interpret) specificity() (symSpecific bool, allBeforeAny int, maskBits int) {
	return it.Sym != nil, matchOpRank(it.MatchOp), popcount(uint32(it.ModsMask))
}

func matchOpRank(op MatchOp) int {
	switch op {
	case MatchExactly:
		return 3
	case MatchAll:
		return 2
	case MatchNoneOf:
		return 1
	default:
		return 0
	}
}

// Less reports whether it should be tried before other when scanning
// the interpret list in priority order.
func (it *Interpret) Less(other *Interpret) bool {
	aSym, aRank, aBits := it.specificity()
	bSym, bRank, bBits := other.specificity()
	if aSym != bSym {
		return aSym // sym-specific first
	}
	if aRank != bRank {
		return aRank > bRank
	}
	return aBits > bBits
}

// Matches reports whether it applies to a (sym, modState) pair.
func (it *Interpret) Matches(sym keysym.Keysym, modState ModMask) bool {
	if it.Sym != nil && *it.Sym != sym {
		return false
	}
	return it.MatchOp.Matches(it.ModsMask, modState)
}
