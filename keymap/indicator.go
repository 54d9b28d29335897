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

// WhichState selects what kind of state an indicator watches (modifier
// state, group state, or both/neither).
type WhichState int

const (
	WhichNone WhichState = iota
	WhichBase
	WhichLatched
	WhichLocked
	WhichEffective
	WhichCompat
	WhichAny
)

// MaxIndicators is the fixed capacity of the indicator table.
const MaxIndicators = 32

// Indicator is one compiled LED description.
type Indicator struct {
	Name Atom

	WhichGroups WhichState
	GroupsMask  uint32

	WhichMods WhichState
	Mods      Mods

	Ctrls uint32
	Flags IndicatorFlags
}

// IndicatorFlags are the boolean compat-section fields a "indicator
// "name" { ... }" block can set.
type IndicatorFlags int

const (
	IndicatorAllowExplicit IndicatorFlags = 1 << iota
	IndicatorDrivesKeyboard
)
