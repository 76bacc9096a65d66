// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package animation

import "fmt"

// State is one of the fixed visual states shown on the strip.
type State int

const (
	Idle State = iota
	CardProcessing
	Error
	CheckIn
	CheckOut
	UnknownCard
	Blank
	Connecting
)

var stateNames = [...]string{
	Idle:           "idle",
	CardProcessing: "card-processing",
	Error:          "error",
	CheckIn:        "check-in",
	CheckOut:       "check-out",
	UnknownCard:    "unknown-card",
	Blank:          "blank",
	Connecting:     "connecting",
}

func (s State) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Valid reports whether s is one of the defined states.
func (s State) Valid() bool {
	return s >= Idle && s <= Connecting
}

// Resting reports whether s is a state the terminal settles in while no card
// is being handled. Resting states are the targets of chained reverts.
func (s State) Resting() bool {
	return s == Idle || s == Connecting
}

// modulus returns the counter period for s. Progress animations end on their
// own before wrapping.
func (s State) modulus(pixels int) int {
	switch s {
	case CardProcessing, Error:
		return 16
	case Blank:
		return 1
	case Connecting:
		return 2 * pixels
	case CheckIn, CheckOut:
		// The fill completes at counter 2*pixels, which has to be reachable.
		return max(256, 2*pixels+1)
	default:
		return 256
	}
}

func mustValid(s State) {
	if !s.Valid() {
		panic(fmt.Sprintf("animation: invalid state %d", int(s)))
	}
}
