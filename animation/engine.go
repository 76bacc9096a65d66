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

// Package animation drives the terminal's LED strip through a fixed set of
// visual states with timed reverts.
package animation

import (
	"time"

	accessterm "github.com/ZaparooProject/go-accessterm"
)

// Defaults taken from the reader hardware
const (
	DefaultPixels       = 24
	DefaultTickInterval = 25 * time.Millisecond

	// CompletionBlank is how long the strip stays dark after a progress
	// animation finishes, before returning to idle.
	CompletionBlank = 500 * time.Millisecond
)

// Config configures an Engine
type Config struct {
	Pixels       int
	TickInterval time.Duration
}

// Frame is one rendered strip image. Pixels is owned by the engine and is
// only valid until the next call to Tick.
type Frame struct {
	Pixels  []Color
	Counter int
	State   State
}

// Engine is the animation state machine. It performs no I/O and is driven
// entirely by the caller's clock; it is not safe for concurrent use.
type Engine struct {
	lastStep time.Time
	deadline time.Time
	pixels   []Color
	interval time.Duration
	counter  int
	pending  bool
	current  State
	target   State
	baseline State
}

// New creates an engine in the Idle state.
func New(cfg Config) *Engine {
	if cfg.Pixels <= 0 {
		cfg.Pixels = DefaultPixels
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	return &Engine{
		pixels:   make([]Color, cfg.Pixels),
		interval: cfg.TickInterval,
		current:  Idle,
		target:   Idle,
		baseline: Idle,
	}
}

// SetState switches immediately to s, restarts its animation and cancels any
// pending revert. Resting states also become the chain baseline.
func (e *Engine) SetState(s State) {
	mustValid(s)
	if s != e.current {
		accessterm.Debugf("animation: %s -> %s", e.current, s)
	}
	e.current = s
	e.counter = 0
	e.pending = false
	e.deadline = time.Time{}
	if s.Resting() {
		e.baseline = s
	}
}

// SetStateFor shows s for d and then reverts. With chain the revert returns
// to the resting state that was active before the feedback began; otherwise
// it returns to Idle.
func (e *Engine) SetStateFor(s State, d time.Duration, chain bool, now time.Time) {
	target := Idle
	if chain {
		target = e.baseline
	}
	e.SetState(s)
	e.target = target
	e.deadline = now.Add(d)
	e.pending = true
}

// Tick advances the animation when at least one tick interval has passed
// since the previous step. A forced tick inside the interval redraws the
// current frame without advancing it. The returned frame is valid only when
// the boolean is true.
func (e *Engine) Tick(now time.Time, force bool) (Frame, bool) {
	due := e.lastStep.IsZero() || now.Sub(e.lastStep) >= e.interval
	if !due && !force {
		return Frame{}, false
	}

	if e.pending && !now.Before(e.deadline) {
		e.SetState(e.target)
	}

	if render(e.current, e.counter, e.pixels) {
		e.SetStateFor(Blank, CompletionBlank, false, now)
		render(e.current, e.counter, e.pixels)
	}
	frame := Frame{Pixels: e.pixels, Counter: e.counter, State: e.current}

	if due {
		e.lastStep = now
		e.counter = (e.counter + 1) % e.current.modulus(len(e.pixels))
	}
	return frame, true
}

// State returns the state currently shown.
func (e *Engine) State() State {
	return e.current
}

// Baseline returns the resting state chained reverts return to.
func (e *Engine) Baseline() State {
	return e.baseline
}

// Pending returns the scheduled revert, if any.
func (e *Engine) Pending() (target State, at time.Time, ok bool) {
	if !e.pending {
		return Idle, time.Time{}, false
	}
	return e.target, e.deadline, true
}

// Pixels returns the strip length.
func (e *Engine) Pixels() int {
	return len(e.pixels)
}
