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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// stepper drives an engine with evenly spaced ticks.
type stepper struct {
	e   *Engine
	now time.Time
}

func newStepper(pixels int) *stepper {
	return &stepper{e: New(Config{Pixels: pixels}), now: t0}
}

func (s *stepper) tick(t *testing.T) Frame {
	t.Helper()
	f, ok := s.e.Tick(s.now, false)
	require.True(t, ok, "tick at %v not due", s.now.Sub(t0))
	s.now = s.now.Add(DefaultTickInterval)
	return f
}

func lit(px []Color) []int {
	var out []int
	for i, c := range px {
		if c != Off {
			out = append(out, i)
		}
	}
	return out
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	assert.Equal(t, Idle, e.State())
	assert.Equal(t, Idle, e.Baseline())
	assert.Equal(t, DefaultPixels, e.Pixels())
	_, _, ok := e.Pending()
	assert.False(t, ok)
}

func TestTick_RateLimited(t *testing.T) {
	t.Parallel()

	e := New(Config{Pixels: 4})
	f, ok := e.Tick(t0, false)
	require.True(t, ok)
	assert.Equal(t, 0, f.Counter)

	_, ok = e.Tick(t0.Add(10*time.Millisecond), false)
	assert.False(t, ok)

	f, ok = e.Tick(t0.Add(25*time.Millisecond), false)
	require.True(t, ok)
	assert.Equal(t, 1, f.Counter)
}

func TestTick_ForcedInsideWindowDoesNotAdvance(t *testing.T) {
	t.Parallel()

	e := New(Config{Pixels: 4})
	_, ok := e.Tick(t0, false)
	require.True(t, ok)

	e.SetState(CardProcessing)
	f, ok := e.Tick(t0.Add(time.Millisecond), true)
	require.True(t, ok)
	assert.Equal(t, CardProcessing, f.State)
	assert.Equal(t, 0, f.Counter)

	f, ok = e.Tick(t0.Add(2*time.Millisecond), true)
	require.True(t, ok)
	assert.Equal(t, 0, f.Counter)

	f, ok = e.Tick(t0.Add(25*time.Millisecond), false)
	require.True(t, ok)
	assert.Equal(t, 0, f.Counter)

	f, ok = e.Tick(t0.Add(50*time.Millisecond), false)
	require.True(t, ok)
	assert.Equal(t, 1, f.Counter)
}

func TestSetState_RestingUpdatesBaseline(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	e.SetState(Connecting)
	assert.Equal(t, Connecting, e.Baseline())

	e.SetState(CardProcessing)
	assert.Equal(t, Connecting, e.Baseline())

	e.SetState(Idle)
	assert.Equal(t, Idle, e.Baseline())
}

func TestSetState_CancelsPendingRevert(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	e.SetStateFor(Error, 3*time.Second, true, t0)
	e.SetState(CardProcessing)

	_, _, ok := e.Pending()
	assert.False(t, ok)

	f, ok := e.Tick(t0.Add(5*time.Second), false)
	require.True(t, ok)
	assert.Equal(t, CardProcessing, f.State)
}

func TestSetStateFor_RevertTargets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		baseline State
		chain    bool
		want     State
	}{
		{name: "chain to idle", baseline: Idle, chain: true, want: Idle},
		{name: "chain to connecting", baseline: Connecting, chain: true, want: Connecting},
		{name: "unchained from connecting", baseline: Connecting, chain: false, want: Idle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := New(Config{Pixels: 8})
			e.SetState(tt.baseline)
			e.SetStateFor(Error, 3*time.Second, tt.chain, t0)

			target, at, ok := e.Pending()
			require.True(t, ok)
			assert.Equal(t, tt.want, target)
			assert.Equal(t, t0.Add(3*time.Second), at)

			f, ok := e.Tick(t0.Add(3*time.Second-time.Millisecond), false)
			require.True(t, ok)
			assert.Equal(t, Error, f.State)

			f, ok = e.Tick(t0.Add(3*time.Second+30*time.Millisecond), false)
			require.True(t, ok)
			assert.Equal(t, tt.want, f.State)
			assert.Equal(t, 0, f.Counter)

			_, _, ok = e.Pending()
			assert.False(t, ok)
		})
	}
}

func TestSetStateFor_ChainAcrossFeedback(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	e.SetState(Connecting)
	e.SetState(CardProcessing)
	e.SetStateFor(Error, time.Second, true, t0)

	target, _, ok := e.Pending()
	require.True(t, ok)
	assert.Equal(t, Connecting, target)
}

func TestSetStateFor_RevertExactlyAtDeadline(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	e.SetStateFor(Blank, 500*time.Millisecond, false, t0)
	f, ok := e.Tick(t0.Add(500*time.Millisecond), false)
	require.True(t, ok)
	assert.Equal(t, Idle, f.State)
}

func TestRender_CheckInProgressAndCompletion(t *testing.T) {
	t.Parallel()

	s := newStepper(6)
	s.e.SetState(CheckIn)

	f := s.tick(t)
	assert.Equal(t, []int{0}, lit(f.Pixels))
	assert.Equal(t, Green, f.Pixels[0])

	s.tick(t)
	s.tick(t)
	s.tick(t)
	f = s.tick(t) // counter 4
	assert.Equal(t, []int{0, 1, 2}, lit(f.Pixels))

	for f.Counter < 11 {
		f = s.tick(t)
	}
	assert.Equal(t, CheckIn, f.State)
	assert.Len(t, lit(f.Pixels), 6)

	doneAt := s.now
	f = s.tick(t)
	assert.Equal(t, Blank, f.State)
	assert.Empty(t, lit(f.Pixels))

	target, at, ok := s.e.Pending()
	require.True(t, ok)
	assert.Equal(t, Idle, target)
	assert.Equal(t, doneAt.Add(CompletionBlank), at)
}

func TestRender_FillCompletesOnLongStrip(t *testing.T) {
	t.Parallel()

	for _, state := range []State{CheckIn, CheckOut} {
		t.Run(state.String(), func(t *testing.T) {
			t.Parallel()

			s := newStepper(150)
			s.e.SetState(state)

			var f Frame
			for range 301 {
				f = s.tick(t)
				if f.State != state {
					break
				}
			}
			assert.Equal(t, Blank, f.State, "fill must finish before the counter wraps")

			s.now = s.now.Add(CompletionBlank)
			f = s.tick(t)
			assert.Equal(t, Idle, f.State)
		})
	}
}

func TestRender_CheckOutShrinksFromFarEnd(t *testing.T) {
	t.Parallel()

	s := newStepper(4)
	s.e.SetState(CheckOut)

	f := s.tick(t)
	assert.Equal(t, []int{0, 1, 2, 3}, lit(f.Pixels))
	assert.Equal(t, Orange, f.Pixels[3])

	s.tick(t)
	f = s.tick(t) // counter 2
	assert.Equal(t, []int{0, 1, 2}, lit(f.Pixels))

	for f.State == CheckOut {
		f = s.tick(t)
	}
	assert.Equal(t, Blank, f.State)
}

func TestRender_CardProcessingAlternates(t *testing.T) {
	t.Parallel()

	s := newStepper(4)
	s.e.SetState(CardProcessing)

	f := s.tick(t)
	assert.Equal(t, []int{1, 3}, lit(f.Pixels))
	assert.Equal(t, Blue, f.Pixels[1])

	for f.Counter < 8 {
		f = s.tick(t)
	}
	assert.Equal(t, []int{0, 2}, lit(f.Pixels))

	for f.Counter != 0 {
		f = s.tick(t)
	}
	assert.Equal(t, []int{1, 3}, lit(f.Pixels))
}

func TestRender_ErrorBlinks(t *testing.T) {
	t.Parallel()

	s := newStepper(3)
	s.e.SetState(Error)

	for i := range 16 {
		f := s.tick(t)
		if i < 8 {
			assert.Equal(t, []Color{Red, Red, Red}, f.Pixels, "counter %d", i)
		} else {
			assert.Empty(t, lit(f.Pixels), "counter %d", i)
		}
	}
}

func TestRender_ConnectingChase(t *testing.T) {
	t.Parallel()

	s := newStepper(3)
	s.e.SetState(Connecting)

	want := []int{0, 0, 1, 1, 2, 2, 0, 0}
	for i, pos := range want {
		f := s.tick(t)
		assert.Equal(t, []int{pos}, lit(f.Pixels), "step %d", i)
		assert.Equal(t, White, f.Pixels[pos])
	}
}

func TestRender_UnknownCardBreathThenBlank(t *testing.T) {
	t.Parallel()

	s := newStepper(2)
	s.e.SetState(UnknownCard)

	f := s.tick(t)
	assert.Empty(t, lit(f.Pixels), "breath starts dark")

	var peak Color
	for range 9 {
		f = s.tick(t)
	}
	peak = f.Pixels[0]
	f = s.tick(t) // counter 10
	assert.Greater(t, f.Pixels[0].R(), uint8(0))
	assert.Greater(t, f.Pixels[0].B(), peak.B()/2)

	for f.State == UnknownCard {
		f = s.tick(t)
	}
	assert.Equal(t, Blank, f.State)
	target, _, ok := s.e.Pending()
	require.True(t, ok)
	assert.Equal(t, Idle, target)
}

func TestRender_IdleRainbow(t *testing.T) {
	t.Parallel()

	s := newStepper(24)
	f := s.tick(t)
	assert.Len(t, lit(f.Pixels), 24)
	assert.NotEqual(t, f.Pixels[0], f.Pixels[12])

	for range 100 {
		f = s.tick(t)
	}
	assert.Equal(t, Idle, f.State)
	assert.Equal(t, 100, f.Counter)
}

func TestRender_CountersWrap(t *testing.T) {
	t.Parallel()

	s := newStepper(4)
	var f Frame
	for range 300 {
		f = s.tick(t)
	}
	assert.Less(t, f.Counter, 256)

	s.e.SetState(Blank)
	for range 5 {
		f = s.tick(t)
		assert.Equal(t, 0, f.Counter)
	}
}

func TestSetState_InvalidPanics(t *testing.T) {
	t.Parallel()

	e := New(Config{})
	assert.Panics(t, func() { e.SetState(State(42)) })
	assert.Panics(t, func() { render(State(-1), 0, make([]Color, 1)) })
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "check-in", CheckIn.String())
	assert.Equal(t, "State(99)", State(99).String())
	assert.True(t, Connecting.Resting())
	assert.False(t, Error.Resting())
}
