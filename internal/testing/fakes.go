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

package testing

import (
	"time"

	"github.com/ZaparooProject/go-accessterm/animation"
	"github.com/ZaparooProject/go-accessterm/internal/syncutil"
	"github.com/ZaparooProject/go-accessterm/network"
)

// RecordingStrip keeps a copy of every frame shown.
type RecordingStrip struct {
	err    error
	frames [][]animation.Color
	mu     syncutil.Mutex
	closed bool
}

// Show records a copy of pixels.
func (s *RecordingStrip) Show(pixels []animation.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	frame := make([]animation.Color, len(pixels))
	copy(frame, pixels)
	s.frames = append(s.frames, frame)
	return nil
}

// Close marks the strip closed.
func (s *RecordingStrip) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// SetError makes subsequent Show calls fail.
func (s *RecordingStrip) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Frames returns all recorded frames.
func (s *RecordingStrip) Frames() [][]animation.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]animation.Color, len(s.frames))
	copy(out, s.frames)
	return out
}

// Last returns the most recent frame, or nil.
func (s *RecordingStrip) Last() []animation.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Closed reports whether Close was called.
func (s *RecordingStrip) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// FakeLink is a link whose state the test flips directly.
type FakeLink struct {
	mu      syncutil.Mutex
	up      bool
	changed bool
	calls   int
}

// NewFakeLink creates a link in the given state.
func NewFakeLink(up bool) *FakeLink {
	return &FakeLink{up: up}
}

// Set changes the link state; the next Maintain reports the transition.
func (l *FakeLink) Set(up bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.up != up {
		l.up = up
		l.changed = true
	}
}

// Maintain reports a pending transition once.
func (l *FakeLink) Maintain(time.Time) network.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if !l.changed {
		return network.NoChange
	}
	l.changed = false
	if l.up {
		return network.Restored
	}
	return network.Lost
}

// Up reports the current state.
func (l *FakeLink) Up() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.up
}

// Calls returns how many times Maintain ran.
func (l *FakeLink) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}
