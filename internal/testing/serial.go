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
	"errors"
	"math/rand/v2"

	"github.com/ZaparooProject/go-accessterm/internal/syncutil"
)

// ErrSerialClosed is returned by FakeSerial reads after Close.
var ErrSerialClosed = errors.New("fake serial closed")

// JitterConfig shapes how FakeSerial hands out queued bytes, imitating
// USB-UART bridges (FTDI, CH340) that deliver data in unpredictable pieces.
type JitterConfig struct {
	Seed uint64
	// FragmentMinBytes is the smallest fragment returned when fragmenting.
	FragmentMinBytes int
	// FragmentReads returns a random-length prefix of the queue per read.
	FragmentReads bool
	// USBBoundaryStress never lets a read cross a 64-byte boundary of the
	// total stream.
	USBBoundaryStress bool
}

// DefaultJitterConfig fragments reads down to single bytes.
func DefaultJitterConfig() JitterConfig {
	return JitterConfig{FragmentReads: true, FragmentMinBytes: 1}
}

// FakeSerial is a non-blocking serial port fed by the test. Read returns
// 0, nil when nothing is queued.
type FakeSerial struct {
	readErr   error
	rng       *rand.Rand
	queue     []byte
	config    JitterConfig
	delivered int
	reads     int
	mu        syncutil.Mutex
	closed    bool
}

// NewFakeSerial creates an empty port. A zero config delivers everything
// queued in one read.
func NewFakeSerial(config JitterConfig) *FakeSerial {
	seed := config.Seed
	if seed == 0 {
		seed = rand.Uint64() //nolint:gosec // Test code, not crypto
	}
	if config.FragmentMinBytes < 1 {
		config.FragmentMinBytes = 1
	}
	return &FakeSerial{
		config: config,
		rng:    rand.New(rand.NewPCG(seed, seed^0xDEADBEEF)), //nolint:gosec // Test code, not crypto
	}
}

// Push queues bytes for later reads.
func (s *FakeSerial) Push(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, data...)
}

// FailNext makes the next read return err.
func (s *FakeSerial) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// Read implements a non-blocking port read.
func (s *FakeSerial) Read(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	if s.closed {
		return 0, ErrSerialClosed
	}
	if err := s.readErr; err != nil {
		s.readErr = nil
		return 0, err
	}
	if len(s.queue) == 0 || len(buf) == 0 {
		return 0, nil
	}

	n := min(len(s.queue), len(buf))

	if s.config.USBBoundaryStress {
		untilBoundary := (s.delivered/64+1)*64 - s.delivered
		n = min(n, untilBoundary)
	}
	if s.config.FragmentReads && n > s.config.FragmentMinBytes {
		n = s.config.FragmentMinBytes + s.rng.IntN(n-s.config.FragmentMinBytes+1)
	}

	copy(buf, s.queue[:n])
	s.queue = s.queue[n:]
	s.delivered += n
	return n, nil
}

// Close marks the port closed.
func (s *FakeSerial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Pending returns the number of queued bytes not yet read.
func (s *FakeSerial) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Reads returns how many times Read was called.
func (s *FakeSerial) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Closed reports whether Close was called.
func (s *FakeSerial) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
