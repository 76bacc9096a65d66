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

// Package frame recovers card UIDs from the reader's serial byte stream.
package frame

import "time"

// Stats counts parser activity since creation
type Stats struct {
	Frames      uint64 // UIDs emitted
	Malformed   uint64 // 16-byte windows discarded (bad terminator or payload)
	StaleResets uint64 // buffers discarded after an inactivity gap
	Dropped     uint64 // bytes dropped because the buffer was full
}

// Parser accumulates serial bytes and emits a UID once a complete
// 16-byte window has been received. It is not safe for concurrent use;
// the terminal loop is its only caller.
type Parser struct {
	lastFeed   time.Time
	buf        []byte
	stats      Stats
	inactivity time.Duration
}

// NewParser creates a parser that discards partial data older than
// inactivity. A non-positive value selects DefaultInactivityTimeout.
func NewParser(inactivity time.Duration) *Parser {
	if inactivity <= 0 {
		inactivity = DefaultInactivityTimeout
	}
	return &Parser{
		buf:        make([]byte, 0, BufferCapacity),
		inactivity: inactivity,
	}
}

// Feed appends bytes that arrived at the given time and reports a UID when
// the buffer reaches a full window. Once 16 bytes are buffered the whole
// buffer is consumed whether or not the window decoded, so bytes past the
// window in the same feed are lost.
func (p *Parser) Feed(data []byte, at time.Time) (UID, bool) {
	if len(data) == 0 {
		return UID{}, false
	}

	if len(p.buf) > 0 && !p.lastFeed.IsZero() && at.Sub(p.lastFeed) > p.inactivity {
		p.buf = p.buf[:0]
		p.stats.StaleResets++
	}
	p.lastFeed = at

	room := BufferCapacity - len(p.buf)
	if len(data) > room {
		p.stats.Dropped += uint64(len(data) - room)
		data = data[:room]
	}
	p.buf = append(p.buf, data...)

	if len(p.buf) < FrameLength {
		return UID{}, false
	}

	uid, err := DecodeUID(p.buf)
	p.Reset()
	if err != nil {
		p.stats.Malformed++
		return UID{}, false
	}
	p.stats.Frames++
	return uid, true
}

// Reset discards any buffered bytes.
func (p *Parser) Reset() {
	p.buf = p.buf[:0]
	p.lastFeed = time.Time{}
}

// Buffered returns the number of bytes waiting for completion.
func (p *Parser) Buffered() int {
	return len(p.buf)
}

// Stats returns a snapshot of the parser counters.
func (p *Parser) Stats() Stats {
	return p.stats
}
