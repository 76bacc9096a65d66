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

package report

// DefaultResponseCapacity bounds the stored response.
const DefaultResponseCapacity = 512

// PendingResponse collects the bytes of the one outstanding response.
type PendingResponse struct {
	buf         []byte
	overflowed  bool
	outstanding bool
}

// NewPendingResponse creates an idle response buffer.
func NewPendingResponse(capacity int) *PendingResponse {
	if capacity <= 0 {
		capacity = DefaultResponseCapacity
	}
	return &PendingResponse{buf: make([]byte, 0, capacity)}
}

// Begin clears the buffer and marks a response as expected.
func (r *PendingResponse) Begin() {
	r.buf = r.buf[:0]
	r.overflowed = false
	r.outstanding = true
}

// Append stores as much of p as fits and returns the number of bytes kept.
// The rest is dropped and the overflow flag raised.
func (r *PendingResponse) Append(p []byte) int {
	room := cap(r.buf) - len(r.buf)
	if len(p) > room {
		r.overflowed = true
		p = p[:room]
	}
	r.buf = append(r.buf, p...)
	return len(p)
}

// Finish clears the outstanding flag and returns the collected bytes. The
// slice is valid until the next Begin.
func (r *PendingResponse) Finish() []byte {
	r.outstanding = false
	return r.buf
}

// Outstanding reports whether a response is expected.
func (r *PendingResponse) Outstanding() bool { return r.outstanding }

// Overflowed reports whether bytes were dropped during this cycle.
func (r *PendingResponse) Overflowed() bool { return r.overflowed }

// Len returns the number of stored bytes.
func (r *PendingResponse) Len() int { return len(r.buf) }

// Capacity returns the buffer bound.
func (r *PendingResponse) Capacity() int { return cap(r.buf) }
