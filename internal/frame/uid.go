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

package frame

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Frame decoding errors. None of them is surfaced to the user; the parser
// counts them and the reader resends on the next tap.
var (
	ErrShortFrame     = errors.New("frame shorter than 16 bytes")
	ErrNoTerminator   = errors.New("frame not terminated by CR LF")
	ErrInvalidPayload = errors.New("frame payload is not hex")
)

// UID is a 7-byte card identifier in canonical byte order.
type UID [UIDLength]byte

// String returns the upper-case hex form sent to the backend.
func (u UID) String() string {
	return strings.ToUpper(hex.EncodeToString(u[:]))
}

// Wire returns the 16 bytes a reader transmits for this UID: hex pairs in
// reverse byte order followed by CR LF.
func (u UID) Wire() []byte {
	out := make([]byte, 0, FrameLength)
	for i := UIDLength - 1; i >= 0; i-- {
		out = append(out, strings.ToUpper(hex.EncodeToString(u[i:i+1]))...)
	}
	return append(out, CR, LF)
}

// ParseUID parses the 14-character hex form produced by String.
func ParseUID(s string) (UID, error) {
	var uid UID
	if len(s) != PayloadLength {
		return uid, fmt.Errorf("uid %q: want %d hex characters, got %d", s, PayloadLength, len(s))
	}
	if _, err := hex.Decode(uid[:], []byte(s)); err != nil {
		return UID{}, fmt.Errorf("uid %q: %w", s, ErrInvalidPayload)
	}
	return uid, nil
}

// DecodeUID decodes the first 16 bytes of window. Payload pair i (counting
// from the start) becomes UID byte 6-i, so the last pair received is the
// first UID byte.
func DecodeUID(window []byte) (UID, error) {
	var uid UID
	if len(window) < FrameLength {
		return uid, ErrShortFrame
	}
	if window[PayloadLength] != CR || window[PayloadLength+1] != LF {
		return uid, ErrNoTerminator
	}

	var pair [1]byte
	for i := range UIDLength {
		if _, err := hex.Decode(pair[:], window[i*2:i*2+2]); err != nil {
			return UID{}, ErrInvalidPayload
		}
		uid[UIDLength-1-i] = pair[0]
	}
	return uid, nil
}
