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

import "time"

// Wire layout of one reader message: 14 ASCII hex characters holding the
// UID with byte pairs in reverse order, followed by CR LF.
const (
	PayloadLength = 14 // hex characters before the terminator
	FrameLength   = 16 // payload + CR + LF
	UIDLength     = 7  // decoded UID bytes
)

// Terminator bytes at offsets 14 and 15 of a frame
const (
	CR byte = '\r'
	LF byte = '\n'
)

// Buffer limits
const (
	// BufferCapacity bounds the scratch buffer. Bytes beyond it in a single
	// feed are dropped and counted.
	BufferCapacity = 64

	// DefaultInactivityTimeout is the largest gap between two feeds that
	// still belong to the same frame. At 9600 baud a byte takes ~1ms.
	DefaultInactivityTimeout = 10 * time.Millisecond
)
