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

import "context"

// Conn is one request/response exchange with the backend. All methods return
// immediately.
type Conn interface {
	// Available returns the number of bytes that can be read without waiting.
	Available() int
	// Read copies up to len(p) available bytes.
	Read(p []byte) (int, error)
	// Connected reports false once the peer has closed and no unread bytes remain.
	Connected() bool
	Close() error
}

// Dialer starts an exchange: it connects to the backend, writes request and
// collects the reply in the background. A failed connection is reported by a
// Conn that is closed and holds no data, never by an error.
type Dialer interface {
	Dial(ctx context.Context, request []byte) Conn
}

// ClosedConn is a Conn that was never connected.
type ClosedConn struct{}

func (ClosedConn) Available() int           { return 0 }
func (ClosedConn) Read([]byte) (int, error) { return 0, nil }
func (ClosedConn) Connected() bool          { return false }
func (ClosedConn) Close() error             { return nil }
