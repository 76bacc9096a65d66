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
	"context"

	"github.com/ZaparooProject/go-accessterm/internal/syncutil"
	"github.com/ZaparooProject/go-accessterm/report"
)

// FakeConn is a scripted backend exchange. Tests deliver response bytes and
// hang up explicitly.
type FakeConn struct {
	request  []byte
	incoming []byte
	mu       syncutil.Mutex
	hungUp   bool
	closed   bool
}

// NewFakeConn returns an open connection holding no data.
func NewFakeConn() *FakeConn {
	return &FakeConn{}
}

// Respond delivers response and hangs up, like a backend answering with
// Connection: close.
func (c *FakeConn) Respond(response string) *FakeConn {
	c.Deliver([]byte(response))
	c.Hangup()
	return c
}

// Deliver makes bytes available to Read.
func (c *FakeConn) Deliver(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.incoming = append(c.incoming, p...)
}

// Hangup closes the peer side. Buffered bytes stay readable.
func (c *FakeConn) Hangup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hungUp = true
}

func (c *FakeConn) Available() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.incoming)
}

func (c *FakeConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := copy(p, c.incoming)
	c.incoming = c.incoming[n:]
	return n, nil
}

func (c *FakeConn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && (!c.hungUp || len(c.incoming) > 0)
}

func (c *FakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Request returns the bytes written by the client.
func (c *FakeConn) Request() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.request
}

// Closed reports whether the client closed the connection.
func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// FakeDialer hands out queued connections. When the queue is empty it
// returns a connection that failed to connect.
type FakeDialer struct {
	queue    []*FakeConn
	requests [][]byte
	mu       syncutil.Mutex
}

// Queue adds connections returned by subsequent dials.
func (d *FakeDialer) Queue(conns ...*FakeConn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, conns...)
}

// Dial implements report.Dialer.
func (d *FakeDialer) Dial(_ context.Context, request []byte) report.Conn {
	d.mu.Lock()
	defer d.mu.Unlock()

	req := make([]byte, len(request))
	copy(req, request)
	d.requests = append(d.requests, req)

	if len(d.queue) == 0 {
		return report.ClosedConn{}
	}
	conn := d.queue[0]
	d.queue = d.queue[1:]
	conn.mu.Lock()
	conn.request = req
	conn.mu.Unlock()
	return conn
}

// Requests returns every request dialed so far.
func (d *FakeDialer) Requests() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.requests))
	copy(out, d.requests)
	return out
}
