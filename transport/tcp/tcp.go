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

// Package tcp carries report exchanges over plain TCP. Each exchange runs in
// its own goroutine so the terminal loop can poll it without blocking.
package tcp

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"time"

	accessterm "github.com/ZaparooProject/go-accessterm"
	"github.com/ZaparooProject/go-accessterm/internal/syncutil"
	"github.com/ZaparooProject/go-accessterm/report"
)

// Default exchange timeouts
const (
	DefaultDialTimeout     = 3 * time.Second
	DefaultExchangeTimeout = 10 * time.Second
)

const readChunk = 512

// ContextDialer is satisfied by *net.Dialer.
type ContextDialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Dialer opens one TCP connection per report.
type Dialer struct {
	dialer          ContextDialer
	address         string
	dialTimeout     time.Duration
	exchangeTimeout time.Duration
}

// NewDialer creates a dialer for host:port. Non-positive timeouts select
// the defaults.
func NewDialer(address string, dialTimeout, exchangeTimeout time.Duration) *Dialer {
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	if exchangeTimeout <= 0 {
		exchangeTimeout = DefaultExchangeTimeout
	}
	return &Dialer{
		dialer:          &net.Dialer{},
		address:         address,
		dialTimeout:     dialTimeout,
		exchangeTimeout: exchangeTimeout,
	}
}

// Address returns the dialed host:port.
func (d *Dialer) Address() string {
	return d.address
}

// Dial starts the exchange in the background and returns immediately.
func (d *Dialer) Dial(ctx context.Context, request []byte) report.Conn {
	exchangeCtx, cancel := context.WithTimeout(ctx, d.exchangeTimeout)
	c := &Conn{cancel: cancel, address: d.address}

	payload := make([]byte, len(request))
	copy(payload, request)
	go c.run(exchangeCtx, d, payload)
	return c
}

// Conn is a polled view of one background exchange.
type Conn struct {
	err     error
	netConn net.Conn
	cancel  context.CancelFunc
	address string
	buf     []byte
	mu      syncutil.Mutex
	done    bool
	closed  bool
}

func (c *Conn) run(ctx context.Context, d *Dialer, request []byte) {
	defer c.cancel()

	dialCtx, cancelDial := context.WithTimeout(ctx, d.dialTimeout)
	netConn, err := d.dialer.DialContext(dialCtx, "tcp", d.address)
	cancelDial()
	if err != nil {
		c.finish(accessterm.NewTransportError("dial", d.address, err, accessterm.ErrorTypeTransient))
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = netConn.Close()
		return
	}
	c.netConn = netConn
	c.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = netConn.Close() })
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		_ = netConn.SetDeadline(deadline)
	}

	if _, err := netConn.Write(request); err != nil {
		c.finish(accessterm.NewTransportWriteError("write", d.address, err))
		return
	}

	chunk := make([]byte, readChunk)
	for {
		n, err := netConn.Read(chunk)
		if n > 0 {
			c.mu.Lock()
			c.buf = append(c.buf, chunk[:n]...)
			c.mu.Unlock()
		}
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				err = nil
			case errors.Is(err, os.ErrDeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
				err = accessterm.NewTimeoutError("exchange", d.address)
			default:
				err = accessterm.NewTransportReadError("read", d.address, err)
			}
			c.finish(err)
			return
		}
	}
}

func (c *Conn) finish(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil && !c.closed {
		accessterm.Debugf("tcp: %v", err)
		c.err = err
	}
	c.done = true
	if c.netConn != nil {
		_ = c.netConn.Close()
	}
}

// Available returns the number of received bytes not yet read.
func (c *Conn) Available() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}

// Read copies received bytes without waiting.
func (c *Conn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := copy(p, c.buf)
	c.buf = c.buf[n:]
	return n, nil
}

// Connected reports true until the exchange has ended and every received
// byte has been read.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && (!c.done || len(c.buf) > 0)
}

// Close abandons the exchange.
func (c *Conn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	return nil
}

// Err returns the transport error that ended the exchange, if any.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
