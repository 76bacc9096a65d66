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

// Package report sends card UIDs to the access backend and classifies the
// reply. One report is outstanding at a time.
package report

import (
	"context"
	"errors"
	"fmt"
	"text/template"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	accessterm "github.com/ZaparooProject/go-accessterm"
)

// ErrRequestOutstanding is returned by Send while a previous report has not
// been answered yet.
var ErrRequestOutstanding = errors.New("report already outstanding")

// ErrNoOutcome is recorded when a response carried none of the known markers.
var ErrNoOutcome = errors.New("response carried no known outcome")

const (
	readChunk     = 128
	traceCapacity = 24
)

// Config configures a Client
type Config struct {
	Host       string
	Path       string
	UserAgent  string
	TerminalID string
	// Body is "card_serial", "uid" or custom template text.
	Body string
	// Variant selects the marker table.
	Variant          string
	Port             int
	ResponseCapacity int
}

// Client runs the report cycle. It is driven from a single goroutine.
type Client struct {
	dialer   Dialer
	conn     Conn
	body     *template.Template
	pending  *PendingResponse
	trace    *accessterm.TraceBuffer
	lastErr  error
	log      *logrus.Entry
	head     requestHead
	markers  Markers
	readBuf  []byte
	terminal string
	cycle    uuid.UUID
}

// NewClient validates cfg and creates an idle client.
func NewClient(cfg Config, dialer Dialer) (*Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("report: backend host is required")
	}
	if dialer == nil {
		return nil, errors.New("report: dialer is required")
	}
	body, err := ParseBody(cfg.Body)
	if err != nil {
		return nil, err
	}
	markers, err := MarkersFor(cfg.Variant)
	if err != nil {
		return nil, err
	}

	head := newRequestHead(cfg.Host, cfg.Port, cfg.Path, cfg.UserAgent)
	return &Client{
		dialer:   dialer,
		body:     body,
		markers:  markers,
		head:     head,
		terminal: cfg.TerminalID,
		pending:  NewPendingResponse(cfg.ResponseCapacity),
		trace:    accessterm.NewTraceBuffer("tcp", head.host, traceCapacity),
		readBuf:  make([]byte, readChunk),
		log:      accessterm.Logger().WithField("component", "report"),
	}, nil
}

// Send starts a report for uid. It never waits for the network; the outcome
// is delivered later by Service or OnConnectionClosed. While a report is
// outstanding Send returns ErrRequestOutstanding and leaves it untouched.
func (c *Client) Send(ctx context.Context, uid string) error {
	if c.pending.Outstanding() {
		return ErrRequestOutstanding
	}

	request, err := c.head.build(c.body, Request{UID: uid, TerminalID: c.terminal})
	if err != nil {
		return fmt.Errorf("report %s: %w", uid, err)
	}

	c.cycle = uuid.New()
	c.lastErr = nil
	c.trace.Clear()
	c.trace.RecordTX(request, "request")
	c.pending.Begin()

	c.log.WithFields(logrus.Fields{"cycle": c.cycle, "uid": uid}).Debug("sending report")
	c.conn = c.dialer.Dial(ctx, request)
	if c.conn == nil {
		c.conn = ClosedConn{}
	}
	return nil
}

// OnDataAvailable stores response bytes, dropping what exceeds the buffer.
// Bytes arriving with no report outstanding are ignored.
func (c *Client) OnDataAvailable(p []byte) {
	if !c.pending.Outstanding() || len(p) == 0 {
		return
	}
	c.trace.RecordRX(p, "")
	if kept := c.pending.Append(p); kept < len(p) {
		accessterm.Debugf("report: response overflow, dropped %d bytes", len(p)-kept)
	}
}

// OnConnectionClosed classifies the collected response and ends the cycle.
// It returns false when no report was outstanding, so each report yields
// exactly one outcome.
func (c *Client) OnConnectionClosed() (Outcome, bool) {
	if !c.pending.Outstanding() {
		return Failure, false
	}

	response := c.pending.Finish()
	outcome := c.markers.Classify(response)
	c.trace.RecordEvent("closed")

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			accessterm.Debugf("report: close: %v", err)
		}
		c.conn = nil
	}

	fields := logrus.Fields{
		"cycle":   c.cycle,
		"outcome": outcome,
		"bytes":   len(response),
	}
	if c.pending.Overflowed() {
		fields["overflow"] = true
	}
	if outcome == Failure {
		c.lastErr = c.trace.WrapError(ErrNoOutcome)
		c.log.WithFields(fields).Warn("report failed")
		if te := accessterm.GetTrace(c.lastErr); te != nil {
			accessterm.Debugln(te.FormatTrace())
		}
	} else {
		c.log.WithFields(fields).Info("report answered")
	}
	return outcome, true
}

// Service moves available response bytes into the buffer and, once the
// backend has closed the connection, returns the outcome.
func (c *Client) Service() (Outcome, bool) {
	if !c.pending.Outstanding() || c.conn == nil {
		return Failure, false
	}

	for c.conn.Available() > 0 {
		n, err := c.conn.Read(c.readBuf)
		if n > 0 {
			c.OnDataAvailable(c.readBuf[:n])
		}
		if err != nil || n == 0 {
			break
		}
	}

	if c.conn.Connected() {
		return Failure, false
	}
	return c.OnConnectionClosed()
}

// Outstanding reports whether a report is awaiting its outcome.
func (c *Client) Outstanding() bool {
	return c.pending.Outstanding()
}

// Overflowed reports whether the last response exceeded the buffer.
func (c *Client) Overflowed() bool {
	return c.pending.Overflowed()
}

// LastError returns the traced error of the most recent failed cycle, or nil.
func (c *Client) LastError() error {
	return c.lastErr
}

// Close abandons any outstanding report.
func (c *Client) Close() error {
	c.pending.Finish()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
