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

// Package polling runs the access terminal: it polls the reader line, the
// uplink and the backend exchange from one loop and drives the LED strip.
package polling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	accessterm "github.com/ZaparooProject/go-accessterm"
	"github.com/ZaparooProject/go-accessterm/animation"
	"github.com/ZaparooProject/go-accessterm/internal/frame"
	"github.com/ZaparooProject/go-accessterm/network"
	"github.com/ZaparooProject/go-accessterm/report"
)

// Deps are the terminal's collaborators.
type Deps struct {
	Serial  SerialPort
	Link    Link
	Strip   Strip
	Reports *report.Client
	Engine  *animation.Engine
	Parser  *frame.Parser
	// Reopen is called to recover a reader port that failed fatally.
	Reopen ReopenFunc
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Terminal owns the animation engine, the frame parser and the report
// client. Only the goroutine running Start, Step or Run may touch them.
type Terminal struct {
	lastStep  time.Time
	serial    SerialPort
	link      Link
	strip     Strip
	reports   *report.Client
	engine    *animation.Engine
	parser    *frame.Parser
	recoverer *PortRecoverer
	clock     func() time.Time
	onCard    func(uid frame.UID)
	onOutcome func(uid string, outcome report.Outcome)
	log       *logrus.Entry
	config    *Config
	readBuf   []byte
	lastUID   string
	stats     Stats
	forceDraw bool
}

// NewTerminal validates deps and creates a terminal.
func NewTerminal(config *Config, deps Deps) (*Terminal, error) {
	if deps.Serial == nil {
		return nil, errors.New("polling: serial port is required")
	}
	if deps.Reports == nil {
		return nil, errors.New("polling: report client is required")
	}
	if deps.Link == nil {
		deps.Link = network.AlwaysUp{}
	}
	if deps.Strip == nil {
		return nil, errors.New("polling: strip is required")
	}
	if deps.Engine == nil {
		deps.Engine = animation.New(animation.Config{})
	}
	if deps.Parser == nil {
		deps.Parser = frame.NewParser(frame.DefaultInactivityTimeout)
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	config = config.withDefaults()

	return &Terminal{
		serial:    deps.Serial,
		link:      deps.Link,
		strip:     deps.Strip,
		reports:   deps.Reports,
		engine:    deps.Engine,
		parser:    deps.Parser,
		recoverer: NewPortRecoverer(deps.Reopen, config.ReopenBackoff),
		clock:     deps.Clock,
		config:    config,
		readBuf:   make([]byte, frame.BufferCapacity),
		log:       accessterm.Logger().WithField("component", "terminal"),
	}, nil
}

// SetOnCard registers a callback run for every decoded UID.
func (t *Terminal) SetOnCard(callback func(uid frame.UID)) {
	t.onCard = callback
}

// SetOnOutcome registers a callback run for every report outcome.
func (t *Terminal) SetOnOutcome(callback func(uid string, outcome report.Outcome)) {
	t.onOutcome = callback
}

// Start shows the connecting animation and waits for the link. It settles
// on Idle once the link is up, or on Error when StartupTimeout passes first.
// Only context cancellation is returned as an error.
func (t *Terminal) Start(ctx context.Context) error {
	now := t.clock()
	t.engine.SetState(animation.Connecting)
	t.draw(now, true)

	deadline := now.Add(t.config.StartupTimeout)
	for {
		t.link.Maintain(now)
		if t.link.Up() {
			t.engine.SetState(animation.Idle)
			t.draw(now, true)
			t.log.Info("terminal ready")
			break
		}
		if !now.Before(deadline) {
			t.engine.SetState(animation.Error)
			t.draw(now, true)
			t.log.WithField("timeout", t.config.StartupTimeout).Warn("link did not come up")
			break
		}
		t.draw(now, false)

		if err := sleepCtx(ctx, t.config.LoopInterval); err != nil {
			return err
		}
		now = t.clock()
	}
	t.lastStep = now
	return nil
}

// Step runs one loop pass: link maintenance, animation, backend exchange,
// then the reader line.
func (t *Terminal) Step(ctx context.Context, now time.Time) {
	t.stats.Steps++
	if !t.lastStep.IsZero() && t.config.SleepRecovery.DetectSleep(now.Sub(t.lastStep), t.config.LoopInterval) {
		t.stats.Stalls++
		t.parser.Reset()
		t.forceDraw = true
		t.log.WithField("gap", now.Sub(t.lastStep)).Warn("loop stalled, discarding partial reader data")
	}
	t.lastStep = now

	switch t.link.Maintain(now) {
	case network.Lost, network.Restored:
		// A lost reader keeps showing Error; settle picks the resting
		// state once the port is back.
		if t.serial != nil {
			t.settle()
		}
	case network.NoChange:
	}

	t.draw(now, t.forceDraw)

	if outcome, ok := t.reports.Service(); ok {
		t.handleOutcome(outcome, now)
	}

	t.pollSerial(ctx, now)
}

// Run starts the terminal and steps it every LoopInterval until ctx is
// done. Collaborators are closed on return.
func (t *Terminal) Run(ctx context.Context) error {
	defer func() {
		if err := t.Close(); err != nil {
			t.log.WithError(err).Warn("close terminal")
		}
	}()

	if err := t.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(t.config.LoopInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.Step(ctx, t.clock())
		}
	}
}

// Close abandons any outstanding report and releases the strip and the
// reader port.
func (t *Terminal) Close() error {
	var errs []error
	if err := t.reports.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close report: %w", err))
	}
	if err := t.strip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close strip: %w", err))
	}
	if t.serial != nil {
		if err := t.serial.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close serial: %w", err))
		}
		t.serial = nil
	}
	return errors.Join(errs...)
}

// State returns the animation state currently shown.
func (t *Terminal) State() animation.State {
	return t.engine.State()
}

// Stats returns a snapshot of the terminal counters.
func (t *Terminal) Stats() Stats {
	return t.stats
}

// ParserStats returns the frame parser counters.
func (t *Terminal) ParserStats() frame.Stats {
	return t.parser.Stats()
}

func (t *Terminal) draw(now time.Time, force bool) {
	f, ok := t.engine.Tick(now, force)
	if !ok {
		return
	}
	t.forceDraw = false
	if err := t.strip.Show(f.Pixels); err != nil {
		t.stats.StripErrors++
		accessterm.Debugf("polling: show frame: %v", err)
	}
}

func (t *Terminal) pollSerial(ctx context.Context, now time.Time) {
	if t.serial == nil {
		port, ok := t.recoverer.TryRecover(ctx, now)
		if !ok {
			return
		}
		t.serial = port
		t.stats.Reopens++
		t.parser.Reset()
		t.settle()
		t.log.Info("reader port reopened")
	}

	n, err := t.serial.Read(t.readBuf)
	if err != nil {
		if accessterm.IsFatal(err) {
			t.portLost(now, err)
			return
		}
		accessterm.Debugf("polling: serial read: %v", err)
	}
	if n == 0 {
		return
	}

	uid, ok := t.parser.Feed(t.readBuf[:n], now)
	if !ok {
		return
	}
	t.handleCard(ctx, uid, now)
}

func (t *Terminal) handleCard(ctx context.Context, uid frame.UID, now time.Time) {
	t.stats.Cards++
	if t.onCard != nil {
		t.onCard(uid)
	}

	fields := logrus.Fields{"uid": uid}
	if t.reports.Outstanding() {
		t.stats.Dropped++
		t.log.WithFields(fields).Debug("card ignored, report outstanding")
		return
	}

	t.engine.SetState(animation.CardProcessing)
	t.draw(now, true)

	t.lastUID = uid.String()
	if err := t.reports.Send(ctx, t.lastUID); err != nil {
		t.log.WithFields(fields).WithError(err).Warn("report not sent")
		t.handleOutcome(report.Failure, now)
		return
	}
	t.log.WithFields(fields).Info("card read")
}

func (t *Terminal) handleOutcome(outcome report.Outcome, now time.Time) {
	t.stats.Outcomes++
	if outcome == report.Failure {
		t.stats.Failures++
	}
	OutcomeAnimation(outcome, t.config.ErrorDuration).apply(t.engine, now)
	if t.onOutcome != nil {
		t.onOutcome(t.lastUID, outcome)
	}
}

func (t *Terminal) portLost(now time.Time, err error) {
	t.log.WithError(err).Error("reader port lost")
	if closeErr := t.serial.Close(); closeErr != nil {
		accessterm.Debugf("polling: close lost port: %v", closeErr)
	}
	t.serial = nil
	t.parser.Reset()
	t.recoverer.Lost(now)
	t.engine.SetState(animation.Error)
	t.forceDraw = true
}

// settle returns to the resting state after the reader comes back.
func (t *Terminal) settle() {
	if t.link.Up() {
		t.engine.SetState(animation.Idle)
	} else {
		t.engine.SetState(animation.Connecting)
	}
	t.forceDraw = true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
