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

// Package uart reads the card reader's serial line with go.bug.st/serial.
// Reads never block: the terminal loop polls the port every pass.
package uart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"

	accessterm "github.com/ZaparooProject/go-accessterm"
	"github.com/ZaparooProject/go-accessterm/internal/syncutil"
)

// DefaultBaudRate of the reader module
const DefaultBaudRate = 9600

// Config describes how to open the reader port.
type Config struct {
	Port     string
	BaudRate int
	// Lock takes an exclusive advisory lock on the device so two terminals
	// cannot share one reader.
	Lock bool
}

type openFunc func(name string, mode *serial.Mode) (serial.Port, error)

// Transport is an open reader port.
type Transport struct {
	port     serial.Port
	lock     *portLock
	portName string
	mu       syncutil.Mutex
	closed   bool
}

// Open opens the port, retrying while the device is still enumerating or
// held by another process.
func Open(ctx context.Context, cfg Config) (*Transport, error) {
	retry := accessterm.DefaultRetryConfig()
	retry.OnRetry = func(attempt int, err error, sleep time.Duration) {
		accessterm.Logger().WithFields(logrus.Fields{
			"port":    cfg.Port,
			"attempt": attempt,
			"sleep":   sleep,
		}).Warnf("reader port not ready: %v", err)
	}

	var t *Transport
	err := accessterm.RetryWithConfig(ctx, retry, func() error {
		var openErr error
		t, openErr = New(cfg)
		return openErr
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// New opens the port once.
func New(cfg Config) (*Transport, error) {
	return newWithOpener(cfg, serial.Open)
}

func newWithOpener(cfg Config, opener openFunc) (*Transport, error) {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}

	var lock *portLock
	if cfg.Lock {
		var err error
		if lock, err = acquireLock(cfg.Port); err != nil {
			return nil, err
		}
	}

	port, err := opener(cfg.Port, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		lock.release()
		return nil, classifyOpenError(cfg.Port, err)
	}

	// A zero timeout makes Read return whatever is buffered, possibly nothing.
	if err := port.SetReadTimeout(0); err != nil {
		_ = port.Close()
		lock.release()
		return nil, fmt.Errorf("failed to set UART read timeout: %w", err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		accessterm.Debugf("uart: reset input buffer on %s: %v", cfg.Port, err)
	}

	accessterm.Logger().WithField("port", cfg.Port).WithField("baud", cfg.BaudRate).Info("reader port open")
	return &Transport{port: port, portName: cfg.Port, lock: lock}, nil
}

// classifyOpenError maps go.bug.st/serial errors onto the transport error
// taxonomy so the retry loop knows what to wait for.
func classifyOpenError(port string, err error) error {
	var pe *serial.PortError
	if errors.As(err, &pe) {
		switch pe.Code() {
		case serial.PortBusy:
			return accessterm.NewTransportError("open", port, fmt.Errorf("%w: %w", accessterm.ErrDeviceBusy, err),
				accessterm.ErrorTypeTransient)
		case serial.PortNotFound:
			return accessterm.NewTransportError("open", port, fmt.Errorf("%w: %w", accessterm.ErrDeviceNotFound, err),
				accessterm.ErrorTypeTransient)
		case serial.PermissionDenied, serial.InvalidSerialPort:
			return accessterm.NewTransportError("open", port, err, accessterm.ErrorTypePermanent)
		}
	}
	return accessterm.NewTransportError("open", port, err, accessterm.ErrorTypePermanent)
}

// Read returns buffered bytes without waiting. It returns 0, nil when the
// reader has sent nothing.
func (t *Transport) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.port == nil {
		return 0, accessterm.ErrTransportClosed
	}
	n, err := t.port.Read(p)
	if err != nil {
		var pe *serial.PortError
		if (errors.As(err, &pe) && pe.Code() == serial.PortClosed) || accessterm.IsDeviceGone(err) {
			return n, accessterm.NewTransportError("read", t.portName, accessterm.ErrTransportClosed,
				accessterm.ErrorTypePermanent)
		}
		return n, accessterm.NewTransportReadError("read", t.portName, err)
	}
	return n, nil
}

// Close closes the port and releases the device lock.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	t.lock.release()
	if t.port == nil {
		return nil
	}
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("UART close failed: %w", err)
	}
	return nil
}

// PortName returns the device path.
func (t *Transport) PortName() string {
	return t.portName
}
