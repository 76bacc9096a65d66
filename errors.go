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
package accessterm

import (
	"errors"
	"fmt"
	"io"
	"syscall"
)

// Reader port errors
var (
	ErrDeviceNotFound  = errors.New("device not found")
	ErrDeviceBusy      = errors.New("device is locked by another process")
	ErrTransportClosed = errors.New("transport is closed")
)

// Exchange errors, raised while talking to the backend or the strip
var (
	ErrTransportTimeout = errors.New("transport timeout")
	ErrTransportWrite   = errors.New("transport write failed")
	ErrTransportRead    = errors.New("transport read failed")
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrorType is the category that decides whether the terminal retries an
// operation, carries on, or gives the device up.
type ErrorType int

const (
	// ErrorTypeUnknown is any error the terminal has no rule for
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeTransient may succeed on the next attempt
	ErrorTypeTransient
	// ErrorTypePermanent means the device is gone or unusable
	ErrorTypePermanent
	// ErrorTypeTimeout is a transient error caused by a deadline
	ErrorTypeTimeout
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// TransportError records which operation on which port or host failed.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps err. Transient and timeout errors are retryable.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// NewTimeoutError reports an exchange that ran past its deadline.
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewTransportReadError reports a failed read that may succeed later. A nil
// cause leaves only the sentinel.
func NewTransportReadError(op, port string, cause error) *TransportError {
	return NewTransportError(op, port, withCause(ErrTransportRead, cause), ErrorTypeTransient)
}

// NewTransportWriteError reports a failed write that may succeed later.
func NewTransportWriteError(op, port string, cause error) *TransportError {
	return NewTransportError(op, port, withCause(ErrTransportWrite, cause), ErrorTypeTransient)
}

func withCause(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// NewDeviceBusyError reports a port held by another process. The holder may
// exit, so it is retryable.
func NewDeviceBusyError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrDeviceBusy, ErrorTypeTransient)
}

// Classify returns the category of err. A TransportError anywhere in the
// chain decides on its own; otherwise the sentinels and OS errors do.
func Classify(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case IsDeviceGone(err),
		errors.Is(err, ErrTransportClosed),
		errors.Is(err, ErrDeviceNotFound),
		errors.Is(err, io.ErrClosedPipe):
		return ErrorTypePermanent
	case errors.Is(err, ErrTransportTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrDeviceBusy):
		return ErrorTypeTransient
	default:
		return ErrorTypeUnknown
	}
}

// IsRetryable reports whether repeating the failed operation may succeed.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	switch Classify(err) {
	case ErrorTypeTransient, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// IsFatal reports whether the device behind err is gone and has to be
// reopened before the loop can use it again.
func IsFatal(err error) bool {
	return Classify(err) == ErrorTypePermanent
}

// IsDeviceGone matches the errno values a USB serial adapter produces when
// it is unplugged during I/O.
func IsDeviceGone(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		//nolint:exhaustive // only the unplug errnos matter
		switch errno {
		case syscall.EIO, syscall.ENXIO, syscall.ENODEV:
			return true
		}
	}
	return false
}
