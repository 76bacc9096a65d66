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

package uart

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	accessterm "github.com/ZaparooProject/go-accessterm"
)

// stubPort implements the parts of serial.Port the transport uses.
type stubPort struct {
	serial.Port
	readErr error
	data    []byte
	timeout time.Duration
	closed  bool
}

func (p *stubPort) SetReadTimeout(t time.Duration) error {
	p.timeout = t
	return nil
}

func (*stubPort) ResetInputBuffer() error { return nil }

func (p *stubPort) Read(b []byte) (int, error) {
	if p.readErr != nil {
		return 0, p.readErr
	}
	n := copy(b, p.data)
	p.data = p.data[n:]
	return n, nil
}

func (p *stubPort) Close() error {
	p.closed = true
	return nil
}

func openStub(port *stubPort, err error) openFunc {
	return func(string, *serial.Mode) (serial.Port, error) {
		if err != nil {
			return nil, err
		}
		return port, nil
	}
}

func TestNew_NonBlockingReads(t *testing.T) {
	t.Parallel()

	port := &stubPort{timeout: time.Hour, data: []byte("0123456789ABCD\r\n")}
	var gotMode *serial.Mode
	opener := func(_ string, mode *serial.Mode) (serial.Port, error) {
		gotMode = mode
		return port, nil
	}

	tr, err := newWithOpener(Config{Port: "/dev/ttyUSB0"}, opener)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), port.timeout)
	require.NotNil(t, gotMode)
	assert.Equal(t, DefaultBaudRate, gotMode.BaudRate)
	assert.Equal(t, 8, gotMode.DataBits)
	assert.Equal(t, "/dev/ttyUSB0", tr.PortName())

	buf := make([]byte, 64)
	n, err := tr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 16, n)

	n, err = tr.Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, tr.Close())
	assert.True(t, port.closed)
	require.NoError(t, tr.Close(), "second close is a no-op")

	_, err = tr.Read(buf)
	require.ErrorIs(t, err, accessterm.ErrTransportClosed)
}

func TestRead_UnplugIsFatal(t *testing.T) {
	t.Parallel()

	port := &stubPort{}
	tr, err := newWithOpener(Config{Port: "/dev/ttyUSB0"}, openStub(port, nil))
	require.NoError(t, err)
	buf := make([]byte, 16)

	glitch := errors.New("framing glitch")
	port.readErr = glitch
	_, err = tr.Read(buf)
	require.ErrorIs(t, err, accessterm.ErrTransportRead)
	require.ErrorIs(t, err, glitch)
	assert.False(t, accessterm.IsFatal(err))

	port.readErr = syscall.EIO
	_, err = tr.Read(buf)
	require.ErrorIs(t, err, accessterm.ErrTransportClosed)
	assert.True(t, accessterm.IsFatal(err))
}

func TestNew_OpenErrorsClassified(t *testing.T) {
	t.Parallel()

	// The zero PortError carries the PortBusy code.
	_, err := newWithOpener(Config{Port: "/dev/ttyUSB0"}, openStub(nil, &serial.PortError{}))
	require.Error(t, err)
	assert.True(t, accessterm.IsRetryable(err))
	require.ErrorIs(t, err, accessterm.ErrDeviceBusy)

	_, err = newWithOpener(Config{Port: "/dev/ttyUSB0"}, openStub(nil, errors.New("boom")))
	require.Error(t, err)
	assert.False(t, accessterm.IsRetryable(err))
	assert.True(t, accessterm.IsFatal(err))
}

func TestRead_ErrorsWrapped(t *testing.T) {
	t.Parallel()

	port := &stubPort{}
	tr, err := newWithOpener(Config{Port: "/dev/ttyACM0"}, openStub(port, nil))
	require.NoError(t, err)

	port.readErr = errors.New("input/output error")
	_, err = tr.Read(make([]byte, 8))
	var te *accessterm.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "read", te.Op)
	assert.Equal(t, "/dev/ttyACM0", te.Port)
}

func TestLock_Exclusive(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("flock is not available")
	}

	path := filepath.Join(t.TempDir(), "ttyFAKE0")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	first, err := acquireLock(path)
	require.NoError(t, err)

	_, err = acquireLock(path)
	require.ErrorIs(t, err, accessterm.ErrDeviceBusy)
	assert.True(t, accessterm.IsRetryable(err))

	first.release()
	second, err := acquireLock(path)
	require.NoError(t, err)
	second.release()
}

func TestNew_LockReleasedOnOpenFailure(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("flock is not available")
	}

	path := filepath.Join(t.TempDir(), "ttyFAKE1")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := newWithOpener(Config{Port: path, Lock: true}, openStub(nil, errors.New("boom")))
	require.Error(t, err)

	lock, err := acquireLock(path)
	require.NoError(t, err)
	lock.release()
}

func TestLock_MissingDevice(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("flock is not available")
	}

	_, err := acquireLock(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, accessterm.ErrDeviceNotFound)
}
