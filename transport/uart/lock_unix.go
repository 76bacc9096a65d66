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

//go:build unix

package uart

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	accessterm "github.com/ZaparooProject/go-accessterm"
)

// portLock is an flock(2) held on the device node.
type portLock struct {
	file *os.File
}

func acquireLock(path string) (*portLock, error) {
	f, err := os.OpenFile(path, os.O_RDONLY|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, accessterm.NewTransportError("lock", path,
				fmt.Errorf("%w: %w", accessterm.ErrDeviceNotFound, err), accessterm.ErrorTypeTransient)
		}
		return nil, accessterm.NewTransportError("lock", path, err, accessterm.ErrorTypePermanent)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, accessterm.NewDeviceBusyError("lock", path)
		}
		return nil, accessterm.NewTransportError("lock", path, err, accessterm.ErrorTypePermanent)
	}
	return &portLock{file: f}, nil
}

func (l *portLock) release() {
	if l == nil || l.file == nil {
		return
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
