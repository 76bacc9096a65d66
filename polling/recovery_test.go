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

package polling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	testutil "github.com/ZaparooProject/go-accessterm/internal/testing"
)

func TestNewPortRecoverer_Defaults(t *testing.T) {
	t.Parallel()

	r := NewPortRecoverer(nil, 0)
	assert.Equal(t, 500*time.Millisecond, r.backoff)

	r.Lost(t0)
	_, ok := r.TryRecover(context.Background(), t0.Add(time.Hour))
	assert.False(t, ok, "no reopen function")
	assert.Zero(t, r.Attempts())
}

func TestPortRecoverer_Backoff(t *testing.T) {
	t.Parallel()

	failErr := errors.New("no such device")
	calls := 0
	port := testutil.NewFakeSerial(testutil.JitterConfig{})
	r := NewPortRecoverer(func(context.Context) (SerialPort, error) {
		calls++
		if calls < 3 {
			return nil, failErr
		}
		return port, nil
	}, 100*time.Millisecond)

	r.Lost(t0)
	_, ok := r.TryRecover(context.Background(), t0.Add(50*time.Millisecond))
	assert.False(t, ok)
	assert.Zero(t, calls)

	_, ok = r.TryRecover(context.Background(), t0.Add(100*time.Millisecond))
	assert.False(t, ok)
	assert.ErrorIs(t, r.LastError(), failErr)

	_, ok = r.TryRecover(context.Background(), t0.Add(150*time.Millisecond))
	assert.False(t, ok)
	assert.Equal(t, 1, calls, "second attempt waits a full backoff")

	_, ok = r.TryRecover(context.Background(), t0.Add(200*time.Millisecond))
	assert.False(t, ok)

	got, ok := r.TryRecover(context.Background(), t0.Add(300*time.Millisecond))
	assert.True(t, ok)
	assert.Same(t, port, got)
	assert.Equal(t, 3, r.Attempts())
}
