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
	"time"

	accessterm "github.com/ZaparooProject/go-accessterm"
)

// ReopenFunc is a function that attempts to reopen the reader port
type ReopenFunc func(ctx context.Context) (SerialPort, error)

// PortRecoverer reopens a lost reader port. Attempts are spaced by backoff
// and never block the loop for longer than one open call.
type PortRecoverer struct {
	nextAttempt time.Time
	lastErr     error
	reopen      ReopenFunc
	backoff     time.Duration
	attempts    int
}

// NewPortRecoverer creates a recoverer. A nil reopen function leaves the
// port lost for good.
func NewPortRecoverer(reopen ReopenFunc, backoff time.Duration) *PortRecoverer {
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &PortRecoverer{reopen: reopen, backoff: backoff}
}

// Lost records the time the port failed; the first attempt waits one backoff.
func (r *PortRecoverer) Lost(now time.Time) {
	r.nextAttempt = now.Add(r.backoff)
	r.attempts = 0
	r.lastErr = nil
}

// TryRecover attempts a reopen when one is due.
func (r *PortRecoverer) TryRecover(ctx context.Context, now time.Time) (SerialPort, bool) {
	if r.reopen == nil || now.Before(r.nextAttempt) {
		return nil, false
	}
	r.attempts++
	r.nextAttempt = now.Add(r.backoff)

	port, err := r.reopen(ctx)
	if err != nil {
		r.lastErr = err
		accessterm.Debugf("polling: reopen attempt %d failed: %v", r.attempts, err)
		return nil, false
	}
	return port, true
}

// Attempts returns the number of reopen attempts since the port was lost.
func (r *PortRecoverer) Attempts() int {
	return r.attempts
}

// LastError returns the error of the most recent failed attempt.
func (r *PortRecoverer) LastError() error {
	return r.lastErr
}
