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
	"time"

	"github.com/ZaparooProject/go-accessterm/animation"
	"github.com/ZaparooProject/go-accessterm/network"
	"github.com/ZaparooProject/go-accessterm/report"
)

// SerialPort is the reader line. Read must not block: it returns 0, nil
// when nothing has arrived.
type SerialPort interface {
	Read(p []byte) (int, error)
	Close() error
}

// Link supervises the uplink.
type Link interface {
	Maintain(now time.Time) network.Event
	Up() bool
}

// Strip displays rendered frames.
type Strip interface {
	Show(pixels []animation.Color) error
	Close() error
}

// Feedback is the animation shown for a report outcome. A zero Duration
// means the state is set without a timed revert.
type Feedback struct {
	State    animation.State
	Duration time.Duration
	Chain    bool
}

// OutcomeAnimation maps a report outcome to its animation. Progress and
// breath animations return to idle on their own; the error animation lasts
// errorDuration and then returns to the resting state it interrupted.
func OutcomeAnimation(outcome report.Outcome, errorDuration time.Duration) Feedback {
	switch outcome {
	case report.CheckedIn:
		return Feedback{State: animation.CheckIn}
	case report.CheckedOut:
		return Feedback{State: animation.CheckOut}
	case report.MemberNotFound, report.CardNotFound:
		return Feedback{State: animation.UnknownCard}
	default:
		return Feedback{State: animation.Error, Duration: errorDuration, Chain: true}
	}
}

// apply shows feedback on e.
func (f Feedback) apply(e *animation.Engine, now time.Time) {
	if f.Duration > 0 {
		e.SetStateFor(f.State, f.Duration, f.Chain, now)
		return
	}
	e.SetState(f.State)
}

// Stats tracks terminal activity
type Stats struct {
	Steps       int64 // Loop passes
	Cards       int64 // UIDs decoded
	Dropped     int64 // UIDs ignored while a report was outstanding
	Outcomes    int64 // Reports answered or failed
	Failures    int64 // Reports that ended in Failure
	StripErrors int64 // Failed frame pushes
	Stalls      int64 // Detected loop stalls
	Reopens     int64 // Successful reader port reopens
}
