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

import "time"

// SleepRecoveryConfig configures recovery after the host stalls (suspend,
// heavy swapping, a debugger pause). Partial serial data from before the
// stall is stale and the strip needs a redraw.
type SleepRecoveryConfig struct {
	// Enabled enables stall detection
	Enabled bool

	// TimeDiscontinuityThreshold is the minimum elapsed time beyond the
	// expected loop interval that indicates a stall. Default: 2 seconds
	TimeDiscontinuityThreshold time.Duration
}

// DefaultSleepRecoveryConfig returns sensible defaults for stall recovery
func DefaultSleepRecoveryConfig() SleepRecoveryConfig {
	return SleepRecoveryConfig{
		Enabled:                    true,
		TimeDiscontinuityThreshold: 2 * time.Second,
	}
}

// DetectSleep checks if the elapsed time since the last step indicates a stall.
// Returns true if elapsed time exceeds (loopInterval + TimeDiscontinuityThreshold).
func (cfg SleepRecoveryConfig) DetectSleep(elapsed, loopInterval time.Duration) bool {
	if !cfg.Enabled {
		return false
	}
	expectedMax := loopInterval + cfg.TimeDiscontinuityThreshold
	return elapsed > expectedMax
}

// Config holds terminal loop options
type Config struct {
	// LoopInterval is the pause between steps. The animation limits itself
	// to its own tick rate, so this only bounds serial and network latency.
	LoopInterval time.Duration
	// StartupTimeout bounds the wait for the link during Start.
	StartupTimeout time.Duration
	// ErrorDuration is how long the error animation shows after a failed
	// report before returning to the resting state.
	ErrorDuration time.Duration
	// ReopenBackoff spaces attempts to reopen a lost reader port.
	ReopenBackoff time.Duration
	// SleepRecovery configures stall handling. The zero value means the
	// defaults; set a threshold with Enabled false to turn it off.
	SleepRecovery SleepRecoveryConfig
}

// DefaultConfig returns the default terminal configuration
func DefaultConfig() *Config {
	return &Config{
		LoopInterval:   2 * time.Millisecond,
		StartupTimeout: 10 * time.Second,
		ErrorDuration:  3 * time.Second,
		ReopenBackoff:  500 * time.Millisecond,
		SleepRecovery:  DefaultSleepRecoveryConfig(),
	}
}

func (c *Config) withDefaults() *Config {
	def := DefaultConfig()
	if c == nil {
		return def
	}
	out := *c
	if out.LoopInterval <= 0 {
		out.LoopInterval = def.LoopInterval
	}
	if out.StartupTimeout <= 0 {
		out.StartupTimeout = def.StartupTimeout
	}
	if out.ErrorDuration <= 0 {
		out.ErrorDuration = def.ErrorDuration
	}
	if out.ReopenBackoff <= 0 {
		out.ReopenBackoff = def.ReopenBackoff
	}
	if out.SleepRecovery == (SleepRecoveryConfig{}) {
		out.SleepRecovery = def.SleepRecovery
	}
	if out.SleepRecovery.TimeDiscontinuityThreshold <= 0 {
		out.SleepRecovery.TimeDiscontinuityThreshold = def.SleepRecovery.TimeDiscontinuityThreshold
	}
	return &out
}
