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
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
)

// Device open retry constants. Report requests are never retried; these only
// cover startup, when a USB serial adapter may still be enumerating.
const (
	DefaultOpenRetries = 5
	OpenInitialBackoff = 200 * time.Millisecond
	OpenMaxBackoff     = 2 * time.Second
	OpenRetryTimeout   = 15 * time.Second
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	// ShouldRetry decides whether an error is worth another attempt.
	// Nil means IsRetryable.
	ShouldRetry func(error) bool
	// OnRetry runs before each backoff sleep. Nil logs at debug level.
	OnRetry func(attempt int, err error, sleep time.Duration)
	// MaxAttempts is the maximum number of attempts (0 = no retry)
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	// Jitter adds up to this fraction of the backoff
	Jitter float64
	// RetryTimeout bounds all attempts together
	RetryTimeout time.Duration
}

// DefaultRetryConfig returns the retry configuration used for device opens
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       DefaultOpenRetries,
		InitialBackoff:    OpenInitialBackoff,
		MaxBackoff:        OpenMaxBackoff,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
		RetryTimeout:      OpenRetryTimeout,
	}
}

// RetryableFunc is a function that can be retried
type RetryableFunc func() error

// RetryWithConfig runs retryFunc until it succeeds, fails with an error the
// config does not retry, or runs out of attempts or time. Cancellation during
// a backoff returns the last error seen.
func RetryWithConfig(ctx context.Context, config *RetryConfig, retryFunc RetryableFunc) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if config.MaxAttempts <= 0 {
		return retryFunc()
	}

	if config.RetryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.RetryTimeout)
		defer cancel()
	}

	shouldRetry := config.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsRetryable
	}
	onRetry := config.OnRetry
	if onRetry == nil {
		onRetry = func(attempt int, err error, sleep time.Duration) {
			logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"max":     config.MaxAttempts,
				"sleep":   sleep,
			}).Debugf("retrying after: %v", err)
		}
	}

	var lastErr error
	backoff := config.InitialBackoff
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			if lastErr != nil {
				return lastErr
			}
			return fmt.Errorf("retry context cancelled: %w", ctx.Err())
		}

		err := retryFunc()
		if err == nil {
			return nil
		}
		if !shouldRetry(err) {
			return err
		}
		lastErr = err
		if attempt == config.MaxAttempts {
			break
		}

		sleep := calculateJitteredSleep(backoff, config.Jitter)
		onRetry(attempt, err, sleep)
		if !sleepOrDone(ctx, sleep) {
			return lastErr
		}
		backoff = calculateNextBackoff(backoff, config)
	}
	return lastErr
}

// sleepOrDone waits for d and reports false if ctx ended first.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func calculateNextBackoff(backoff time.Duration, config *RetryConfig) time.Duration {
	next := time.Duration(float64(backoff) * config.BackoffMultiplier)
	if next > config.MaxBackoff {
		return config.MaxBackoff
	}
	return next
}

func calculateJitteredSleep(base time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return base
	}
	//nolint:gosec // backoff spread, not security sensitive
	return base + time.Duration(rand.Float64()*jitterFactor*float64(base))
}
