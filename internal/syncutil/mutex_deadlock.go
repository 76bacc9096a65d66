//go:build deadlock

// Package syncutil provides the mutex types used by the terminal's I/O adapters.
// This file is compiled when building with -tags=deadlock.
package syncutil

import deadlock "github.com/sasha-s/go-deadlock"

// Mutex wraps deadlock.Mutex so lock-order inversions in the TCP pump or
// detection cache are reported instead of hanging the terminal.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex wraps deadlock.RWMutex.
type RWMutex struct {
	deadlock.RWMutex
}
