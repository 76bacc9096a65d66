//go:build !deadlock

// Package syncutil provides the mutex types used by the terminal's I/O adapters.
// Standard sync.Mutex and sync.RWMutex are used by default.
// Build with -tags=deadlock to swap in github.com/sasha-s/go-deadlock.
package syncutil

import "sync"

// Mutex wraps sync.Mutex. Build with -tags=deadlock for deadlock detection.
//
//nolint:gocritic // Embedding sync.Mutex exposes Lock/Unlock directly
type Mutex struct {
	sync.Mutex
}

// RWMutex wraps sync.RWMutex. Build with -tags=deadlock for deadlock detection.
//
//nolint:gocritic // Embedding sync.RWMutex exposes its methods directly
type RWMutex struct {
	sync.RWMutex
}
