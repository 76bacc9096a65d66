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
package detection

import (
	"maps"
	"time"

	"github.com/ZaparooProject/go-accessterm/internal/syncutil"
)

// resultCache keeps the last enumeration per transport. Hot-plug makes stale
// entries harmful, so the TTL is short and the reopen path clears it.
type resultCache struct {
	stored  map[string]time.Time
	devices map[string][]DeviceInfo
	mu      syncutil.RWMutex
}

var cache = &resultCache{
	stored:  make(map[string]time.Time),
	devices: make(map[string][]DeviceInfo),
}

// cloneDevices copies devices including their metadata maps.
func cloneDevices(devices []DeviceInfo) []DeviceInfo {
	out := make([]DeviceInfo, len(devices))
	for i, d := range devices {
		d.Metadata = maps.Clone(d.Metadata)
		out[i] = d
	}
	return out
}

func getCached(transport string, ttl time.Duration) ([]DeviceInfo, bool) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()

	stored, ok := cache.stored[transport]
	if !ok || time.Since(stored) > ttl {
		return nil, false
	}
	return cloneDevices(cache.devices[transport]), true
}

func setCached(transport string, devices []DeviceInfo) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	cache.stored[transport] = time.Now()
	cache.devices[transport] = cloneDevices(devices)
}

func clearCache() {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	clear(cache.stored)
	clear(cache.devices)
}

func clearCacheForTransport(transport string) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	delete(cache.stored, transport)
	delete(cache.devices, transport)
}
