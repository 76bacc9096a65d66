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

// Package network supervises the terminal's uplink so the strip can show
// when the backend is unreachable.
package network

import (
	"fmt"
	"net"
	"time"

	accessterm "github.com/ZaparooProject/go-accessterm"
)

// Event is the result of one maintenance pass.
type Event int

const (
	// NoChange means the link kept its previous state.
	NoChange Event = iota
	// Lost means the link went down since the last pass.
	Lost
	// Restored means the link came back since the last pass.
	Restored
)

func (e Event) String() string {
	switch e {
	case NoChange:
		return "no-change"
	case Lost:
		return "lost"
	case Restored:
		return "restored"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// DefaultCheckInterval is how often InterfaceMonitor inspects the interface.
const DefaultCheckInterval = time.Second

// Inspector reports whether the named interface can carry traffic.
type Inspector func(name string) (bool, error)

// InterfaceMonitor tracks one network interface. It is considered up when
// the interface is administratively up and holds a unicast IPv4 address.
type InterfaceMonitor struct {
	lastCheck time.Time
	inspect   Inspector
	name      string
	interval  time.Duration
	up        bool
}

// NewInterfaceMonitor creates a monitor for the named interface. The link
// starts down.
func NewInterfaceMonitor(name string, interval time.Duration) *InterfaceMonitor {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &InterfaceMonitor{name: name, interval: interval, inspect: InterfaceUp}
}

// WithInspector replaces the interface probe.
func (m *InterfaceMonitor) WithInspector(inspect Inspector) *InterfaceMonitor {
	m.inspect = inspect
	return m
}

// Maintain probes the interface at most once per interval and reports a
// transition. Probe errors count as link down.
func (m *InterfaceMonitor) Maintain(now time.Time) Event {
	if !m.lastCheck.IsZero() && now.Sub(m.lastCheck) < m.interval {
		return NoChange
	}
	m.lastCheck = now

	up, err := m.inspect(m.name)
	if err != nil {
		accessterm.Debugf("network: inspect %s: %v", m.name, err)
		up = false
	}
	if up == m.up {
		return NoChange
	}
	m.up = up
	if up {
		accessterm.Logger().WithField("interface", m.name).Info("link up")
		return Restored
	}
	accessterm.Logger().WithField("interface", m.name).Warn("link down")
	return Lost
}

// Up reports the state seen by the last probe.
func (m *InterfaceMonitor) Up() bool {
	return m.up
}

// InterfaceUp is the default Inspector backed by the host's interface table.
func InterfaceUp(name string) (bool, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return false, fmt.Errorf("interface %s: %w", name, err)
	}
	if iface.Flags&net.FlagUp == 0 {
		return false, nil
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return false, fmt.Errorf("interface %s addresses: %w", name, err)
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if ip := ipNet.IP.To4(); ip != nil && ip.IsGlobalUnicast() {
			return true, nil
		}
	}
	return false, nil
}

// AlwaysUp is a link that never goes down, for hosts where the operating
// system manages connectivity.
type AlwaysUp struct{}

// Maintain always reports no change.
func (AlwaysUp) Maintain(time.Time) Event { return NoChange }

// Up always reports true.
func (AlwaysUp) Up() bool { return true }
