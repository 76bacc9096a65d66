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

package uart

import (
	"context"
	"errors"
	"testing"

	"github.com/ZaparooProject/go-accessterm/detection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func fixedPorts(ports ...*enumerator.PortDetails) listFunc {
	return func() ([]*enumerator.PortDetails, error) {
		return ports, nil
	}
}

func TestDetect_ScoresPorts(t *testing.T) {
	t.Parallel()

	det := &detector{list: fixedPorts(
		&enumerator.PortDetails{Name: "/dev/ttyS0"},
		&enumerator.PortDetails{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1a86", PID: "7523", Product: "USB Serial"},
		&enumerator.PortDetails{Name: "/dev/ttyACM0", IsUSB: true, VID: "16c0", PID: "0483", SerialNumber: "R-0042"},
	)}
	opts := &detection.Options{Readers: []string{"16C0:0483"}}

	devices, err := det.Detect(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, devices, 3)

	assert.Equal(t, detection.Low, devices[0].Confidence)
	assert.Equal(t, "ttyS0", devices[0].Name)
	assert.NotContains(t, devices[0].Metadata, "vidpid")

	assert.Equal(t, detection.Medium, devices[1].Confidence)
	assert.Equal(t, "1A86:7523", devices[1].Metadata["vidpid"])
	assert.Equal(t, "USB Serial", devices[1].Name)

	assert.Equal(t, detection.High, devices[2].Confidence)
	assert.Equal(t, "R-0042", devices[2].Metadata["serial"])

	best, err := detection.Best(devices)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", best.Path)
}

func TestDetect_AppliesFilters(t *testing.T) {
	t.Parallel()

	det := &detector{list: fixedPorts(
		&enumerator.PortDetails{Name: "/dev/ttyACM0", IsUSB: true, VID: "0483", PID: "374b"},
		&enumerator.PortDetails{Name: "/dev/ttyUSB0", IsUSB: true, VID: "10c4", PID: "ea60"},
		&enumerator.PortDetails{Name: "/dev/ttyUSB1", IsUSB: true, VID: "0403", PID: "6001"},
		&enumerator.PortDetails{Name: "/dev/ttyS1"},
		nil,
	)}
	opts := &detection.Options{
		Blocklist:     detection.DefaultBlocklist(),
		IgnorePaths:   []string{"/dev/ttyUSB1"},
		MinConfidence: detection.Medium,
	}

	devices, err := det.Detect(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "/dev/ttyUSB0", devices[0].Path)
}

func TestDetect_NoPorts(t *testing.T) {
	t.Parallel()

	det := &detector{list: fixedPorts()}
	_, err := det.Detect(context.Background(), &detection.Options{})
	require.ErrorIs(t, err, detection.ErrNoDevicesFound)
}

func TestDetect_EnumerationError(t *testing.T) {
	t.Parallel()

	enumErr := errors.New("sysfs unavailable")
	det := &detector{list: func() ([]*enumerator.PortDetails, error) { return nil, enumErr }}

	_, err := det.Detect(context.Background(), &detection.Options{})
	require.ErrorIs(t, err, enumErr)
}

func TestDetect_CanceledContext(t *testing.T) {
	t.Parallel()

	det := &detector{list: fixedPorts(&enumerator.PortDetails{Name: "/dev/ttyUSB0"})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := det.Detect(ctx, &detection.Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestScore_NamesAndProducts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		port enumerator.PortDetails
		want detection.Confidence
	}{
		{"macOS usbserial", enumerator.PortDetails{Name: "/dev/cu.usbserial-1420"}, detection.Medium},
		{"macOS CP210x", enumerator.PortDetails{Name: "/dev/cu.SLAB_USBtoUART"}, detection.Medium},
		{"reader product", enumerator.PortDetails{Name: "COM7", Product: "ACME RFID Reader"}, detection.Medium},
		{"plain windows port", enumerator.PortDetails{Name: "COM1"}, detection.Low},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, score(&tt.port, "", nil))
		})
	}
}

func TestTransport(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "uart", New().Transport())
}
