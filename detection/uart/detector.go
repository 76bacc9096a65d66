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

// Package uart finds USB serial ports that may carry a card reader.
package uart

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/go-accessterm/detection"
	"go.bug.st/serial/enumerator"
)

// bridgeChips are USB-serial converters commonly found on reader boards
var bridgeChips = []string{
	"1A86:7523", // QinHeng CH340
	"1A86:55D4", // QinHeng CH9102
	"10C4:EA60", // Silicon Labs CP210x
	"0403:6001", // FTDI FT232R
	"0403:6015", // FTDI FT231X
	"067B:2303", // Prolific PL2303
}

// namePatterns match port names of USB-serial adapters on macOS and Linux
var namePatterns = []string{"usbserial", "slab_usbtouart", "usbmodem", "ttyusb", "ttyacm"}

// productKeywords match USB product strings of readers
var productKeywords = []string{"nfc", "rfid", "card reader", "13.56"}

type listFunc func() ([]*enumerator.PortDetails, error)

// detector implements the Detector interface for serial ports.
type detector struct {
	list listFunc
}

// New creates a serial port detector backed by the OS port enumerator
func New() detection.Detector {
	return &detector{list: enumerator.GetDetailedPortsList}
}

func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "uart"
}

// Detect lists serial ports and scores each by how likely it is to be a reader
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := d.list()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	var devices []detection.DeviceInfo
	for _, port := range ports {
		if ctx.Err() != nil {
			return devices, ctx.Err()
		}
		if port == nil {
			continue
		}

		device := deviceInfo(port, opts.Readers)
		if vidpid, ok := device.Metadata["vidpid"]; ok && detection.IsBlocked(vidpid, opts.Blocklist) {
			continue
		}
		if detection.IsPathIgnored(device.Path, opts.IgnorePaths) {
			continue
		}
		if device.Confidence < opts.MinConfidence {
			continue
		}
		devices = append(devices, device)
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

func deviceInfo(port *enumerator.PortDetails, readers []string) detection.DeviceInfo {
	device := detection.DeviceInfo{
		Transport: "uart",
		Path:      port.Name,
		Name:      filepath.Base(port.Name),
		Metadata:  make(map[string]string),
	}

	if port.IsUSB {
		device.Metadata["usb"] = "true"
		if port.VID != "" && port.PID != "" {
			device.Metadata["vidpid"] = strings.ToUpper(port.VID + ":" + port.PID)
		}
	}
	if port.Product != "" {
		device.Metadata["product"] = port.Product
		device.Name = port.Product
	}
	if port.SerialNumber != "" {
		device.Metadata["serial"] = port.SerialNumber
	}

	device.Confidence = score(port, device.Metadata["vidpid"], readers)
	return device
}

// score ranks a port: a configured reader VID:PID is High, a known bridge
// chip, adapter name or reader-like product string is Medium, anything else Low.
func score(port *enumerator.PortDetails, vidpid string, readers []string) detection.Confidence {
	if vidpid != "" && detection.IsBlocked(vidpid, readers) {
		return detection.High
	}
	if vidpid != "" && detection.IsBlocked(vidpid, bridgeChips) {
		return detection.Medium
	}

	lowerName := strings.ToLower(port.Name)
	for _, pattern := range namePatterns {
		if strings.Contains(lowerName, pattern) {
			return detection.Medium
		}
	}

	lowerProduct := strings.ToLower(port.Product)
	for _, keyword := range productKeywords {
		if strings.Contains(lowerProduct, keyword) {
			return detection.Medium
		}
	}

	return detection.Low
}
