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
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultBlocklist returns USB serial devices that are never card readers.
func DefaultBlocklist() []string {
	return []string{
		"1366:0105", // SEGGER J-Link CDC
		"0483:374B", // ST-LINK/V2-1 virtual COM port
	}
}

var (
	pairPattern = regexp.MustCompile(`^([0-9A-F]{4}):([0-9A-F]{4})$`)
	vidPattern  = regexp.MustCompile(`(?:VID|VENDOR)[:=_]\s*([0-9A-F]{4})`)
	pidPattern  = regexp.MustCompile(`(?:PID|PRODUCT)[:=_]\s*([0-9A-F]{4})`)
)

// ParseVIDPID normalizes a USB id to upper-case "VVVV:PPPP". It accepts the
// bare pair, "VID:xxxx PID:xxxx", "vendor=xxxx product=xxxx" and Windows
// hardware ids such as USB\VID_1A86&PID_7523. It returns "" for anything else.
func ParseVIDPID(descriptor string) string {
	descriptor = strings.ToUpper(strings.TrimSpace(descriptor))
	if descriptor == "" {
		return ""
	}
	if m := pairPattern.FindStringSubmatch(descriptor); m != nil {
		return m[1] + ":" + m[2]
	}

	vid := vidPattern.FindStringSubmatch(descriptor)
	pid := pidPattern.FindStringSubmatch(descriptor)
	if vid == nil || pid == nil {
		return ""
	}
	return vid[1] + ":" + pid[1]
}

// IsBlocked reports whether vidpid matches an entry of list. Entries may use
// any form ParseVIDPID accepts, so ids copied from a device manager work.
func IsBlocked(vidpid string, list []string) bool {
	want := ParseVIDPID(vidpid)
	if want == "" {
		return false
	}
	for _, entry := range list {
		if ParseVIDPID(entry) == want {
			return true
		}
	}
	return false
}

// IsPathIgnored reports whether devicePath names one of ignorePaths. Paths
// are cleaned and compared case-insensitively; symlinks are not resolved.
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" {
		return false
	}
	device := filepath.Clean(devicePath)
	for _, ignored := range ignorePaths {
		if ignored != "" && strings.EqualFold(device, filepath.Clean(ignored)) {
			return true
		}
	}
	return false
}
