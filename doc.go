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

// Package accessterm holds the ambient pieces shared by the access terminal's
// packages: configuration loading, logging, transport error classification,
// retry with backoff and wire traces.
//
// The terminal itself is assembled from subpackages:
//
//   - internal/frame decodes card UIDs from the reader's serial stream
//   - report sends one HTTP report per card and classifies the response
//   - animation renders the LED ring's feedback states
//   - polling runs the single-threaded loop that ties them together
//   - transport/uart, transport/tcp and transport/spi adapt the hardware
//   - detection finds the reader's serial port when none is configured
//
// A typical configuration file:
//
//	terminal:
//	  id: door-1
//	backend:
//	  host: ourspace.local
//	  port: 8080
//	  path: /scan
//	  variant: ourspace
//	serial:
//	  port: /dev/ttyAMA0
//	led:
//	  device: /dev/spidev0.0
//	  count: 24
package accessterm
