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

// Package spi drives WS2812/SK6812 pixel strips from an SPI port.
//
// Each data bit is sent as three SPI bits at 2.4 MHz (1 -> 110, 0 -> 100),
// which meets the strip's 800 kHz timing without a dedicated PWM peripheral.
package spi

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	accessterm "github.com/ZaparooProject/go-accessterm"
	"github.com/ZaparooProject/go-accessterm/animation"
	"github.com/ZaparooProject/go-accessterm/internal/syncutil"
)

const (
	// Default SPI settings
	defaultFreq = 2400 * physic.KiloHertz
	mode        = spi.Mode0

	// spidev rejects single transfers larger than its default buffer.
	maxTransfer = 4096

	// latchBytes of low line at 2.4 MHz give ~107us, enough for SK6812 (80us).
	latchBytes = 32

	bytesPerColorByte = 3

	// DefaultBrightness matches the reader's factory setting.
	DefaultBrightness = 64
)

// Config configures a Strip
type Config struct {
	Device     string
	Pixels     int
	Brightness uint8
	// RGBW selects 4-channel GRBW pixels; otherwise GRB.
	RGBW bool
}

type txer interface {
	Tx(w, r []byte) error
}

// Strip is an addressable LED strip behind an SPI port.
type Strip struct {
	tx         txer
	port       spi.PortCloser
	buf        []byte
	portName   string
	mu         syncutil.Mutex
	pixels     int
	brightness uint8
	rgbw       bool
}

// New opens the SPI port and blanks the strip.
func New(cfg Config) (*Strip, error) {
	if cfg.Pixels <= 0 {
		return nil, errors.New("strip needs at least one pixel")
	}
	if n := encodedLen(cfg.Pixels, cfg.RGBW); n > maxTransfer {
		return nil, fmt.Errorf("%d pixels need %d bytes per frame, more than %d", cfg.Pixels, n, maxTransfer)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", cfg.Device, err)
	}

	conn, err := port.Connect(defaultFreq, mode, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to connect SPI: %w", err)
	}

	s := newStrip(conn, cfg)
	s.port = port

	if err := s.Show(make([]animation.Color, cfg.Pixels)); err != nil {
		_ = port.Close()
		return nil, err
	}
	accessterm.Logger().WithField("device", cfg.Device).WithField("pixels", cfg.Pixels).Info("LED strip ready")
	return s, nil
}

func newStrip(tx txer, cfg Config) *Strip {
	return &Strip{
		tx:         tx,
		portName:   cfg.Device,
		pixels:     cfg.Pixels,
		brightness: cfg.Brightness,
		rgbw:       cfg.RGBW,
		buf:        make([]byte, 0, encodedLen(cfg.Pixels, cfg.RGBW)),
	}
}

// Show writes one frame.
func (s *Strip) Show(pixels []animation.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return accessterm.ErrTransportClosed
	}
	s.buf = Encode(s.buf[:0], pixels, s.brightness, s.rgbw)
	if err := s.tx.Tx(s.buf, nil); err != nil {
		return accessterm.NewTransportError("show", s.portName, err, accessterm.ErrorTypeTransient)
	}
	return nil
}

// Close blanks the strip and releases the port.
func (s *Strip) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil
	}
	s.buf = Encode(s.buf[:0], make([]animation.Color, s.pixels), 0, s.rgbw)
	_ = s.tx.Tx(s.buf, nil)
	s.tx = nil

	if s.port == nil {
		return nil
	}
	if err := s.port.Close(); err != nil {
		return fmt.Errorf("SPI close failed: %w", err)
	}
	return nil
}

func channels(rgbw bool) int {
	if rgbw {
		return 4
	}
	return 3
}

func encodedLen(pixels int, rgbw bool) int {
	return pixels*channels(rgbw)*bytesPerColorByte + latchBytes
}

// Encode appends the SPI bit stream for pixels to dst, scaled by brightness
// (0 is off, 255 is full) and followed by the latch gap.
func Encode(dst []byte, pixels []animation.Color, brightness uint8, rgbw bool) []byte {
	for _, c := range pixels {
		c = c.Scale(brightness)
		dst = appendByte(dst, c.G())
		dst = appendByte(dst, c.R())
		dst = appendByte(dst, c.B())
		if rgbw {
			dst = appendByte(dst, c.W())
		}
	}
	for range latchBytes {
		dst = append(dst, 0)
	}
	return dst
}

// appendByte expands v MSB first into 24 SPI bits.
func appendByte(dst []byte, v byte) []byte {
	var bits uint32
	for i := 7; i >= 0; i-- {
		bits <<= 3
		if v&(1<<uint(i)) != 0 {
			bits |= 0b110
		} else {
			bits |= 0b100
		}
	}
	return append(dst, byte(bits>>16), byte(bits>>8), byte(bits))
}

// Discard is a strip for hosts without LEDs.
type Discard struct{}

// Show drops the frame.
func (Discard) Show([]animation.Color) error { return nil }

// Close does nothing.
func (Discard) Close() error { return nil }
