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

package animation

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a packed 0xWWRRGGBB pixel value.
type Color uint32

// Fixed palette
const (
	Off    Color = 0x000000
	Red    Color = 0xFF0000
	Green  Color = 0x00FF00
	Blue   Color = 0x0000FF
	Orange Color = 0xFF8000
	White  Color = 0xFFFFFF
)

const huePurple = 300.0

// RGB packs 8-bit channels.
func RGB(r, g, b uint8) Color {
	return Color(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// RGBW packs 8-bit channels including the white LED of GRBW strips.
func RGBW(r, g, b, w uint8) Color {
	return RGB(r, g, b) | Color(uint32(w)<<24)
}

func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }
func (c Color) W() uint8 { return uint8(c >> 24) }

// Scale multiplies every channel by level/255.
func (c Color) Scale(level uint8) Color {
	switch level {
	case 0:
		return Off
	case 255:
		return c
	}
	s := func(v uint8) uint8 { return uint8(uint16(v) * uint16(level) / 255) }
	return RGBW(s(c.R()), s(c.G()), s(c.B()), s(c.W()))
}

// Gamma applies the strip's perceptual correction to each channel.
func (c Color) Gamma() Color {
	return RGBW(gamma8[c.R()], gamma8[c.G()], gamma8[c.B()], gamma8[c.W()])
}

// HSV converts a hue on the 0..255 wheel with full saturation to RGB.
func HSV(hue, value uint8) Color {
	deg := float64(hue) * 360.0 / 256.0
	return fromColorful(colorful.Hsv(deg, 1, float64(value)/255.0))
}

func hsvDegrees(deg float64, value uint8) Color {
	return fromColorful(colorful.Hsv(deg, 1, float64(value)/255.0))
}

func fromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return RGB(r, g, b)
}

// gamma8 maps linear intensity to LED duty with exponent 2.6.
var gamma8 = func() (t [256]uint8) {
	for i := range t {
		t[i] = uint8(math.Round(math.Pow(float64(i)/255.0, 2.6) * 255.0))
	}
	return t
}()
