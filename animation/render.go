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

import "fmt"

// Pulse scale of the idle animation: brightness rises for half of it and
// falls for the other half.
const idleScale = 128

// Idle brightness range
const (
	idleMinValue = 100
	idleMaxValue = 255
)

// Steps of the unknown-card breath
const breathSteps = 20

// render fills px for state s at the given counter. It reports true when the
// animation has run to completion and nothing was drawn.
func render(s State, counter int, px []Color) (done bool) {
	n := len(px)
	switch s {
	case Idle:
		v := counter % idleScale
		if v >= idleScale/2 {
			v = idleScale - v
		}
		value := uint8(idleMinValue + v*(idleMaxValue-idleMinValue)/(idleScale/2))
		step := 0
		if n > 0 {
			step = 255 / n
		}
		for i := range px {
			hue := uint8((counter + step*i) % 256)
			px[i] = HSV(hue, value).Gamma()
		}

	case CardProcessing:
		half := counter%16 < 8
		for i := range px {
			if half != (i%2 == 0) {
				px[i] = Blue
			} else {
				px[i] = Off
			}
		}

	case Error:
		fill(px, Red, counter%16 < 8)

	case CheckIn:
		progress := counter / 2
		if progress >= n {
			return true
		}
		for i := range px {
			px[i] = pick(i <= progress, Green)
		}

	case CheckOut:
		progress := counter / 2
		if progress >= n {
			return true
		}
		for i := range px {
			px[i] = pick(i <= n-1-progress, Orange)
		}

	case UnknownCard:
		if counter >= breathSteps {
			return true
		}
		v := counter
		if v > breathSteps/2 {
			v = breathSteps - v
		}
		value := uint8(v * (256 / (breathSteps / 2)))
		fill(px, hsvDegrees(huePurple, value).Gamma(), true)

	case Blank:
		fill(px, Off, true)

	case Connecting:
		lit := 0
		if n > 0 {
			lit = (counter / 2) % n
		}
		for i := range px {
			px[i] = pick(i == lit, White)
		}

	default:
		panic(fmt.Sprintf("animation: invalid state %d", int(s)))
	}
	return false
}

func fill(px []Color, c Color, on bool) {
	if !on {
		c = Off
	}
	for i := range px {
		px[i] = c
	}
}

func pick(on bool, c Color) Color {
	if on {
		return c
	}
	return Off
}
