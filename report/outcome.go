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

package report

import (
	"bytes"
	"fmt"
)

// Outcome is the backend's verdict for one report. The zero value is
// Failure, so an unset outcome is never mistaken for success.
type Outcome int

const (
	Failure Outcome = iota
	CheckedIn
	CheckedOut
	MemberNotFound
	CardNotFound
)

func (o Outcome) String() string {
	switch o {
	case Failure:
		return "failure"
	case CheckedIn:
		return "checked-in"
	case CheckedOut:
		return "checked-out"
	case MemberNotFound:
		return "member-not-found"
	case CardNotFound:
		return "card-not-found"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Marker maps a response substring to an outcome.
type Marker struct {
	Text    string
	Outcome Outcome
}

// Markers is an ordered marker table. The first marker found anywhere in the
// response wins.
type Markers []Marker

// Marker tables for the two backend generations
var (
	OurspaceMarkers = Markers{
		{Text: "checkin", Outcome: CheckedIn},
		{Text: "checkout", Outcome: CheckedOut},
		{Text: "member-not-found", Outcome: MemberNotFound},
		{Text: "card-not-found", Outcome: CardNotFound},
	}

	LegacyMarkers = Markers{
		{Text: "added", Outcome: CheckedIn},
		{Text: "removed", Outcome: CheckedOut},
		{Text: "unknown", Outcome: CardNotFound},
	}
)

// MarkersFor returns the table for a variant name ("ourspace" or "legacy").
func MarkersFor(variant string) (Markers, error) {
	switch variant {
	case "", "ourspace":
		return OurspaceMarkers, nil
	case "legacy":
		return LegacyMarkers, nil
	default:
		return nil, fmt.Errorf("unknown marker variant %q", variant)
	}
}

// Classify searches the whole response, headers included, for the first
// matching marker. Matching is case-sensitive.
func (m Markers) Classify(response []byte) Outcome {
	for _, marker := range m {
		if bytes.Contains(response, []byte(marker.Text)) {
			return marker.Outcome
		}
	}
	return Failure
}
