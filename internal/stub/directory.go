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

package stub

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptySerial is returned for a card serial with no bytes.
var ErrEmptySerial = errors.New("empty card serial")

// Member is a registered person.
type Member struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// Card binds a card UID to a member id. The member may be missing from the
// directory, which the backend reports as member-not-found.
type Card struct {
	UID      string `mapstructure:"uid"`
	MemberID string `mapstructure:"member"`
}

// Directory resolves card UIDs to members. It is immutable once built.
type Directory struct {
	cards   map[string]string
	members map[string]Member
}

// NewDirectory indexes cards by normalized UID and members by id.
func NewDirectory(members []Member, cards []Card) (*Directory, error) {
	d := &Directory{
		cards:   make(map[string]string, len(cards)),
		members: make(map[string]Member, len(members)),
	}
	for _, m := range members {
		d.members[m.ID] = m
	}
	for _, c := range cards {
		uid, err := NormalizeUID(c.UID)
		if err != nil {
			return nil, fmt.Errorf("card %q: %w", c.UID, err)
		}
		d.cards[uid] = c.MemberID
	}
	return d, nil
}

// NormalizeUID decodes a hex card serial and returns it in uppercase.
func NormalizeUID(serial string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(serial))
	if err != nil {
		return "", fmt.Errorf("invalid card serial encoding: %w", err)
	}
	if len(raw) == 0 {
		return "", ErrEmptySerial
	}
	return strings.ToUpper(hex.EncodeToString(raw)), nil
}

// Lookup returns the member id bound to uid, and the member if registered.
func (d *Directory) Lookup(uid string) (memberID string, member Member, cardFound, memberFound bool) {
	memberID, cardFound = d.cards[uid]
	if !cardFound {
		return "", Member{}, false, false
	}
	member, memberFound = d.members[memberID]
	return memberID, member, true, memberFound
}
