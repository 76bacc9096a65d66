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

package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(s *FakeSerial) ([]byte, int) {
	var out []byte
	buf := make([]byte, 256)
	reads := 0
	for s.Pending() > 0 {
		n, err := s.Read(buf)
		if err != nil {
			break
		}
		out = append(out, buf[:n]...)
		reads++
	}
	return out, reads
}

func TestFakeSerial_EmptyReadDoesNotBlock(t *testing.T) {
	t.Parallel()

	s := NewFakeSerial(JitterConfig{})
	n, err := s.Read(make([]byte, 8))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFakeSerial_WholeQueueWithoutJitter(t *testing.T) {
	t.Parallel()

	s := NewFakeSerial(JitterConfig{})
	s.Push([]byte("0123456789ABCD\r\n"))

	out, reads := drain(s)
	assert.Equal(t, "0123456789ABCD\r\n", string(out))
	assert.Equal(t, 1, reads)
}

func TestFakeSerial_FragmentsPreserveStream(t *testing.T) {
	t.Parallel()

	s := NewFakeSerial(JitterConfig{Seed: 12345, FragmentReads: true, FragmentMinBytes: 1})
	data := []byte("0123456789ABCD\r\n11223344556677\r\n")
	s.Push(data)

	out, reads := drain(s)
	assert.Equal(t, data, out)
	assert.Greater(t, reads, 1)
}

func TestFakeSerial_USBBoundary(t *testing.T) {
	t.Parallel()

	s := NewFakeSerial(JitterConfig{Seed: 1, USBBoundaryStress: true})
	s.Push(make([]byte, 150))

	buf := make([]byte, 256)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 64, n)
	n, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 64, n)
	n, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 22, n)
}

func TestFakeSerial_ErrorsAndClose(t *testing.T) {
	t.Parallel()

	s := NewFakeSerial(JitterConfig{})
	s.FailNext(assert.AnError)
	_, err := s.Read(make([]byte, 4))
	require.ErrorIs(t, err, assert.AnError)

	_, err = s.Read(make([]byte, 4))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	_, err = s.Read(make([]byte, 4))
	require.ErrorIs(t, err, ErrSerialClosed)
	assert.True(t, s.Closed())
	assert.Equal(t, 3, s.Reads())
}
