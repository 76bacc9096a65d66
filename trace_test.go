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

package accessterm

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceBuffer_RecordsAndCopies(t *testing.T) {
	t.Parallel()

	tb := NewTraceBuffer("tcp", "backend:80", 4)
	payload := []byte("POST /scan HTTP/1.1\r\n")
	tb.RecordTX(payload, "request")
	tb.RecordRX([]byte("HTTP/1.1 200 OK"), "")
	tb.RecordEvent("closed")

	payload[0] = 'X'

	entries := tb.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, TraceTX, entries[0].Direction)
	assert.Equal(t, "POST /scan HTTP/1.1\r\n", string(entries[0].Data), "recorded data is copied")
	assert.Equal(t, TraceRX, entries[1].Direction)
	assert.Empty(t, entries[2].Data)
	assert.Equal(t, "closed", entries[2].Note)
}

func TestTraceBuffer_EvictsOldest(t *testing.T) {
	t.Parallel()

	tb := NewTraceBuffer("tcp", "backend:80", 3)
	for i := range 5 {
		tb.RecordRX([]byte{byte('a' + i)}, "")
	}

	entries := tb.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "c", string(entries[0].Data))
	assert.Equal(t, "e", string(entries[2].Data))
}

func TestTraceBuffer_DefaultCapacityAndClear(t *testing.T) {
	t.Parallel()

	tb := NewTraceBuffer("uart", "/dev/ttyUSB0", 0)
	for range 20 {
		tb.RecordRX([]byte{0x01}, "")
	}
	assert.Len(t, tb.Entries(), 16)

	tb.Clear()
	assert.Empty(t, tb.Entries())
}

func TestTraceBuffer_WrapError(t *testing.T) {
	t.Parallel()

	tb := NewTraceBuffer("tcp", "backend:80", 8)
	assert.NoError(t, tb.WrapError(nil))

	sentinel := errors.New("no outcome")
	tb.RecordTX([]byte("POST"), "")
	err := fmt.Errorf("report: %w", tb.WrapError(sentinel))

	require.ErrorIs(t, err, sentinel)
	te := GetTrace(err)
	require.NotNil(t, te)
	assert.Equal(t, "tcp", te.Transport)
	assert.Equal(t, "backend:80", te.Peer)
	assert.Len(t, te.Trace, 1)
	assert.Equal(t, "no outcome", te.Error())

	assert.Nil(t, GetTrace(sentinel))
}

func TestTraceableError_FormatTrace(t *testing.T) {
	t.Parallel()

	empty := &TraceableError{Err: errors.New("x"), Transport: "tcp", Peer: "backend:80"}
	assert.Equal(t, "[tcp:backend:80] (no trace data)", empty.FormatTrace())

	te := &TraceableError{
		Err:       errors.New("x"),
		Transport: "uart",
		Peer:      "/dev/ttyUSB0",
		Trace: []TraceEntry{
			{Direction: TraceTX, Data: []byte("ping"), Note: "probe"},
			{Direction: TraceRX, Data: []byte{0x00, 0xFF}},
		},
	}
	out := te.FormatTrace()
	assert.Contains(t, out, "Wire trace (2 entries)")
	assert.Contains(t, out, `> "ping" (probe)`)
	assert.Contains(t, out, "< 00 FF")
}

func TestFormatWireBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(empty)", formatWireBytes(nil))
	assert.Equal(t, `"OK\r\n"`, formatWireBytes([]byte("OK\r\n")))
	assert.Equal(t, "01 AB", formatWireBytes([]byte{0x01, 0xAB}))

	long := formatWireBytes([]byte(strings.Repeat("A", 200)))
	assert.True(t, strings.HasSuffix(long, "... (200 bytes total)"), long)
}

func TestTraceEntry_String(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	e := TraceEntry{Timestamp: ts, Direction: TraceRX, Data: []byte("added"), Note: "chunk"}
	assert.Equal(t, `[03:04:05.006] RX: "added" (chunk)`, e.String())

	e.Note = ""
	assert.Equal(t, `[03:04:05.006] RX: "added"`, e.String())
}
