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

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-accessterm/internal/stub"
)

const directoryYAML = `
variant: legacy
members:
  - id: m-1
    name: Ada
cards:
  - uid: 04A23B125C8001
    member: m-1
`

func TestLoadConfig_FileAndFlags(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(directoryYAML), 0o600))

	fs, _ := newFlagSet()
	require.NoError(t, fs.Parse([]string{"--listen", "127.0.0.1:9999"}))

	cfg, err := loadConfig(path, fs)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.Listen)
	assert.Equal(t, "legacy", cfg.Variant)
	assert.Equal(t, "/scan", cfg.Path)
	require.Len(t, cfg.Cards, 1)
	assert.Equal(t, "m-1", cfg.Cards[0].MemberID)
	assert.Equal(t, []stub.Member{{ID: "m-1", Name: "Ada"}}, cfg.Members)
}

func TestNewStore_MemoryWithoutAddress(t *testing.T) {
	t.Parallel()

	store, closeStore, err := newStore(context.Background(), redisConfig{})
	require.NoError(t, err)
	defer closeStore()
	assert.IsType(t, &stub.MemoryStore{}, store)
}

func TestRun_RejectsBadDirectory(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &stubConfig{Cards: []stub.Card{{UID: "nothex"}}})
	require.Error(t, err)
}
