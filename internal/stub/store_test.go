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
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseToggle(t *testing.T, store PresenceStore) {
	t.Helper()
	ctx := context.Background()

	present, err := store.Present(ctx, "m-1")
	require.NoError(t, err)
	assert.False(t, present)

	present, err = store.Toggle(ctx, "m-1")
	require.NoError(t, err)
	assert.True(t, present, "first toggle checks in")

	present, err = store.Present(ctx, "m-1")
	require.NoError(t, err)
	assert.True(t, present)

	present, err = store.Toggle(ctx, "m-1")
	require.NoError(t, err)
	assert.False(t, present, "second toggle checks out")

	present, err = store.Present(ctx, "m-2")
	require.NoError(t, err)
	assert.False(t, present, "members are independent")
}

func TestMemoryStore_Toggle(t *testing.T) {
	t.Parallel()
	exerciseToggle(t, NewMemoryStore())
}

// TestRedisStore_Toggle runs against a live server when ACCESSTERM_TEST_REDIS
// names its address.
func TestRedisStore_Toggle(t *testing.T) {
	t.Parallel()

	addr := os.Getenv("ACCESSTERM_TEST_REDIS")
	if addr == "" {
		t.Skip("ACCESSTERM_TEST_REDIS not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	store := NewRedisStore(client, "accessterm:test:"+t.Name())
	defer func() { _ = store.Close() }()

	require.NoError(t, client.Del(context.Background(), store.key).Err())
	exerciseToggle(t, store)
}

func TestNewRedisStore_DefaultKey(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer func() { _ = client.Close() }()

	assert.Equal(t, DefaultPresenceKey, NewRedisStore(client, "").key)
	assert.Equal(t, "custom", NewRedisStore(client, "custom").key)
}

func TestRedisStore_UnreachableServer(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	store := NewRedisStore(client, "")
	defer func() { _ = store.Close() }()

	_, err := store.Toggle(context.Background(), "m-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "presence checkout")
}
