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
	"fmt"

	"github.com/ZaparooProject/go-accessterm/internal/syncutil"
	"github.com/redis/go-redis/v9"
)

// PresenceStore records which members are currently checked in.
type PresenceStore interface {
	// Toggle flips a member's presence and reports whether they are now present.
	Toggle(ctx context.Context, memberID string) (bool, error)
	// Present reports whether a member is checked in.
	Present(ctx context.Context, memberID string) (bool, error)
}

// MemoryStore keeps presence in process memory.
type MemoryStore struct {
	present map[string]struct{}
	mu      syncutil.Mutex
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{present: make(map[string]struct{})}
}

func (s *MemoryStore) Toggle(_ context.Context, memberID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.present[memberID]; ok {
		delete(s.present, memberID)
		return false, nil
	}
	s.present[memberID] = struct{}{}
	return true, nil
}

func (s *MemoryStore) Present(_ context.Context, memberID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.present[memberID]
	return ok, nil
}

// DefaultPresenceKey is the Redis set holding present member ids.
const DefaultPresenceKey = "accessterm:present"

// RedisStore keeps presence in a Redis set so several stub instances agree.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore wraps an existing client. An empty key selects DefaultPresenceKey.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultPresenceKey
	}
	return &RedisStore{client: client, key: key}
}

// Toggle removes the member if present and adds them otherwise. SREM reports
// whether the member was in the set, so each branch is a single command.
func (s *RedisStore) Toggle(ctx context.Context, memberID string) (bool, error) {
	removed, err := s.client.SRem(ctx, s.key, memberID).Result()
	if err != nil {
		return false, fmt.Errorf("presence checkout for %s: %w", memberID, err)
	}
	if removed > 0 {
		return false, nil
	}
	if err := s.client.SAdd(ctx, s.key, memberID).Err(); err != nil {
		return false, fmt.Errorf("presence checkin for %s: %w", memberID, err)
	}
	return true, nil
}

func (s *RedisStore) Present(ctx context.Context, memberID string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key, memberID).Result()
	if err != nil {
		return false, fmt.Errorf("presence lookup for %s: %w", memberID, err)
	}
	return ok, nil
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}
