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

// Command scanstub is a development backend for access terminals. It answers
// scan reports from a static card directory and tracks presence in memory or
// in Redis.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	accessterm "github.com/ZaparooProject/go-accessterm"
	"github.com/ZaparooProject/go-accessterm/internal/stub"
)

type stubConfig struct {
	Listen  string        `mapstructure:"listen"`
	Path    string        `mapstructure:"path"`
	Variant string        `mapstructure:"variant"`
	Members []stub.Member `mapstructure:"members"`
	Cards   []stub.Card   `mapstructure:"cards"`
	Redis   redisConfig   `mapstructure:"redis"`
}

type redisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	Key      string `mapstructure:"key"`
	DB       int    `mapstructure:"db"`
}

func newFlagSet() (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet("scanstub", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "Path to the card directory YAML file")
	fs.String("listen", ":8080", "Listen address")
	fs.String("variant", accessterm.VariantOurspace, "Response vocabulary (ourspace or legacy)")
	fs.String("redis", "", "Redis address for presence (in memory if empty)")
	return fs, configPath
}

func loadConfig(path string, fs *pflag.FlagSet) (*stubConfig, error) {
	v := viper.New()
	v.SetDefault("listen", ":8080")
	v.SetDefault("path", "/scan")
	v.SetDefault("variant", accessterm.VariantOurspace)
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.key", stub.DefaultPresenceKey)
	v.SetDefault("redis.db", 0)

	v.SetEnvPrefix("SCANSTUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range map[string]string{"listen": "listen", "variant": "variant", "redis": "redis.address"} {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &stubConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func newStore(ctx context.Context, cfg redisConfig) (stub.PresenceStore, func(), error) {
	if cfg.Address == "" {
		return stub.NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Address, err)
	}

	store := stub.NewRedisStore(client, cfg.Key)
	return store, func() { _ = store.Close() }, nil
}

func run(ctx context.Context, cfg *stubConfig) error {
	dir, err := stub.NewDirectory(cfg.Members, cfg.Cards)
	if err != nil {
		return fmt.Errorf("invalid card directory: %w", err)
	}

	store, closeStore, err := newStore(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeStore()

	srv, err := stub.NewServer(stub.Config{Variant: cfg.Variant, Path: cfg.Path}, dir, store)
	if err != nil {
		return err
	}

	l, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Listen, err)
	}
	accessterm.Logger().WithField("cards", len(cfg.Cards)).Info("card directory loaded")
	return srv.Serve(ctx, l)
}

func main() {
	os.Exit(mainWithExitCode(os.Args[1:]))
}

func mainWithExitCode(args []string) int {
	fs, configPath := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(*configPath, fs)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		accessterm.Logger().WithError(err).Error("scanstub failed")
		return 1
	}
	return 0
}
