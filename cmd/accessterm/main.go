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

// Command accessterm runs an NFC access terminal: it reads card UIDs from a
// serial reader, reports each one to the backend and shows the outcome on an
// LED ring.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	accessterm "github.com/ZaparooProject/go-accessterm"
	"github.com/ZaparooProject/go-accessterm/animation"
	"github.com/ZaparooProject/go-accessterm/detection"
	_ "github.com/ZaparooProject/go-accessterm/detection/uart"
	"github.com/ZaparooProject/go-accessterm/internal/frame"
	"github.com/ZaparooProject/go-accessterm/network"
	"github.com/ZaparooProject/go-accessterm/polling"
	"github.com/ZaparooProject/go-accessterm/report"
	"github.com/ZaparooProject/go-accessterm/transport/spi"
	"github.com/ZaparooProject/go-accessterm/transport/tcp"
	"github.com/ZaparooProject/go-accessterm/transport/uart"
)

type options struct {
	configPath string
	debug      bool
}

func newFlagSet() (*pflag.FlagSet, *options) {
	opts := &options{}
	fs := pflag.NewFlagSet("accessterm", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML configuration file")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug output")

	fs.String("terminal-id", "", "Terminal identifier sent with every report")
	fs.String("backend-host", "", "Backend host name or address")
	fs.Int("backend-port", 80, "Backend TCP port")
	fs.String("backend-path", "/scan", "Backend request path")
	fs.String("serial-port", "", "Reader serial port (auto-detect if empty)")
	fs.String("led-device", "", "SPI device driving the LED ring (disabled if empty)")
	fs.String("interface", "", "Network interface to supervise (always up if empty)")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	return fs, opts
}

// detectPort finds the most likely reader port when none is configured.
func detectPort(ctx context.Context, cfg accessterm.SerialConfig) (string, error) {
	opts := detection.DefaultOptions()
	opts.Transports = []string{"uart"}
	opts.Blocklist = append(opts.Blocklist, cfg.Blocklist...)
	opts.IgnorePaths = cfg.IgnorePaths

	device, err := detection.DetectReader(ctx, &opts)
	if err != nil {
		return "", fmt.Errorf("failed to detect reader port: %w", err)
	}
	accessterm.Logger().WithFields(logrus.Fields{
		"path":       device.Path,
		"name":       device.Name,
		"confidence": device.Confidence.String(),
	}).Info("detected reader port")
	return device.Path, nil
}

func uartConfig(cfg accessterm.SerialConfig, port string) uart.Config {
	return uart.Config{Port: port, BaudRate: cfg.BaudRate, Lock: cfg.Lock}
}

// openReader opens the configured port with retries, detecting it first if needed.
func openReader(ctx context.Context, cfg accessterm.SerialConfig) (*uart.Transport, error) {
	port := cfg.Port
	if port == "" {
		var err error
		if port, err = detectPort(ctx, cfg); err != nil {
			return nil, err
		}
	}
	transport, err := uart.Open(ctx, uartConfig(cfg, port))
	if err != nil {
		return nil, fmt.Errorf("failed to open reader: %w", err)
	}
	return transport, nil
}

// reopenReader makes a single attempt; the terminal paces retries itself.
// Auto-detected ports are detected again since the device may re-enumerate.
func reopenReader(cfg accessterm.SerialConfig) polling.ReopenFunc {
	return func(ctx context.Context) (polling.SerialPort, error) {
		port := cfg.Port
		if port == "" {
			detection.ClearDetectionCache()
			var err error
			if port, err = detectPort(ctx, cfg); err != nil {
				return nil, err
			}
		}
		transport, err := uart.New(uartConfig(cfg, port))
		if err != nil {
			return nil, err
		}
		return transport, nil
	}
}

func newLink(cfg accessterm.NetworkConfig) polling.Link {
	if cfg.Interface == "" {
		return network.AlwaysUp{}
	}
	return network.NewInterfaceMonitor(cfg.Interface, cfg.CheckInterval)
}

func newStrip(cfg accessterm.LEDConfig) (polling.Strip, error) {
	if cfg.Device == "" {
		return spi.Discard{}, nil
	}
	strip, err := spi.New(spi.Config{
		Device:     cfg.Device,
		Pixels:     cfg.Count,
		Brightness: uint8(cfg.Brightness), //nolint:gosec // range checked by Validate
		RGBW:       cfg.RGBW,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open LED strip: %w", err)
	}
	return strip, nil
}

func newReports(cfg *accessterm.Config) (*report.Client, error) {
	dialer := tcp.NewDialer(cfg.BackendAddress(), cfg.Backend.DialTimeout, cfg.Backend.ExchangeTimeout)
	client, err := report.NewClient(report.Config{
		Host:             cfg.Backend.Host,
		Port:             cfg.Backend.Port,
		Path:             cfg.Backend.Path,
		UserAgent:        cfg.Backend.UserAgent,
		TerminalID:       cfg.Terminal.ID,
		Body:             cfg.Backend.Body,
		Variant:          cfg.Backend.Variant,
		ResponseCapacity: cfg.Backend.ResponseCapacity,
	}, dialer)
	if err != nil {
		return nil, fmt.Errorf("failed to create report client: %w", err)
	}
	return client, nil
}

func terminalConfig(cfg *accessterm.Config) *polling.Config {
	pc := polling.DefaultConfig()
	pc.LoopInterval = cfg.Loop.Interval
	pc.StartupTimeout = cfg.Network.StartupTimeout
	pc.ErrorDuration = cfg.Animation.ErrorDuration
	if cfg.Loop.StallThreshold > 0 {
		pc.SleepRecovery.TimeDiscontinuityThreshold = cfg.Loop.StallThreshold
	}
	return pc
}

func run(ctx context.Context, cfg *accessterm.Config) error {
	strip, err := newStrip(cfg.LED)
	if err != nil {
		return err
	}

	reports, err := newReports(cfg)
	if err != nil {
		_ = strip.Close()
		return err
	}

	reader, err := openReader(ctx, cfg.Serial)
	if err != nil {
		_ = reports.Close()
		_ = strip.Close()
		return err
	}

	terminal, err := polling.NewTerminal(terminalConfig(cfg), polling.Deps{
		Serial:  reader,
		Link:    newLink(cfg.Network),
		Strip:   strip,
		Reports: reports,
		Engine: animation.New(animation.Config{
			Pixels:       cfg.LED.Count,
			TickInterval: cfg.Animation.TickInterval,
		}),
		Parser: frame.NewParser(cfg.Serial.InactivityTimeout),
		Reopen: reopenReader(cfg.Serial),
	})
	if err != nil {
		_ = reader.Close()
		_ = reports.Close()
		_ = strip.Close()
		return fmt.Errorf("failed to create terminal: %w", err)
	}

	log := accessterm.Logger().WithField("terminal", cfg.Terminal.ID)
	terminal.SetOnOutcome(func(uid string, outcome report.Outcome) {
		log.WithFields(logrus.Fields{"uid": uid, "outcome": outcome.String()}).Info("card reported")
	})

	log.WithFields(logrus.Fields{
		"reader":  reader.PortName(),
		"backend": cfg.BackendAddress(),
	}).Info("terminal starting")

	err = terminal.Run(ctx)
	stats := terminal.Stats()
	log.WithFields(logrus.Fields{
		"cards":    stats.Cards,
		"failures": stats.Failures,
		"reopens":  stats.Reopens,
	}).Info("terminal stopped")
	return err
}

func setupLogging(cfg *accessterm.Config, opts *options) (func(), error) {
	if opts.debug {
		cfg.Log.Level = "debug"
	}
	if err := accessterm.ConfigureLogging(cfg.Log); err != nil {
		return nil, err
	}
	cleanup := func() { _ = accessterm.CloseLogging() }

	if cfg.Log.Session {
		path, err := accessterm.InitSessionLog(cfg.Log.SessionDir)
		if err != nil {
			cleanup()
			return nil, err
		}
		accessterm.Logger().WithField("path", path).Info("session log enabled")
		cleanup = func() {
			_ = accessterm.CloseSessionLog()
			_ = accessterm.CloseLogging()
		}
	}
	return cleanup, nil
}

func main() {
	os.Exit(mainWithExitCode(os.Args[1:]))
}

func mainWithExitCode(args []string) int {
	fs, opts := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	cfg, err := accessterm.LoadConfig(opts.configPath, fs)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	cleanup, err := setupLogging(cfg, opts)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			accessterm.Logger().Info("shutting down")
			return 0
		}
		accessterm.Logger().WithError(err).Error("terminal failed")
		return 1
	}
	return 0
}
