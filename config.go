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
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ACCESSTERM_BACKEND_HOST.
const EnvPrefix = "ACCESSTERM"

// Config is the terminal configuration. It is loaded once at startup and
// treated as immutable afterwards.
type Config struct {
	Terminal  TerminalConfig  `mapstructure:"terminal"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Serial    SerialConfig    `mapstructure:"serial"`
	Network   NetworkConfig   `mapstructure:"network"`
	LED       LEDConfig       `mapstructure:"led"`
	Animation AnimationConfig `mapstructure:"animation"`
	Loop      LoopConfig      `mapstructure:"loop"`
	Log       LogConfig       `mapstructure:"log"`
}

// TerminalConfig identifies this terminal to the backend
type TerminalConfig struct {
	ID string `mapstructure:"id"`
}

// BackendConfig describes the single report call
type BackendConfig struct {
	Host      string `mapstructure:"host"`
	Path      string `mapstructure:"path"`
	UserAgent string `mapstructure:"userAgent"`
	// Body selects the request body: "card_serial", "uid" or a custom
	// text/template using .UID and .TerminalID with the json function.
	Body string `mapstructure:"body"`
	// Variant selects the response marker table: "ourspace" or "legacy".
	Variant          string        `mapstructure:"variant"`
	Port             int           `mapstructure:"port"`
	ResponseCapacity int           `mapstructure:"responseCapacity"`
	DialTimeout      time.Duration `mapstructure:"dialTimeout"`
	ExchangeTimeout  time.Duration `mapstructure:"exchangeTimeout"`
}

// SerialConfig describes the reader's serial line
type SerialConfig struct {
	// Port is the device path; empty enables auto-detection.
	Port              string        `mapstructure:"port"`
	Blocklist         []string      `mapstructure:"blocklist"`
	IgnorePaths       []string      `mapstructure:"ignorePaths"`
	BaudRate          int           `mapstructure:"baudRate"`
	InactivityTimeout time.Duration `mapstructure:"inactivityTimeout"`
	Lock              bool          `mapstructure:"lock"`
}

// NetworkConfig describes link supervision
type NetworkConfig struct {
	// Interface to supervise; empty treats the link as always up.
	Interface      string        `mapstructure:"interface"`
	CheckInterval  time.Duration `mapstructure:"checkInterval"`
	StartupTimeout time.Duration `mapstructure:"startupTimeout"`
}

// LEDConfig describes the pixel strip
type LEDConfig struct {
	// Device is the SPI port name (e.g. "/dev/spidev0.0"); empty disables output.
	Device     string `mapstructure:"device"`
	Count      int    `mapstructure:"count"`
	Brightness int    `mapstructure:"brightness"`
	RGBW       bool   `mapstructure:"rgbw"`
}

// AnimationConfig holds animation timing
type AnimationConfig struct {
	TickInterval  time.Duration `mapstructure:"tickInterval"`
	ErrorDuration time.Duration `mapstructure:"errorDuration"`
}

// LoopConfig holds the main loop cadence
type LoopConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	StallThreshold time.Duration `mapstructure:"stallThreshold"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	FilePath   string `mapstructure:"filePath"`
	SessionDir string `mapstructure:"sessionDir"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAgeDays"`
	Compress   bool   `mapstructure:"compress"`
	Session    bool   `mapstructure:"session"`
}

// Body template and marker variant names understood by the report client
const (
	BodyCardSerial = "card_serial"
	BodyUID        = "uid"

	VariantOurspace = "ourspace"
	VariantLegacy   = "legacy"
)

// SetDefaults registers every key with its default so environment
// overrides resolve even when the key is absent from the file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("terminal.id", "")

	v.SetDefault("backend.host", "")
	v.SetDefault("backend.port", 80)
	v.SetDefault("backend.path", "/scan")
	v.SetDefault("backend.userAgent", "go-accessterm")
	v.SetDefault("backend.body", BodyCardSerial)
	v.SetDefault("backend.variant", VariantOurspace)
	v.SetDefault("backend.responseCapacity", 512)
	v.SetDefault("backend.dialTimeout", 3*time.Second)
	v.SetDefault("backend.exchangeTimeout", 10*time.Second)

	v.SetDefault("serial.port", "")
	v.SetDefault("serial.baudRate", 9600)
	v.SetDefault("serial.inactivityTimeout", 10*time.Millisecond)
	v.SetDefault("serial.lock", true)
	v.SetDefault("serial.blocklist", []string{})
	v.SetDefault("serial.ignorePaths", []string{})

	v.SetDefault("network.interface", "")
	v.SetDefault("network.checkInterval", time.Second)
	v.SetDefault("network.startupTimeout", 10*time.Second)

	v.SetDefault("led.device", "")
	v.SetDefault("led.count", 24)
	v.SetDefault("led.brightness", 64)
	v.SetDefault("led.rgbw", true)

	v.SetDefault("animation.tickInterval", 25*time.Millisecond)
	v.SetDefault("animation.errorDuration", 3*time.Second)

	v.SetDefault("loop.interval", 2*time.Millisecond)
	v.SetDefault("loop.stallThreshold", 2*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.filePath", "")
	v.SetDefault("log.sessionDir", "")
	v.SetDefault("log.session", false)
	v.SetDefault("log.maxSizeMB", 10)
	v.SetDefault("log.maxBackups", 5)
	v.SetDefault("log.maxAgeDays", 30)
	v.SetDefault("log.compress", false)
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"terminal-id":  "terminal.id",
	"backend-host": "backend.host",
	"backend-port": "backend.port",
	"backend-path": "backend.path",
	"serial-port":  "serial.port",
	"led-device":   "led.device",
	"interface":    "network.interface",
	"log-level":    "log.level",
}

// BindFlags binds the flags present in fs to their configuration keys.
// Flags only override values when explicitly set on the command line.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// LoadConfig reads configuration from path (optional), the environment and
// the given flag set, in increasing order of precedence.
func LoadConfig(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := BindFlags(v, fs); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns a configuration with every default applied.
// Required fields (terminal id, backend host) are left empty.
func DefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg := &Config{}
	// Defaults always decode; an error here is a programming error.
	if err := v.Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("default config does not decode: %v", err))
	}
	return cfg
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Terminal.ID) == "" {
		errs = append(errs, errors.New("terminal.id is required"))
	}
	if strings.TrimSpace(c.Backend.Host) == "" {
		errs = append(errs, errors.New("backend.host is required"))
	}
	if c.Backend.Port <= 0 || c.Backend.Port > 65535 {
		errs = append(errs, fmt.Errorf("backend.port %d out of range", c.Backend.Port))
	}
	if !strings.HasPrefix(c.Backend.Path, "/") {
		errs = append(errs, fmt.Errorf("backend.path %q must start with /", c.Backend.Path))
	}
	if !isKnownBody(c.Backend.Body) {
		errs = append(errs, fmt.Errorf("backend.body %q is neither a known template nor template text", c.Backend.Body))
	}
	if c.Backend.Variant != VariantOurspace && c.Backend.Variant != VariantLegacy {
		errs = append(errs, fmt.Errorf("backend.variant %q is not one of %s, %s",
			c.Backend.Variant, VariantOurspace, VariantLegacy))
	}
	if c.Backend.ResponseCapacity <= 0 {
		errs = append(errs, errors.New("backend.responseCapacity must be positive"))
	}
	if c.Serial.BaudRate <= 0 {
		errs = append(errs, errors.New("serial.baudRate must be positive"))
	}
	if c.LED.Count <= 0 {
		errs = append(errs, errors.New("led.count must be positive"))
	}
	if c.LED.Brightness < 0 || c.LED.Brightness > 255 {
		errs = append(errs, fmt.Errorf("led.brightness %d out of range 0-255", c.LED.Brightness))
	}
	if c.Animation.TickInterval <= 0 {
		errs = append(errs, errors.New("animation.tickInterval must be positive"))
	}
	if c.Loop.Interval <= 0 {
		errs = append(errs, errors.New("loop.interval must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// BackendAddress returns the backend host:port for dialing
func (c *Config) BackendAddress() string {
	return net.JoinHostPort(c.Backend.Host, strconv.Itoa(c.Backend.Port))
}

func isKnownBody(body string) bool {
	switch body {
	case BodyCardSerial, BodyUID:
		return true
	default:
		return strings.Contains(body, "{{")
	}
}
