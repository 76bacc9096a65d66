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
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger = logrus.New()

	// debugEnabled gates console output of Debugf/Debugln.
	// Set via ACCESSTERM_DEBUG/DEBUG or SetDebugEnabled.
	debugEnabled atomic.Bool

	// logFile is the rotating file sink installed by ConfigureLogging.
	logFile *lumberjack.Logger
)

func init() {
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05.000",
		FullTimestamp:   true,
	})
	logger.SetLevel(logrus.InfoLevel)

	if os.Getenv("ACCESSTERM_DEBUG") != "" || os.Getenv("DEBUG") != "" {
		SetDebugEnabled(true)
	}
}

// Logger returns the shared logger used by every terminal component.
func Logger() *logrus.Logger {
	return logger
}

// Debugf prints debug information.
// Always writes to the session log (if initialized) with timestamp.
// Only reaches the console logger when debug mode is enabled.
func Debugf(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	writeSessionLine("DEBUG", message)

	if debugEnabled.Load() {
		logger.Debug(message)
	}
}

// Debugln prints debug information, formatting operands like fmt.Sprintln.
func Debugln(args ...any) {
	message := strings.TrimSuffix(fmt.Sprintln(args...), "\n")
	writeSessionLine("DEBUG", message)

	if debugEnabled.Load() {
		logger.Debug(message)
	}
}

// SetDebugEnabled allows programmatic control of debug logging
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
	if enabled {
		logger.SetLevel(logrus.DebugLevel)
	} else if logger.GetLevel() >= logrus.DebugLevel {
		logger.SetLevel(logrus.InfoLevel)
	}
}

// ConfigureLogging applies level, format and file output from cfg.
// A file path adds a size-rotated file next to stderr.
func ConfigureLogging(cfg LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logger.SetLevel(level)
	debugEnabled.Store(level >= logrus.DebugLevel)

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FullTimestamp:   true,
		})
	}

	if cfg.FilePath == "" {
		logger.SetOutput(os.Stderr)
		return nil
	}

	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
	logger.SetOutput(io.MultiWriter(os.Stderr, logFile))
	return nil
}

// CloseLogging flushes and closes the rotating log file, if any.
func CloseLogging() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	logger.SetOutput(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}
