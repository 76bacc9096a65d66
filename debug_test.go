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

//nolint:paralleltest // Tests mutate the package-level logger and session writer
package accessterm

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSession swaps the session writer and console output for buffers.
func captureSession(t *testing.T) (session, console *bytes.Buffer) {
	t.Helper()
	session, console = &bytes.Buffer{}, &bytes.Buffer{}

	sessionMu.Lock()
	origWriter := sessionLogWriter
	sessionLogWriter = session
	sessionMu.Unlock()

	origEnabled := debugEnabled.Load()
	origLevel := logger.GetLevel()
	logger.SetOutput(console)

	t.Cleanup(func() {
		sessionMu.Lock()
		sessionLogWriter = origWriter
		sessionMu.Unlock()
		debugEnabled.Store(origEnabled)
		logger.SetLevel(origLevel)
		logger.SetOutput(os.Stderr)
	})
	return session, console
}

func TestDebugf_WritesToSessionLog(t *testing.T) {
	session, console := captureSession(t)
	SetDebugEnabled(false)

	Debugf("frame %d decoded", 42)

	assert.Contains(t, session.String(), "DEBUG: frame 42 decoded\n")
	assert.Empty(t, console.String(), "console stays quiet with debug disabled")

	matched, err := regexp.MatchString(`^\d{2}:\d{2}:\d{2}\.\d{3} DEBUG:`, session.String())
	require.NoError(t, err)
	assert.True(t, matched, session.String())
}

func TestDebugf_ReachesConsoleWhenEnabled(t *testing.T) {
	_, console := captureSession(t)
	SetDebugEnabled(true)

	Debugf("uid %s", "04A23B125C8001")

	assert.Contains(t, console.String(), "uid 04A23B125C8001")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestDebugln_FormatsOperands(t *testing.T) {
	session, _ := captureSession(t)
	SetDebugEnabled(false)

	Debugln("state", "check-in", 3)

	assert.Contains(t, session.String(), "DEBUG: state check-in 3\n")
}

func TestDebugf_NoSessionWriter(t *testing.T) {
	captureSession(t)
	sessionMu.Lock()
	sessionLogWriter = nil
	sessionMu.Unlock()

	assert.NotPanics(t, func() { Debugf("nothing to write to") })
}

func TestSetDebugEnabled_RestoresInfoLevel(t *testing.T) {
	captureSession(t)

	SetDebugEnabled(true)
	assert.True(t, debugEnabled.Load())
	SetDebugEnabled(false)
	assert.False(t, debugEnabled.Load())
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestConfigureLogging(t *testing.T) {
	captureSession(t)
	origFormatter := logger.Formatter
	t.Cleanup(func() {
		_ = CloseLogging()
		logger.SetFormatter(origFormatter)
	})

	require.Error(t, ConfigureLogging(LogConfig{Level: "chatty"}))

	path := filepath.Join(t.TempDir(), "accessterm.log")
	require.NoError(t, ConfigureLogging(LogConfig{Level: "warn", Format: "json", FilePath: path, MaxSizeMB: 1}))
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger.SetOutput(io.MultiWriter(logFile))
	Logger().WithField("component", "test").Warn("reader lost")
	require.NoError(t, CloseLogging())

	content, err := os.ReadFile(path) //nolint:gosec // test temp file
	require.NoError(t, err)
	assert.Contains(t, string(content), `"component":"test"`)
	assert.Contains(t, string(content), `"msg":"reader lost"`)
}
