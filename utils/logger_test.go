/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel(" WARN "))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("nonsense"))
}

func TestNewLoggerIsRegisteredOnce(t *testing.T) {
	a := NewLogger("TEST_REG")
	b := NewLogger("TEST_REG")
	assert.Same(t, a, b)
	assert.Contains(t, RegisteredLoggers(), "TEST_REG")

	assert.True(t, SetLoggerLevel("TEST_REG", "error"))
	assert.Equal(t, logrus.ErrorLevel, a.GetLevel())
	assert.False(t, SetLoggerLevel("MISSING", "error"))
}

func TestLog4jFormatter(t *testing.T) {
	f := &Log4jFormatter{LoggerName: "FEES", NameWidth: 6}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 8, 5, 9, 47, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "posting failed",
		Data:    logrus.Fields{"step": "balance", "account_id": 3},
	}
	b, err := f.Format(entry)
	require.NoError(t, err)
	line := string(b)
	assert.Contains(t, line, "2025-08-05 09:47:00.000")
	assert.Contains(t, line, "WARNING")
	assert.Contains(t, line, "[  FEES]")
	assert.Contains(t, line, "posting failed account_id=3 step=balance\n")
}

func TestJSONLogFormatter(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "FEES"}
	entry := &logrus.Entry{
		Time:    time.Now(),
		Level:   logrus.ErrorLevel,
		Message: "boom",
		Data:    logrus.Fields{logrus.ErrorKey: errors.New("db down")},
	}
	b, err := f.Format(entry)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "FEES", got["logger"])
	assert.Equal(t, "boom", got["msg"])
	assert.Equal(t, "error", got["level"])
	assert.Equal(t, "db down", got["error"])
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("FEELEDGER_TEST_INT", "42")
	t.Setenv("FEELEDGER_TEST_BOOL", "true")
	t.Setenv("FEELEDGER_TEST_BAD", "x")
	assert.Equal(t, 42, EnvDefaultInt("FEELEDGER_TEST_INT", 1))
	assert.Equal(t, 1, EnvDefaultInt("FEELEDGER_TEST_BAD", 1))
	assert.True(t, EnvDefaultBool("FEELEDGER_TEST_BOOL", false))
	assert.Equal(t, "d", EnvDefaultString("FEELEDGER_TEST_UNSET", "d"))
	assert.Equal(t, 42*time.Second, EnvDefaultSeconds("FEELEDGER_TEST_INT", time.Second))
}
