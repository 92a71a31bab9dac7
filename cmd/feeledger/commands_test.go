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
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/tomoncle/feeledger/models"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf("database:\n  connection:\n    type: sqlite\n    dbname: %s\n    max_open_conns: 1\n    max_idle_conns: 1\n    health_check_interval: 0s\n",
		filepath.Join(dir, "ledger.db"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateCommands(t *testing.T) {
	cfg := writeConfig(t)
	envFile := filepath.Join(filepath.Dir(cfg), "missing.env")

	out, err := run(t, "migrate", "status", "--config", cfg, "--env-file", envFile)
	require.NoError(t, err)
	assert.Contains(t, out, "001")
	assert.Contains(t, out, "pending")
	assert.NotContains(t, out, "applied")

	out, err = run(t, "migrate", "up", "-c", cfg, "--env-file", envFile)
	require.NoError(t, err)
	assert.Contains(t, out, "add_fees_indexes")
	assert.NotContains(t, out, "pending")

	out, err = run(t, "migrate", "down", "-c", cfg, "--env-file", envFile)
	require.NoError(t, err)
	assert.Regexp(t, `002\s+add_fees_indexes\s+pending`, out)
	assert.Regexp(t, `001\s+create_base_tables\s+applied`, out)

	_, err = run(t, "migrate", "down", "-c", cfg, "--env-file", envFile)
	require.NoError(t, err)
	out, err = run(t, "migrate", "down", "-c", cfg, "--env-file", envFile)
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to roll back")
}

func TestHealthCommand(t *testing.T) {
	cfg := writeConfig(t)
	out, err := run(t, "health", "-c", cfg, "--env-file", filepath.Join(filepath.Dir(cfg), "missing.env"))
	require.NoError(t, err)
	assert.Contains(t, out, "healthy: true")
}

func TestMissingConfig(t *testing.T) {
	_, err := run(t, "health", "-c", filepath.Join(t.TempDir(), "nope.yaml"), "--env-file", "nope.env")
	assert.ErrorContains(t, err, "read config")
}
