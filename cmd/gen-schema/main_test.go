// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_WritesThenChecks(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "config.schema.json")
	var stdout bytes.Buffer

	require.NoError(t, run([]string{"--out", out}, &stdout))
	assert.Contains(t, stdout.String(), "wrote "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title": "bedrockbot configuration"`)

	stdout.Reset()
	require.NoError(t, run([]string{"--out", out, "--check"}, &stdout))
	assert.Contains(t, stdout.String(), "up to date")
}

func TestRun_CheckDetectsStaleSchema(t *testing.T) {
	out := filepath.Join(t.TempDir(), "config.schema.json")
	require.NoError(t, os.WriteFile(out, []byte("{}"), 0o600))

	err := run([]string{"-o", out, "--check"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of date")
}
