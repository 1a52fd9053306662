// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/bedrockbot/internal/config"
	"github.com/holomush/bedrockbot/pkg/errutil"
)

func TestGenerateSchema(t *testing.T) {
	raw, err := config.GenerateSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, config.SchemaID, doc["$id"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "reconnect-base")
	assert.Contains(t, props, "view-distance")

	base := props["reconnect-base"].(map[string]any)
	assert.Equal(t, "string", base["type"], "durations are strings in YAML")
}

func TestValidateFile(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		err := config.ValidateFile([]byte(`
host: example.com
port: 19132
transport: direct
reconnect-base: 1s
reconnect-jitter: 0.5
follow: alex
`))
		assert.NoError(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		assert.NoError(t, config.ValidateFile(nil))
	})

	t.Run("bad yaml", func(t *testing.T) {
		errutil.AssertErrorCode(t, config.ValidateFile([]byte("host: [")), "CONFIG_YAML_INVALID")
	})

	tests := map[string]string{
		"unknown key":      "hostname: x\n",
		"bad transport":    "transport: tcp\n",
		"port range":       "port: 0\n",
		"duration literal": "reconnect-base: soon\n",
		"wrong type":       "port: high\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			errutil.AssertErrorCode(t, config.ValidateFile([]byte(body)), "CONFIG_SCHEMA_VIOLATION")
		})
	}
}
