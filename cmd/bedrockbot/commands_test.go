// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/bedrockbot/internal/config"
	"github.com/holomush/bedrockbot/internal/discovery"
	"github.com/holomush/bedrockbot/internal/keyring"
	"github.com/holomush/bedrockbot/internal/ping"
	"github.com/holomush/bedrockbot/pkg/errutil"
)

func TestKeyCmd(t *testing.T) {
	t.Run("generates then reuses the key file", func(t *testing.T) {
		env := newTestEnv(t)
		keyPath := filepath.Join(env.dir, "cache.key")

		stdout, _, err := env.execute(context.Background(), "key")
		require.NoError(t, err)
		assert.Contains(t, stdout, "source: generated")
		assert.Contains(t, stdout, "path: "+keyPath)
		assert.FileExists(t, keyPath)

		stdout, _, err = env.execute(context.Background(), "key")
		require.NoError(t, err)
		assert.Contains(t, stdout, "source: file")
	})

	t.Run("environment override is never printed", func(t *testing.T) {
		env := newTestEnv(t)
		env.deps.EnvironmentKeyGetter = func() string { return "super-secret-key-material" }

		stdout, stderr, err := env.execute(context.Background(), "key", "--log-level", "debug")
		require.NoError(t, err)
		assert.Contains(t, stdout, "source: environment")
		assert.Contains(t, stdout, keyring.EnvVar)
		assert.NotContains(t, stdout, "super-secret-key-material")
		assert.NotContains(t, stderr, "super-secret-key-material")
		assert.NoFileExists(t, filepath.Join(env.dir, "cache.key"))
	})
}

func TestAuthCmd(t *testing.T) {
	t.Run("login prints the device code and caches the token", func(t *testing.T) {
		env := newTestEnv(t)

		stdout, stderr, err := env.execute(context.Background(), "auth", "login", "--account", "alice")
		require.NoError(t, err)
		assert.Contains(t, stderr, "ABCD-1234")
		assert.Contains(t, stderr, "https://login.example.test/link")
		assert.Contains(t, stdout, "signed in as alice")
		assert.Equal(t, 1, env.provider.loginCount())

		_, _, err = env.execute(context.Background(), "auth", "login", "--account", "alice")
		require.NoError(t, err)
		assert.Equal(t, 1, env.provider.loginCount(), "second login should use the cache")
	})

	t.Run("force refresh skips the cache", func(t *testing.T) {
		env := newTestEnv(t)

		_, _, err := env.execute(context.Background(), "auth", "login", "--account", "alice")
		require.NoError(t, err)
		_, _, err = env.execute(context.Background(), "auth", "login", "--account", "alice", "--force-refresh")
		require.NoError(t, err)
		assert.Equal(t, 2, env.provider.loginCount())
	})

	t.Run("logout forgets the token", func(t *testing.T) {
		env := newTestEnv(t)

		_, _, err := env.execute(context.Background(), "auth", "login", "--account", "alice")
		require.NoError(t, err)
		stdout, _, err := env.execute(context.Background(), "auth", "logout", "--account", "alice")
		require.NoError(t, err)
		assert.Contains(t, stdout, "removed cached tokens for alice")

		_, _, err = env.execute(context.Background(), "auth", "login", "--account", "alice")
		require.NoError(t, err)
		assert.Equal(t, 2, env.provider.loginCount())
	})

	t.Run("account is required", func(t *testing.T) {
		env := newTestEnv(t)

		_, _, err := env.execute(context.Background(), "auth", "login")
		errutil.AssertErrorCode(t, err, "AUTH_ACCOUNT_REQUIRED")
	})
}

type stubPinger struct {
	addr   string
	status ping.Status
	err    error
}

func (p *stubPinger) Ping(_ context.Context, address string) (ping.Status, error) {
	p.addr = address
	return p.status, p.err
}

func TestPingCmd(t *testing.T) {
	status := ping.Status{
		Edition:         "MCPE",
		MOTD:            "Dedicated Server",
		ProtocolVersion: 686,
		Version:         "1.21.2",
		PlayerCount:     3,
		MaxPlayers:      10,
		LevelName:       "Bedrock level",
		GameMode:        "Survival",
		Latency:         42 * time.Millisecond,
	}

	t.Run("table output with default port", func(t *testing.T) {
		env := newTestEnv(t)
		pinger := &stubPinger{status: status}
		env.deps.Pinger = pinger

		stdout, _, err := env.execute(context.Background(), "ping", "play.example.test")
		require.NoError(t, err)
		assert.Equal(t, "play.example.test:19132", pinger.addr)
		assert.Contains(t, stdout, "Dedicated Server")
		assert.Contains(t, stdout, "1.21.2 (protocol 686)")
		assert.Contains(t, stdout, "3/10")
		assert.Contains(t, stdout, "42ms")
	})

	t.Run("explicit port in the address wins", func(t *testing.T) {
		env := newTestEnv(t)
		pinger := &stubPinger{status: status}
		env.deps.Pinger = pinger

		_, _, err := env.execute(context.Background(), "ping", "10.0.0.5:19200", "--port", "1")
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.5:19200", pinger.addr)
	})

	t.Run("json output", func(t *testing.T) {
		env := newTestEnv(t)
		env.deps.Pinger = &stubPinger{status: status}

		stdout, _, err := env.execute(context.Background(), "ping", "play.example.test", "--json")
		require.NoError(t, err)
		var out StatusOutput
		require.NoError(t, json.Unmarshal([]byte(stdout), &out))
		assert.Equal(t, 3, out.Players)
		assert.Equal(t, int64(42), out.LatencyMillis)
	})

	t.Run("errors propagate", func(t *testing.T) {
		env := newTestEnv(t)
		env.deps.Pinger = &stubPinger{err: errors.New("timeout")}

		_, _, err := env.execute(context.Background(), "ping", "play.example.test")
		require.Error(t, err)
	})
}

func lanServers() []discovery.Server {
	return []discovery.Server{
		{
			ID:   7,
			Addr: &net.UDPAddr{IP: net.IPv4(192, 168, 1, 20), Port: discovery.Port},
			Data: discovery.ServerData{ServerName: "§aAlpha Realm", LevelName: "Alpha", PlayerCount: 1, MaxPlayerCount: 8},
		},
		{
			ID:   9,
			Addr: &net.UDPAddr{IP: net.IPv4(192, 168, 1, 21), Port: discovery.Port},
			Data: discovery.ServerData{ServerName: "Alpha Test", LevelName: "Test", MaxPlayerCount: 4},
		},
		{
			ID:   11,
			Addr: &net.UDPAddr{IP: net.IPv4(192, 168, 1, 22), Port: discovery.Port},
			Data: discovery.ServerData{ServerName: "Beta", LevelName: "B", MaxPlayerCount: 2},
		},
	}
}

func staticDiscoverer(servers []discovery.Server, window *time.Duration) func(context.Context, *slog.Logger, time.Duration) ([]discovery.Server, error) {
	return func(_ context.Context, _ *slog.Logger, w time.Duration) ([]discovery.Server, error) {
		if window != nil {
			*window = w
		}
		return servers, nil
	}
}

func TestDiscoverCmd(t *testing.T) {
	t.Run("lists every server", func(t *testing.T) {
		env := newTestEnv(t)
		var window time.Duration
		env.deps.Discoverer = staticDiscoverer(lanServers(), &window)

		stdout, _, err := env.execute(context.Background(), "discover", "--discovery-timeout", "1500ms")
		require.NoError(t, err)
		assert.Equal(t, 1500*time.Millisecond, window)
		assert.Contains(t, stdout, "Alpha Realm")
		assert.NotContains(t, stdout, "§a")
		assert.Contains(t, stdout, "Beta")
		assert.Contains(t, stdout, "192.168.1.20:7551")
	})

	t.Run("filters by name", func(t *testing.T) {
		env := newTestEnv(t)
		env.deps.Discoverer = staticDiscoverer(lanServers(), nil)

		stdout, _, err := env.execute(context.Background(), "discover", "--server-name", "alpha", "--json")
		require.NoError(t, err)
		var out []ServerOutput
		require.NoError(t, json.Unmarshal([]byte(stdout), &out))
		require.Len(t, out, 2)
		assert.Equal(t, "7", out[0].ID)
		assert.Equal(t, "9", out[1].ID)
	})

	t.Run("no match is an error", func(t *testing.T) {
		env := newTestEnv(t)
		env.deps.Discoverer = staticDiscoverer(lanServers(), nil)

		_, _, err := env.execute(context.Background(), "discover", "--server-name", "gamma")
		errutil.AssertErrorCode(t, err, "DISCOVERY_NO_MATCH")
	})

	t.Run("empty network", func(t *testing.T) {
		env := newTestEnv(t)
		env.deps.Discoverer = staticDiscoverer(nil, nil)

		stdout, _, err := env.execute(context.Background(), "discover")
		require.NoError(t, err)
		assert.Contains(t, stdout, "no LAN worlds found")
	})
}

func TestConfigCmd(t *testing.T) {
	t.Run("schema", func(t *testing.T) {
		env := newTestEnv(t)

		stdout, _, err := env.execute(context.Background(), "config", "schema")
		require.NoError(t, err)
		var schema map[string]any
		require.NoError(t, json.Unmarshal([]byte(stdout), &schema))
		assert.Equal(t, config.SchemaID, schema["$id"])
	})

	t.Run("validate accepts a good file", func(t *testing.T) {
		env := newTestEnv(t)
		path := filepath.Join(env.dir, "good.yaml")
		require.NoError(t, os.WriteFile(path, []byte("host: play.example.test\nport: 19133\nreconnect-max: 1m\n"), 0o600))

		stdout, _, err := env.execute(context.Background(), "config", "validate", path)
		require.NoError(t, err)
		assert.Contains(t, stdout, "ok")
	})

	t.Run("validate rejects schema violations", func(t *testing.T) {
		env := newTestEnv(t)
		path := filepath.Join(env.dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("port: 70000\n"), 0o600))

		_, _, err := env.execute(context.Background(), "config", "validate", path)
		errutil.AssertErrorCode(t, err, "CONFIG_SCHEMA_VIOLATION")
	})

	t.Run("validate falls back to the default file", func(t *testing.T) {
		env := newTestEnv(t)

		_, _, err := env.execute(context.Background(), "config", "validate")
		errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
	})
}
