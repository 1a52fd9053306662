// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads bedrockbot configuration from defaults, an optional
// YAML file and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/bedrockbot/internal/game"
	"github.com/holomush/bedrockbot/internal/logging"
	"github.com/holomush/bedrockbot/internal/monitor"
	"github.com/holomush/bedrockbot/internal/reconnect"
	"github.com/holomush/bedrockbot/internal/session"
)

// Config is the full bedrockbot configuration. Keys match flag names.
type Config struct {
	LogFormat string `koanf:"log-format" json:"log-format,omitempty" jsonschema:"enum=json,enum=text"`
	LogLevel  string `koanf:"log-level" json:"log-level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`

	Account      string `koanf:"account" json:"account,omitempty" jsonschema:"description=Account name the credential cache is keyed by"`
	DeviceType   string `koanf:"device-type" json:"device-type,omitempty"`
	ForceRefresh bool   `koanf:"force-refresh" json:"force-refresh,omitempty"`

	Host         string `koanf:"host" json:"host,omitempty"`
	Port         int    `koanf:"port" json:"port,omitempty" jsonschema:"minimum=1,maximum=65535"`
	Transport    string `koanf:"transport" json:"transport,omitempty" jsonschema:"enum=direct,enum=nethernet"`
	Version      string `koanf:"version" json:"version,omitempty" jsonschema:"description=Protocol version override (semver)"`
	ViewDistance int    `koanf:"view-distance" json:"view-distance,omitempty" jsonschema:"minimum=0,maximum=32,description=Chunk radius; 0 picks one from system memory"`
	SkipPing     bool   `koanf:"skip-ping" json:"skip-ping,omitempty"`

	ServerName       string        `koanf:"server-name" json:"server-name,omitempty" jsonschema:"description=LAN world to join over NetherNet"`
	ServerID         uint64        `koanf:"server-id" json:"server-id,omitempty"`
	PeerID           uint64        `koanf:"peer-id" json:"peer-id,omitempty"`
	DiscoveryTimeout time.Duration `koanf:"discovery-timeout" json:"discovery-timeout,omitempty"`

	Follow            string        `koanf:"follow" json:"follow,omitempty" jsonschema:"description=Player to follow"`
	FollowCoords      string        `koanf:"follow-coords" json:"follow-coords,omitempty" jsonschema:"description=Coordinates to walk to"`
	FollowTimeout     time.Duration `koanf:"follow-timeout" json:"follow-timeout,omitempty"`
	HeartbeatInterval time.Duration `koanf:"heartbeat-interval" json:"heartbeat-interval,omitempty"`

	PlayerListProbe   bool          `koanf:"player-list-probe" json:"player-list-probe,omitempty"`
	PlayerListSettle  time.Duration `koanf:"player-list-settle" json:"player-list-settle,omitempty"`
	PlayerListMaxWait time.Duration `koanf:"player-list-max-wait" json:"player-list-max-wait,omitempty"`

	ReconnectBase     time.Duration `koanf:"reconnect-base" json:"reconnect-base,omitempty"`
	ReconnectMax      time.Duration `koanf:"reconnect-max" json:"reconnect-max,omitempty"`
	ReconnectJitter   float64       `koanf:"reconnect-jitter" json:"reconnect-jitter,omitempty" jsonschema:"minimum=0,maximum=1"`
	ReconnectAttempts uint64        `koanf:"reconnect-attempts" json:"reconnect-attempts,omitempty" jsonschema:"description=Maximum reconnects; 0 retries forever"`

	MetricsAddr string `koanf:"metrics-addr" json:"metrics-addr,omitempty" jsonschema:"description=Metrics and health listen address; empty disables"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogFormat:         "json",
		Port:              19132,
		Transport:         string(session.TransportDirect),
		DiscoveryTimeout:  3 * time.Second,
		FollowTimeout:     monitor.DefaultFollowThreshold,
		HeartbeatInterval: 30 * time.Second,
		PlayerListProbe:   true,
		PlayerListSettle:  monitor.DefaultSettleDelay,
		PlayerListMaxWait: monitor.DefaultMaxWait,
		ReconnectBase:     reconnect.DefaultBaseDelay,
		ReconnectMax:      reconnect.DefaultMaxDelay,
		ReconnectJitter:   reconnect.DefaultJitterRatio,
	}
}

// Load builds a Config. Values come from Default, then the YAML file at
// path (skipped when path is empty, or when it does not exist and
// optional is set), then flags in fs. Flags left at their default only
// fill keys the file did not set.
func Load(flags *pflag.FlagSet, path string, optional bool) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		err := k.Load(file.Provider(path), koanfyaml.Parser())
		switch {
		case err == nil:
		case optional && errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_DECODE_FAILED").With("path", path).Wrap(err)
	}
	return cfg, nil
}

// FileExists reports whether path names an existing file.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func invalid(key string, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return invalid("log-format", "log-format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if c.LogLevel != "" {
		if _, err := logging.ParseLevel(c.LogLevel); err != nil {
			return invalid("log-level", "log-level %q is not one of debug, info, warn, error", c.LogLevel)
		}
	}
	if _, err := session.ParseTransport(c.Transport); err != nil {
		return invalid("transport", "transport must be 'direct' or 'nethernet', got %q", c.Transport)
	}
	if c.Port < 1 || c.Port > 65535 {
		return invalid("port", "port must be between 1 and 65535, got %d", c.Port)
	}
	if c.ViewDistance < 0 || c.ViewDistance > 32 {
		return invalid("view-distance", "view-distance must be between 0 and 32, got %d", c.ViewDistance)
	}
	if err := session.ValidateVersion(c.Version); err != nil {
		return invalid("version", "version %q is not a semantic version", c.Version)
	}
	if c.ReconnectBase <= 0 {
		return invalid("reconnect-base", "reconnect-base must be positive")
	}
	if c.ReconnectMax < c.ReconnectBase {
		return invalid("reconnect-max", "reconnect-max (%s) must not be below reconnect-base (%s)", c.ReconnectMax, c.ReconnectBase)
	}
	if c.ReconnectJitter < 0 || c.ReconnectJitter > 1 {
		return invalid("reconnect-jitter", "reconnect-jitter must be between 0 and 1, got %g", c.ReconnectJitter)
	}
	if c.Follow != "" && c.FollowCoords != "" {
		return invalid("follow", "follow and follow-coords are mutually exclusive")
	}
	if _, err := c.FollowCoordinates(); err != nil {
		return err
	}
	return nil
}

// FollowCoordinates parses FollowCoords. It returns nil when unset.
func (c Config) FollowCoordinates() (*game.Vec3, error) {
	if strings.TrimSpace(c.FollowCoords) == "" {
		return nil, nil
	}
	parts := strings.Split(c.FollowCoords, ",")
	if len(parts) != 3 {
		return nil, invalid("follow-coords", "follow-coords must be x,y,z, got %q", c.FollowCoords)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, invalid("follow-coords", "follow-coords component %q is not a number", p)
		}
		v[i] = f
	}
	return &game.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

// ReconnectPolicy returns the reconnect policy.
func (c Config) ReconnectPolicy() reconnect.Policy {
	return reconnect.Policy{
		BaseDelay:   c.ReconnectBase,
		MaxDelay:    c.ReconnectMax,
		JitterRatio: c.ReconnectJitter,
		MaxAttempts: c.ReconnectAttempts,
	}
}

// ProbeConfig returns the player-list probe settings.
func (c Config) ProbeConfig() monitor.ProbeConfig {
	return monitor.ProbeConfig{
		Enabled:     c.PlayerListProbe,
		SettleDelay: c.PlayerListSettle,
		MaxWait:     c.PlayerListMaxWait,
	}
}
