// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/bedrockbot/internal/authflow"
	"github.com/holomush/bedrockbot/internal/discovery"
	"github.com/holomush/bedrockbot/internal/keyring"
	"github.com/holomush/bedrockbot/internal/monitor"
	"github.com/holomush/bedrockbot/internal/observability"
	"github.com/holomush/bedrockbot/internal/ping"
	"github.com/holomush/bedrockbot/internal/session"
	"github.com/holomush/bedrockbot/internal/viewdist"
	"github.com/holomush/bedrockbot/internal/xdg"
)

// Deps contains injectable dependencies for the CLI commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// ConfigPathGetter returns the default config file path.
	// Default: xdg.ConfigFilePath
	ConfigPathGetter func() (string, error)

	// KeyFilePathGetter returns the credential-cache key path.
	// Default: xdg.KeyFilePath
	KeyFilePathGetter func() (string, error)

	// AuthCacheDirGetter returns the token cache directory.
	// Default: xdg.AuthCacheDir
	AuthCacheDirGetter func() (string, error)

	// EnvironmentKeyGetter returns the cache key override.
	// Default: reads keyring.EnvVar
	EnvironmentKeyGetter func() string

	// AuthProvider performs the device-code exchange.
	// Default: authflow.NewLiveProvider
	AuthProvider authflow.Provider

	// SessionFactoryBuilder creates the session factory used by join.
	// Default: session.NewFactory
	SessionFactoryBuilder func(cfg session.FactoryConfig) (SessionFactory, error)

	// Discoverer collects LAN worlds for window.
	// Default: a discovery.Browser on a broadcast UDP socket
	Discoverer func(ctx context.Context, logger *slog.Logger, window time.Duration) ([]discovery.Server, error)

	// Pinger queries server status.
	// Default: ping.Pinger
	Pinger session.Pinger

	// MemoryProbe reports total system memory.
	// Default: viewdist.SystemMemory
	MemoryProbe viewdist.MemoryFunc

	// Navigator steers the bot towards its goal.
	// Default: the bot's hold-position navigator
	Navigator monitor.Navigator

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer
}

// SessionFactory wraps the method join uses from session.Factory.
type SessionFactory interface {
	Create(ctx context.Context, opts session.Options) (session.LiveClient, error)
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.ConfigPathGetter == nil {
		out.ConfigPathGetter = xdg.ConfigFilePath
	}
	if out.KeyFilePathGetter == nil {
		out.KeyFilePathGetter = xdg.KeyFilePath
	}
	if out.AuthCacheDirGetter == nil {
		out.AuthCacheDirGetter = xdg.AuthCacheDir
	}
	if out.EnvironmentKeyGetter == nil {
		out.EnvironmentKeyGetter = func() string { return os.Getenv(keyring.EnvVar) }
	}
	if out.SessionFactoryBuilder == nil {
		out.SessionFactoryBuilder = func(cfg session.FactoryConfig) (SessionFactory, error) {
			return session.NewFactory(cfg)
		}
	}
	if out.Discoverer == nil {
		out.Discoverer = discoverLAN
	}
	if out.Pinger == nil {
		out.Pinger = &ping.Pinger{}
	}
	if out.MemoryProbe == nil {
		out.MemoryProbe = viewdist.SystemMemory
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker, observability.WithLogger(logger))
		}
	}
	return &out
}

// discoverLAN broadcasts discovery requests from an ephemeral IPv4 socket.
func discoverLAN(ctx context.Context, logger *slog.Logger, window time.Duration) ([]discovery.Server, error) {
	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp4", ":0")
	if err != nil {
		return nil, oops.Code("DISCOVERY_LISTEN_FAILED").Wrap(err)
	}
	defer func() { _ = conn.Close() }()

	browser, err := discovery.NewBrowser(discovery.BrowserConfig{
		Conn:   conn,
		Logger: logger,
		OnDrop: observability.RecordDiscoveryDrop,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("discovering LAN worlds", "sender_id", browser.SenderID(), "window", window)
	return browser.Discover(ctx, window)
}
