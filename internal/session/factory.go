// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"log/slog"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"

	"github.com/holomush/bedrockbot/internal/discovery"
	"github.com/holomush/bedrockbot/internal/ping"
)

// DefaultSupportedVersions is the range of advertised server versions
// considered compatible when no override is given.
const DefaultSupportedVersions = ">= 1.20.0"

// Pinger queries server status before a direct join.
type Pinger interface {
	Ping(ctx context.Context, address string) (ping.Status, error)
}

// FactoryConfig configures a Factory. Nil constructors fall back to the
// registered transports.
type FactoryConfig struct {
	Direct    DirectConstructor
	NetherNet NetherNetConstructor
	Pinger    Pinger
	Logger    *slog.Logger

	// SupportedVersions is a semver constraint. Defaults to
	// DefaultSupportedVersions.
	SupportedVersions string

	// NewPeerID generates NetherNet peer ids.
	NewPeerID func() (uint64, error)
}

// Factory opens sessions over either transport.
type Factory struct {
	cfg       FactoryConfig
	supported *semver.Constraints
}

// NewFactory returns a Factory.
func NewFactory(cfg FactoryConfig) (*Factory, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Pinger == nil {
		cfg.Pinger = &ping.Pinger{}
	}
	if cfg.NewPeerID == nil {
		cfg.NewPeerID = discovery.RandomID
	}
	if cfg.SupportedVersions == "" {
		cfg.SupportedVersions = DefaultSupportedVersions
	}
	supported, err := semver.NewConstraint(cfg.SupportedVersions)
	if err != nil {
		return nil, oops.Code("SESSION_VERSION_CONSTRAINT_INVALID").
			With("constraint", cfg.SupportedVersions).
			Wrap(err)
	}
	return &Factory{cfg: cfg, supported: supported}, nil
}

// Create opens a session for opts.
func (f *Factory) Create(ctx context.Context, opts Options) (LiveClient, error) {
	if err := ValidateVersion(opts.Version); err != nil {
		return nil, err
	}
	conn, err := f.connector(opts)
	if err != nil {
		return nil, err
	}
	return conn.Connect(ctx, Translate(opts))
}

func (f *Factory) connector(opts Options) (Connector, error) {
	switch opts.Transport {
	case TransportDirect, "":
		ctor := f.cfg.Direct
		if ctor == nil {
			ctor = registeredDirect()
		}
		if ctor == nil {
			return nil, unavailable(TransportDirect)
		}
		return &directConnector{
			ctor:      ctor,
			pinger:    f.cfg.Pinger,
			supported: f.supported,
			logger:    f.cfg.Logger,
		}, nil

	case TransportNetherNet:
		// Discovery must have run first; fail before touching the network.
		if opts.NetherNet.ServerID == 0 {
			return nil, oops.Code("SESSION_DISCOVERY_REQUIRED").
				With("transport", string(TransportNetherNet)).
				Errorf("nethernet join requires a server id from discovery")
		}
		ctor := f.cfg.NetherNet
		if ctor == nil {
			ctor = registeredNetherNet()
		}
		if ctor == nil {
			return nil, unavailable(TransportNetherNet)
		}
		return &netherNetConnector{
			ctor:      ctor,
			logger:    f.cfg.Logger,
			serverID:  opts.NetherNet.ServerID,
			peerID:    opts.NetherNet.PeerID,
			newPeerID: f.cfg.NewPeerID,
		}, nil

	default:
		return nil, oops.Code("SESSION_TRANSPORT_INVALID").
			With("transport", string(opts.Transport)).
			Errorf("unknown transport %q", opts.Transport)
	}
}

func unavailable(t Transport) error {
	return oops.Code("SESSION_TRANSPORT_UNAVAILABLE").
		With("transport", string(t)).
		Errorf("no %s transport registered", t)
}

type directConnector struct {
	ctor      DirectConstructor
	pinger    Pinger
	supported *semver.Constraints
	logger    *slog.Logger
}

func (c *directConnector) Connect(ctx context.Context, opts ClientOptions) (LiveClient, error) {
	if !opts.SkipPing {
		addr := ping.HostPort(opts.Host, opts.Port)
		status, err := c.pinger.Ping(ctx, addr)
		if err != nil {
			return nil, oops.Code("SESSION_PING_FAILED").With("address", addr).Wrap(err)
		}
		c.logger.Info("server status",
			"address", addr,
			"motd", status.MOTD,
			"server_version", status.Version,
			"protocol", status.ProtocolVersion,
			"players", status.PlayerCount,
			"max_players", status.MaxPlayers,
		)
		if opts.Version == nil {
			c.checkCompatible(status.Version)
		}
	}

	client, err := c.ctor(ctx, opts)
	if err != nil {
		return nil, oops.Code("SESSION_CONNECT_FAILED").
			With("transport", string(TransportDirect)).
			With("host", opts.Host).
			With("port", opts.Port).
			Wrap(err)
	}
	return client, nil
}

func (c *directConnector) checkCompatible(advertised string) {
	v, err := semver.NewVersion(advertised)
	if err != nil {
		c.logger.Warn("server advertised an unparseable version", "server_version", advertised)
		return
	}
	if !c.supported.Check(v) {
		c.logger.Warn("server version outside supported range",
			"server_version", advertised,
			"supported", c.supported.String(),
		)
	}
}

type netherNetConnector struct {
	ctor      NetherNetConstructor
	logger    *slog.Logger
	serverID  uint64
	peerID    uint64
	newPeerID func() (uint64, error)
}

func (c *netherNetConnector) Connect(ctx context.Context, opts ClientOptions) (LiveClient, error) {
	// NetherNet has no unauthenticated status phase.
	opts.SkipPing = true

	peerID := c.peerID
	if peerID == 0 {
		id, err := c.newPeerID()
		if err != nil {
			return nil, oops.Code("SESSION_PEER_ID_FAILED").Wrap(err)
		}
		peerID = id
	}

	logger := c.logger.With("transport", string(TransportNetherNet), "server_id", c.serverID, "peer_id", peerID)
	client, err := c.ctor(ctx, opts, logger, c.serverID, peerID)
	if err != nil {
		return nil, oops.Code("SESSION_CONNECT_FAILED").
			With("transport", string(TransportNetherNet)).
			With("server_id", c.serverID).
			Wrap(err)
	}
	return client, nil
}
