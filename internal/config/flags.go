// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"github.com/spf13/pflag"
)

// BindGlobal registers flags shared by every command.
func BindGlobal(fs *pflag.FlagSet) {
	d := Default()
	fs.String("log-format", d.LogFormat, "log format (json or text)")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error); overrides BEDROCKBOT_LOG_LEVEL")
}

// BindAccount registers flags used by commands that authenticate.
func BindAccount(fs *pflag.FlagSet) {
	d := Default()
	fs.String("account", d.Account, "account name the credential cache is keyed by")
	fs.String("device-type", d.DeviceType, "device type reported at login")
	fs.Bool("force-refresh", d.ForceRefresh, "ignore cached tokens on the first acquisition")
}

// BindDiscovery registers LAN discovery flags.
func BindDiscovery(fs *pflag.FlagSet) {
	d := Default()
	fs.String("server-name", d.ServerName, "LAN world to join (substring match)")
	fs.Duration("discovery-timeout", d.DiscoveryTimeout, "how long to listen for LAN worlds")
}

// BindJoin registers the join command's flags.
func BindJoin(fs *pflag.FlagSet) {
	d := Default()
	BindAccount(fs)
	BindDiscovery(fs)

	fs.String("host", d.Host, "server host")
	fs.Int("port", d.Port, "server port")
	fs.String("transport", d.Transport, "transport (direct or nethernet)")
	fs.String("version", d.Version, "protocol version override (semver)")
	fs.Int("view-distance", d.ViewDistance, "chunk view distance (0 picks one from system memory)")
	fs.Bool("skip-ping", d.SkipPing, "skip the status ping before a direct join")
	fs.Uint64("server-id", d.ServerID, "NetherNet server id (skips discovery)")
	fs.Uint64("peer-id", d.PeerID, "NetherNet peer id (0 generates one)")

	fs.String("follow", d.Follow, "player to follow")
	fs.String("follow-coords", d.FollowCoords, "coordinates to walk to as x,y,z")
	fs.Duration("follow-timeout", d.FollowTimeout, "how long the follow target may be missing")
	fs.Duration("heartbeat-interval", d.HeartbeatInterval, "interval between heartbeat logs")

	fs.Bool("player-list-probe", d.PlayerListProbe, "log once the player list settles after spawn")
	fs.Duration("player-list-settle", d.PlayerListSettle, "quiet period before the player list counts as settled")
	fs.Duration("player-list-max-wait", d.PlayerListMaxWait, "upper bound on waiting for the player list")

	fs.Duration("reconnect-base", d.ReconnectBase, "initial reconnect delay")
	fs.Duration("reconnect-max", d.ReconnectMax, "maximum reconnect delay")
	fs.Float64("reconnect-jitter", d.ReconnectJitter, "jitter ratio added to reconnect delays")
	fs.Uint64("reconnect-attempts", d.ReconnectAttempts, "maximum reconnects (0 retries forever)")

	fs.String("metrics-addr", d.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
}
