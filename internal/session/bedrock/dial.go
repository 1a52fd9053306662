// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bedrock

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/sandertv/gophertunnel/minecraft"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/login"

	"github.com/holomush/bedrockbot/internal/session"
)

func init() {
	session.RegisterDirect(DialDirect)
}

// DialDirect opens a RakNet session to opts.Host:opts.Port and spawns the
// player. It is registered as the default direct transport.
func DialDirect(ctx context.Context, opts session.ClientOptions) (session.LiveClient, error) {
	logger := slog.Default().With("transport", string(session.TransportDirect))
	if opts.Version != nil && *opts.Version != protocol.CurrentVersion {
		logger.Warn("version override is not supported by this transport",
			"requested", *opts.Version,
			"protocol_version", protocol.CurrentVersion,
		)
	}

	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	d := newDialer(ctx, opts)
	conn, err := d.DialContext(ctx, "raknet", addr)
	if err != nil {
		return nil, oops.Code("SESSION_DIAL_FAILED").With("address", addr).Wrap(err)
	}

	client, err := NewClient(ctx, conn, logger, opts.ViewDistance)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newDialer(ctx context.Context, opts session.ClientOptions) minecraft.Dialer {
	d := minecraft.Dialer{
		ClientData: login.ClientData{DeviceOS: deviceOS(opts.DeviceType)},
	}
	if opts.Auth != nil {
		d.TokenSource = opts.Auth.TokenSource(ctx)
	} else {
		// Offline servers take the name from identity data.
		d.IdentityData = login.IdentityData{DisplayName: opts.Username}
	}
	return d
}

// deviceOS maps the device type reported to the auth service onto the
// device the client claims at login.
func deviceOS(deviceType string) protocol.DeviceOS {
	switch strings.ToLower(deviceType) {
	case "android":
		return protocol.DeviceAndroid
	case "ios":
		return protocol.DeviceIOS
	case "win32", "win10", "windows":
		return protocol.DeviceWin10
	default:
		return protocol.DeviceNX
	}
}
