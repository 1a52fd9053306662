// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/holomush/bedrockbot/internal/game"
)

// Packet is an outbound protocol packet. Encoding belongs to the transport.
type Packet interface {
	ID() uint32
}

// LiveClient is an open session.
type LiveClient interface {
	// Write sends p immediately.
	Write(p Packet) error
	// Queue buffers p for the next flush.
	Queue(p Packet) error
	// Disconnect closes the session. The event stream ends with a
	// game.Disconnected event.
	Disconnect(reason string) error
	// Events streams inbound events until the session ends.
	Events() <-chan game.Event
}

// Connector opens a LiveClient.
type Connector interface {
	Connect(ctx context.Context, opts ClientOptions) (LiveClient, error)
}

// DirectConstructor opens a session over the direct transport.
type DirectConstructor func(ctx context.Context, opts ClientOptions) (LiveClient, error)

// NetherNetConstructor opens a session over NetherNet.
type NetherNetConstructor func(ctx context.Context, opts ClientOptions, logger *slog.Logger, serverID, peerID uint64) (LiveClient, error)

var (
	driversMu       sync.RWMutex
	directDriver    DirectConstructor
	netherNetDriver NetherNetConstructor
)

// RegisterDirect makes c the default direct transport. Transport packages
// call it from init.
func RegisterDirect(c DirectConstructor) {
	driversMu.Lock()
	defer driversMu.Unlock()
	directDriver = c
}

// RegisterNetherNet makes c the default NetherNet transport.
func RegisterNetherNet(c NetherNetConstructor) {
	driversMu.Lock()
	defer driversMu.Unlock()
	netherNetDriver = c
}

func registeredDirect() DirectConstructor {
	driversMu.RLock()
	defer driversMu.RUnlock()
	return directDriver
}

func registeredNetherNet() NetherNetConstructor {
	driversMu.RLock()
	defer driversMu.RUnlock()
	return netherNetDriver
}
