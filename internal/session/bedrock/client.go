// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bedrock

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/oops"
	"github.com/sandertv/gophertunnel/minecraft"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"

	"github.com/holomush/bedrockbot/internal/game"
	"github.com/holomush/bedrockbot/internal/session"
)

// eventBuffer is the capacity of a client's event channel.
const eventBuffer = 64

// Conn is the part of *minecraft.Conn a Client drives.
type Conn interface {
	ReadPacket() (packet.Packet, error)
	WritePacket(pk packet.Packet) error
	Flush() error
	Close() error
	GameData() minecraft.GameData
	DoSpawnContext(ctx context.Context) error
}

var _ Conn = (*minecraft.Conn)(nil)

// Client adapts a Conn to session.LiveClient.
type Client struct {
	conn   Conn
	logger *slog.Logger
	events chan game.Event
	state  *translator

	closing   chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	reason    string
}

var _ session.LiveClient = (*Client)(nil)

// NewClient spawns into the world on conn and starts streaming events.
// The first event is always the spawn context. A positive viewDistance is
// requested from the server after spawning.
func NewClient(ctx context.Context, conn Conn, logger *slog.Logger, viewDistance int) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := conn.DoSpawnContext(ctx); err != nil {
		_ = conn.Close()
		return nil, oops.Code("SESSION_SPAWN_FAILED").Wrap(err)
	}

	c := &Client{
		conn:    conn,
		logger:  logger,
		events:  make(chan game.Event, eventBuffer),
		state:   newTranslator(),
		closing: make(chan struct{}),
	}
	spawn := spawnContext(conn.GameData())
	c.events <- spawn

	if viewDistance > 0 {
		if err := c.Write(&packet.RequestChunkRadius{ChunkRadius: int32(viewDistance)}); err != nil { //nolint:gosec // bounded by config validation
			_ = c.Disconnect("chunk radius request failed")
			return nil, oops.Code("SESSION_WRITE_FAILED").With("packet", "request_chunk_radius").Wrap(err)
		}
	}

	go c.readLoop()
	return c, nil
}

// Events implements session.LiveClient.
func (c *Client) Events() <-chan game.Event {
	return c.events
}

// Write implements session.LiveClient. p must be a gophertunnel packet.
func (c *Client) Write(p session.Packet) error {
	if err := c.Queue(p); err != nil {
		return err
	}
	if err := c.conn.Flush(); err != nil {
		return oops.Code("SESSION_WRITE_FAILED").With("packet_id", p.ID()).Wrap(err)
	}
	return nil
}

// Queue implements session.LiveClient. Queued packets go out on the
// connection's periodic flush or the next Write.
func (c *Client) Queue(p session.Packet) error {
	pk, ok := p.(packet.Packet)
	if !ok {
		return oops.Code("SESSION_PACKET_UNSUPPORTED").
			With("packet_id", p.ID()).
			Errorf("packet %T is not a bedrock protocol packet", p)
	}
	if err := c.conn.WritePacket(pk); err != nil {
		return oops.Code("SESSION_WRITE_FAILED").With("packet_id", p.ID()).Wrap(err)
	}
	return nil
}

// Disconnect implements session.LiveClient. Only the first call closes the
// connection; its reason is the one reported on the event stream.
func (c *Client) Disconnect(reason string) error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.reason = reason
		c.mu.Unlock()
		close(c.closing)
		err = c.conn.Close()
	})
	if err != nil {
		return oops.Code("SESSION_CLOSE_FAILED").Wrap(err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		pk, err := c.conn.ReadPacket()
		if err != nil {
			c.emit(game.Disconnected{Reason: c.closeReason(err.Error())})
			return
		}
		for _, e := range c.state.translate(pk, c.logger) {
			if !c.emit(e) {
				return
			}
			if d, done := e.(game.Disconnected); done {
				_ = c.Disconnect(d.Reason)
				return
			}
		}
	}
}

// emit delivers e unless the client is closing and nobody is reading.
func (c *Client) emit(e game.Event) bool {
	select {
	case c.events <- e:
		return true
	case <-c.closing:
		select {
		case c.events <- e:
			return true
		default:
			return false
		}
	}
}

func (c *Client) closeReason(fallback string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reason != "" {
		return c.reason
	}
	return fallback
}
