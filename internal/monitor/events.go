// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package monitor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/holomush/bedrockbot/internal/game"
)

// SpawnFields projects a spawn event onto log attributes.
func SpawnFields(sc game.SpawnContext) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("dimension", sc.Dimension.String()),
		slog.String("world_name", sc.WorldName),
		slog.String("level_id", sc.LevelID),
		slog.Int64("world_seed", sc.WorldSeed),
		slog.Uint64("runtime_entity_id", sc.RuntimeEntityID),
		positionAttr("position", sc.Position),
	}
	if len(sc.GameRules) > 0 {
		rules := make([]any, 0, len(sc.GameRules))
		for _, r := range sc.GameRules {
			rules = append(rules, slog.Any(r.Name, r.Value))
		}
		attrs = append(attrs, slog.Group("game_rules", rules...))
	}
	return attrs
}

// ChunkPublisherFields projects a chunk publisher update onto log
// attributes. Reduced detail carries the radius only.
func ChunkPublisherFields(u game.ChunkPublisherUpdate, full bool) []slog.Attr {
	if !full {
		return []slog.Attr{slog.Uint64("radius", uint64(u.Radius))}
	}
	return []slog.Attr{
		slog.Group("center",
			slog.Int("x", int(u.Center.X)),
			slog.Int("y", int(u.Center.Y)),
			slog.Int("z", int(u.Center.Z)),
		),
		slog.Uint64("radius", uint64(u.Radius)),
	}
}

// ChunkPublisherLogger logs the first chunk publisher update of a session at
// info with full detail and later ones at debug with reduced detail.
type ChunkPublisherLogger struct {
	logger *slog.Logger

	mu   sync.Mutex
	seen uint64
}

// NewChunkPublisherLogger returns a logger writing to l.
func NewChunkPublisherLogger(l *slog.Logger) *ChunkPublisherLogger {
	if l == nil {
		l = slog.Default()
	}
	return &ChunkPublisherLogger{logger: l}
}

// Log records u.
func (c *ChunkPublisherLogger) Log(u game.ChunkPublisherUpdate) {
	c.mu.Lock()
	c.seen++
	first := c.seen == 1
	c.mu.Unlock()

	if first {
		c.logger.LogAttrs(context.Background(), slog.LevelInfo, "chunk publisher update", ChunkPublisherFields(u, true)...)
		return
	}
	c.logger.LogAttrs(context.Background(), slog.LevelDebug, "chunk publisher update", ChunkPublisherFields(u, false)...)
}

// Seen returns how many updates were logged.
func (c *ChunkPublisherLogger) Seen() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen
}
