// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package game

// Event is an inbound session event. Transports translate protocol packets
// into these values.
type Event interface {
	eventName() string
}

// EventName returns a stable name for e, used in logs and metrics.
func EventName(e Event) string {
	return e.eventName()
}

// SpawnContext is delivered once the server has started the game for the
// client.
type SpawnContext struct {
	Dimension       Dimension
	WorldName       string
	LevelID         string
	WorldSeed       int64
	RuntimeEntityID uint64
	Position        Vec3
	GameRules       []GameRule
}

// ChunkPublisherUpdate reports the center and radius the server publishes
// chunks around.
type ChunkPublisherUpdate struct {
	Center BlockPos
	Radius uint32
}

// Player is an entry in the player list.
type Player struct {
	UUID     string
	Username string
}

// PlayerListUpdate adds or removes players.
type PlayerListUpdate struct {
	Removed bool
	Players []Player
}

// EntityPosition reports where an entity moved.
type EntityPosition struct {
	RuntimeEntityID uint64
	Position        Vec3
	// Username is set when the entity is a known player.
	Username string
}

// Disconnected is the final event on a session's stream.
type Disconnected struct {
	Reason string
}

func (SpawnContext) eventName() string         { return "spawn" }
func (ChunkPublisherUpdate) eventName() string { return "chunk_publisher_update" }
func (PlayerListUpdate) eventName() string     { return "player_list" }
func (EntityPosition) eventName() string       { return "entity_position" }
func (Disconnected) eventName() string         { return "disconnected" }
