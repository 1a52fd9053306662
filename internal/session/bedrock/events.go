// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bedrock

import (
	"log/slog"

	"github.com/sandertv/gophertunnel/minecraft"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"

	"github.com/holomush/bedrockbot/internal/game"
)

// translator maps inbound packets onto game events. It remembers which
// runtime ids belong to players so movement can be attributed by name.
// It is only used from the read loop.
type translator struct {
	players    map[uint64]string
	runtimeIDs map[string]uint64
}

func newTranslator() *translator {
	return &translator{players: make(map[uint64]string), runtimeIDs: make(map[string]uint64)}
}

func (t *translator) translate(pk packet.Packet, logger *slog.Logger) []game.Event {
	switch pk := pk.(type) {
	case *packet.NetworkChunkPublisherUpdate:
		return []game.Event{game.ChunkPublisherUpdate{
			Center: game.BlockPos{X: pk.Position[0], Y: pk.Position[1], Z: pk.Position[2]},
			Radius: pk.Radius,
		}}

	case *packet.ChunkRadiusUpdated:
		logger.Info("chunk radius granted", "chunk_radius", pk.ChunkRadius)
		return nil

	case *packet.PlayerList:
		u := game.PlayerListUpdate{
			Removed: pk.ActionType == packet.PlayerListActionRemove,
			Players: make([]game.Player, 0, len(pk.Entries)),
		}
		for _, e := range pk.Entries {
			id := e.UUID.String()
			u.Players = append(u.Players, game.Player{UUID: id, Username: e.Username})
			if u.Removed {
				delete(t.players, t.runtimeIDs[id])
				delete(t.runtimeIDs, id)
			}
		}
		return []game.Event{u}

	case *packet.AddPlayer:
		t.players[pk.EntityRuntimeID] = pk.Username
		t.runtimeIDs[pk.UUID.String()] = pk.EntityRuntimeID
		return []game.Event{game.EntityPosition{
			RuntimeEntityID: pk.EntityRuntimeID,
			Position:        vec3(pk.Position),
			Username:        pk.Username,
		}}

	case *packet.MovePlayer:
		return []game.Event{t.position(pk.EntityRuntimeID, pk.Position)}

	case *packet.MoveActorAbsolute:
		return []game.Event{t.position(pk.EntityRuntimeID, pk.Position)}

	case *packet.Disconnect:
		return []game.Event{game.Disconnected{Reason: pk.Message}}
	}
	return nil
}

func (t *translator) position(id uint64, pos [3]float32) game.EntityPosition {
	return game.EntityPosition{
		RuntimeEntityID: id,
		Position:        vec3(pos),
		Username:        t.players[id],
	}
}

// spawnContext projects the StartGame data gathered during login.
func spawnContext(gd minecraft.GameData) game.SpawnContext {
	sc := game.SpawnContext{
		Dimension:       game.Dimension(gd.Dimension),
		WorldName:       gd.WorldName,
		WorldSeed:       gd.WorldSeed,
		RuntimeEntityID: gd.EntityRuntimeID,
		Position:        vec3(gd.PlayerPosition),
	}
	for _, r := range gd.GameRules {
		sc.GameRules = append(sc.GameRules, gameRule(r))
	}
	return sc
}

func gameRule(r protocol.GameRule) game.GameRule {
	return game.GameRule{Name: r.Name, Value: r.Value}
}

func vec3(v [3]float32) game.Vec3 {
	return game.Vec3{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}
