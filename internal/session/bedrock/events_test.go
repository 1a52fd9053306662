// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bedrock

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
	"github.com/stretchr/testify/assert"

	"github.com/holomush/bedrockbot/internal/game"
)

func TestTranslate(t *testing.T) {
	alex := uuid.MustParse("6f1c1f08-9d3e-4c1a-9b9e-7d3c2a4e5f60")

	tests := []struct {
		name string
		pk   packet.Packet
		want []game.Event
	}{
		{
			name: "chunk publisher update",
			pk:   &packet.NetworkChunkPublisherUpdate{Position: protocol.BlockPos{16, 64, -32}, Radius: 96},
			want: []game.Event{game.ChunkPublisherUpdate{Center: game.BlockPos{X: 16, Y: 64, Z: -32}, Radius: 96}},
		},
		{
			name: "chunk radius is logged only",
			pk:   &packet.ChunkRadiusUpdated{ChunkRadius: 8},
		},
		{
			name: "player list add",
			pk: &packet.PlayerList{
				ActionType: packet.PlayerListActionAdd,
				Entries:    []protocol.PlayerListEntry{{UUID: alex, Username: "alex"}},
			},
			want: []game.Event{game.PlayerListUpdate{Players: []game.Player{{UUID: alex.String(), Username: "alex"}}}},
		},
		{
			name: "player list remove",
			pk: &packet.PlayerList{
				ActionType: packet.PlayerListActionRemove,
				Entries:    []protocol.PlayerListEntry{{UUID: alex}},
			},
			want: []game.Event{game.PlayerListUpdate{Removed: true, Players: []game.Player{{UUID: alex.String()}}}},
		},
		{
			name: "unknown mover has no name",
			pk:   &packet.MoveActorAbsolute{EntityRuntimeID: 40, Position: [3]float32{1, 2, 3}},
			want: []game.Event{game.EntityPosition{RuntimeEntityID: 40, Position: game.Vec3{X: 1, Y: 2, Z: 3}}},
		},
		{
			name: "server disconnect",
			pk:   &packet.Disconnect{Message: "server closed"},
			want: []game.Event{game.Disconnected{Reason: "server closed"}},
		},
		{
			name: "unrelated packet",
			pk:   &packet.Text{Message: "hello"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newTranslator().translate(tt.pk, discard()))
		})
	}
}

func TestTranslate_AttributesPlayerMovement(t *testing.T) {
	tr := newTranslator()
	alex := uuid.New()

	got := tr.translate(&packet.AddPlayer{
		UUID:            alex,
		Username:        "alex",
		EntityRuntimeID: 9,
		Position:        [3]float32{0, 64, 0},
	}, discard())
	assert.Equal(t, []game.Event{game.EntityPosition{RuntimeEntityID: 9, Position: game.Vec3{Y: 64}, Username: "alex"}}, got)

	got = tr.translate(&packet.MovePlayer{EntityRuntimeID: 9, Position: [3]float32{4, 64, 5}}, discard())
	assert.Equal(t, []game.Event{game.EntityPosition{RuntimeEntityID: 9, Position: game.Vec3{X: 4, Y: 64, Z: 5}, Username: "alex"}}, got)

	tr.translate(&packet.PlayerList{
		ActionType: packet.PlayerListActionRemove,
		Entries:    []protocol.PlayerListEntry{{UUID: alex}},
	}, discard())

	got = tr.translate(&packet.MovePlayer{EntityRuntimeID: 9, Position: [3]float32{4, 64, 5}}, discard())
	assert.Equal(t, []game.Event{game.EntityPosition{RuntimeEntityID: 9, Position: game.Vec3{X: 4, Y: 64, Z: 5}}}, got)
}

func TestDeviceOS(t *testing.T) {
	assert.Equal(t, protocol.DeviceNX, deviceOS("Nintendo"))
	assert.Equal(t, protocol.DeviceNX, deviceOS(""))
	assert.Equal(t, protocol.DeviceAndroid, deviceOS("Android"))
	assert.Equal(t, protocol.DeviceIOS, deviceOS("iOS"))
	assert.Equal(t, protocol.DeviceWin10, deviceOS("Win32"))
}
