// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package monitor

import (
	"log/slog"
	"time"

	"github.com/holomush/bedrockbot/internal/game"
)

// HeartbeatInput is the raw state the heartbeat is derived from.
type HeartbeatInput struct {
	Goal        Goal
	Position    game.Vec3
	HasPosition bool
	Players     int
	EventsIn    uint64
	Uptime      time.Duration
	Follow      FollowState
}

// HeartbeatSnapshot is a read-only projection logged periodically.
type HeartbeatSnapshot struct {
	Goal        GoalKind
	Position    game.Vec3
	HasPosition bool
	Players     int
	EventsIn    uint64
	Uptime      time.Duration
	TargetLost  bool

	// DistanceToTarget is the horizontal distance to the follow
	// coordinates. Set only for GoalFollowCoordinates with a known position.
	DistanceToTarget *float64
}

// ProjectHeartbeat builds a snapshot from in.
func ProjectHeartbeat(in HeartbeatInput) HeartbeatSnapshot {
	s := HeartbeatSnapshot{
		Goal:        in.Goal.Kind,
		Position:    in.Position,
		HasPosition: in.HasPosition,
		Players:     in.Players,
		EventsIn:    in.EventsIn,
		Uptime:      in.Uptime,
		TargetLost:  in.Follow.FailureRaised,
	}
	if in.Goal.Kind == GoalFollowCoordinates && in.HasPosition {
		d := in.Position.HorizontalDistance(in.Goal.Coordinates)
		s.DistanceToTarget = &d
	}
	return s
}

// Attrs renders the snapshot as log attributes.
func (s HeartbeatSnapshot) Attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("goal", string(s.Goal)),
		slog.Int("players", s.Players),
		slog.Uint64("events_in", s.EventsIn),
		slog.Duration("uptime", s.Uptime),
	}
	if s.HasPosition {
		attrs = append(attrs, positionAttr("position", s.Position))
	}
	if s.DistanceToTarget != nil {
		attrs = append(attrs, slog.Float64("distance_to_target", *s.DistanceToTarget))
	}
	if s.TargetLost {
		attrs = append(attrs, slog.Bool("target_lost", true))
	}
	return attrs
}

func positionAttr(key string, v game.Vec3) slog.Attr {
	return slog.Group(key,
		slog.Float64("x", v.X),
		slog.Float64("y", v.Y),
		slog.Float64("z", v.Z),
	)
}
