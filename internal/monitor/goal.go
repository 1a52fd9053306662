// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package monitor

import (
	"sync"

	"github.com/holomush/bedrockbot/internal/game"
)

// DefaultStopDistance is how close the bot stops from its target.
const DefaultStopDistance = 2.0

// GoalKind names a movement goal.
type GoalKind string

// Goal kinds.
const (
	GoalFollowPlayer      GoalKind = "follow_player"
	GoalFollowCoordinates GoalKind = "follow_coordinates"
	GoalHoldPosition      GoalKind = "hold_position"
)

// PositionFunc reports a live position and whether it is known.
type PositionFunc func() (game.Vec3, bool)

// GoalRequest is what the caller would like the bot to do.
type GoalRequest struct {
	// TargetPosition tracks the followed player. Following a player
	// requires it.
	TargetPosition PositionFunc
	// TargetName is the player being followed, for logs.
	TargetName string
	// FallbackName is logged when TargetName is empty. It is never used to
	// look a player up.
	FallbackName string

	// Coordinates selects follow-coordinates when no player is followed.
	Coordinates *game.Vec3

	StopDistance float64
}

// Goal is the selected movement goal.
type Goal struct {
	Kind         GoalKind
	TargetName   string
	Coordinates  game.Vec3
	StopDistance float64
}

// Navigator steps the bot. Each method starts a behavior and returns a
// function that stops it.
type Navigator interface {
	Follow(target PositionFunc, stopDistance float64) (stop func())
	MoveTo(pos game.Vec3, stopDistance float64) (stop func())
	Hold() (stop func())
}

// SelectGoal picks a goal for req, starts it on nav and returns a cleanup
// function that is safe to call more than once.
func SelectGoal(req GoalRequest, nav Navigator) (Goal, func()) {
	stopDistance := req.StopDistance
	if stopDistance <= 0 {
		stopDistance = DefaultStopDistance
	}

	var (
		goal Goal
		stop func()
	)
	switch {
	case req.TargetPosition != nil:
		name := req.TargetName
		if name == "" {
			name = req.FallbackName
		}
		goal = Goal{Kind: GoalFollowPlayer, TargetName: name, StopDistance: stopDistance}
		stop = nav.Follow(req.TargetPosition, stopDistance)
	case req.Coordinates != nil:
		goal = Goal{Kind: GoalFollowCoordinates, Coordinates: *req.Coordinates, StopDistance: stopDistance}
		stop = nav.MoveTo(*req.Coordinates, stopDistance)
	default:
		goal = Goal{Kind: GoalHoldPosition}
		stop = nav.Hold()
	}

	var once sync.Once
	return goal, func() {
		once.Do(func() {
			if stop != nil {
				stop()
			}
		})
	}
}
