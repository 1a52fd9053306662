// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package game holds the value types and inbound events shared between the
// session transports and the runtime monitors.
package game

import (
	"fmt"
	"math"
)

// Vec3 is a position in world space.
type Vec3 struct {
	X, Y, Z float64
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// HorizontalDistance is the distance between v and o ignoring Y.
func (v Vec3) HorizontalDistance(o Vec3) float64 {
	d := v.Sub(o)
	return math.Hypot(d.X, d.Z)
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}

// BlockPos is an integer block coordinate.
type BlockPos struct {
	X, Y, Z int32
}

// Dimension identifies a world dimension.
type Dimension int32

// Known dimensions.
const (
	DimensionOverworld Dimension = 0
	DimensionNether    Dimension = 1
	DimensionEnd       Dimension = 2
)

func (d Dimension) String() string {
	switch d {
	case DimensionOverworld:
		return "overworld"
	case DimensionNether:
		return "nether"
	case DimensionEnd:
		return "end"
	default:
		return fmt.Sprintf("dimension(%d)", int32(d))
	}
}

// GameRule is a named world rule and its value.
type GameRule struct {
	Name  string
	Value any
}
