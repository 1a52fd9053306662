// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package viewdist_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/bedrockbot/internal/viewdist"
)

const gib = uint64(1) << 30

func TestRadiusForMemory_Breakpoints(t *testing.T) {
	tests := []struct {
		total uint64
		want  int
	}{
		{0, 8},
		{2 * gib, 8},
		{4 * gib, 8},
		{4*gib + 1, 10},
		{8 * gib, 10},
		{12 * gib, 12},
		{16 * gib, 14},
		{16*gib + 1, 16},
		{32 * gib, 16},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, viewdist.RadiusForMemory(tt.total), "%d bytes", tt.total)
	}
}

func TestRadiusForMemory_Monotonic(t *testing.T) {
	prev := 0
	for total := uint64(0); total <= 40*gib; total += gib / 2 {
		r := viewdist.RadiusForMemory(total)
		assert.GreaterOrEqual(t, r, prev)
		prev = r
	}
}

func TestRecommended(t *testing.T) {
	t.Run("uses probe", func(t *testing.T) {
		got, err := viewdist.Recommended(context.Background(), func(context.Context) (uint64, error) {
			return 12 * gib, nil
		}, 10)
		require.NoError(t, err)
		assert.Equal(t, 12, got)
	})

	t.Run("falls back on error", func(t *testing.T) {
		got, err := viewdist.Recommended(context.Background(), func(context.Context) (uint64, error) {
			return 0, errors.New("no /proc")
		}, 10)
		assert.Error(t, err)
		assert.Equal(t, 10, got)
	})
}

func TestSystemMemory(t *testing.T) {
	total, err := viewdist.SystemMemory(context.Background())
	if err != nil {
		t.Skipf("memory probe unavailable: %v", err)
	}
	assert.Positive(t, total)
}
