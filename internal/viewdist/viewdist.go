// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package viewdist picks a default chunk view distance from host memory.
package viewdist

import (
	"context"

	"github.com/samber/oops"
	"github.com/shirou/gopsutil/v4/mem"
)

const gib = 1 << 30

// breakpoints map inclusive memory ceilings to radii.
var breakpoints = []struct {
	ceiling uint64
	radius  int
}{
	{4 * gib, 8},
	{8 * gib, 10},
	{12 * gib, 12},
	{16 * gib, 14},
}

// MaxRadius is used above the last breakpoint.
const MaxRadius = 16

// RadiusForMemory returns the view distance for totalBytes of memory.
func RadiusForMemory(totalBytes uint64) int {
	for _, b := range breakpoints {
		if totalBytes <= b.ceiling {
			return b.radius
		}
	}
	return MaxRadius
}

// MemoryFunc reports total system memory in bytes.
type MemoryFunc func(ctx context.Context) (uint64, error)

// SystemMemory reads total memory with gopsutil.
func SystemMemory(ctx context.Context) (uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, oops.Code("VIEWDIST_MEMORY_PROBE_FAILED").Wrap(err)
	}
	return vm.Total, nil
}

// Recommended returns the radius for this host. When memory cannot be read
// it returns fallback along with the error.
func Recommended(ctx context.Context, probe MemoryFunc, fallback int) (int, error) {
	if probe == nil {
		probe = SystemMemory
	}
	total, err := probe(ctx)
	if err != nil {
		return fallback, err
	}
	return RadiusForMemory(total), nil
}
