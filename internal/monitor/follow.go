// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package monitor

import (
	"sync"
	"time"
)

// DefaultFollowThreshold is how long a follow target may be missing before
// the watchdog reports failure.
const DefaultFollowThreshold = 30 * time.Second

// FollowState is a snapshot of a FollowWatchdog.
type FollowState struct {
	Missing       bool
	MissingSince  time.Time
	WaitingRaised bool
	FailureRaised bool
}

// FollowWatchdog tracks how long a follow target has been missing. It is
// level triggered and must be ticked every cycle, not only on change.
type FollowWatchdog struct {
	threshold time.Duration
	onWaiting func(missingFor time.Duration)
	onFailure func(missingFor time.Duration)

	mu    sync.Mutex
	state FollowState
}

// NewFollowWatchdog returns a watchdog. A non-positive threshold uses
// DefaultFollowThreshold; nil callbacks are ignored.
func NewFollowWatchdog(threshold time.Duration, onWaiting, onFailure func(time.Duration)) *FollowWatchdog {
	if threshold <= 0 {
		threshold = DefaultFollowThreshold
	}
	if onWaiting == nil {
		onWaiting = func(time.Duration) {}
	}
	if onFailure == nil {
		onFailure = func(time.Duration) {}
	}
	return &FollowWatchdog{threshold: threshold, onWaiting: onWaiting, onFailure: onFailure}
}

// Threshold returns the failure threshold.
func (w *FollowWatchdog) Threshold() time.Duration {
	return w.threshold
}

// Tick records whether the target is currently visible.
func (w *FollowWatchdog) Tick(now time.Time, hasTarget bool) {
	w.mu.Lock()
	if hasTarget {
		w.state = FollowState{}
		w.mu.Unlock()
		return
	}

	if !w.state.Missing {
		w.state.Missing = true
		w.state.MissingSince = now
	}
	elapsed := now.Sub(w.state.MissingSince)

	raiseWaiting := !w.state.WaitingRaised
	w.state.WaitingRaised = true
	raiseFailure := !w.state.FailureRaised && elapsed >= w.threshold
	if raiseFailure {
		w.state.FailureRaised = true
	}
	w.mu.Unlock()

	if raiseWaiting {
		w.onWaiting(elapsed)
	}
	if raiseFailure {
		w.onFailure(elapsed)
	}
}

// Reset forgets any missing period.
func (w *FollowWatchdog) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = FollowState{}
}

// State returns a snapshot.
func (w *FollowWatchdog) State() FollowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}
