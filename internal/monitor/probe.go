// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package monitor

import (
	"sync"
	"time"
)

// Defaults for ProbeConfig.
const (
	DefaultSettleDelay = 2 * time.Second
	DefaultMaxWait     = 10 * time.Second
)

// SettleReason says why a PlayerListProbe completed.
type SettleReason string

// Settle reasons.
const (
	SettleQuiesced SettleReason = "settled"
	SettleMaxWait  SettleReason = "max_wait"
	SettleForced   SettleReason = "forced"
)

// ProbeConfig configures a PlayerListProbe.
type ProbeConfig struct {
	Enabled     bool
	SettleDelay time.Duration
	MaxWait     time.Duration
}

// PlayerListProbe fires once the player-list stream goes quiet for
// SettleDelay, and no later than MaxWait after Start regardless of churn.
type PlayerListProbe struct {
	cfg       ProbeConfig
	sched     Scheduler
	onSettled func(SettleReason)

	mu        sync.Mutex
	armed     bool
	gen       uint64
	settleSeq uint64
	maxWait   Timer
	settle    Timer
}

// NewPlayerListProbe returns a disarmed probe.
func NewPlayerListProbe(cfg ProbeConfig, sched Scheduler, onSettled func(SettleReason)) *PlayerListProbe {
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultMaxWait
	}
	if sched == nil {
		sched = SystemScheduler{}
	}
	if onSettled == nil {
		onSettled = func(SettleReason) {}
	}
	return &PlayerListProbe{cfg: cfg, sched: sched, onSettled: onSettled}
}

// Start arms the max-wait timer. It is a no-op when the probe is disabled
// or already armed.
func (p *PlayerListProbe) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.cfg.Enabled || p.armed {
		return
	}
	p.armed = true
	p.gen++
	gen := p.gen
	p.maxWait = p.sched.AfterFunc(p.cfg.MaxWait, func() {
		p.fire(gen, 0, SettleMaxWait)
	})
}

// NotePlayersObserved restarts the settle timer. The max-wait timer is
// unaffected.
func (p *PlayerListProbe) NotePlayersObserved() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.armed {
		return
	}
	if p.settle != nil {
		p.settle.Stop()
	}
	p.settleSeq++
	gen, seq := p.gen, p.settleSeq
	p.settle = p.sched.AfterFunc(p.cfg.SettleDelay, func() {
		p.fire(gen, seq, SettleQuiesced)
	})
}

// CompleteNow fires the callback immediately if armed.
func (p *PlayerListProbe) CompleteNow() {
	p.mu.Lock()
	gen := p.gen
	p.mu.Unlock()
	p.fire(gen, 0, SettleForced)
}

// Clear disarms the probe without firing. Safe in any state.
func (p *PlayerListProbe) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disarmLocked()
}

// Armed reports whether the probe is waiting to fire.
func (p *PlayerListProbe) Armed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.armed
}

// fire completes the cycle gen. seq is non-zero for settle timers, which
// only count if no later observation replaced them.
func (p *PlayerListProbe) fire(gen, seq uint64, reason SettleReason) {
	p.mu.Lock()
	if !p.armed || gen != p.gen || (seq != 0 && seq != p.settleSeq) {
		p.mu.Unlock()
		return
	}
	p.disarmLocked()
	p.mu.Unlock()

	p.onSettled(reason)
}

func (p *PlayerListProbe) disarmLocked() {
	if p.maxWait != nil {
		p.maxWait.Stop()
		p.maxWait = nil
	}
	if p.settle != nil {
		p.settle.Stop()
		p.settle = nil
	}
	p.armed = false
	p.gen++
}
