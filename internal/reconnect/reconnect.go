// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package reconnect computes reconnect delays.
//
// Delay is pure; the attempt counter belongs to the caller. Policy.Backoff
// adapts it to github.com/sethvargo/go-retry for callers that drive their
// reconnect loop with retry.Do.
package reconnect

import (
	"math"
	"math/bits"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// Defaults for Policy.
const (
	DefaultBaseDelay   = time.Second
	DefaultMaxDelay    = 30 * time.Second
	DefaultJitterRatio = 0.2
)

// Delay returns the delay in milliseconds before reconnect attempt.
//
// The base delay doubles per attempt and is capped at maxDelayMs. Jitter of
// floor(capped * jitterRatio * random()) is added on top. Negative attempts
// and negative jitter ratios clamp to zero; random must return a value in
// [0, 1).
func Delay(attempt int, baseDelayMs, maxDelayMs int64, jitterRatio float64, random func() float64) int64 {
	if attempt < 0 {
		attempt = 0
	}
	if baseDelayMs < 0 {
		baseDelayMs = 0
	}
	if maxDelayMs < 0 {
		maxDelayMs = 0
	}

	capped := maxDelayMs
	// base << attempt overflows once the shift passes the free high bits.
	if baseDelayMs == 0 {
		capped = 0
	} else if attempt < bits.LeadingZeros64(uint64(baseDelayMs))-1 {
		if d := baseDelayMs << attempt; d < maxDelayMs {
			capped = d
		}
	}

	if jitterRatio <= 0 || random == nil {
		return capped
	}
	jitter := math.Floor(float64(capped) * jitterRatio * random())
	if jitter <= 0 {
		return capped
	}
	if jitter >= float64(math.MaxInt64-capped) {
		return math.MaxInt64
	}
	return capped + int64(jitter)
}

// Policy is a reconnect configuration.
type Policy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	JitterRatio float64
	// MaxAttempts bounds retries. Zero means unlimited.
	MaxAttempts uint64
	// Random defaults to math/rand/v2.Float64.
	Random func() float64
}

// DefaultPolicy returns a Policy using the package defaults.
func DefaultPolicy() Policy {
	return Policy{
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		JitterRatio: DefaultJitterRatio,
	}
}

// Delay returns the delay before attempt.
func (p Policy) Delay(attempt int) time.Duration {
	random := p.Random
	if random == nil {
		random = rand.Float64
	}
	ms := Delay(attempt, p.BaseDelay.Milliseconds(), p.MaxDelay.Milliseconds(), p.JitterRatio, random)
	if ms > math.MaxInt64/int64(time.Millisecond) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ms) * time.Millisecond
}

// Backoff is a retry.Backoff over a Policy. It counts attempts so Delay can
// stay stateless.
type Backoff struct {
	policy Policy

	mu      sync.Mutex
	attempt int
}

var _ retry.Backoff = (*Backoff)(nil)

// Backoff returns a fresh go-retry backoff for p.
func (p Policy) Backoff() *Backoff {
	return &Backoff{policy: p}
}

// Next implements retry.Backoff.
func (b *Backoff) Next() (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.policy.MaxAttempts > 0 && uint64(b.attempt) >= b.policy.MaxAttempts {
		return 0, true
	}
	d := b.policy.Delay(b.attempt)
	b.attempt++
	return d, false
}

// Attempt returns the number of delays handed out since the last Reset.
func (b *Backoff) Attempt() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempt
}

// Reset starts counting from attempt zero, typically after a session
// stayed up.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempt = 0
}
