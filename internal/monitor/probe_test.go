// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package monitor_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/holomush/bedrockbot/internal/monitor"
)

type settleRecorder struct {
	mu      sync.Mutex
	reasons []monitor.SettleReason
}

func (r *settleRecorder) record(reason monitor.SettleReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

func (r *settleRecorder) get() []monitor.SettleReason {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]monitor.SettleReason(nil), r.reasons...)
}

func newProbe() (*monitor.PlayerListProbe, *monitor.ManualScheduler, *settleRecorder) {
	sched := monitor.NewManualScheduler()
	rec := &settleRecorder{}
	p := monitor.NewPlayerListProbe(monitor.ProbeConfig{
		Enabled:     true,
		SettleDelay: time.Second,
		MaxWait:     5 * time.Second,
	}, sched, rec.record)
	return p, sched, rec
}

func TestPlayerListProbe_SettlesAfterQuiet(t *testing.T) {
	p, sched, rec := newProbe()
	p.Start()

	p.NotePlayersObserved()
	sched.Advance(900 * time.Millisecond)
	p.NotePlayersObserved()
	sched.Advance(900 * time.Millisecond)
	assert.Empty(t, rec.get(), "observations keep delaying completion")

	sched.Advance(200 * time.Millisecond)
	assert.Equal(t, []monitor.SettleReason{monitor.SettleQuiesced}, rec.get())
	assert.False(t, p.Armed())
	assert.Zero(t, sched.Pending(), "both timers cleared")
}

func TestPlayerListProbe_MaxWaitWithoutObservations(t *testing.T) {
	p, sched, rec := newProbe()
	p.Start()

	sched.Advance(10 * time.Second)
	assert.Equal(t, []monitor.SettleReason{monitor.SettleMaxWait}, rec.get())
}

func TestPlayerListProbe_MaxWaitBoundsChurn(t *testing.T) {
	p, sched, rec := newProbe()
	p.Start()

	for range 20 {
		p.NotePlayersObserved()
		sched.Advance(500 * time.Millisecond)
	}
	assert.Equal(t, []monitor.SettleReason{monitor.SettleMaxWait}, rec.get())
}

func TestPlayerListProbe_StartIsIdempotent(t *testing.T) {
	p, sched, rec := newProbe()
	p.Start()
	sched.Advance(3 * time.Second)
	p.Start()
	sched.Advance(2 * time.Second)
	assert.Equal(t, []monitor.SettleReason{monitor.SettleMaxWait}, rec.get(), "second Start did not re-arm max wait")
}

func TestPlayerListProbe_Disabled(t *testing.T) {
	sched := monitor.NewManualScheduler()
	rec := &settleRecorder{}
	p := monitor.NewPlayerListProbe(monitor.ProbeConfig{}, sched, rec.record)

	p.Start()
	p.NotePlayersObserved()
	sched.Advance(time.Minute)
	assert.Empty(t, rec.get())
	assert.Zero(t, sched.Pending())
}

func TestPlayerListProbe_CompleteNowAndClear(t *testing.T) {
	t.Run("complete now fires once", func(t *testing.T) {
		p, sched, rec := newProbe()
		p.Start()
		p.CompleteNow()
		p.CompleteNow()
		sched.Advance(time.Minute)
		assert.Equal(t, []monitor.SettleReason{monitor.SettleForced}, rec.get())
	})

	t.Run("clear suppresses callback", func(t *testing.T) {
		p, sched, rec := newProbe()
		p.Start()
		p.NotePlayersObserved()
		p.Clear()
		p.Clear()
		sched.Advance(time.Minute)
		assert.Empty(t, rec.get())
	})

	t.Run("clear before start", func(t *testing.T) {
		p, _, rec := newProbe()
		p.Clear()
		p.CompleteNow()
		assert.Empty(t, rec.get())
	})

	t.Run("rearm after completion", func(t *testing.T) {
		p, sched, rec := newProbe()
		p.Start()
		p.CompleteNow()
		p.Start()
		sched.Advance(5 * time.Second)
		assert.Equal(t, []monitor.SettleReason{monitor.SettleForced, monitor.SettleMaxWait}, rec.get())
	})
}

func TestPlayerListProbe_SystemScheduler(t *testing.T) {
	defer goleak.VerifyNone(t)

	done := make(chan monitor.SettleReason, 2)
	p := monitor.NewPlayerListProbe(monitor.ProbeConfig{
		Enabled:     true,
		SettleDelay: 10 * time.Millisecond,
		MaxWait:     time.Second,
	}, monitor.SystemScheduler{}, func(r monitor.SettleReason) { done <- r })

	p.Start()
	p.NotePlayersObserved()

	select {
	case r := <-done:
		assert.Equal(t, monitor.SettleQuiesced, r)
	case <-time.After(2 * time.Second):
		require.Fail(t, "probe did not settle")
	}
	assert.False(t, p.Armed())
}
