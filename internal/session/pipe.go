// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/bedrockbot/internal/game"
)

// Pipe is an in-memory LiveClient. Events pushed with Emit are delivered on
// Events; packets written are recorded.
type Pipe struct {
	mu      sync.Mutex
	events  chan game.Event
	written []Packet
	queued  []Packet
	closed  bool
}

// NewPipe returns a Pipe buffering up to buffer events.
func NewPipe(buffer int) *Pipe {
	return &Pipe{events: make(chan game.Event, buffer)}
}

// Emit delivers e. It reports false once the pipe is closed.
func (p *Pipe) Emit(e game.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.events <- e
	return true
}

// Write records pk.
func (p *Pipe) Write(pk Packet) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errClosed()
	}
	p.written = append(p.written, pk)
	return nil
}

// Queue records pk.
func (p *Pipe) Queue(pk Packet) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errClosed()
	}
	p.queued = append(p.queued, pk)
	return nil
}

// Disconnect delivers a final game.Disconnected event and closes the
// stream. Further calls are no-ops.
func (p *Pipe) Disconnect(reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	select {
	case p.events <- game.Disconnected{Reason: reason}:
	default:
	}
	close(p.events)
	return nil
}

// Events implements LiveClient.
func (p *Pipe) Events() <-chan game.Event {
	return p.events
}

// Written returns the packets passed to Write.
func (p *Pipe) Written() []Packet {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Packet(nil), p.written...)
}

// Queued returns the packets passed to Queue.
func (p *Pipe) Queued() []Packet {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Packet(nil), p.queued...)
}

func errClosed() error {
	return oops.Code("SESSION_CLOSED").Errorf("session is closed")
}
