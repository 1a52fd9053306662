// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package bot drives the runtime monitors for the lifetime of one session.
package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/bedrockbot/internal/game"
	"github.com/holomush/bedrockbot/internal/monitor"
	"github.com/holomush/bedrockbot/internal/session"
)

var tracer = otel.Tracer("bedrockbot/bot")

// Defaults for Config.
const (
	DefaultTickInterval      = time.Second
	DefaultHeartbeatInterval = 30 * time.Second
)

// Config configures a Bot.
type Config struct {
	// FollowPlayer is the username to follow. Empty disables following.
	FollowPlayer string
	// FollowCoordinates is used when FollowPlayer is empty.
	FollowCoordinates *game.Vec3
	StopDistance      float64
	FollowThreshold   time.Duration

	PlayerList monitor.ProbeConfig

	TickInterval      time.Duration
	HeartbeatInterval time.Duration
}

// Recorder receives runtime observations. *observability.Metrics
// satisfies it.
type Recorder interface {
	ObserveEvent(name string)
	ObserveHeartbeat(s monitor.HeartbeatSnapshot)
	ObserveFollowFailure()
}

type nopRecorder struct{}

func (nopRecorder) ObserveEvent(string)                        {}
func (nopRecorder) ObserveHeartbeat(monitor.HeartbeatSnapshot) {}
func (nopRecorder) ObserveFollowFailure()                      {}

// holdNavigator stands still. Stepping belongs to an external navigator.
type holdNavigator struct{}

func (holdNavigator) Follow(monitor.PositionFunc, float64) func() { return func() {} }
func (holdNavigator) MoveTo(game.Vec3, float64) func()            { return func() {} }
func (holdNavigator) Hold() func()                                { return func() {} }

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bot) { b.logger = l }
}

// WithNavigator sets the navigator that moves the bot.
func WithNavigator(n monitor.Navigator) Option {
	return func(b *Bot) { b.nav = n }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(b *Bot) { b.rec = r }
}

// WithScheduler sets the scheduler for the player-list probe.
func WithScheduler(s monitor.Scheduler) Option {
	return func(b *Bot) { b.sched = s }
}

// WithClock sets the time source for ticks and uptime.
func WithClock(now func() time.Time) Option {
	return func(b *Bot) { b.now = now }
}

// Bot attaches monitors to sessions.
type Bot struct {
	cfg    Config
	logger *slog.Logger
	nav    monitor.Navigator
	rec    Recorder
	sched  monitor.Scheduler
	now    func() time.Time
}

// New returns a Bot.
func New(cfg Config, opts ...Option) *Bot {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	b := &Bot{
		cfg:    cfg,
		logger: slog.Default(),
		nav:    holdNavigator{},
		rec:    nopRecorder{},
		sched:  monitor.SystemScheduler{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Result describes how a session ended.
type Result struct {
	RunID  ulid.ULID
	Reason string
	Uptime time.Duration
}

// Run consumes client's events until the session ends or ctx is done. On
// ctx cancellation the client is disconnected and ctx.Err() returned.
func (b *Bot) Run(ctx context.Context, client session.LiveClient) (Result, error) {
	runID := ulid.Make()
	ctx, span := tracer.Start(ctx, "bot.run", trace.WithAttributes(
		attribute.String("run_id", runID.String()),
	))
	defer span.End()

	logger := b.logger.With("run_id", runID.String())
	r := newRun(b, logger)
	started := b.now()
	result := func(reason string) Result {
		return Result{RunID: runID, Reason: reason, Uptime: b.now().Sub(started)}
	}

	_, stopGoal := r.selectGoal()
	defer stopGoal()
	defer r.probe.Clear()

	tick := time.NewTicker(b.cfg.TickInterval)
	defer tick.Stop()
	heartbeat := time.NewTicker(b.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	events := client.Events()
	for {
		select {
		case <-ctx.Done():
			if err := client.Disconnect("shutdown"); err != nil {
				logger.Debug("disconnect failed", "error", err)
			}
			return result("shutdown"), ctx.Err()

		case e, ok := <-events:
			if !ok {
				return result("stream closed"), nil
			}
			if d, end := e.(game.Disconnected); end {
				r.rec.ObserveEvent(game.EventName(e))
				logger.Info("disconnected", "reason", d.Reason)
				span.SetAttributes(attribute.String("disconnect_reason", d.Reason))
				return result(d.Reason), nil
			}
			r.handle(e)

		case <-tick.C:
			r.tick(b.now())

		case <-heartbeat.C:
			r.heartbeat(b.now().Sub(started))
		}
	}
}

// run is the per-session state. Event handling happens on the Run
// goroutine; mu guards what the probe and navigator read from other
// goroutines.
type run struct {
	cfg    Config
	logger *slog.Logger
	nav    monitor.Navigator
	rec    Recorder

	probe    *monitor.PlayerListProbe
	watchdog *monitor.FollowWatchdog
	chunks   *monitor.ChunkPublisherLogger

	mu        sync.Mutex
	selfID    uint64
	self      game.Vec3
	spawned   bool
	players   map[string]game.Player
	positions map[string]game.Vec3
	eventsIn  uint64
	goal      monitor.Goal
}

func newRun(b *Bot, logger *slog.Logger) *run {
	r := &run{
		cfg:       b.cfg,
		logger:    logger,
		nav:       b.nav,
		rec:       b.rec,
		chunks:    monitor.NewChunkPublisherLogger(logger),
		players:   make(map[string]game.Player),
		positions: make(map[string]game.Vec3),
	}
	r.probe = monitor.NewPlayerListProbe(b.cfg.PlayerList, b.sched, func(reason monitor.SettleReason) {
		logger.Info("player list settled", "reason", string(reason), "players", r.playerCount())
	})
	r.watchdog = monitor.NewFollowWatchdog(b.cfg.FollowThreshold,
		func(missing time.Duration) {
			logger.Info("waiting for follow target", "target", b.cfg.FollowPlayer, "missing_for", missing)
		},
		func(missing time.Duration) {
			logger.Error("follow target not found", "target", b.cfg.FollowPlayer, "missing_for", missing)
			r.rec.ObserveFollowFailure()
		},
	)
	return r
}

func (r *run) selectGoal() (monitor.Goal, func()) {
	req := monitor.GoalRequest{
		Coordinates:  r.cfg.FollowCoordinates,
		StopDistance: r.cfg.StopDistance,
		FallbackName: "owner",
	}
	if r.cfg.FollowPlayer != "" {
		req.TargetName = r.cfg.FollowPlayer
		req.TargetPosition = r.targetPosition
	}
	goal, stop := monitor.SelectGoal(req, r.nav)

	r.mu.Lock()
	r.goal = goal
	r.mu.Unlock()

	attrs := []any{"goal", string(goal.Kind)}
	if goal.TargetName != "" {
		attrs = append(attrs, "target", goal.TargetName)
	}
	if goal.Kind == monitor.GoalFollowCoordinates {
		attrs = append(attrs, "coordinates", goal.Coordinates.String())
	}
	r.logger.Info("movement goal selected", attrs...)
	return goal, stop
}

func (r *run) targetPosition() (game.Vec3, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos, ok := r.positions[r.cfg.FollowPlayer]
	return pos, ok
}

func (r *run) playerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

func (r *run) handle(e game.Event) {
	defer r.rec.ObserveEvent(game.EventName(e))

	r.mu.Lock()
	r.eventsIn++
	r.mu.Unlock()

	switch e := e.(type) {
	case game.SpawnContext:
		r.mu.Lock()
		r.selfID, r.self, r.spawned = e.RuntimeEntityID, e.Position, true
		r.mu.Unlock()
		r.logger.LogAttrs(context.Background(), slog.LevelInfo, "spawned", monitor.SpawnFields(e)...)
		r.probe.Start()

	case game.ChunkPublisherUpdate:
		r.chunks.Log(e)

	case game.PlayerListUpdate:
		r.mu.Lock()
		for _, p := range e.Players {
			if e.Removed {
				delete(r.players, p.UUID)
				delete(r.positions, p.Username)
			} else {
				r.players[p.UUID] = p
			}
		}
		r.mu.Unlock()
		r.probe.NotePlayersObserved()

	case game.EntityPosition:
		r.mu.Lock()
		switch {
		case r.spawned && e.RuntimeEntityID == r.selfID:
			r.self = e.Position
		case e.Username != "":
			r.positions[e.Username] = e.Position
		}
		r.mu.Unlock()
	}
}

func (r *run) tick(now time.Time) {
	if r.cfg.FollowPlayer == "" {
		return
	}
	_, ok := r.targetPosition()
	r.watchdog.Tick(now, ok)
}

func (r *run) heartbeat(uptime time.Duration) {
	r.mu.Lock()
	in := monitor.HeartbeatInput{
		Goal:        r.goal,
		Position:    r.self,
		HasPosition: r.spawned,
		Players:     len(r.players),
		EventsIn:    r.eventsIn,
		Uptime:      uptime,
		Follow:      r.watchdog.State(),
	}
	r.mu.Unlock()

	s := monitor.ProjectHeartbeat(in)
	r.rec.ObserveHeartbeat(s)
	r.logger.LogAttrs(context.Background(), slog.LevelInfo, "heartbeat", s.Attrs()...)
}
