// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/bedrockbot/internal/monitor"
)

// discoveryDrops counts discarded discovery datagrams. It is package level
// so the discover command can record drops without a Server.
var discoveryDrops = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bedrockbot_discovery_dropped_total",
		Help: "Discovery datagrams dropped by reason",
	},
	[]string{"reason"},
)

// RecordDiscoveryDrop increments the discovery drop counter. It matches
// discovery.DropFunc.
func RecordDiscoveryDrop(reason string) {
	discoveryDrops.WithLabelValues(reason).Inc()
}

// Metrics holds bedrockbot's custom metrics.
type Metrics struct {
	SessionsTotal    *prometheus.CounterVec
	ReconnectsTotal  prometheus.Counter
	EventsTotal      *prometheus.CounterVec
	FollowFailures   prometheus.Counter
	SessionUp        prometheus.Gauge
	Players          prometheus.Gauge
	DistanceToTarget prometheus.Gauge
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bedrockbot_sessions_total",
				Help: "Session attempts by transport and result",
			},
			[]string{"transport", "result"},
		),
		ReconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bedrockbot_reconnects_total",
			Help: "Reconnect attempts scheduled",
		}),
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bedrockbot_session_events_total",
				Help: "Inbound session events by type",
			},
			[]string{"event"},
		),
		FollowFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bedrockbot_follow_target_failures_total",
			Help: "Times the follow target stayed missing past the threshold",
		}),
		SessionUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bedrockbot_session_up",
			Help: "1 while a session is live",
		}),
		Players: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bedrockbot_players",
			Help: "Players in the last heartbeat",
		}),
		DistanceToTarget: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bedrockbot_distance_to_target_blocks",
			Help: "Horizontal distance to the follow coordinates in the last heartbeat",
		}),
	}

	reg.MustRegister(
		m.SessionsTotal,
		m.ReconnectsTotal,
		m.EventsTotal,
		m.FollowFailures,
		m.SessionUp,
		m.Players,
		m.DistanceToTarget,
		discoveryDrops,
	)
	return m
}

// SessionStarted records a session that came up.
func (m *Metrics) SessionStarted(transport string) {
	m.SessionsTotal.WithLabelValues(transport, "ok").Inc()
	m.SessionUp.Set(1)
}

// SessionFailed records a session attempt that failed with code.
func (m *Metrics) SessionFailed(transport, code string) {
	m.SessionsTotal.WithLabelValues(transport, code).Inc()
}

// SessionEnded marks the session down.
func (m *Metrics) SessionEnded() {
	m.SessionUp.Set(0)
}

// Reconnect records a scheduled reconnect.
func (m *Metrics) Reconnect() {
	m.ReconnectsTotal.Inc()
}

// ObserveEvent counts an inbound event.
func (m *Metrics) ObserveEvent(name string) {
	m.EventsTotal.WithLabelValues(name).Inc()
}

// ObserveHeartbeat updates gauges from a heartbeat.
func (m *Metrics) ObserveHeartbeat(s monitor.HeartbeatSnapshot) {
	m.Players.Set(float64(s.Players))
	if s.DistanceToTarget != nil {
		m.DistanceToTarget.Set(*s.DistanceToTarget)
	}
}

// ObserveFollowFailure counts a follow watchdog failure.
func (m *Metrics) ObserveFollowFailure() {
	m.FollowFailures.Inc()
}
