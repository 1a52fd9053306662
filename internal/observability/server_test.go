// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/bedrockbot/internal/monitor"
	"github.com/holomush/bedrockbot/pkg/errutil"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestServer_Metrics(t *testing.T) {
	s := NewServer("127.0.0.1:0", nil)
	s.Metrics().SessionStarted("direct")
	s.Metrics().ObserveEvent("spawn")

	code, body := get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "go_")
	assert.Contains(t, body, "process_")
	assert.Contains(t, body, `bedrockbot_sessions_total{result="ok",transport="direct"} 1`)
	assert.Contains(t, body, `bedrockbot_session_events_total{event="spawn"} 1`)
}

func TestServer_Readiness(t *testing.T) {
	var live atomic.Bool
	s := NewServer("127.0.0.1:0", live.Load)

	code, body := get(t, s.Handler(), "/healthz/readiness")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready\n", body)

	live.Store(true)
	code, _ = get(t, s.Handler(), "/healthz/readiness")
	assert.Equal(t, http.StatusOK, code)

	code, body = get(t, s.Handler(), "/healthz/liveness")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", body)
}

func TestServer_StartStop(t *testing.T) {
	s := NewServer("127.0.0.1:0", nil)
	errCh, err := s.Start()
	require.NoError(t, err)
	require.NotEmpty(t, s.Addr())

	_, err = s.Start()
	errutil.AssertErrorCode(t, err, "OBSERVABILITY_ALREADY_RUNNING")

	resp, err := http.Get("http://" + s.Addr() + "/healthz/liveness")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx), "stop is idempotent")

	_, open := <-errCh
	assert.False(t, open, "error channel closes on graceful stop")
}

func TestServer_StartListenFailure(t *testing.T) {
	s := NewServer("256.0.0.1:0", nil)
	_, err := s.Start()
	errutil.AssertErrorCode(t, err, "OBSERVABILITY_LISTEN_FAILED")
}

func TestMetrics_Session(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SessionStarted("nethernet")
	assert.InDelta(t, 1, testutil.ToFloat64(m.SessionUp), 0)
	m.SessionEnded()
	assert.InDelta(t, 0, testutil.ToFloat64(m.SessionUp), 0)

	m.SessionFailed("direct", "SESSION_PING_FAILED")
	assert.InDelta(t, 1, testutil.ToFloat64(m.SessionsTotal.WithLabelValues("direct", "SESSION_PING_FAILED")), 0)

	m.Reconnect()
	m.Reconnect()
	assert.InDelta(t, 2, testutil.ToFloat64(m.ReconnectsTotal), 0)
}

func TestMetrics_Heartbeat(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	d := 12.5
	m.ObserveHeartbeat(monitor.HeartbeatSnapshot{Players: 3, DistanceToTarget: &d})
	assert.InDelta(t, 3, testutil.ToFloat64(m.Players), 0)
	assert.InDelta(t, 12.5, testutil.ToFloat64(m.DistanceToTarget), 0)

	m.ObserveFollowFailure()
	assert.InDelta(t, 1, testutil.ToFloat64(m.FollowFailures), 0)
}

func TestRecordDiscoveryDrop(t *testing.T) {
	before := testutil.ToFloat64(discoveryDrops.WithLabelValues("checksum"))
	RecordDiscoveryDrop("checksum")
	assert.InDelta(t, before+1, testutil.ToFloat64(discoveryDrops.WithLabelValues("checksum")), 0)
}

func TestNewMetrics_SharedDropCounter(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
}
