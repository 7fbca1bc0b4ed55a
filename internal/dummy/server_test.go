package dummy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chaosdash/internal/api"
	"chaosdash/internal/chaos"
	"chaosdash/internal/session"
	"chaosdash/internal/telemetry"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server, *api.Client) {
	t.Helper()
	s := NewServer(ServerConfig{Seed: 1})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	c, err := api.NewClient(api.Options{BaseURL: ts.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return s, ts, c
}

func TestServer_StartStopLifecycle(t *testing.T) {
	s, _, c := newTestServer(t)
	ctx := context.Background()

	req := session.Request{TargetURL: "http://target", Users: 20, SpawnRate: 5}
	require.NoError(t, c.StartSession(ctx, req))
	got, running := s.Running()
	require.True(t, running)
	assert.Equal(t, req, got)

	err := c.StartSession(ctx, req)
	var se *api.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusConflict, se.Code)
	assert.Contains(t, se.Body, "already running")

	require.NoError(t, c.StopSession(ctx))
	_, running = s.Running()
	assert.False(t, running)

	err = c.StopSession(ctx)
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusConflict, se.Code)
}

func TestServer_RejectsBadStart(t *testing.T) {
	_, _, c := newTestServer(t)
	err := c.StartSession(context.Background(), session.Request{TargetURL: "http://x", Users: 0, SpawnRate: 1})

	var se *api.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnprocessableEntity, se.Code)
}

func TestServer_StoresChaosConfig(t *testing.T) {
	s, _, c := newTestServer(t)
	cfg := chaos.DefaultConfig().With(chaos.Latency, 250).With(chaos.Slowdown, 2.5)

	require.NoError(t, c.UpdateChaos(context.Background(), cfg))
	assert.Equal(t, cfg, s.Chaos())
	assert.Equal(t, 1, s.ChaosUpdates())

	bad := cfg
	bad.PacketLossPercent = 150
	assert.Error(t, c.UpdateChaos(context.Background(), bad))
	assert.Equal(t, cfg, s.Chaos(), "invalid config is not applied")
}

func TestServer_ChaosMissingFieldsTakeDefaults(t *testing.T) {
	s, ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+api.PathChaos, "application/json", strings.NewReader(`{"latency_ms": 200}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, chaos.Config{LatencyMs: 200, SlowdownMultiplier: 1}, s.Chaos())

	resp, err = http.Post(ts.URL+api.PathChaos, "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, chaos.DefaultConfig(), s.Chaos())
}

func TestServer_SynthesizeRampsUsers(t *testing.T) {
	s, _, c := newTestServer(t)
	now := time.Now()

	idle := s.Synthesize(now)
	assert.Equal(t, telemetry.Snapshot{Timestamp: now}, idle)

	require.NoError(t, c.StartSession(context.Background(), session.Request{TargetURL: "http://x", Users: 5, SpawnRate: 2}))

	var users []int
	for i := 0; i < 4; i++ {
		users = append(users, s.Synthesize(now).ActiveUsers)
	}
	assert.Equal(t, []int{2, 4, 5, 5}, users)
}

func TestServer_SynthesizeReactsToChaos(t *testing.T) {
	s, _, c := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, c.StartSession(ctx, session.Request{TargetURL: "http://x", Users: 10, SpawnRate: 10}))

	calm := s.Synthesize(time.Now())
	assert.Zero(t, calm.FailureRate)
	assert.InDelta(t, 40, calm.AvgLatencyMs, 0.01)

	cfg := chaos.DefaultConfig().With(chaos.Latency, 500).With(chaos.PacketLoss, 50)
	require.NoError(t, c.UpdateChaos(ctx, cfg))

	rough := s.Synthesize(time.Now())
	assert.InDelta(t, 540, rough.AvgLatencyMs, 0.01)
	assert.Greater(t, rough.FailureRate, 0.0)
	assert.Less(t, rough.RPS, calm.RPS)
}

func TestServer_StatsRelayReachesTelemetryChannel(t *testing.T) {
	s, ts, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := telemetry.NewChannel(telemetry.Options{URL: "ws" + strings.TrimPrefix(ts.URL, "http") + api.PathTelemetry})
	go ch.Run(ctx)

	select {
	case ev := <-ch.Events():
		require.IsType(t, telemetry.Connected{}, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("no connection")
	}
	require.Eventually(t, func() bool { return s.Hub().ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(ts.URL+api.PathStats, "application/json",
		strings.NewReader(`{"total_rps": 12.5, "total_failures": 0.5, "avg_response_time": 80, "user_count": 3}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case ev := <-ch.Events():
		got, ok := ev.(telemetry.SnapshotReceived)
		require.True(t, ok, "got %T", ev)
		assert.Equal(t, 12.5, got.Snapshot.RPS)
		assert.Equal(t, 3, got.Snapshot.ActiveUsers)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot")
	}
}

func TestServer_StatsRejectsMalformed(t *testing.T) {
	_, ts, _ := newTestServer(t)
	resp, err := http.Post(ts.URL+api.PathStats, "application/json", strings.NewReader(`{"total_rps": 1}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_RunBroadcastsOnInterval(t *testing.T) {
	s := NewServer(ServerConfig{Interval: 20 * time.Millisecond, Seed: 1})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	ch := telemetry.NewChannel(telemetry.Options{URL: "ws" + strings.TrimPrefix(ts.URL, "http") + api.PathTelemetry})
	go ch.Run(ctx)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch.Events():
			if snap, ok := ev.(telemetry.SnapshotReceived); ok {
				assert.Zero(t, snap.Snapshot.ActiveUsers, "idle server reports no users")
				return
			}
		case <-deadline:
			t.Fatal("no synthetic snapshot")
		}
	}
}
