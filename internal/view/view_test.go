package view

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chaosdash/internal/chaos"
	"chaosdash/internal/series"
	"chaosdash/internal/session"
	"chaosdash/internal/stats"
	"chaosdash/internal/telemetry"
)

var epoch = time.Date(2024, 1, 1, 14, 3, 9, 0, time.UTC)

func TestFormatStats(t *testing.T) {
	snap := &telemetry.Snapshot{RPS: 42.3, FailureRate: 1.2, AvgLatencyMs: 187, ActiveUsers: 10}
	assert.Equal(t, Stats{RPS: "42.3", Failures: "1.2", Latency: "187 ms", Users: "10"}, FormatStats(snap))
	assert.Equal(t, Stats{RPS: "0", Failures: "0", Latency: "0 ms", Users: "0"}, FormatStats(nil))
}

func TestFormatStats_Rounding(t *testing.T) {
	snap := &telemetry.Snapshot{RPS: 9.96, FailureRate: 0, AvgLatencyMs: 12.7, ActiveUsers: 0}
	got := FormatStats(snap)
	assert.Equal(t, "10.0", got.RPS)
	assert.Equal(t, "0.0", got.Failures)
	assert.Equal(t, "13 ms", got.Latency)
}

func TestStatusBadge(t *testing.T) {
	assert.Equal(t, Badge{Text: "Status: IDLE", Class: "idle"}, StatusBadge(session.Idle))
	assert.Equal(t, Badge{Text: "Status: LOAD TESTING", Class: "active"}, StatusBadge(session.Running))
}

func TestProject(t *testing.T) {
	w := series.NewWindow(series.DefaultCapacity)
	w.Append(epoch, 42.3, 1.2, 187)

	f := Project(Input{
		Latest:    &telemetry.Snapshot{RPS: 42.3, FailureRate: 1.2, AvgLatencyMs: 187, ActiveUsers: 10},
		Window:    w,
		Status:    session.Running,
		Chaos:     chaos.DefaultConfig().With(chaos.PacketLoss, 25),
		Connected: true,
	})

	assert.Equal(t, "42.3", f.Stats.RPS)
	assert.False(t, f.StartEnabled)
	assert.True(t, f.StopEnabled)
	assert.Equal(t, "live", f.Connection)
	assert.Empty(t, f.Error)

	require.Len(t, f.Throughput.Lines, 2)
	assert.Equal(t, []float64{42.3}, f.Throughput.Lines[0].Values)
	assert.Equal(t, []float64{1.2}, f.Throughput.Lines[1].Values)
	assert.Equal(t, []string{"14:3:9"}, f.Throughput.Labels)
	require.Len(t, f.LatencyChart.Lines, 1)
	assert.Equal(t, []float64{187}, f.LatencyChart.Lines[0].Values)

	require.Len(t, f.Sliders, 5)
	assert.Equal(t, "25%", f.Sliders[2].Label)
	assert.Equal(t, "1x", f.Sliders[4].Label)
}

func TestProject_IdleWithFailure(t *testing.T) {
	f := Project(Input{
		Status:     session.Idle,
		Failure:    &session.Failure{Command: session.Start, Err: errors.New("status 503")},
		Reconnects: 2,
		Latency:    stats.Summary{Count: 3, P50Ms: 10, P95Ms: 20, MaxMs: 30},
	})
	assert.Equal(t, Baseline, f.Stats)
	assert.True(t, f.StartEnabled)
	assert.False(t, f.StopEnabled)
	assert.Equal(t, "start failed: status 503", f.Error)
	assert.Equal(t, "reconnecting (2)", f.Connection)
	assert.Equal(t, "p50 10 ms | p95 20 ms | max 30 ms | 3 samples", f.Summary)
	assert.Empty(t, f.Throughput.Lines)
}
