// Package view turns client state into display values. It performs no I/O
// and keeps no state of its own.
package view

import (
	"fmt"

	"chaosdash/internal/chaos"
	"chaosdash/internal/series"
	"chaosdash/internal/session"
	"chaosdash/internal/stats"
	"chaosdash/internal/telemetry"
)

// Stats is the text of the four instantaneous stat widgets.
type Stats struct {
	RPS      string
	Failures string
	Latency  string
	Users    string
}

// Baseline is shown before the first snapshot and after a stop.
var Baseline = Stats{RPS: "0", Failures: "0", Latency: "0 ms", Users: "0"}

// Badge classes.
const (
	ClassActive = "active"
	ClassIdle   = "idle"
)

type Badge struct {
	Text  string
	Class string
}

type Line struct {
	Label  string
	Values []float64
	Max    float64
}

type Chart struct {
	Title  string
	Labels []string
	Lines  []Line
}

type Slider struct {
	Param chaos.Param
	Name  string
	Label string
	Fill  float64
}

type Input struct {
	Latest     *telemetry.Snapshot
	Window     *series.Window
	Status     session.Status
	InFlight   bool
	Failure    error
	Chaos      chaos.Config
	Connected  bool
	Reconnects int
	Latency    stats.Summary
}

// Frame is everything a renderer needs for one redraw.
type Frame struct {
	Stats        Stats
	Badge        Badge
	StartEnabled bool
	StopEnabled  bool
	Busy         bool
	Error        string
	Connection   string
	Throughput   Chart
	LatencyChart Chart
	Sliders      []Slider
	Summary      string
}

// Project maps state to a Frame.
func Project(in Input) Frame {
	f := Frame{
		Stats:        FormatStats(in.Latest),
		Badge:        StatusBadge(in.Status),
		StartEnabled: in.Status == session.Idle,
		StopEnabled:  in.Status == session.Running,
		Busy:         in.InFlight,
		Connection:   connection(in.Connected, in.Reconnects),
		Sliders:      Sliders(in.Chaos),
		Summary:      summary(in.Latency),
	}
	if in.Failure != nil {
		f.Error = in.Failure.Error()
	}
	if in.Window != nil {
		f.Throughput, f.LatencyChart = Charts(in.Window)
	}
	return f
}

// FormatStats renders a snapshot the way the stat widgets show it.
func FormatStats(s *telemetry.Snapshot) Stats {
	if s == nil {
		return Baseline
	}
	return Stats{
		RPS:      fmt.Sprintf("%.1f", s.RPS),
		Failures: fmt.Sprintf("%.1f", s.FailureRate),
		Latency:  fmt.Sprintf("%.0f ms", s.AvgLatencyMs),
		Users:    fmt.Sprintf("%d", s.ActiveUsers),
	}
}

func StatusBadge(s session.Status) Badge {
	if s == session.Running {
		return Badge{Text: "Status: LOAD TESTING", Class: ClassActive}
	}
	return Badge{Text: "Status: IDLE", Class: ClassIdle}
}

// Charts builds the throughput (rps + failures) and latency charts.
func Charts(w *series.Window) (throughput, latency Chart) {
	labels := w.Labels()
	throughput = Chart{
		Title:  "Throughput",
		Labels: labels,
		Lines: []Line{
			{Label: "Requests / Sec (200 OK)", Values: w.RPS.Values(), Max: w.RPS.Max()},
			{Label: "Failures / Sec (5xx/4xx)", Values: w.Failures.Values(), Max: w.Failures.Max()},
		},
	}
	latency = Chart{
		Title:  "Latency",
		Labels: labels,
		Lines: []Line{
			{Label: "Avg Latency (ms)", Values: w.Latency.Values(), Max: w.Latency.Max()},
		},
	}
	return throughput, latency
}

func Sliders(c chaos.Config) []Slider {
	params := chaos.Params()
	out := make([]Slider, len(params))
	for i, p := range params {
		out[i] = Slider{Param: p, Name: p.Name(), Label: c.Label(p), Fill: c.Fill(p)}
	}
	return out
}

func connection(connected bool, reconnects int) string {
	switch {
	case connected:
		return "live"
	case reconnects == 0:
		return "connecting"
	}
	return fmt.Sprintf("reconnecting (%d)", reconnects)
}

func summary(s stats.Summary) string {
	if s.Count == 0 {
		return "no samples"
	}
	return fmt.Sprintf("p50 %.0f ms | p95 %.0f ms | max %.0f ms | %d samples", s.P50Ms, s.P95Ms, s.MaxMs, s.Count)
}
