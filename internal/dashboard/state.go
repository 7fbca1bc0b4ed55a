package dashboard

import (
	"go.uber.org/zap"

	"chaosdash/internal/chaos"
	"chaosdash/internal/metrics"
	"chaosdash/internal/series"
	"chaosdash/internal/session"
	"chaosdash/internal/stats"
	"chaosdash/internal/telemetry"
	"chaosdash/internal/view"
)

type Options struct {
	WindowSize      int
	// InitialChaos is the config pushed at boot. Nil means chaos.DefaultConfig.
	InitialChaos    *chaos.Config
	SerializePushes bool
	Defaults        session.Defaults
	Logger          *zap.Logger
	Metrics         *metrics.Metrics
}

// State is the whole client-side view of the system. It is driven by one
// goroutine at a time: callers feed events through Apply and carry out the
// returned effects.
type State struct {
	latest     *telemetry.Snapshot
	window     *series.Window
	latency    *stats.LatencySummary
	session    *session.Controller
	chaos      *chaos.Synchronizer
	defaults   session.Defaults
	connected  bool
	reconnects int

	logger  *zap.Logger
	metrics *metrics.Metrics
}

func New(opts Options) *State {
	if opts.WindowSize <= 0 {
		opts.WindowSize = series.DefaultCapacity
	}
	initial := chaos.DefaultConfig()
	if opts.InitialChaos != nil {
		initial = *opts.InitialChaos
	}
	if opts.Defaults == (session.Defaults{}) {
		opts.Defaults = session.DefaultDefaults()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &State{
		window:   series.NewWindow(opts.WindowSize),
		latency:  stats.NewLatencySummary(),
		session:  session.NewController(),
		chaos:    chaos.NewSynchronizer(initial, opts.SerializePushes),
		defaults: opts.Defaults,
		logger:   opts.Logger.Named("dashboard"),
		metrics:  opts.Metrics,
	}
}

// Boot returns the startup effects: one unconditional chaos push so the
// server applies the client's defaults.
func (s *State) Boot() []Effect {
	return s.pushIfReady(s.chaos.Initial())
}

// Apply handles one event.
func (s *State) Apply(ev Event) []Effect {
	switch ev := ev.(type) {
	case SnapshotReceived:
		s.onSnapshot(ev.Snapshot)

	case ConnectionOpened:
		s.connected = true

	case ConnectionClosed:
		s.connected = false
		s.reconnects++

	case EditChanged:
		s.session.Dismiss()
		return s.pushIfReady(s.chaos.Edit(ev.Param, ev.Value))

	case EditNudged:
		s.session.Dismiss()
		return s.pushIfReady(s.chaos.Nudge(ev.Param, ev.Steps))

	case StartClicked:
		s.session.Dismiss()
		if err := s.session.BeginStart(); err != nil {
			s.logger.Debug("start ignored", zap.Error(err))
			return nil
		}
		req := session.NewRequestWithDefaults(ev.TargetURL, ev.Users, ev.SpawnRate, s.defaults)
		return []Effect{StartSession{Request: req}}

	case StopClicked:
		s.session.Dismiss()
		if err := s.session.BeginStop(); err != nil {
			s.logger.Debug("stop ignored", zap.Error(err))
			return nil
		}
		return []Effect{StopSession{}}

	case CommandCompleted:
		s.onCommand(ev.Command, ev.Err)

	case ChaosPushCompleted:
		return s.onChaosPushed(ev.Seq, ev.Err, ev.Skipped)
	}
	return nil
}

func (s *State) onSnapshot(snap telemetry.Snapshot) {
	s.latest = &snap
	s.window.Append(snap.Timestamp, snap.RPS, snap.FailureRate, snap.AvgLatencyMs)
	if s.session.Status() == session.Running {
		s.latency.Record(snap.AvgLatencyMs)
	}
	s.metrics.SnapshotApplied()
}

func (s *State) onCommand(cmd session.Command, err error) {
	s.metrics.SessionCommand(cmd.String(), err)
	if err != nil {
		s.logger.Warn("session command failed", zap.Stringer("command", cmd), zap.Error(err))
	}
	if !s.session.Resolve(cmd, err) {
		return
	}

	s.logger.Info("session status changed", zap.Stringer("status", s.session.Status()))
	switch s.session.Status() {
	case session.Running:
		s.latency.Reset()
	case session.Idle:
		// Instantaneous widgets go back to baseline; charts keep their history.
		s.latest = nil
	}
}

func (s *State) onChaosPushed(seq uint64, err error, skipped bool) []Effect {
	if skipped {
		s.logger.Debug("chaos push overtaken before send", zap.Uint64("seq", seq))
	} else {
		s.metrics.ChaosPushed(err)
	}
	ack, next, ok := s.chaos.Complete(seq)
	if err != nil {
		s.logger.Warn("chaos config push failed",
			zap.Uint64("seq", seq),
			zap.Bool("superseded", ack.Superseded),
			zap.Error(err))
	}
	if ack.Stale {
		s.logger.Debug("stale chaos ack", zap.Uint64("seq", seq))
	}
	return s.pushIfReady(next, ok)
}

func (s *State) pushIfReady(p chaos.Push, ok bool) []Effect {
	if !ok {
		return nil
	}
	return []Effect{PushChaos{Push: p}}
}

// Status is the confirmed session status.
func (s *State) Status() session.Status { return s.session.Status() }

// Latest is the most recent snapshot, nil when the stat widgets show baseline.
func (s *State) Latest() *telemetry.Snapshot { return s.latest }

func (s *State) Window() *series.Window { return s.window }

// Chaos is the desired chaos config.
func (s *State) Chaos() chaos.Config { return s.chaos.Desired() }

// Frame projects the current state for rendering.
func (s *State) Frame() view.Frame {
	_, busy := s.session.InFlight()
	in := view.Input{
		Latest:     s.latest,
		Window:     s.window,
		Status:     s.session.Status(),
		InFlight:   busy,
		Chaos:      s.chaos.Desired(),
		Connected:  s.connected,
		Reconnects: s.reconnects,
		Latency:    s.latency.Summary(),
	}
	if f := s.session.Failure(); f != nil {
		in.Failure = f
	}
	return view.Project(in)
}
