package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"chaosdash/internal/dashboard"
	"chaosdash/internal/session"
	"chaosdash/internal/telemetry"
)

// StartArgs are raw start-form values for an optional session started
// before watching.
type StartArgs struct {
	TargetURL string
	Users     string
	SpawnRate string
}

type Options struct {
	State    *dashboard.State
	Executor *dashboard.Executor
	Events   <-chan telemetry.Event
	Out      io.Writer
	Logger   *zap.Logger
	// Start, when set, starts a session first and stops it on exit.
	Start *StartArgs
	// StopTimeout bounds the stop request sent on exit.
	StopTimeout time.Duration
}

// Watch prints one line per snapshot until ctx is cancelled or the
// telemetry channel shuts down.
func Watch(ctx context.Context, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 5 * time.Second
	}
	w := &watcher{Options: opts}

	w.run(ctx, opts.State.Boot())

	if opts.Start != nil {
		w.run(ctx, opts.State.Apply(dashboard.StartClicked{
			TargetURL: opts.Start.TargetURL,
			Users:     opts.Start.Users,
			SpawnRate: opts.Start.SpawnRate,
		}))
		if f := opts.State.Frame(); f.Error != "" {
			return errors.New(f.Error)
		}
		fmt.Fprintf(opts.Out, "session started (%s)\n", opts.State.Frame().Badge.Text)
		defer w.stop()
	}

	printHeader(opts.Out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-opts.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		}
	}
}

type watcher struct {
	Options
	printed int
}

func (w *watcher) handle(ctx context.Context, ev telemetry.Event) {
	switch ev := ev.(type) {
	case telemetry.Connected:
		fmt.Fprintf(w.Out, "# connected to %s (attempt %d)\n", ev.URL, ev.Attempt)
	case telemetry.Closed:
		fmt.Fprintf(w.Out, "# disconnected: %v, retrying in %s\n", ev.Err, ev.RetryIn)
	}

	w.run(ctx, w.State.Apply(dashboard.FromTelemetry(ev)))

	if snap, ok := ev.(telemetry.SnapshotReceived); ok {
		printLine(w.Out, snap.Snapshot.Timestamp, w.State)
		w.printed++
	}
}

// run executes effects in order, feeding each completion back into the
// state, until nothing is left.
func (w *watcher) run(ctx context.Context, effs []dashboard.Effect) {
	for len(effs) > 0 {
		ev := w.Executor.Run(ctx, effs[0])
		effs = append(effs[1:], w.State.Apply(ev)...)
	}
}

// stop ends the session started by Watch. It uses a fresh context since
// the watch context is already cancelled by the time this runs.
func (w *watcher) stop() {
	if w.State.Status() != session.Running {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.StopTimeout)
	defer cancel()

	w.run(ctx, w.State.Apply(dashboard.StopClicked{}))
	f := w.State.Frame()
	if f.Error != "" {
		w.Logger.Warn("stop on exit failed", zap.String("error", f.Error))
		fmt.Fprintf(w.Out, "stop failed: %s\n", f.Error)
		return
	}
	printSummary(w.Out, w.printed, f.Summary)
}

func printHeader(out io.Writer) {
	fmt.Fprintf(out, "%-8s | %8s | %8s | %9s | %5s | %s\n", "time", "rps", "fail/s", "latency", "users", "status")
	fmt.Fprintln(out, "---------+----------+----------+-----------+-------+---------------------")
}

func printLine(out io.Writer, at time.Time, s *dashboard.State) {
	f := s.Frame()
	fmt.Fprintf(out, "%-8s | %8s | %8s | %9s | %5s | %s\n",
		at.Format("15:04:05"),
		f.Stats.RPS, f.Stats.Failures, f.Stats.Latency, f.Stats.Users,
		f.Badge.Text,
	)
}

func printSummary(out io.Writer, snapshots int, summary string) {
	fmt.Fprintf(out, "\nsession stopped after %d snapshots\n", snapshots)
	fmt.Fprintf(out, "latency: %s\n", summary)
}
