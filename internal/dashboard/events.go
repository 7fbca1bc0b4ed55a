package dashboard

import (
	"time"

	"chaosdash/internal/chaos"
	"chaosdash/internal/session"
	"chaosdash/internal/telemetry"
)

// Event is one discrete input to State.Apply.
type Event interface {
	dashboardEvent()
}

type SnapshotReceived struct {
	Snapshot telemetry.Snapshot
}

type ConnectionOpened struct {
	Attempt int
}

type ConnectionClosed struct {
	Err     error
	RetryIn time.Duration
}

// EditChanged sets one chaos knob to an absolute value.
type EditChanged struct {
	Param chaos.Param
	Value float64
}

// EditNudged moves one chaos knob by whole slider steps.
type EditNudged struct {
	Param chaos.Param
	Steps int
}

// StartClicked carries the raw form fields.
type StartClicked struct {
	TargetURL string
	Users     string
	SpawnRate string
}

type StopClicked struct{}

// CommandCompleted is the server's answer to a start or stop.
type CommandCompleted struct {
	Command session.Command
	Err     error
}

type ChaosPushCompleted struct {
	Seq uint64
	Err error
	// Skipped means a newer push overtook this one before it was sent.
	Skipped bool
}

func (SnapshotReceived) dashboardEvent()   {}
func (ConnectionOpened) dashboardEvent()   {}
func (ConnectionClosed) dashboardEvent()   {}
func (EditChanged) dashboardEvent()        {}
func (EditNudged) dashboardEvent()         {}
func (StartClicked) dashboardEvent()       {}
func (StopClicked) dashboardEvent()        {}
func (CommandCompleted) dashboardEvent()   {}
func (ChaosPushCompleted) dashboardEvent() {}

// FromTelemetry translates a telemetry channel event.
func FromTelemetry(ev telemetry.Event) Event {
	switch ev := ev.(type) {
	case telemetry.SnapshotReceived:
		return SnapshotReceived{Snapshot: ev.Snapshot}
	case telemetry.Connected:
		return ConnectionOpened{Attempt: ev.Attempt}
	case telemetry.Closed:
		return ConnectionClosed{Err: ev.Err, RetryIn: ev.RetryIn}
	}
	return nil
}

// Effect is work State asks the caller to perform.
type Effect interface {
	dashboardEffect()
}

type PushChaos struct {
	Push chaos.Push
}

type StartSession struct {
	Request session.Request
}

type StopSession struct{}

func (PushChaos) dashboardEffect()    {}
func (StartSession) dashboardEffect() {}
func (StopSession) dashboardEffect()  {}
