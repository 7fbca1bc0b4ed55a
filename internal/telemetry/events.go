package telemetry

import "time"

// Event is emitted by Channel in the order things happen on the wire.
type Event interface {
	telemetryEvent()
}

// Connected reports a successfully established connection.
type Connected struct {
	URL     string
	Attempt int
}

// SnapshotReceived carries one decoded message.
type SnapshotReceived struct {
	Snapshot Snapshot
}

// Closed reports a lost connection (or a failed dial) and the delay
// before the single scheduled reconnection attempt.
type Closed struct {
	Err     error
	Attempt int
	RetryIn time.Duration
}

func (Connected) telemetryEvent()        {}
func (SnapshotReceived) telemetryEvent() {}
func (Closed) telemetryEvent()           {}
