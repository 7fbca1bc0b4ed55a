package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSnapshot wraps every decode failure.
var ErrInvalidSnapshot = errors.New("invalid telemetry snapshot")

// Snapshot is one aggregate reading pushed by the server. Treat it as an
// immutable value.
type Snapshot struct {
	Timestamp    time.Time
	RPS          float64
	FailureRate  float64 // failing requests per second
	AvgLatencyMs float64
	ActiveUsers  int
}

// Wire is the JSON shape of a telemetry message.
type Wire struct {
	TotalRPS        *float64 `json:"total_rps"`
	TotalFailures   *float64 `json:"total_failures"`
	AvgResponseTime *float64 `json:"avg_response_time"`
	UserCount       *int     `json:"user_count"`
}

// Decode parses one message received at the given instant. All four
// fields are required and must be non-negative.
func Decode(data []byte, at time.Time) (Snapshot, error) {
	var w Wire
	if err := json.Unmarshal(data, &w); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	switch {
	case w.TotalRPS == nil:
		return Snapshot{}, fmt.Errorf("%w: missing total_rps", ErrInvalidSnapshot)
	case w.TotalFailures == nil:
		return Snapshot{}, fmt.Errorf("%w: missing total_failures", ErrInvalidSnapshot)
	case w.AvgResponseTime == nil:
		return Snapshot{}, fmt.Errorf("%w: missing avg_response_time", ErrInvalidSnapshot)
	case w.UserCount == nil:
		return Snapshot{}, fmt.Errorf("%w: missing user_count", ErrInvalidSnapshot)
	}

	s := Snapshot{
		Timestamp:    at,
		RPS:          *w.TotalRPS,
		FailureRate:  *w.TotalFailures,
		AvgLatencyMs: *w.AvgResponseTime,
		ActiveUsers:  *w.UserCount,
	}
	if s.RPS < 0 || s.FailureRate < 0 || s.AvgLatencyMs < 0 || s.ActiveUsers < 0 {
		return Snapshot{}, fmt.Errorf("%w: negative value in %s", ErrInvalidSnapshot, data)
	}
	return s, nil
}

// Encode renders a snapshot in wire form.
func Encode(s Snapshot) ([]byte, error) {
	return json.Marshal(Wire{
		TotalRPS:        &s.RPS,
		TotalFailures:   &s.FailureRate,
		AvgResponseTime: &s.AvgLatencyMs,
		UserCount:       &s.ActiveUsers,
	})
}
