package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestDecode_MapsWireFields(t *testing.T) {
	s, err := Decode([]byte(`{"total_rps": 42.3, "total_failures": 1.2, "avg_response_time": 187, "user_count": 10}`), epoch)
	require.NoError(t, err)

	assert.Equal(t, Snapshot{
		Timestamp:    epoch,
		RPS:          42.3,
		FailureRate:  1.2,
		AvgLatencyMs: 187,
		ActiveUsers:  10,
	}, s)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `hello`},
		{"missing rps", `{"total_failures": 0, "avg_response_time": 0, "user_count": 0}`},
		{"missing failures", `{"total_rps": 0, "avg_response_time": 0, "user_count": 0}`},
		{"missing latency", `{"total_rps": 0, "total_failures": 0, "user_count": 0}`},
		{"missing users", `{"total_rps": 0, "total_failures": 0, "avg_response_time": 0}`},
		{"fractional users", `{"total_rps": 0, "total_failures": 0, "avg_response_time": 0, "user_count": 1.5}`},
		{"negative rps", `{"total_rps": -1, "total_failures": 0, "avg_response_time": 0, "user_count": 0}`},
		{"string field", `{"total_rps": "1", "total_failures": 0, "avg_response_time": 0, "user_count": 0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw), epoch)
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}

func TestEncode_DecodesBack(t *testing.T) {
	in := Snapshot{Timestamp: epoch, RPS: 3.5, FailureRate: 0.5, AvgLatencyMs: 12, ActiveUsers: 4}
	raw, err := Encode(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_rps":3.5,"total_failures":0.5,"avg_response_time":12,"user_count":4}`, string(raw))
}
