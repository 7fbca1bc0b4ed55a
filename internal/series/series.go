package series

import (
	"fmt"
	"time"
)

// DefaultCapacity keeps the last 60 seconds of once-per-second telemetry.
const DefaultCapacity = 60

// Sample is one (timestamp, value) point.
type Sample struct {
	At    time.Time
	Value float64
}

// Series is a fixed-capacity sliding window. Push is the only mutation and
// evicts the oldest sample once the window is full.
type Series struct {
	buf   []Sample
	head  int // index of the oldest sample
	count int
}

func New(capacity int) *Series {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Series{buf: make([]Sample, capacity)}
}

// Push appends a sample, dropping the oldest one when full.
func (s *Series) Push(at time.Time, value float64) {
	if s.count < len(s.buf) {
		s.buf[(s.head+s.count)%len(s.buf)] = Sample{At: at, Value: value}
		s.count++
		return
	}
	s.buf[s.head] = Sample{At: at, Value: value}
	s.head = (s.head + 1) % len(s.buf)
}

// Samples returns the window oldest first. The slice is a copy.
func (s *Series) Samples() []Sample {
	out := make([]Sample, s.count)
	for i := 0; i < s.count; i++ {
		out[i] = s.buf[(s.head+i)%len(s.buf)]
	}
	return out
}

// Values returns just the sample values, oldest first.
func (s *Series) Values() []float64 {
	out := make([]float64, s.count)
	for i := 0; i < s.count; i++ {
		out[i] = s.buf[(s.head+i)%len(s.buf)].Value
	}
	return out
}

func (s *Series) Len() int { return s.count }
func (s *Series) Cap() int { return len(s.buf) }

// Max returns the largest value in the window, or 0 when empty.
func (s *Series) Max() float64 {
	max := 0.0
	for i := 0; i < s.count; i++ {
		if v := s.buf[(s.head+i)%len(s.buf)].Value; v > max {
			max = v
		}
	}
	return max
}

// Window tracks the three charted metrics side by side. All three series
// always hold the same number of samples.
type Window struct {
	RPS      *Series
	Failures *Series
	Latency  *Series
}

func NewWindow(capacity int) *Window {
	return &Window{
		RPS:      New(capacity),
		Failures: New(capacity),
		Latency:  New(capacity),
	}
}

// Append records one sample per tracked metric.
func (w *Window) Append(at time.Time, rps, failures, latencyMs float64) {
	w.RPS.Push(at, rps)
	w.Failures.Push(at, failures)
	w.Latency.Push(at, latencyMs)
}

func (w *Window) Len() int { return w.RPS.Len() }

// Labels renders sample times as H:M:S without zero padding.
func (w *Window) Labels() []string {
	samples := w.RPS.Samples()
	labels := make([]string, len(samples))
	for i, s := range samples {
		labels[i] = fmt.Sprintf("%d:%d:%d", s.At.Hour(), s.At.Minute(), s.At.Second())
	}
	return labels
}
