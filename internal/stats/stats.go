package stats

// LatencySummary distributes the average latency readings received during
// one session. Memory is fixed by the histogram, not by session length.
type LatencySummary struct {
	hist *SafeHistogram
}

// Summary is a point-in-time view of a LatencySummary, in milliseconds.
type Summary struct {
	Count int64
	P50Ms float64
	P95Ms float64
	MaxMs float64
}

func NewLatencySummary() *LatencySummary {
	return &LatencySummary{hist: NewSafeHistogram()}
}

// Record adds one reading in milliseconds.
func (l *LatencySummary) Record(ms float64) {
	l.hist.RecordValue(int64(ms * 1000))
}

func (l *LatencySummary) Reset() {
	l.hist.Reset()
}

func (l *LatencySummary) Summary() Summary {
	return Summary{
		Count: l.hist.TotalCount(),
		P50Ms: float64(l.hist.ValueAtQuantile(50)) / 1000.0,
		P95Ms: float64(l.hist.ValueAtQuantile(95)) / 1000.0,
		MaxMs: float64(l.hist.Max()) / 1000.0,
	}
}
