package chaos

import (
	"fmt"
	"math"
	"strconv"
)

// Config is the full set of fault-injection knobs. It is always sent whole.
type Config struct {
	LatencyMs          int     `json:"latency_ms" mapstructure:"latency_ms"`
	LatencyJitterMs    int     `json:"latency_jitter_ms" mapstructure:"latency_jitter_ms"`
	PacketLossPercent  float64 `json:"packet_loss_percent" mapstructure:"packet_loss_percent"`
	RateLimitPercent   float64 `json:"rate_limit_percent" mapstructure:"rate_limit_percent"`
	SlowdownMultiplier float64 `json:"slowdown_multiplier" mapstructure:"slowdown_multiplier"`
}

// DefaultConfig injects nothing.
func DefaultConfig() Config {
	return Config{SlowdownMultiplier: 1.0}
}

func (c Config) Validate() error {
	for _, p := range Params() {
		v := c.Get(p)
		if v < 0 {
			return fmt.Errorf("%s must be >= 0, got %v", p.Key(), v)
		}
		if p.percent() && v > 100 {
			return fmt.Errorf("%s must be <= 100, got %v", p.Key(), v)
		}
	}
	return nil
}

// Param identifies one knob.
type Param int

const (
	Latency Param = iota
	Jitter
	PacketLoss
	RateLimit
	Slowdown
)

type paramSpec struct {
	key   string
	name  string
	min   float64
	max   float64
	step  float64
	isInt bool
}

var specs = [...]paramSpec{
	Latency:    {key: "latency_ms", name: "Latency (ms)", max: 5000, step: 50, isInt: true},
	Jitter:     {key: "latency_jitter_ms", name: "Jitter (ms)", max: 2000, step: 25, isInt: true},
	PacketLoss: {key: "packet_loss_percent", name: "Packet Loss", max: 100, step: 1},
	RateLimit:  {key: "rate_limit_percent", name: "Rate Limit", max: 100, step: 1},
	Slowdown:   {key: "slowdown_multiplier", name: "Slowdown", max: 10, step: 0.1},
}

// Params lists every knob in display order.
func Params() []Param {
	return []Param{Latency, Jitter, PacketLoss, RateLimit, Slowdown}
}

// ParseParam maps a JSON key back to its Param.
func ParseParam(key string) (Param, bool) {
	for _, p := range Params() {
		if specs[p].key == key {
			return p, true
		}
	}
	return 0, false
}

func (p Param) Key() string      { return specs[p].key }
func (p Param) Name() string     { return specs[p].name }
func (p Param) Min() float64     { return specs[p].min }
func (p Param) Max() float64     { return specs[p].max }
func (p Param) Step() float64    { return specs[p].step }
func (p Param) String() string   { return specs[p].key }
func (p Param) percent() bool    { return p == PacketLoss || p == RateLimit }
func (p Param) multiplier() bool { return p == Slowdown }

// Get reads one knob as a float.
func (c Config) Get(p Param) float64 {
	switch p {
	case Latency:
		return float64(c.LatencyMs)
	case Jitter:
		return float64(c.LatencyJitterMs)
	case PacketLoss:
		return c.PacketLossPercent
	case RateLimit:
		return c.RateLimitPercent
	case Slowdown:
		return c.SlowdownMultiplier
	}
	return 0
}

// With returns a copy with one knob set, clamped to the knob's range.
// Integer knobs are rounded.
func (c Config) With(p Param, v float64) Config {
	spec := specs[p]
	v = math.Max(spec.min, math.Min(spec.max, v))
	switch p {
	case Latency:
		c.LatencyMs = int(math.Round(v))
	case Jitter:
		c.LatencyJitterMs = int(math.Round(v))
	case PacketLoss:
		c.PacketLossPercent = v
	case RateLimit:
		c.RateLimitPercent = v
	case Slowdown:
		// Keep one decimal so repeated nudges don't accumulate float noise.
		c.SlowdownMultiplier = math.Round(v*10) / 10
	}
	return c
}

// Label is the display text of a knob: "25%", "1.5x" or a plain number.
func (c Config) Label(p Param) string {
	s := strconv.FormatFloat(c.Get(p), 'f', -1, 64)
	switch {
	case p.percent():
		return s + "%"
	case p.multiplier():
		return s + "x"
	}
	return s
}

// Fill is the knob's position within its range, 0..1.
func (c Config) Fill(p Param) float64 {
	spec := specs[p]
	if spec.max <= spec.min {
		return 0
	}
	return (c.Get(p) - spec.min) / (spec.max - spec.min)
}
