package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Defaults applied when the operator leaves a field blank or invalid.
const (
	DefaultTargetURL = "https://jsonplaceholder.typicode.com/posts"
	DefaultUsers     = 10
	DefaultSpawnRate = 2
)

var (
	ErrBusy           = errors.New("session command already in flight")
	ErrAlreadyRunning = errors.New("session already running")
	ErrNotRunning     = errors.New("session not running")
)

// Status is the confirmed server-side session state.
type Status int

const (
	Idle Status = iota
	Running
)

func (s Status) String() string {
	if s == Running {
		return "RUNNING"
	}
	return "IDLE"
}

// Command is a lifecycle request sent to the server.
type Command int

const (
	Start Command = iota + 1
	Stop
)

func (c Command) String() string {
	switch c {
	case Start:
		return "start"
	case Stop:
		return "stop"
	}
	return "none"
}

// Request is the body of a start command. Immutable once submitted.
type Request struct {
	TargetURL string `json:"target_url"`
	Users     int    `json:"users"`
	SpawnRate int    `json:"spawn_rate"`
}

// Defaults are the fallbacks used by NewRequestWithDefaults.
type Defaults struct {
	TargetURL string
	Users     int
	SpawnRate int
}

func DefaultDefaults() Defaults {
	return Defaults{TargetURL: DefaultTargetURL, Users: DefaultUsers, SpawnRate: DefaultSpawnRate}
}

// NewRequest builds a start request from raw form input using the built-in
// defaults.
func NewRequest(targetURL, users, spawnRate string) Request {
	return NewRequestWithDefaults(targetURL, users, spawnRate, DefaultDefaults())
}

// NewRequestWithDefaults builds a start request from raw form input. Blank
// URLs and counts that are not positive integers fall back to d.
func NewRequestWithDefaults(targetURL, users, spawnRate string, d Defaults) Request {
	r := Request{
		TargetURL: strings.TrimSpace(targetURL),
		Users:     positiveOr(users, d.Users),
		SpawnRate: positiveOr(spawnRate, d.SpawnRate),
	}
	if r.TargetURL == "" {
		r.TargetURL = d.TargetURL
	}
	return r
}

func positiveOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// Failure is a command the server rejected or never answered. It is shown
// until the operator does something else and never changes Status.
type Failure struct {
	Command Command
	Err     error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failed: %v", f.Command, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Controller is the IDLE <-> RUNNING state machine. Status only changes on
// a confirmed server response.
type Controller struct {
	status   Status
	inFlight Command
	failure  *Failure
}

func NewController() *Controller {
	return &Controller{}
}

func (c *Controller) Status() Status { return c.status }

// InFlight returns the outstanding command, if any.
func (c *Controller) InFlight() (Command, bool) {
	return c.inFlight, c.inFlight != 0
}

// StartEnabled and StopEnabled mirror the confirmed status only.
func (c *Controller) StartEnabled() bool { return c.status == Idle }
func (c *Controller) StopEnabled() bool  { return c.status == Running }

// Failure returns the last unacknowledged command failure.
func (c *Controller) Failure() *Failure { return c.failure }

// Dismiss clears the transient failure.
func (c *Controller) Dismiss() { c.failure = nil }

// BeginStart marks a start command in flight.
func (c *Controller) BeginStart() error {
	return c.begin(Start, Idle, ErrAlreadyRunning)
}

// BeginStop marks a stop command in flight.
func (c *Controller) BeginStop() error {
	return c.begin(Stop, Running, ErrNotRunning)
}

func (c *Controller) begin(cmd Command, from Status, wrongState error) error {
	if c.inFlight != 0 {
		return ErrBusy
	}
	if c.status != from {
		return wrongState
	}
	c.inFlight = cmd
	c.failure = nil
	return nil
}

// Resolve applies the server's answer to cmd and reports whether Status
// changed.
func (c *Controller) Resolve(cmd Command, err error) bool {
	if c.inFlight == cmd {
		c.inFlight = 0
	}
	if err != nil {
		c.failure = &Failure{Command: cmd, Err: err}
		return false
	}

	switch {
	case cmd == Start && c.status == Idle:
		c.status = Running
	case cmd == Stop && c.status == Running:
		c.status = Idle
	default:
		return false
	}
	return true
}
