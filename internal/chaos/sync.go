package chaos

// Push is one outbound full-config update. Seq increases with every push
// the synchronizer issues.
type Push struct {
	Seq    uint64
	Config Config
}

// Ack describes how an acknowledgement relates to newer pushes.
type Ack struct {
	Seq uint64
	// Stale is set when a newer push has already completed.
	Stale bool
	// Superseded is set when the desired config changed after this push
	// was issued.
	Superseded bool
}

// Synchronizer owns the operator's desired chaos config and decides when
// it must be pushed. It never waits for the server: edits apply locally at
// once and failures are never rolled back.
//
// With serialize enabled at most one push is in flight. Edits made while a
// push is outstanding collapse into a single follow-up push carrying the
// latest config, so the last value set always reaches the server.
type Synchronizer struct {
	desired   Config
	serialize bool

	seq       uint64            // last issued push
	edits     uint64            // bumps on every local change
	issuedAt  map[uint64]uint64 // outstanding push -> edits at issue time
	completed uint64            // highest completed seq
	pending   bool
}

func NewSynchronizer(initial Config, serialize bool) *Synchronizer {
	return &Synchronizer{
		desired:   initial,
		serialize: serialize,
		issuedAt:  make(map[uint64]uint64),
	}
}

// Desired is the config the operator currently wants.
func (s *Synchronizer) Desired() Config { return s.desired }

// InFlight reports whether any push is awaiting its response.
func (s *Synchronizer) InFlight() bool { return len(s.issuedAt) > 0 }

// Pending reports whether an edit is waiting behind the in-flight push.
func (s *Synchronizer) Pending() bool { return s.pending }

// Initial issues the unconditional startup push so defaults are applied
// even if the operator never touches a knob.
func (s *Synchronizer) Initial() (Push, bool) {
	return s.request()
}

// Edit sets one knob and requests a push of the whole config.
func (s *Synchronizer) Edit(p Param, v float64) (Push, bool) {
	s.desired = s.desired.With(p, v)
	s.edits++
	return s.request()
}

// Nudge moves a knob by a number of slider steps.
func (s *Synchronizer) Nudge(p Param, steps int) (Push, bool) {
	return s.Edit(p, s.desired.Get(p)+float64(steps)*p.Step())
}

// Complete records the response to push seq, whatever its outcome. When
// edits piled up behind it, the follow-up push is returned.
func (s *Synchronizer) Complete(seq uint64) (Ack, Push, bool) {
	edits, known := s.issuedAt[seq]
	ack := Ack{
		Seq:        seq,
		Stale:      seq < s.completed,
		Superseded: known && edits != s.edits,
	}
	if !known {
		return ack, Push{}, false
	}
	delete(s.issuedAt, seq)
	if seq > s.completed {
		s.completed = seq
	}

	if !s.serialize || len(s.issuedAt) > 0 || !s.pending {
		return ack, Push{}, false
	}
	s.pending = false
	next, ok := s.request()
	return ack, next, ok
}

func (s *Synchronizer) request() (Push, bool) {
	if s.serialize && len(s.issuedAt) > 0 {
		s.pending = true
		return Push{}, false
	}
	s.seq++
	s.issuedAt[s.seq] = s.edits
	return Push{Seq: s.seq, Config: s.desired}, true
}
