package dashboard

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"chaosdash/internal/chaos"
	"chaosdash/internal/session"
)

// Backend is the control API the executor drives.
type Backend interface {
	StartSession(ctx context.Context, req session.Request) error
	StopSession(ctx context.Context) error
	UpdateChaos(ctx context.Context, cfg chaos.Config) error
}

// Executor performs effects and reports their outcome as events.
type Executor struct {
	Backend Backend
	// Limiter paces chaos pushes. Nil means unlimited.
	Limiter *rate.Limiter
	// Timeout bounds each request. Zero leaves it to the backend. It does
	// not cover time spent waiting on Limiter.
	Timeout time.Duration

	newest atomic.Uint64 // highest chaos push seq seen
}

// NewLimiter returns a push limiter for perSecond pushes, or nil when
// perSecond is not positive.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// Run blocks until the effect's request completes and returns the
// completion event for State.Apply.
func (e *Executor) Run(ctx context.Context, eff Effect) Event {
	switch eff := eff.(type) {
	case PushChaos:
		return e.pushChaos(ctx, eff.Push)

	case StartSession:
		ctx, cancel := e.withTimeout(ctx)
		defer cancel()
		return CommandCompleted{Command: session.Start, Err: e.Backend.StartSession(ctx, eff.Request)}

	case StopSession:
		ctx, cancel := e.withTimeout(ctx)
		defer cancel()
		return CommandCompleted{Command: session.Stop, Err: e.Backend.StopSession(ctx)}
	}
	return nil
}

// pushChaos waits for the limiter on the caller's context, then sends the
// config under the request timeout. A push overtaken by a newer one while
// waiting is skipped; the newer push carries a later config.
func (e *Executor) pushChaos(ctx context.Context, p chaos.Push) Event {
	for {
		cur := e.newest.Load()
		if p.Seq <= cur || e.newest.CompareAndSwap(cur, p.Seq) {
			break
		}
	}

	if e.Limiter != nil {
		if err := e.Limiter.Wait(ctx); err != nil {
			return ChaosPushCompleted{Seq: p.Seq, Err: err}
		}
	}
	if p.Seq < e.newest.Load() {
		return ChaosPushCompleted{Seq: p.Seq, Skipped: true}
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	return ChaosPushCompleted{Seq: p.Seq, Err: e.Backend.UpdateChaos(ctx, p.Config)}
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.Timeout > 0 {
		return context.WithTimeout(ctx, e.Timeout)
	}
	return ctx, func() {}
}
