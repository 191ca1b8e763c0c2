// Package throttle limits how often an operation runs. An operation gated by
// a throttle executes at most once per window: immediately on the first call
// after a quiet period (the leading edge), and once more at the end of the
// window if calls kept arriving (the trailing edge). Calls made while a
// trailing execution is pending replace its argument; they are never queued.
//
// Gate is the clock-free core used by the Bubble Tea controller, where all
// state changes happen on the update loop and timers are delivered as
// messages. Func wraps a Gate with real timers for use from ordinary code.
package throttle

import "time"

// Option adjusts throttle behaviour.
type Option func(*options)

type options struct {
	leading   bool
	trailing  bool
	now       func() time.Time
	afterFunc func(time.Duration, func()) Timer
}

func defaultOptions() options {
	return options{
		leading:  true,
		trailing: true,
		now:      time.Now,
		afterFunc: func(d time.Duration, fn func()) Timer {
			return time.AfterFunc(d, fn)
		},
	}
}

// WithLeading toggles execution on the leading edge of a window.
func WithLeading(enabled bool) Option {
	return func(o *options) { o.leading = enabled }
}

// WithTrailing toggles the trailing execution at the end of a busy window.
func WithTrailing(enabled bool) Option {
	return func(o *options) { o.trailing = enabled }
}

// Decision reports what the caller should do after Gate.Call.
type Decision[T any] struct {
	// Run is set when the operation must execute now with Arg.
	Run bool
	Arg T
	// Schedule is set when a trailing execution was armed. The caller must
	// invoke Gate.Fire with Token once After has elapsed.
	Schedule bool
	After    time.Duration
	Token    uint64
}

// Gate is the throttle state machine. It performs no I/O and holds no timers;
// callers pass the current time in and arrange for Fire to be called when a
// scheduled trailing execution is due. A Gate is not safe for concurrent use.
type Gate[T any] struct {
	wait     time.Duration
	leading  bool
	trailing bool

	previous time.Time
	pending  bool
	token    uint64
	arg      T
}

// NewGate returns a gate with the given window.
func NewGate[T any](wait time.Duration, opts ...Option) *Gate[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Gate[T]{wait: wait, leading: o.leading, trailing: o.trailing}
}

// Wait returns the window length.
func (g *Gate[T]) Wait() time.Duration {
	return g.wait
}

// Pending reports whether a trailing execution is armed.
func (g *Gate[T]) Pending() bool {
	return g.pending
}

// Call records an invocation at now with arg.
func (g *Gate[T]) Call(now time.Time, arg T) Decision[T] {
	if g.previous.IsZero() && !g.leading {
		g.previous = now
	}
	g.arg = arg
	remaining := g.wait
	if !g.previous.IsZero() {
		remaining = g.wait - now.Sub(g.previous)
	}
	if g.previous.IsZero() || remaining <= 0 || remaining > g.wait {
		g.cancel()
		g.previous = now
		return Decision[T]{Run: true, Arg: g.take()}
	}
	if !g.pending && g.trailing {
		g.pending = true
		g.token++
		return Decision[T]{Schedule: true, After: remaining, Token: g.token}
	}
	return Decision[T]{}
}

// Fire runs the trailing execution armed under token. It returns false when
// the token is stale, i.e. the execution was cancelled or already happened.
func (g *Gate[T]) Fire(now time.Time, token uint64) (T, bool) {
	if !g.pending || token != g.token {
		var zero T
		return zero, false
	}
	g.pending = false
	if g.leading {
		g.previous = now
	} else {
		g.previous = time.Time{}
	}
	return g.take(), true
}

// Cancel drops any pending trailing execution and forgets the window.
func (g *Gate[T]) Cancel() {
	g.cancel()
	g.previous = time.Time{}
	var zero T
	g.arg = zero
}

func (g *Gate[T]) cancel() {
	if g.pending {
		g.pending = false
		g.token++
	}
}

func (g *Gate[T]) take() T {
	arg := g.arg
	var zero T
	g.arg = zero
	return arg
}
