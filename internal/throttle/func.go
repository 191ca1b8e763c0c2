package throttle

import (
	"sync"
	"time"
)

// Timer is the subset of *time.Timer used by Func.
type Timer interface {
	Stop() bool
}

// WithClock overrides the time source used by Func.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithAfterFunc overrides how Func arms trailing timers.
func WithAfterFunc(afterFunc func(time.Duration, func()) Timer) Option {
	return func(o *options) {
		if afterFunc != nil {
			o.afterFunc = afterFunc
		}
	}
}

// Func is a throttled zero-argument operation backed by real timers. It is
// safe for concurrent use; fn never runs while the internal lock is held.
type Func struct {
	fn        func()
	now       func() time.Time
	afterFunc func(time.Duration, func()) Timer

	mu    sync.Mutex
	gate  *Gate[struct{}]
	timer Timer
}

// New wraps fn so it executes at most once per wait.
func New(fn func(), wait time.Duration, opts ...Option) *Func {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Func{
		fn:        fn,
		now:       o.now,
		afterFunc: o.afterFunc,
		gate:      NewGate[struct{}](wait, opts...),
	}
}

// Call invokes the throttled operation.
func (f *Func) Call() {
	f.mu.Lock()
	d := f.gate.Call(f.now(), struct{}{})
	if d.Run && f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if d.Schedule {
		token := d.Token
		f.timer = f.afterFunc(d.After, func() { f.fire(token) })
	}
	f.mu.Unlock()
	if d.Run && f.fn != nil {
		f.fn()
	}
}

// Stop cancels any pending trailing execution.
func (f *Func) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.gate.Cancel()
}

func (f *Func) fire(token uint64) {
	f.mu.Lock()
	_, ok := f.gate.Fire(f.now(), token)
	if ok {
		f.timer = nil
	}
	f.mu.Unlock()
	if ok && f.fn != nil {
		f.fn()
	}
}
