// Package command runs user-triggered actions off the update loop and reports
// their outcome as a single message.
package command

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/chsearch/internal/logging/events"
)

// Handler performs the work behind a request.
type Handler func(ctx context.Context) (tea.Msg, error)

// Request encapsulates an action invocation.
type Request struct {
	ID      string
	Label   string
	Handler Handler
}

// Result is delivered to the model once a request finishes. Msg carries the
// handler's payload; Err is set when it failed.
type Result struct {
	ID    string
	Label string
	Msg   tea.Msg
	Err   error
}

// Bus coordinates the execution of actions.
type Bus struct {
	timeout time.Duration
}

// New returns a bus that bounds each request by timeout. A non-positive
// timeout leaves requests bounded only by ctx.
func New(timeout time.Duration) *Bus {
	return &Bus{timeout: timeout}
}

// Execute wraps req into a Bubble Tea command while emitting trace logs.
func (b *Bus) Execute(ctx context.Context, req Request) tea.Cmd {
	events.Command.Queue(req.ID, req.Label)
	if req.Handler == nil {
		events.Command.Skip(req.ID, req.Label)
		return nil
	}
	timeout := b.timeout
	return func() tea.Msg {
		runCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		msg, err := req.Handler(runCtx)
		events.Command.Result(req.ID, req.Label, err)
		return Result{ID: req.ID, Label: req.Label, Msg: msg, Err: err}
	}
}
