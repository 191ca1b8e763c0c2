// Package controller paces search requests issued from the filter prompt and
// reconciles their responses with the suggestion list.
//
// All state lives on the Bubble Tea update loop. Network calls run inside
// tea.Cmd functions and come back as messages, so the controller never needs a
// lock: ordering hazards are purely about which message arrives first.
package controller

import (
	"context"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/atomicstack/chsearch/internal/logging"
	"github.com/atomicstack/chsearch/internal/logging/events"
	"github.com/atomicstack/chsearch/internal/metrics"
	"github.com/atomicstack/chsearch/internal/search"
	"github.com/atomicstack/chsearch/internal/throttle"
)

const (
	DefaultThrottle       = 800 * time.Millisecond
	DefaultIndicatorDelay = 100 * time.Millisecond
	DefaultMinChars       = 1
)

const (
	sourceInput = "input"
	sourceFocus = "focus"
)

// Input is the text field the controller reads queries from.
type Input interface {
	Value() string
	Focused() bool
}

// Suggestions is the list widget fed with search results.
type Suggestions interface {
	SetCandidates(search.ResultSet)
	Evaluate()
	SelectedIDs() []string
}

// Indicator is the loading spinner. Start may return a command that drives
// its animation.
type Indicator interface {
	Start() tea.Cmd
	Stop()
}

// Searcher performs one remote query.
type Searcher interface {
	Search(ctx context.Context, kind search.Kind, q search.Query) (search.ResultSet, error)
}

// Config tunes request pacing.
type Config struct {
	Kind           search.Kind
	Throttle       time.Duration
	IndicatorDelay time.Duration
	MinChars       int
}

func (c Config) withDefaults() Config {
	if c.Kind == "" {
		c.Kind = search.KindArticle
	}
	if c.Throttle <= 0 {
		c.Throttle = DefaultThrottle
	}
	if c.IndicatorDelay < 0 {
		c.IndicatorDelay = DefaultIndicatorDelay
	}
	if c.MinChars <= 0 {
		c.MinChars = DefaultMinChars
	}
	return c
}

// Ticket identifies one initiated request.
type Ticket struct {
	Seq     uint64
	Query   search.Query
	TraceID string
	started time.Time
}

type trailingMsg struct {
	token uint64
}

type indicatorStartMsg struct {
	seq uint64
}

type responseMsg struct {
	ticket  Ticket
	results search.ResultSet
	err     error
}

// Option customises a Controller.
type Option func(*Controller)

// WithMetrics records request outcomes into rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(c *Controller) { c.metrics = rec }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithScheduler replaces tea.Tick for delayed messages.
func WithScheduler(schedule func(time.Duration, tea.Msg) tea.Cmd) Option {
	return func(c *Controller) {
		if schedule != nil {
			c.schedule = schedule
		}
	}
}

// Snapshot is a read-only view of the controller counters.
type Snapshot struct {
	SequenceCounter  uint64 `json:"sequence_counter"`
	HighestCompleted uint64 `json:"highest_completed"`
	InFlight         int    `json:"in_flight"`
	IndicatorActive  bool   `json:"indicator_active"`
	TrailingPending  bool   `json:"trailing_pending"`
	Closed           bool   `json:"closed"`
}

// Controller owns the relationship between the prompt and the remote
// endpoint. It must only be used from the Bubble Tea update loop.
type Controller struct {
	cfg       Config
	searcher  Searcher
	input     Input
	list      Suggestions
	indicator Indicator
	metrics   *metrics.Recorder

	gate     *throttle.Gate[string]
	now      func() time.Time
	schedule func(time.Duration, tea.Msg) tea.Cmd

	ctx    context.Context
	cancel context.CancelFunc

	sequenceCounter  uint64
	highestCompleted uint64
	inflight         map[uint64]struct{}
	indicatorActive  bool
	closed           bool
}

// New wires a controller to its collaborators.
func New(cfg Config, searcher Searcher, input Input, list Suggestions, indicator Indicator, opts ...Option) *Controller {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:       cfg,
		searcher:  searcher,
		input:     input,
		list:      list,
		indicator: indicator,
		gate:      throttle.NewGate[string](cfg.Throttle),
		now:       time.Now,
		schedule:  tick,
		ctx:       ctx,
		cancel:    cancel,
		inflight:  make(map[uint64]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func tick(d time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return msg })
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// NotifyInput is called after every edit of the prompt.
func (c *Controller) NotifyInput() tea.Cmd {
	return c.trigger(sourceInput)
}

// NotifyFocusClick is called when the prompt is clicked or focused. It only
// searches while the prompt is empty, to pre-populate suggestions.
func (c *Controller) NotifyFocusClick() tea.Cmd {
	if c.closed || c.input == nil {
		return nil
	}
	if search.NewQuery(c.input.Value()) != "" {
		return nil
	}
	return c.trigger(sourceFocus)
}

func (c *Controller) trigger(source string) tea.Cmd {
	if c.closed {
		return nil
	}
	decision := c.gate.Call(c.now(), source)
	switch {
	case decision.Run:
		events.Throttle.Leading(source)
		return c.ForceSearch()
	case decision.Schedule:
		events.Throttle.Schedule(source, decision.After)
		return c.schedule(decision.After, trailingMsg{token: decision.Token})
	}
	return nil
}

// ForceSearch initiates a request for the current prompt text, bypassing the
// throttle. Earlier requests keep running; their responses are reconciled in
// HandleMsg.
func (c *Controller) ForceSearch() tea.Cmd {
	if c.closed || c.input == nil {
		return nil
	}
	c.sequenceCounter++
	ticket := Ticket{
		Seq:     c.sequenceCounter,
		Query:   search.NewQuery(c.input.Value()),
		TraceID: uuid.NewString(),
		started: c.now(),
	}
	c.inflight[ticket.Seq] = struct{}{}
	events.Search.Request(ticket.TraceID, ticket.Seq, ticket.Query.String())

	cmds := []tea.Cmd{c.request(ticket)}
	if utf8.RuneCountInString(ticket.Query.String()) >= c.cfg.MinChars {
		cmds = append(cmds, c.schedule(c.cfg.IndicatorDelay, indicatorStartMsg{seq: ticket.Seq}))
	}
	return tea.Batch(cmds...)
}

func (c *Controller) request(ticket Ticket) tea.Cmd {
	ctx := c.ctx
	searcher := c.searcher
	kind := c.cfg.Kind
	return func() tea.Msg {
		results, err := searcher.Search(ctx, kind, ticket.Query)
		return responseMsg{ticket: ticket, results: results, err: err}
	}
}

// HandleMsg consumes messages produced by the controller's own commands. The
// boolean reports whether msg belonged to the controller.
func (c *Controller) HandleMsg(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case trailingMsg:
		return c.handleTrailing(msg), true
	case indicatorStartMsg:
		return c.handleIndicatorStart(msg), true
	case responseMsg:
		c.handleResponse(msg)
		return nil, true
	}
	return nil, false
}

func (c *Controller) handleTrailing(msg trailingMsg) tea.Cmd {
	if c.closed {
		return nil
	}
	if _, ok := c.gate.Fire(c.now(), msg.token); !ok {
		return nil
	}
	events.Throttle.Trailing(msg.token)
	return c.ForceSearch()
}

func (c *Controller) handleIndicatorStart(msg indicatorStartMsg) tea.Cmd {
	if c.closed || c.indicator == nil || c.indicatorActive {
		return nil
	}
	if _, pending := c.inflight[msg.seq]; !pending {
		return nil
	}
	// Only the newest ticket stops the indicator, so it must still be running.
	if _, pending := c.inflight[c.sequenceCounter]; !pending {
		return nil
	}
	c.indicatorActive = true
	c.metrics.IndicatorStarted()
	events.Search.IndicatorStart(msg.seq)
	return c.indicator.Start()
}

func (c *Controller) handleResponse(msg responseMsg) {
	if c.closed {
		return
	}
	ticket := msg.ticket
	delete(c.inflight, ticket.Seq)
	elapsed := c.now().Sub(ticket.started)

	switch {
	case msg.err != nil:
		events.Search.Fail(ticket.TraceID, ticket.Seq, msg.err)
		logging.Error(msg.err)
		c.metrics.Request(metrics.OutcomeFailed, elapsed)
	case ticket.Seq <= c.highestCompleted:
		events.Search.Stale(ticket.TraceID, ticket.Seq, c.highestCompleted)
		c.metrics.Request(metrics.OutcomeStale, elapsed)
	default:
		c.highestCompleted = ticket.Seq
		results := msg.results
		if results == nil {
			results = search.ResultSet{}
		}
		if c.list != nil {
			c.list.SetCandidates(results)
			if c.input != nil && c.input.Focused() {
				c.list.Evaluate()
			}
		}
		events.Search.Accept(ticket.TraceID, ticket.Seq, len(results), elapsed)
		c.metrics.Request(metrics.OutcomeAccepted, elapsed)
	}

	if ticket.Seq == c.sequenceCounter && c.indicatorActive {
		c.indicatorActive = false
		if c.indicator != nil {
			c.indicator.Stop()
		}
		events.Search.IndicatorStop(ticket.Seq)
	}
}

// RemoveEventListeners detaches the controller from its widgets. Later
// notifications, ticks and responses are ignored. Calling it again is a no-op.
func (c *Controller) RemoveEventListeners() {
	if c.closed {
		return
	}
	c.closed = true
	c.gate.Cancel()
	c.cancel()
	if c.indicatorActive && c.indicator != nil {
		c.indicator.Stop()
	}
	c.indicatorActive = false
	c.inflight = make(map[uint64]struct{})
	c.input = nil
	c.list = nil
	c.indicator = nil
	events.Search.Detach()
}

// Closed reports whether RemoveEventListeners has run.
func (c *Controller) Closed() bool {
	return c.closed
}

// SelectedIDs returns the ids currently selected in the suggestion list.
func (c *Controller) SelectedIDs() []string {
	if c.list == nil {
		return nil
	}
	return c.list.SelectedIDs()
}

// Snapshot reports the current counters.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		SequenceCounter:  c.sequenceCounter,
		HighestCompleted: c.highestCompleted,
		InFlight:         len(c.inflight),
		IndicatorActive:  c.indicatorActive,
		TrailingPending:  c.gate.Pending(),
		Closed:           c.closed,
	}
}
