package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/atomicstack/chsearch/internal/logging"
	"github.com/atomicstack/chsearch/internal/metrics"
	"github.com/atomicstack/chsearch/internal/search"
)

type fakeInput struct {
	value   string
	focused bool
}

func (f *fakeInput) Value() string { return f.value }
func (f *fakeInput) Focused() bool { return f.focused }

type fakeList struct {
	candidates  search.ResultSet
	sets        int
	evaluations int
	selected    []string
}

func (f *fakeList) SetCandidates(rs search.ResultSet) {
	f.candidates = rs
	f.sets++
}
func (f *fakeList) Evaluate()             { f.evaluations++ }
func (f *fakeList) SelectedIDs() []string { return f.selected }

type fakeIndicator struct {
	starts int
	stops  int
}

func (f *fakeIndicator) Start() tea.Cmd {
	f.starts++
	return nil
}
func (f *fakeIndicator) Stop() { f.stops++ }

type fakeSearcher struct {
	queries []string
	kinds   []search.Kind
	ctxs    []context.Context
	respond func(q search.Query) (search.ResultSet, error)
}

func (f *fakeSearcher) Search(ctx context.Context, kind search.Kind, q search.Query) (search.ResultSet, error) {
	f.queries = append(f.queries, q.String())
	f.kinds = append(f.kinds, kind)
	f.ctxs = append(f.ctxs, ctx)
	if f.respond == nil {
		return search.ResultSet{{ID: q.String(), Title: q.String()}}, nil
	}
	return f.respond(q)
}

type scheduled struct {
	after time.Duration
	msg   tea.Msg
}

type fixture struct {
	ctrl      *Controller
	input     *fakeInput
	list      *fakeList
	indicator *fakeIndicator
	searcher  *fakeSearcher
	now       time.Time
	scheduled []scheduled
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	logging.Configure(filepath.Join(t.TempDir(), "controller.log"))
	t.Cleanup(func() { logging.Configure("") })

	f := &fixture{
		input:     &fakeInput{focused: true},
		list:      &fakeList{},
		indicator: &fakeIndicator{},
		searcher:  &fakeSearcher{},
		now:       time.Unix(1_700_000_000, 0),
	}
	base := []Option{
		WithClock(func() time.Time { return f.now }),
		WithScheduler(func(d time.Duration, msg tea.Msg) tea.Cmd {
			f.scheduled = append(f.scheduled, scheduled{after: d, msg: msg})
			return func() tea.Msg { return msg }
		}),
	}
	f.ctrl = New(Config{
		Kind:           search.KindCategory,
		Throttle:       800 * time.Millisecond,
		IndicatorDelay: 100 * time.Millisecond,
		MinChars:       1,
	}, f.searcher, f.input, f.list, f.indicator, append(base, opts...)...)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) typeText(value string) []tea.Msg {
	f.input.value = value
	return collect(f.ctrl.NotifyInput())
}

func (f *fixture) deliver(t *testing.T, msg tea.Msg) []tea.Msg {
	t.Helper()
	cmd, handled := f.ctrl.HandleMsg(msg)
	require.True(t, handled, "message %T not handled", msg)
	return collect(cmd)
}

// collect runs cmd and flattens any batch into the resulting messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, collect(c)...)
	}
	return out
}

func responsesIn(msgs []tea.Msg) []responseMsg {
	var out []responseMsg
	for _, m := range msgs {
		if r, ok := m.(responseMsg); ok {
			out = append(out, r)
		}
	}
	return out
}

func firstOf[T any](t *testing.T, msgs []tea.Msg) T {
	t.Helper()
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v
		}
	}
	var zero T
	t.Fatalf("no %T in %#v", zero, msgs)
	return zero
}

func TestThrottleScenarioIssuesLeadingAndTrailingRequests(t *testing.T) {
	f := newFixture(t)

	first := f.typeText("cat")
	require.Len(t, responsesIn(first), 1)

	f.advance(50 * time.Millisecond)
	second := f.typeText("cate")
	trailing := firstOf[trailingMsg](t, second)
	require.Equal(t, 750*time.Millisecond, f.scheduled[len(f.scheduled)-1].after)

	f.advance(700 * time.Millisecond)
	require.Empty(t, f.typeText("categ"), "a pending trailing call absorbs further input")

	f.advance(50 * time.Millisecond)
	fired := f.deliver(t, trailing)
	require.Len(t, responsesIn(fired), 1)

	require.Equal(t, []string{"cat", "categ"}, f.searcher.queries)
	require.Equal(t, []search.Kind{search.KindCategory, search.KindCategory}, f.searcher.kinds)
	require.Equal(t, uint64(2), f.ctrl.Snapshot().SequenceCounter)
}

func TestNewerResponseWinsRegardlessOfArrivalOrder(t *testing.T) {
	f := newFixture(t)
	f.searcher.respond = func(q search.Query) (search.ResultSet, error) {
		n := 2
		if q == "xy" {
			n = 5
		}
		rs := make(search.ResultSet, n)
		for i := range rs {
			rs[i] = search.Result{ID: fmt.Sprintf("%s-%d", q, i), Title: q.String()}
		}
		return rs, nil
	}

	f.input.value = "x"
	a := responsesIn(collect(f.ctrl.ForceSearch()))[0]
	f.input.value = "xy"
	b := responsesIn(collect(f.ctrl.ForceSearch()))[0]
	require.Equal(t, uint64(1), a.ticket.Seq)
	require.Equal(t, uint64(2), b.ticket.Seq)

	f.deliver(t, b)
	require.Len(t, f.list.candidates, 5)
	require.Equal(t, uint64(2), f.ctrl.Snapshot().HighestCompleted)

	f.deliver(t, a)
	require.Len(t, f.list.candidates, 5)
	require.Equal(t, 1, f.list.sets)
	require.Equal(t, uint64(2), f.ctrl.Snapshot().HighestCompleted)
}

func TestFinalListMatchesNewestRequestForEveryInterleaving(t *testing.T) {
	queries := []string{"a", "ab", "abc", "abcd"}
	for _, order := range permutations(len(queries)) {
		t.Run(fmt.Sprint(order), func(t *testing.T) {
			f := newFixture(t)
			var responses []responseMsg
			for _, q := range queries {
				f.input.value = q
				responses = append(responses, responsesIn(collect(f.ctrl.ForceSearch()))...)
			}
			for _, i := range order {
				f.deliver(t, responses[i])
			}
			require.Equal(t, search.ResultSet{{ID: "abcd", Title: "abcd"}}, f.list.candidates)
			require.Equal(t, uint64(4), f.ctrl.Snapshot().HighestCompleted)
			require.Equal(t, 0, f.ctrl.Snapshot().InFlight)
		})
	}
}

func TestHTTPErrorLeavesListAndStopsIndicator(t *testing.T) {
	f := newFixture(t)
	f.input.value = "ok"
	f.deliver(t, responsesIn(collect(f.ctrl.ForceSearch()))[0])
	before := f.list.candidates
	require.Len(t, before, 1)

	f.searcher.respond = func(search.Query) (search.ResultSet, error) {
		return nil, &search.HTTPError{URL: "http://x", StatusCode: http.StatusInternalServerError, Status: "500 Internal Server Error"}
	}
	f.input.value = "boom"
	msgs := collect(f.ctrl.ForceSearch())
	f.deliver(t, firstOf[indicatorStartMsg](t, msgs))
	require.Equal(t, 1, f.indicator.starts)

	f.deliver(t, firstOf[responseMsg](t, msgs))
	require.Equal(t, before, f.list.candidates)
	require.Equal(t, 1, f.list.sets)
	require.Equal(t, 1, f.indicator.stops)
	require.False(t, f.ctrl.Snapshot().IndicatorActive)
	require.Equal(t, uint64(1), f.ctrl.Snapshot().HighestCompleted)
}

func TestFastResponseNeverStartsIndicator(t *testing.T) {
	f := newFixture(t)
	f.input.value = "quick"
	msgs := collect(f.ctrl.ForceSearch())
	require.Equal(t, 100*time.Millisecond, f.scheduled[0].after)

	f.deliver(t, firstOf[responseMsg](t, msgs))
	f.deliver(t, firstOf[indicatorStartMsg](t, msgs))
	require.Zero(t, f.indicator.starts)
	require.Zero(t, f.indicator.stops)
}

func TestOnlyNewestCompletionStopsIndicator(t *testing.T) {
	f := newFixture(t)
	f.input.value = "slow"
	first := collect(f.ctrl.ForceSearch())
	f.deliver(t, firstOf[indicatorStartMsg](t, first))
	require.Equal(t, 1, f.indicator.starts)

	f.input.value = "slower"
	second := collect(f.ctrl.ForceSearch())

	f.deliver(t, firstOf[responseMsg](t, first))
	require.Zero(t, f.indicator.stops, "superseded completion must not touch the indicator")

	f.deliver(t, firstOf[indicatorStartMsg](t, second))
	require.Equal(t, 1, f.indicator.starts, "an active indicator is not restarted")

	f.deliver(t, firstOf[responseMsg](t, second))
	require.Equal(t, 1, f.indicator.stops)
}

func TestSupersededStartAfterNewestCompletedStaysIdle(t *testing.T) {
	f := newFixture(t)
	f.input.value = "slow"
	first := collect(f.ctrl.ForceSearch())
	f.input.value = "fast"
	second := collect(f.ctrl.ForceSearch())

	f.deliver(t, firstOf[responseMsg](t, second))
	f.deliver(t, firstOf[indicatorStartMsg](t, first))
	require.Zero(t, f.indicator.starts)

	f.deliver(t, firstOf[responseMsg](t, first))
	require.Zero(t, f.indicator.stops)
	snap := f.ctrl.Snapshot()
	require.False(t, snap.IndicatorActive)
	require.Equal(t, uint64(2), snap.HighestCompleted)
}

func TestOlderStartShowsIndicatorForNewestRequest(t *testing.T) {
	f := newFixture(t)
	f.input.value = "slow"
	first := collect(f.ctrl.ForceSearch())
	f.input.value = "slower"
	second := collect(f.ctrl.ForceSearch())

	f.deliver(t, firstOf[indicatorStartMsg](t, first))
	require.Equal(t, 1, f.indicator.starts)

	f.deliver(t, firstOf[responseMsg](t, first))
	require.Zero(t, f.indicator.stops)

	f.deliver(t, firstOf[responseMsg](t, second))
	require.Equal(t, 1, f.indicator.stops)
	require.False(t, f.ctrl.Snapshot().IndicatorActive)
}

func TestShortQueryDoesNotScheduleIndicator(t *testing.T) {
	f := newFixture(t)
	f.input.value = "   "
	msgs := collect(f.ctrl.ForceSearch())
	require.Len(t, msgs, 1)
	require.Empty(t, f.scheduled)
	require.Equal(t, []string{""}, f.searcher.queries)
}

func TestUnfocusedInputSkipsEvaluate(t *testing.T) {
	f := newFixture(t)
	f.input.focused = false
	f.input.value = "cat"
	f.deliver(t, responsesIn(collect(f.ctrl.ForceSearch()))[0])
	require.Equal(t, 1, f.list.sets)
	require.Zero(t, f.list.evaluations)

	f.input.focused = true
	f.deliver(t, responsesIn(collect(f.ctrl.ForceSearch()))[0])
	require.Equal(t, 1, f.list.evaluations)
}

func TestNotifyFocusClickOnlySearchesEmptyField(t *testing.T) {
	f := newFixture(t)
	f.input.value = "typed"
	require.Nil(t, f.ctrl.NotifyFocusClick())
	require.Zero(t, f.ctrl.Snapshot().SequenceCounter)

	f.input.value = "  "
	msgs := collect(f.ctrl.NotifyFocusClick())
	require.Len(t, responsesIn(msgs), 1)

	f.advance(10 * time.Millisecond)
	msgs = collect(f.ctrl.NotifyFocusClick())
	require.IsType(t, trailingMsg{}, msgs[0], "a second empty click waits for the window")
}

func TestStaleTrailingTokenIsIgnored(t *testing.T) {
	f := newFixture(t)
	cmd, handled := f.ctrl.HandleMsg(trailingMsg{token: 42})
	require.True(t, handled)
	require.Nil(t, cmd)
	require.Zero(t, f.ctrl.Snapshot().SequenceCounter)
}

func TestHandleMsgIgnoresForeignMessages(t *testing.T) {
	f := newFixture(t)
	cmd, handled := f.ctrl.HandleMsg(tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, handled)
	require.Nil(t, cmd)
}

func TestRemoveEventListenersIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.input.value = "cat"
	msgs := collect(f.ctrl.ForceSearch())
	f.deliver(t, firstOf[indicatorStartMsg](t, msgs))

	f.ctrl.RemoveEventListeners()
	f.ctrl.RemoveEventListeners()
	require.Equal(t, 1, f.indicator.stops)
	require.True(t, f.ctrl.Closed())
	require.ErrorIs(t, f.searcher.ctxs[0].Err(), context.Canceled)

	f.deliver(t, firstOf[responseMsg](t, msgs))
	require.Zero(t, f.list.sets)
	require.Nil(t, f.ctrl.NotifyInput())
	require.Nil(t, f.ctrl.NotifyFocusClick())
	require.Nil(t, f.ctrl.ForceSearch())
	require.Nil(t, f.ctrl.SelectedIDs())
	require.Equal(t, uint64(1), f.ctrl.Snapshot().SequenceCounter)
}

func TestSelectedIDsDelegatesToList(t *testing.T) {
	f := newFixture(t)
	f.list.selected = []string{"7", "3"}
	require.Equal(t, []string{"7", "3"}, f.ctrl.SelectedIDs())
}

func TestMetricsRecordOutcomes(t *testing.T) {
	rec := metrics.NewRecorder()
	f := newFixture(t, WithMetrics(rec))

	f.input.value = "a"
	a := collect(f.ctrl.ForceSearch())
	f.input.value = "ab"
	b := collect(f.ctrl.ForceSearch())
	f.deliver(t, firstOf[indicatorStartMsg](t, b))
	f.advance(200 * time.Millisecond)
	f.deliver(t, firstOf[responseMsg](t, b))
	f.deliver(t, firstOf[responseMsg](t, a))

	f.searcher.respond = func(search.Query) (search.ResultSet, error) { return nil, errors.New("offline") }
	f.deliver(t, firstOf[responseMsg](t, collect(f.ctrl.ForceSearch())))

	require.Equal(t, 1.0, counterValue(t, rec, "chsearch_requests_total", metrics.OutcomeAccepted))
	require.Equal(t, 1.0, counterValue(t, rec, "chsearch_requests_total", metrics.OutcomeStale))
	require.Equal(t, 1.0, counterValue(t, rec, "chsearch_requests_total", metrics.OutcomeFailed))
	require.Equal(t, 1.0, counterValue(t, rec, "chsearch_indicator_starts_total", ""))
}

func TestConfigDefaults(t *testing.T) {
	c := New(Config{IndicatorDelay: -1}, &fakeSearcher{}, &fakeInput{}, &fakeList{}, &fakeIndicator{})
	cfg := c.Config()
	require.Equal(t, search.KindArticle, cfg.Kind)
	require.Equal(t, DefaultThrottle, cfg.Throttle)
	require.Equal(t, DefaultIndicatorDelay, cfg.IndicatorDelay)
	require.Equal(t, DefaultMinChars, cfg.MinChars)
}

func counterValue(t *testing.T, rec *metrics.Recorder, name, outcome string) float64 {
	t.Helper()
	families, err := rec.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if outcome == "" {
				return m.GetCounter().GetValue()
			}
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s{%s} not found", name, outcome)
	return 0
}

func permutations(n int) [][]int {
	var out [][]int
	var walk func(prefix []int, used []bool)
	walk = func(prefix []int, used []bool) {
		if len(prefix) == n {
			out = append(out, append([]int(nil), prefix...))
			return
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			walk(append(prefix, i), used)
			used[i] = false
		}
	}
	walk(nil, make([]bool, n))
	return out
}
