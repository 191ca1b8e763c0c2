package ui

import (
	"context"
	"reflect"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/chsearch/internal/controller"
	"github.com/atomicstack/chsearch/internal/debug"
	"github.com/atomicstack/chsearch/internal/logging"
	"github.com/atomicstack/chsearch/internal/logging/events"
	"github.com/atomicstack/chsearch/internal/metrics"
	"github.com/atomicstack/chsearch/internal/search"
	"github.com/atomicstack/chsearch/internal/theme"
	"github.com/atomicstack/chsearch/internal/ui/command"
	uistate "github.com/atomicstack/chsearch/internal/ui/state"
)

type level = uistate.Level

type focusArea int

const (
	focusPrompt focusArea = iota
	focusList
)

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// SnippetFetcher resolves the snippets of selected articles.
type SnippetFetcher interface {
	SnippetsInArticles(ctx context.Context, pageIDs []string) (map[string][]string, error)
}

// Options configures a Model.
type Options struct {
	Kind       search.Kind
	Width      int
	Height     int
	ShowFooter bool
	// CursorBlink animates the prompt caret. Tests leave it off so no blink
	// timers are scheduled.
	CursorBlink bool

	Search            controller.Config
	Searcher          controller.Searcher
	Snippets          SnippetFetcher
	CommandTimeout    time.Duration
	Metrics           *metrics.Recorder
	Debug             *debug.Registry
	ControllerOptions []controller.Option
}

// Result is what the picker produced when it quit.
type Result struct {
	Kind     search.Kind
	Chosen   *search.Result
	Selected search.ResultSet
	Snippets map[string][]string
}

// Model implements the Bubble Tea model for the incremental search picker.
type Model struct {
	kind        search.Kind
	list        *level
	ctrl        *controller.Controller
	indicator   *indicator
	bus         *command.Bus
	snippets    SnippetFetcher
	focus       focusArea
	submitting  bool
	errMsg      string
	infoMsg     string
	infoExpire  time.Time
	width       int
	height      int
	fixedWidth  bool
	fixedHeight bool
	showFooter  bool
	promptRow   int
	listRow     int
	result      Result

	filterCursor      cursor.Model
	filterCursorDirty bool
	cursorBlink       bool

	handlers map[reflect.Type]msgHandler
}

// NewModel builds the picker and wires its search controller.
func NewModel(opts Options) *Model {
	kind := opts.Kind
	if kind == "" {
		kind = opts.Search.Kind
	}
	if kind == "" {
		kind = search.KindArticle
	}
	title := "Articles"
	if kind == search.KindCategory {
		title = "Categories"
	}
	m := &Model{
		kind:        kind,
		list:        uistate.NewLevel(kind, title),
		indicator:   newIndicator(),
		bus:         command.New(opts.CommandTimeout),
		snippets:    opts.Snippets,
		focus:       focusPrompt,
		showFooter:  opts.ShowFooter,
		cursorBlink: opts.CursorBlink,
		result:      Result{Kind: kind},
	}
	if opts.Width > 0 {
		m.width = opts.Width
		m.fixedWidth = true
	}
	if opts.Height > 0 {
		m.height = opts.Height
		m.fixedHeight = true
	}

	cfg := opts.Search
	cfg.Kind = kind
	ctrlOpts := append([]controller.Option{controller.WithMetrics(opts.Metrics)}, opts.ControllerOptions...)
	m.ctrl = controller.New(cfg, opts.Searcher, promptInput{m: m}, m.list, m.indicator, ctrlOpts...)
	m.registerSnapshots(opts.Debug)

	c := cursor.New()
	if styles.Cursor != nil {
		c.Style = styles.Cursor.Copy()
	}
	if styles.Filter != nil {
		c.TextStyle = styles.Filter.Copy()
	}
	c.SetChar(" ")
	if !m.cursorBlink {
		c.SetMode(cursor.CursorStatic)
	}
	m.filterCursor = c
	m.registerHandlers()
	return m
}

// Init focuses the prompt and pre-populates suggestions the same way a click
// on the empty field would.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{}
	if cmd := m.filterCursor.Focus(); cmd != nil && m.cursorBlink {
		cmds = append(cmds, cmd)
	}
	if cmd := m.ctrl.NotifyFocusClick(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, 4)
	if cmd, handled := m.ctrl.HandleMsg(msg); handled {
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		m.syncViewport()
		return m, m.finishUpdate(cmds)
	}
	if cmd := m.updateFilterCursorModel(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if handler := m.handlerFor(msg); handler != nil {
		if cmd := handler(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, m.finishUpdate(cmds)
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):        m.handleKeyMsg,
		reflect.TypeOf(tea.MouseMsg{}):      m.handleMouseMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}): m.handleWindowSizeMsg,
		reflect.TypeOf(spinner.TickMsg{}):   m.handleSpinnerTickMsg,
		reflect.TypeOf(command.Result{}):    m.handleCommandResultMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

func (m *Model) finishUpdate(cmds []tea.Cmd) tea.Cmd {
	if m.filterCursorDirty {
		m.filterCursorDirty = false
		m.filterCursor.Blink = false
		if m.cursorBlink {
			if cmd := m.filterCursor.BlinkCmd(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// quit detaches the controller before handing control back to the caller.
func (m *Model) quit() tea.Cmd {
	m.ctrl.RemoveEventListeners()
	events.App.Exit(nil)
	return tea.Quit
}

// Result returns what the picker produced.
func (m *Model) Result() Result {
	return m.result
}

// Controller exposes the search controller.
func (m *Model) Controller() *controller.Controller {
	return m.ctrl
}

func (m *Model) registerSnapshots(reg *debug.Registry) {
	if reg == nil {
		return
	}
	snapshots := map[string]debug.Snapshotter{
		"controller": debug.SnapshotFunc(func() interface{} { return m.ctrl.Snapshot() }),
		"list":       debug.SnapshotFunc(func() interface{} { return m.listSnapshot() }),
	}
	for name, s := range snapshots {
		if err := reg.Register(name, s); err != nil {
			logging.Error(err)
		}
	}
}

type listSnapshot struct {
	Filter     string `json:"filter"`
	Candidates int    `json:"candidates"`
	Visible    int    `json:"visible"`
	Cursor     int    `json:"cursor"`
	Open       bool   `json:"open"`
	Selected   int    `json:"selected"`
}

func (m *Model) listSnapshot() listSnapshot {
	selected, _ := m.list.SelectionSummary()
	return listSnapshot{
		Filter:     m.list.Filter,
		Candidates: len(m.list.Full),
		Visible:    len(m.list.Items),
		Cursor:     m.list.Cursor,
		Open:       m.list.Open,
		Selected:   selected,
	}
}

// promptInput exposes the prompt to the controller.
type promptInput struct {
	m *Model
}

func (p promptInput) Value() string {
	return p.m.list.Value()
}

func (p promptInput) Focused() bool {
	return p.m.focus == focusPrompt
}
