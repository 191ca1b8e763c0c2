package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/chsearch/internal/controller"
	"github.com/atomicstack/chsearch/internal/debug"
	"github.com/atomicstack/chsearch/internal/logging"
	"github.com/atomicstack/chsearch/internal/logging/events"
	"github.com/atomicstack/chsearch/internal/metrics"
	"github.com/atomicstack/chsearch/internal/search"
	"github.com/atomicstack/chsearch/internal/ui"
)

// Config describes user-provided application options.
type Config struct {
	BaseURL      string
	Lang         string
	Kind         search.Kind
	MaxResults   int
	Throttle     time.Duration
	SpinnerDelay time.Duration
	MinChars     int
	Timeout      time.Duration
	Width        int
	Height       int
	ShowFooter   bool
	Debug        bool
	MetricsAddr  string
}

// Terminal says where the picker draws. The result always goes to stdout, so
// when stdout is piped the picker renders on another descriptor.
type Terminal struct {
	Output *os.File
	// InputTTY reads keys from the controlling terminal instead of stdin.
	InputTTY bool
}

func (t Terminal) programOptions() []tea.ProgramOption {
	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}
	if t.Output != nil {
		opts = append(opts, tea.WithOutput(t.Output))
	}
	if t.InputTTY {
		opts = append(opts, tea.WithInputTTY())
	}
	return opts
}

// Run bootstraps and executes the Bubble Tea program on term, then prints
// what the user picked to stdout.
func Run(cfg Config, term Terminal) error {
	client, err := search.NewClient(search.Options{
		BaseURL:    cfg.BaseURL,
		Lang:       cfg.Lang,
		MaxResults: cfg.MaxResults,
		Timeout:    cfg.Timeout,
	})
	if err != nil {
		return fmt.Errorf("search client: %w", err)
	}

	recorder := metrics.NewRecorder()
	if cfg.MetricsAddr != "" {
		_, stop, err := ServeMetrics(cfg.MetricsAddr, recorder)
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		defer stop()
	}

	var registry *debug.Registry
	if cfg.Debug {
		registry = debug.NewRegistry()
	}

	model := ui.NewModel(NewOptions(cfg, client, recorder, registry))
	program := tea.NewProgram(model, term.programOptions()...)
	_, err = program.Run()
	model.Controller().RemoveEventListeners()
	if registry != nil {
		events.App.Debug(registry.Dump())
	}
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	if err != nil {
		return err
	}
	return WriteResult(os.Stdout, model.Result())
}

// NewOptions maps application settings onto the picker.
func NewOptions(cfg Config, client *search.Client, recorder *metrics.Recorder, registry *debug.Registry) ui.Options {
	opts := ui.Options{
		Kind:        cfg.Kind,
		Width:       cfg.Width,
		Height:      cfg.Height,
		ShowFooter:  cfg.ShowFooter,
		CursorBlink: true,
		Search: controller.Config{
			Kind:           cfg.Kind,
			Throttle:       cfg.Throttle,
			IndicatorDelay: cfg.SpinnerDelay,
			MinChars:       cfg.MinChars,
		},
		CommandTimeout: cfg.Timeout,
		Metrics:        recorder,
		Debug:          registry,
	}
	if client != nil {
		opts.Searcher = client
		opts.Snippets = client
	}
	return opts
}

// ServeMetrics exposes recorder on addr. It returns the bound address and a
// function that shuts the listener down.
func ServeMetrics(addr string, recorder *metrics.Recorder) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(fmt.Errorf("metrics server: %w", err))
		}
	}()
	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return ln.Addr().String(), stop, nil
}

type articleOutput struct {
	ID       string   `json:"page_id"`
	Title    string   `json:"title"`
	Snippets []string `json:"snippets"`
}

// WriteResult prints the outcome of a picker session. A chosen category is
// printed as "id<TAB>title"; selected articles are printed as a JSON array.
// Nothing is written when the user quit without choosing.
func WriteResult(w io.Writer, res ui.Result) error {
	switch {
	case res.Chosen != nil:
		_, err := fmt.Fprintf(w, "%s\t%s\n", res.Chosen.ID, res.Chosen.Title)
		return err
	case len(res.Selected) > 0:
		out := make([]articleOutput, len(res.Selected))
		for i, r := range res.Selected {
			snippets := res.Snippets[r.ID]
			if snippets == nil {
				snippets = []string{}
			}
			out[i] = articleOutput{ID: r.ID, Title: r.Title, Snippets: snippets}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return nil
}
