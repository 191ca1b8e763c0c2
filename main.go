package main

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/atomicstack/chsearch/internal/app"
	"github.com/atomicstack/chsearch/internal/config"
	"github.com/atomicstack/chsearch/internal/logging"
	"github.com/atomicstack/chsearch/internal/logging/events"
)

var errNoTerminal = errors.New("no terminal to draw on: stdout and stderr are both redirected")

type descriptor struct {
	name string
	file *os.File
}

func main() {
	runtimeCfg := config.MustLoad()
	if err := config.Validate(runtimeCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	logging.Configure(runtimeCfg.Logging.FilePath)
	logging.SetTraceEnabled(runtimeCfg.Logging.Trace)

	tty := probeTerminals(standardDescriptors(), term.IsTerminal, term.GetSize)
	events.App.Start(startupTracePayload(runtimeCfg, tty))

	screen, err := tty.terminal()
	if err == nil {
		err = app.Run(runtimeCfg.App, screen)
	}
	if err != nil {
		logging.Error(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func standardDescriptors() []descriptor {
	return []descriptor{
		{"stdin", os.Stdin},
		{"stdout", os.Stdout},
		{"stderr", os.Stderr},
	}
}

// startupTracePayload bundles runtime context for trace logging.
func startupTracePayload(cfg config.Config, tty ttyDetails) map[string]interface{} {
	flags := make(map[string]interface{}, len(cfg.Flags))
	for k, v := range cfg.Flags {
		flags[k] = v
	}
	flags["trace"] = cfg.Logging.Trace
	flags["logFile"] = cfg.Logging.FilePath
	payload := map[string]interface{}{
		"argv":   cfg.Args,
		"flags":  flags,
		"config": cfg,
		"tty":    tty,
	}
	if cfg.File != "" {
		payload["configFile"] = cfg.File
	}
	if exe, err := os.Executable(); err == nil {
		payload["executable"] = exe
	}
	return payload
}

type ttyDetails struct {
	Screen   string           `json:"screen,omitempty"`
	InputTTY bool             `json:"input_tty"`
	Probes   []ttyProbeResult `json:"probes"`

	screen *os.File
}

type ttyProbeResult struct {
	Name       string `json:"name"`
	IsTerminal bool   `json:"is_terminal"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Error      string `json:"error,omitempty"`
}

// probeTerminals records which descriptors are terminals and picks the one the
// picker draws on. stdout is preferred; when it is piped the picker moves to
// stderr so the result stays clean. A redirected stdin means keys are read
// from the controlling terminal.
func probeTerminals(fds []descriptor, isTerminal func(int) bool, size func(int) (int, int, error)) ttyDetails {
	details := ttyDetails{Probes: make([]ttyProbeResult, 0, len(fds))}
	stdinTTY := false
	for _, d := range fds {
		entry := ttyProbeResult{Name: d.name}
		fd := -1
		if d.file != nil {
			fd = int(d.file.Fd())
		}
		if fd >= 0 && isTerminal(fd) {
			entry.IsTerminal = true
			if w, h, err := size(fd); err == nil {
				entry.Width, entry.Height = w, h
			} else {
				entry.Error = err.Error()
			}
			switch d.name {
			case "stdin":
				stdinTTY = true
			case "stdout", "stderr":
				if details.screen == nil {
					details.screen = d.file
					details.Screen = d.name
				}
			}
		}
		details.Probes = append(details.Probes, entry)
	}
	details.InputTTY = !stdinTTY
	return details
}

func (d ttyDetails) terminal() (app.Terminal, error) {
	if d.screen == nil {
		return app.Terminal{}, errNoTerminal
	}
	return app.Terminal{Output: d.screen, InputTTY: d.InputTTY}, nil
}
