// Command chsearch-devserver serves a fixture corpus in the shape of the
// Citation Hunt search API, with optional artificial latency.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/atomicstack/chsearch/internal/devserver"
	"github.com/atomicstack/chsearch/internal/metrics"
)

func main() {
	fs := flag.NewFlagSet("chsearch-devserver", flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:8080", "listen address")
	latency := fs.Duration("latency", 0, "base delay added to every response")
	jitter := fs.Duration("jitter", 0, "random extra delay in [0, jitter)")
	corpusPath := fs.String("corpus", "", "JSON corpus file (defaults to the built-in fixtures)")
	verbose := fs.Bool("verbose", false, "log every request")
	_ = fs.Parse(os.Args[1:])

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "devserver",
	})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	corpus := devserver.DefaultCorpus()
	if *corpusPath != "" {
		loaded, err := devserver.LoadCorpus(*corpusPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		corpus = loaded
	}

	srv := devserver.New(devserver.Options{
		Corpus:   corpus,
		Latency:  *latency,
		Jitter:   *jitter,
		Recorder: metrics.NewRecorder(),
		Logger:   logger,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("shutting down")
		if err := srv.Shutdown(); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}()

	if err := srv.Listen(*addr); err != nil {
		logger.Error("listen", "err", err)
		os.Exit(1)
	}
}
