// Package devserver is a local stand-in for the Citation Hunt search
// endpoints. Optional latency makes responses overtake each other so the
// picker's ordering logic can be exercised by hand.
package devserver

import (
	"context"
	"io"
	"math/rand/v2"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/atomicstack/chsearch/internal/metrics"
	"github.com/atomicstack/chsearch/internal/search"
	"github.com/atomicstack/chsearch/internal/throttle"
)

// MaxDelay bounds delay_ms so a typo cannot hang a client forever.
const MaxDelay = 30 * time.Second

const summaryInterval = 5 * time.Second

// Options configures a Server.
type Options struct {
	Corpus   Corpus
	Latency  time.Duration
	Jitter   time.Duration
	Recorder *metrics.Recorder
	Logger   *log.Logger
}

// Server wraps the Fiber app and its corpus.
type Server struct {
	App *fiber.App

	corpus     Corpus
	articles   *index
	categories *index
	latency    time.Duration
	jitter     time.Duration
	logger     *log.Logger
	recorder   *metrics.Recorder
	served     *prometheus.CounterVec
	summary    *throttle.Func
	total      atomic.Int64
}

// New builds the server and registers its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}
	s := &Server{
		corpus:   opts.Corpus,
		latency:  opts.Latency,
		jitter:   opts.Jitter,
		logger:   logger,
		recorder: recorder,
		served: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chsearch",
			Subsystem: "devserver",
			Name:      "queries_total",
			Help:      "Queries answered by the dev server, by kind.",
		}, []string{"kind"}),
	}
	recorder.Registry().MustRegister(s.served)
	s.summary = throttle.New(func() {
		s.logger.Info("queries served", "total", s.total.Load())
	}, summaryInterval)

	titles := make([]string, len(s.corpus.Articles))
	for i, a := range s.corpus.Articles {
		titles[i] = a.Title
	}
	s.articles = newIndex(titles)
	titles = make([]string, len(s.corpus.Categories))
	for i, c := range s.corpus.Categories {
		titles[i] = c.Title
	}
	s.categories = newIndex(titles)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal Server Error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return c.Status(code).JSON(fiber.Map{"error": message})
		},
	})
	app.Use(recover.New())
	app.Use(s.logRequest)

	app.Get("/metrics", adaptor.HTTPHandler(recorder.Handler()))
	app.Get("/:lang/search/:kind", s.handleSearch)
	app.Get("/:lang/api/snippets", s.handleSnippets)
	s.App = app
	return s
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr, "latency", s.latency, "jitter", s.jitter)
	return s.App.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.summary.Stop()
	return s.App.Shutdown()
}

// Served reports how many search queries were answered.
func (s *Server) Served() int64 {
	return s.total.Load()
}

func (s *Server) logRequest(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("request",
		"method", c.Method(),
		"path", c.Path(),
		"query", string(c.Request().URI().QueryString()),
		"status", c.Response().StatusCode(),
		"elapsed", time.Since(start),
	)
	return err
}

func (s *Server) handleSearch(c fiber.Ctx) error {
	kind, err := search.ParseKind(c.Params("kind"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	limit := maxResults(c.Query("max_results"))
	if err := s.delay(c.Context(), c.Query("delay_ms")); err != nil {
		return err
	}
	q := c.Query("q")
	s.served.WithLabelValues(string(kind)).Inc()
	s.total.Add(1)
	s.summary.Call()

	results := make([]any, 0)
	switch kind {
	case search.KindCategory:
		for _, pos := range s.categories.lookup(q, limit) {
			results = append(results, s.corpus.Categories[pos])
		}
	default:
		for _, pos := range s.articles.lookup(q, limit) {
			results = append(results, s.corpus.Articles[pos])
		}
	}
	return c.JSON(fiber.Map{"results": results})
}

// handleSnippets answers with a map of page id to snippet URLs. Invalid input
// is reported in the body with status 200.
func (s *Server) handleSnippets(c fiber.Ctx) error {
	raw := c.Request().URI().QueryArgs().PeekMulti("page_id")
	if len(raw) == 0 {
		return c.JSON(fiber.Map{"error": "Invalid request"})
	}
	wanted := make(map[int]struct{}, len(raw))
	for _, v := range raw {
		id, err := strconv.Atoi(string(v))
		if err != nil {
			return c.JSON(fiber.Map{"error": "Invalid request"})
		}
		wanted[id] = struct{}{}
	}
	if err := s.delay(c.Context(), c.Query("delay_ms")); err != nil {
		return err
	}
	base := c.BaseURL() + "/" + c.Params("lang")
	out := make(map[string][]string, len(wanted))
	for _, a := range s.corpus.Articles {
		if _, ok := wanted[a.PageID]; !ok {
			continue
		}
		urls := make([]string, len(a.Snippets))
		for i, id := range a.Snippets {
			urls[i] = base + "?id=" + id
		}
		out[strconv.Itoa(a.PageID)] = urls
	}
	return c.JSON(out)
}

// maxResults applies the server cap. Missing, invalid and non-positive
// values mean the cap.
func maxResults(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > search.MaxResultsCap {
		return search.MaxResultsCap
	}
	return n
}

func (s *Server) delay(ctx context.Context, override string) error {
	d := s.latency
	if s.jitter > 0 {
		d += rand.N(s.jitter)
	}
	if ms, err := strconv.Atoi(override); err == nil && ms >= 0 {
		d = time.Duration(ms) * time.Millisecond
	}
	if d > MaxDelay {
		d = MaxDelay
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return fiber.NewError(fiber.StatusServiceUnavailable, "request cancelled")
	}
}
