package testutil

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/atomicstack/chsearch/internal/devserver"
	"github.com/atomicstack/chsearch/internal/search"
)

// SearchServer runs the dev server behind an httptest listener.
type SearchServer struct {
	*httptest.Server
	Dev *devserver.Server
}

// NewSearchServer starts a dev server for the duration of the test. A zero
// corpus is replaced with the built-in fixtures.
func NewSearchServer(t testing.TB, opts devserver.Options) *SearchServer {
	t.Helper()
	if len(opts.Corpus.Articles) == 0 && len(opts.Corpus.Categories) == 0 {
		opts.Corpus = devserver.DefaultCorpus()
	}
	dev := devserver.New(opts)
	ts := httptest.NewServer(adaptor.FiberApp(dev.App))
	t.Cleanup(ts.Close)
	return &SearchServer{Server: ts, Dev: dev}
}

// Client returns a search client pointed at the server.
func (s *SearchServer) Client(t testing.TB, lang string) *search.Client {
	t.Helper()
	c, err := search.NewClient(search.Options{BaseURL: s.URL, Lang: lang})
	if err != nil {
		t.Fatalf("search client: %v", err)
	}
	return c
}
