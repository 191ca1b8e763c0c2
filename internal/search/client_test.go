package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildURL(t *testing.T) {
	base, err := url.Parse("https://example.org/ch")
	require.NoError(t, err)

	got := BuildURL(base, "en", KindArticle, Query("  cats & dogs "), 400)
	require.Equal(t, "https://example.org/ch/en/search/article?q=cats%20%26%20dogs&max_results=400", got)

	got = BuildURL(base, "", KindCategory, Query("a+b"), 10)
	require.Equal(t, "https://example.org/ch/search/category?q=a%2Bb&max_results=10", got)

	got = BuildURL(base, "en", KindArticle, Query("Rock 'n' roll (band)!*"), 5)
	require.Equal(t, "https://example.org/ch/en/search/article?q=Rock%20%27n%27%20roll%20%28band%29%21%2A&max_results=5", got)
	parsed, err := url.Parse(got)
	require.NoError(t, err)
	require.Equal(t, "Rock 'n' roll (band)!*", parsed.Query().Get("q"))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Article ")
	require.NoError(t, err)
	require.Equal(t, KindArticle, k)

	_, err = ParseKind("snippet")
	require.Error(t, err)
}

func TestResultDecodesBothShapes(t *testing.T) {
	body := []byte(`{"results":[
		{"page_id": 42, "title": "Cat", "snippets": ["s1", "s2"]},
		{"id": "7f", "title": "Felines", "npages": 12}
	]}`)
	got := decodeResults(body)
	require.Equal(t, ResultSet{
		{ID: "42", Title: "Cat", Count: 2, Snippets: []string{"s1", "s2"}},
		{ID: "7f", Title: "Felines", Count: 12},
	}, got)
}

func TestDecodeResultsFailsClosed(t *testing.T) {
	for name, body := range map[string]string{
		"not json":        `<html>oops</html>`,
		"missing results": `{"items": []}`,
		"null results":    `{"results": null}`,
	} {
		t.Run(name, func(t *testing.T) {
			got := decodeResults([]byte(body))
			require.NotNil(t, got)
			require.Empty(t, got)
		})
	}
}

func TestClientSearch(t *testing.T) {
	var gotPath, gotQuery, gotMax string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		gotMax = r.URL.Query().Get("max_results")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"page_id":1,"title":"Cathedral","snippets":["a"]}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Options{BaseURL: srv.URL, Lang: "en", MaxResults: 50})
	require.NoError(t, err)

	results, err := c.Search(context.Background(), KindArticle, NewQuery(" cat "))
	require.NoError(t, err)
	require.Equal(t, "/en/search/article", gotPath)
	require.Equal(t, "cat", gotQuery)
	require.Equal(t, "50", gotMax)
	require.Len(t, results, 1)
	require.Equal(t, "Cathedral", results[0].Title)
}

func TestClientSearchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Search(context.Background(), KindCategory, "x")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
}

func TestClientSearchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(Options{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Search(context.Background(), KindArticle, "slow")
	require.Error(t, err)
}

func TestNewClientRejectsRelativeBase(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "/relative"})
	require.Error(t, err)
}

func TestNewClientCapsMaxResults(t *testing.T) {
	c, err := NewClient(Options{BaseURL: "http://localhost", MaxResults: 5000})
	require.NoError(t, err)
	require.Equal(t, MaxResultsCap, c.MaxResults())
}

func TestSnippetsInArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/en/api/snippets", r.URL.Path)
		require.Equal(t, []string{"1", "2"}, r.URL.Query()["page_id"])
		_, _ = w.Write([]byte(`{"1":["http://x/b","http://x/a"],"2":[]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Options{BaseURL: srv.URL, Lang: "en"})
	require.NoError(t, err)

	got, err := c.SnippetsInArticles(context.Background(), []string{"1", "2"})
	require.NoError(t, err)
	require.Equal(t, []string{"http://x/a", "http://x/b"}, got["1"])
	require.Empty(t, got["2"])
}

func TestSnippetsInArticlesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Invalid request"}`))
	}))
	defer srv.Close()

	c, err := NewClient(Options{BaseURL: srv.URL, Lang: "en"})
	require.NoError(t, err)

	_, err = c.SnippetsInArticles(context.Background(), []string{"1"})
	require.ErrorIs(t, err, ErrAPI)
}
