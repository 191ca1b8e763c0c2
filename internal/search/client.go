package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxResultsCap is the largest max_results value the server honours.
	MaxResultsCap = 400
	// DefaultTimeout bounds each request when the caller sets none.
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 8 << 20
)

// HTTPError reports a non-2xx response from the endpoint.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("search request %s: unexpected status %s", e.URL, e.Status)
}

// ErrAPI is wrapped by errors the API reports inside a 2xx body.
var ErrAPI = errors.New("search api error")

// Options configures a Client.
type Options struct {
	BaseURL    string
	Lang       string
	MaxResults int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client issues search requests. It holds no per-request state and may be
// shared between goroutines.
type Client struct {
	base       *url.URL
	lang       string
	maxResults int
	http       *http.Client
}

// NewClient validates opts and returns a client.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 || maxResults > MaxResultsCap {
		maxResults = MaxResultsCap
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		base:       base,
		lang:       strings.TrimSpace(opts.Lang),
		maxResults: maxResults,
		http:       hc,
	}, nil
}

// MaxResults returns the bound attached to every search.
func (c *Client) MaxResults() int {
	return c.maxResults
}

// BuildURL returns {base}/{lang}/search/{kind}?q=...&max_results=N. The query
// is trimmed before encoding; an empty lang drops the path segment.
func BuildURL(base *url.URL, lang string, kind Kind, q Query, maxResults int) string {
	u := *base
	u.Path = joinPath(u.Path, lang, "search", string(kind))
	u.RawPath = ""
	u.RawQuery = "q=" + encodeComponent(strings.TrimSpace(string(q))) +
		"&max_results=" + strconv.Itoa(maxResults)
	return u.String()
}

// Search runs one query. Transport failures and non-2xx statuses are errors.
// A 2xx body that cannot be decoded, or that lacks a results list, yields an
// empty set and no error.
func (c *Client) Search(ctx context.Context, kind Kind, q Query) (ResultSet, error) {
	endpoint := BuildURL(c.base, c.lang, kind, q, c.maxResults)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return decodeResults(body), nil
}

// SnippetsInArticles returns the snippet URLs for each page id.
func (c *Client) SnippetsInArticles(ctx context.Context, pageIDs []string) (map[string][]string, error) {
	if len(pageIDs) == 0 {
		return nil, fmt.Errorf("%w: no page ids", ErrAPI)
	}
	u := *c.base
	u.Path = joinPath(u.Path, c.lang, "api", "snippets")
	u.RawPath = ""
	values := url.Values{}
	for _, id := range pageIDs {
		values.Add("page_id", id)
	}
	u.RawQuery = values.Encode()
	body, err := c.get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode snippets response: %w", err)
	}
	if raw, ok := payload["error"]; ok {
		var msg string
		_ = json.Unmarshal(raw, &msg)
		return nil, fmt.Errorf("%w: %s", ErrAPI, msg)
	}
	out := make(map[string][]string, len(payload))
	for id, raw := range payload {
		var urls []string
		if err := json.Unmarshal(raw, &urls); err != nil {
			return nil, fmt.Errorf("decode snippets for page %s: %w", id, err)
		}
		sort.Strings(urls)
		out[id] = urls
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &HTTPError{URL: endpoint, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", endpoint, err)
	}
	return body, nil
}

// encodeComponent percent-encodes s for a query value, spelling spaces as
// %20 rather than '+'. Unlike a browser's encodeURIComponent it also escapes
// !'()*; servers decode both spellings to the same text.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func decodeResults(body []byte) ResultSet {
	var payload struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Results == nil {
		return ResultSet{}
	}
	results := make(ResultSet, 0, len(payload.Results))
	for _, raw := range payload.Results {
		var r Result
		if err := json.Unmarshal(raw, &r); err != nil {
			continue
		}
		if r.ID == "" && r.Title == "" {
			continue
		}
		results = append(results, r)
	}
	return results
}

func joinPath(base string, segments ...string) string {
	parts := []string{strings.TrimRight(base, "/")}
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s == "" {
			continue
		}
		parts = append(parts, s)
	}
	joined := strings.Join(parts, "/")
	if !strings.HasPrefix(joined, "/") {
		joined = "/" + joined
	}
	return joined
}
