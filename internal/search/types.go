// Package search talks to the Citation Hunt search endpoints.
package search

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind selects which index a query runs against.
type Kind string

const (
	KindArticle  Kind = "article"
	KindCategory Kind = "category"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindArticle, KindCategory:
		return k, nil
	default:
		return "", fmt.Errorf("unknown search kind %q (want %q or %q)", s, KindArticle, KindCategory)
	}
}

// Query is the trimmed text of the input field at the moment a request is built.
type Query string

// NewQuery trims raw input into a Query.
func NewQuery(raw string) Query {
	return Query(strings.TrimSpace(raw))
}

func (q Query) String() string {
	return string(q)
}

// Result is one record returned by the endpoint. Articles and categories share
// the fields the picker needs; Count holds the snippet count for articles and
// the article count for categories.
type Result struct {
	ID       string
	Title    string
	Count    int
	Snippets []string
}

// ResultSet is an ordered list of results in server rank order.
type ResultSet []Result

// Clone returns an independent copy of the set.
func (rs ResultSet) Clone() ResultSet {
	if rs == nil {
		return nil
	}
	dup := make(ResultSet, len(rs))
	copy(dup, rs)
	return dup
}

type wireResult struct {
	ID       json.RawMessage `json:"id"`
	PageID   json.RawMessage `json:"page_id"`
	Title    string          `json:"title"`
	NPages   *int            `json:"npages"`
	Snippets []string        `json:"snippets"`
}

// UnmarshalJSON accepts both the article shape ({page_id, title, snippets})
// and the category shape ({id, title, npages}).
func (r *Result) UnmarshalJSON(data []byte) error {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	id := rawID(w.PageID)
	if id == "" {
		id = rawID(w.ID)
	}
	*r = Result{ID: id, Title: w.Title, Snippets: w.Snippets}
	switch {
	case w.NPages != nil:
		r.Count = *w.NPages
	default:
		r.Count = len(w.Snippets)
	}
	return nil
}

func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
