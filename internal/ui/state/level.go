// Package state holds the suggestion list shown under the search prompt: the
// latest candidates from the server, the locally filtered view over them, the
// list cursor and the set of chosen records.
package state

import (
	"github.com/atomicstack/chsearch/internal/logging/events"
	"github.com/atomicstack/chsearch/internal/search"
)

// Level is the suggestion list. Full holds the candidates from the most
// recently accepted response; Items is the view over Full that matches the
// prompt text.
type Level struct {
	Kind           search.Kind
	Title          string
	Full           search.ResultSet
	Items          search.ResultSet
	Filter         string
	FilterCursor   int
	Cursor         int
	LastCursor     int
	ViewportOffset int
	MultiSelect    bool
	Open           bool

	selected map[string]search.Result
	order    []string
}

// NewLevel returns an empty list for kind. Article lists accept multiple
// selections; category lists pick a single record.
func NewLevel(kind search.Kind, title string) *Level {
	return &Level{
		Kind:        kind,
		Title:       title,
		Cursor:      -1,
		LastCursor:  -1,
		MultiSelect: kind == search.KindArticle,
		selected:    make(map[string]search.Result),
	}
}

// SetCandidates replaces the candidate set. The local filter is re-applied and
// the cursor follows the previously highlighted record when it survives.
func (l *Level) SetCandidates(rs search.ResultSet) {
	current, hadCurrent := l.Current()
	prevOffset := l.ViewportOffset
	l.Full = rs.Clone()
	l.applyFilter()
	if hadCurrent {
		if idx := l.IndexOf(current.ID); idx >= 0 {
			l.Cursor = idx
		}
	}
	if len(l.Items) == 0 || prevOffset < 0 || prevOffset > len(l.Items)-1 {
		l.ViewportOffset = 0
		return
	}
	l.ViewportOffset = prevOffset
}

// Evaluate re-runs the local filter against the prompt text and opens the
// list when anything matches.
func (l *Level) Evaluate() {
	l.applyFilter()
	l.Open = len(l.Items) > 0
}

// Close hides the list without touching its contents.
func (l *Level) Close() {
	l.Open = false
}

// IndexOf returns the position of id within Items, or -1.
func (l *Level) IndexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, item := range l.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Current returns the highlighted record.
func (l *Level) Current() (search.Result, bool) {
	if l.Cursor < 0 || l.Cursor >= len(l.Items) {
		return search.Result{}, false
	}
	return l.Items[l.Cursor], true
}

// Choose reports the highlighted record as picked.
func (l *Level) Choose() (search.Result, bool) {
	item, ok := l.Current()
	if ok {
		events.UI.Choose(item.ID, item.Title)
	}
	return item, ok
}
