package state

import (
	"sort"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/atomicstack/chsearch/internal/logging/events"
	"github.com/atomicstack/chsearch/internal/search"
)

// Value returns the prompt text.
func (l *Level) Value() string {
	return l.Filter
}

// SetFilter replaces the prompt text, moves its caret to cursor and filters
// the candidates locally. The list cursor jumps to the best match while a
// filter is active and returns to where it was once the filter is cleared.
func (l *Level) SetFilter(query string, cursor int) {
	trimmed := strings.TrimSpace(query)
	prevTrimmed := strings.TrimSpace(l.Filter)
	l.Filter = query
	l.FilterCursor = clamp(cursor, 0, len([]rune(query)))

	switch {
	case trimmed != "" && prevTrimmed == "":
		l.LastCursor = l.Cursor
		l.Cursor = 0
	case trimmed != "":
		l.Cursor = 0
	}
	l.applyFilter()

	if trimmed != "" {
		if idx := BestMatchIndex(l.Items, trimmed); idx >= 0 {
			l.Cursor = idx
		}
		l.Open = len(l.Items) > 0
		return
	}
	if prevTrimmed != "" {
		if l.LastCursor >= 0 && l.LastCursor < len(l.Items) {
			l.Cursor = l.LastCursor
		}
		l.LastCursor = -1
	}
}

func (l *Level) applyFilter() {
	l.Items = FilterResults(l.Full, l.Filter)
	if len(l.Items) == 0 {
		l.Cursor = 0
		l.ViewportOffset = 0
		return
	}
	if l.Cursor < 0 {
		l.Cursor = 0
	}
	if l.Cursor >= len(l.Items) {
		l.Cursor = len(l.Items) - 1
	}
	if l.ViewportOffset > len(l.Items)-1 {
		l.ViewportOffset = 0
	}
}

// FilterCursorPos returns the caret position in runes.
func (l *Level) FilterCursorPos() int {
	return clamp(l.FilterCursor, 0, len([]rune(l.Filter)))
}

// InsertFilterText inserts text at the caret.
func (l *Level) InsertFilterText(text string) bool {
	insert := []rune(text)
	if len(insert) == 0 {
		return false
	}
	runes := []rune(l.Filter)
	pos := l.FilterCursorPos()
	updated := make([]rune, 0, len(runes)+len(insert))
	updated = append(updated, runes[:pos]...)
	updated = append(updated, insert...)
	updated = append(updated, runes[pos:]...)
	l.SetFilter(string(updated), pos+len(insert))
	events.Filter.Append(l.Filter)
	return true
}

// DeleteFilterRuneBackward removes the rune before the caret.
func (l *Level) DeleteFilterRuneBackward() bool {
	runes := []rune(l.Filter)
	pos := l.FilterCursorPos()
	if pos == 0 {
		return false
	}
	updated := append(runes[:pos-1:pos-1], runes[pos:]...)
	l.SetFilter(string(updated), pos-1)
	events.Filter.Backspace(l.Filter)
	return true
}

// DeleteFilterWordBackward removes the word before the caret.
func (l *Level) DeleteFilterWordBackward() bool {
	runes := []rune(l.Filter)
	pos := l.FilterCursorPos()
	if pos == 0 {
		return false
	}
	start := wordStart(runes, pos)
	updated := append(runes[:start:start], runes[pos:]...)
	l.SetFilter(string(updated), start)
	events.Filter.WordBackspace(l.Filter)
	return true
}

// ClearFilter empties the prompt.
func (l *Level) ClearFilter() bool {
	if l.Filter == "" {
		return false
	}
	l.SetFilter("", 0)
	events.Filter.Cleared()
	return true
}

// MoveFilterCursorStart moves the caret to the start of the prompt.
func (l *Level) MoveFilterCursorStart() bool {
	return l.moveFilterCursor(0)
}

// MoveFilterCursorEnd moves the caret to the end of the prompt.
func (l *Level) MoveFilterCursorEnd() bool {
	return l.moveFilterCursor(len([]rune(l.Filter)))
}

// MoveFilterCursorRuneBackward moves the caret one rune left.
func (l *Level) MoveFilterCursorRuneBackward() bool {
	return l.moveFilterCursor(l.FilterCursorPos() - 1)
}

// MoveFilterCursorRuneForward moves the caret one rune right.
func (l *Level) MoveFilterCursorRuneForward() bool {
	return l.moveFilterCursor(l.FilterCursorPos() + 1)
}

// MoveFilterCursorWordBackward moves the caret to the start of the previous word.
func (l *Level) MoveFilterCursorWordBackward() bool {
	pos := wordStart([]rune(l.Filter), l.FilterCursorPos())
	if l.moveFilterCursor(pos) {
		events.Filter.CursorWord(pos)
		return true
	}
	return false
}

// MoveFilterCursorWordForward moves the caret past the next word.
func (l *Level) MoveFilterCursorWordForward() bool {
	runes := []rune(l.Filter)
	i := l.FilterCursorPos()
	for i < len(runes) && !unicode.IsSpace(runes[i]) {
		i++
	}
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	if l.moveFilterCursor(i) {
		events.Filter.CursorWord(i)
		return true
	}
	return false
}

func (l *Level) moveFilterCursor(pos int) bool {
	pos = clamp(pos, 0, len([]rune(l.Filter)))
	if pos == l.FilterCursorPos() {
		return false
	}
	l.FilterCursor = pos
	events.Filter.Cursor(pos)
	return true
}

func wordStart(runes []rune, pos int) int {
	i := pos
	for i > 0 && unicode.IsSpace(runes[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(runes[i-1]) {
		i--
	}
	return i
}

// FilterResults returns the records matching query, ordered by title. Fuzzy
// matching on titles is tried first; when it finds nothing a plain substring
// match on title and id is used instead. An empty query matches everything.
func FilterResults(rs search.ResultSet, query string) search.ResultSet {
	trimmed := strings.TrimSpace(query)
	var out search.ResultSet
	if trimmed == "" {
		out = rs.Clone()
	} else {
		out = fuzzyMatches(rs, trimmed)
		if len(out) == 0 {
			out = substringMatches(rs, trimmed)
		}
	}
	if out == nil {
		out = search.ResultSet{}
	}
	SortByTitle(out)
	return out
}

func fuzzyMatches(rs search.ResultSet, query string) search.ResultSet {
	titles := make([]string, len(rs))
	for i, r := range rs {
		titles[i] = r.Title
	}
	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	if len(ranks) == 0 {
		return nil
	}
	hit := make([]bool, len(rs))
	for _, rank := range ranks {
		if rank.OriginalIndex >= 0 && rank.OriginalIndex < len(rs) {
			hit[rank.OriginalIndex] = true
		}
	}
	out := make(search.ResultSet, 0, len(ranks))
	for i, r := range rs {
		if hit[i] {
			out = append(out, r)
		}
	}
	return out
}

func substringMatches(rs search.ResultSet, query string) search.ResultSet {
	lower := strings.ToLower(query)
	out := make(search.ResultSet, 0, len(rs))
	for _, r := range rs {
		if strings.Contains(strings.ToLower(r.Title), lower) || strings.Contains(strings.ToLower(r.ID), lower) {
			out = append(out, r)
		}
	}
	return out
}

// SortByTitle orders rs by case-folded title, keeping server order for ties.
func SortByTitle(rs search.ResultSet) {
	sort.SliceStable(rs, func(i, j int) bool {
		return strings.ToLower(rs[i].Title) < strings.ToLower(rs[j].Title)
	})
}

// BestMatchIndex picks the row the cursor should land on for query: an exact
// title or id match, then a title prefix, then an id prefix, then the closest
// fuzzy match.
func BestMatchIndex(rs search.ResultSet, query string) int {
	if len(rs) == 0 {
		return -1
	}
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return 0
	}
	lower := strings.ToLower(trimmed)
	checks := []func(search.Result) bool{
		func(r search.Result) bool {
			return strings.EqualFold(r.Title, trimmed) || strings.EqualFold(r.ID, trimmed)
		},
		func(r search.Result) bool { return strings.HasPrefix(strings.ToLower(r.Title), lower) },
		func(r search.Result) bool { return strings.HasPrefix(strings.ToLower(r.ID), lower) },
	}
	for _, check := range checks {
		for i, r := range rs {
			if check(r) {
				return i
			}
		}
	}
	titles := make([]string, len(rs))
	for i, r := range rs {
		titles[i] = r.Title
	}
	ranks := fuzzy.RankFindNormalizedFold(trimmed, titles)
	if len(ranks) == 0 {
		return 0
	}
	best := ranks[0]
	for _, rank := range ranks[1:] {
		if rank.Distance < best.Distance ||
			(rank.Distance == best.Distance && rank.OriginalIndex < best.OriginalIndex) {
			best = rank
		}
	}
	if best.OriginalIndex < 0 || best.OriginalIndex >= len(rs) {
		return 0
	}
	return best.OriginalIndex
}
