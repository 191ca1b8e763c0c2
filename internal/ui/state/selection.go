package state

import (
	"github.com/atomicstack/chsearch/internal/logging/events"
	"github.com/atomicstack/chsearch/internal/search"
)

// Selections outlive candidate replacement: a chosen article stays chosen even
// after a later query drops it from the list.

// IsSelected reports whether id is selected.
func (l *Level) IsSelected(id string) bool {
	_, ok := l.selected[id]
	return ok
}

// ToggleSelection adds r to the selection, or removes it when already present.
// It reports whether r is selected afterwards.
func (l *Level) ToggleSelection(r search.Result) bool {
	if l.selected == nil {
		l.selected = make(map[string]search.Result)
	}
	if _, ok := l.selected[r.ID]; ok {
		delete(l.selected, r.ID)
		for i, id := range l.order {
			if id == r.ID {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
		events.Selection.Remove(r.ID)
		return false
	}
	l.selected[r.ID] = r
	l.order = append(l.order, r.ID)
	events.Selection.Add(r.ID, r.Title)
	return true
}

// ToggleCurrentSelection toggles the highlighted record in multi-select lists.
func (l *Level) ToggleCurrentSelection() bool {
	if !l.MultiSelect {
		return false
	}
	item, ok := l.Current()
	if !ok {
		return false
	}
	l.ToggleSelection(item)
	return true
}

// ClearSelection drops every selection.
func (l *Level) ClearSelection() {
	l.selected = make(map[string]search.Result)
	l.order = nil
}

// SelectionOrder returns selected ids in the order they were chosen.
func (l *Level) SelectionOrder() []string {
	return append([]string(nil), l.order...)
}

// SelectedItems returns the selected records sorted by title.
func (l *Level) SelectedItems() search.ResultSet {
	if len(l.order) == 0 {
		return nil
	}
	out := make(search.ResultSet, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.selected[id])
	}
	SortByTitle(out)
	return out
}

// SelectedIDs returns the selected ids in title order.
func (l *Level) SelectedIDs() []string {
	items := l.SelectedItems()
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

// SelectionSummary returns the number of selected records and the sum of
// their counts (snippets for articles).
func (l *Level) SelectionSummary() (records, total int) {
	for _, r := range l.selected {
		total += r.Count
	}
	return len(l.selected), total
}
