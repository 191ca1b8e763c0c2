package state

import (
	"reflect"
	"testing"

	"github.com/atomicstack/chsearch/internal/search"
)

func TestSetFilterTracksCursorAndRestoresPosition(t *testing.T) {
	level := newTestLevel("one", "two", "three")
	level.Cursor = 2
	level.SetFilter("two", len("two"))

	if level.Filter != "two" || level.Value() != "two" {
		t.Fatalf("expected filter persisted, got %q", level.Filter)
	}
	if level.FilterCursor != len("two") {
		t.Fatalf("expected caret at end, got %d", level.FilterCursor)
	}
	if len(level.Items) != 1 || level.Items[0].ID != "two" {
		t.Fatalf("expected filtered items to contain only 'two', got %#v", level.Items)
	}
	if level.Cursor != 0 {
		t.Fatalf("expected filtered cursor at 0, got %d", level.Cursor)
	}
	if !level.Open {
		t.Fatalf("expected list opened by a matching filter")
	}

	level.SetFilter("", 0)
	if level.Cursor != 2 {
		t.Fatalf("expected cursor restored to 2, got %d", level.Cursor)
	}
	if level.LastCursor != -1 {
		t.Fatalf("expected last cursor reset, got %d", level.LastCursor)
	}
}

func TestInsertAndDeleteFilterText(t *testing.T) {
	level := newTestLevel("alpha")

	if !level.InsertFilterText("ab") {
		t.Fatal("expected insert to succeed")
	}
	if level.Filter != "ab" || level.FilterCursor != 2 {
		t.Fatalf("unexpected filter state %q/%d", level.Filter, level.FilterCursor)
	}

	level.FilterCursor = 1
	if !level.InsertFilterText("z") {
		t.Fatal("expected insert in middle to succeed")
	}
	if level.Filter != "azb" || level.FilterCursor != 2 {
		t.Fatalf("unexpected filter state %q/%d", level.Filter, level.FilterCursor)
	}

	if !level.DeleteFilterRuneBackward() {
		t.Fatal("expected rune deletion to succeed")
	}
	if level.Filter != "ab" || level.FilterCursor != 1 {
		t.Fatalf("unexpected filter state after delete %q/%d", level.Filter, level.FilterCursor)
	}

	level.SetFilter("abc def", len("abc def"))
	if !level.DeleteFilterWordBackward() {
		t.Fatal("expected word deletion to succeed")
	}
	if level.Filter != "abc " {
		t.Fatalf("expected trailing word removed, got %q", level.Filter)
	}

	level.SetFilter("abc", 0)
	if level.DeleteFilterRuneBackward() {
		t.Fatal("expected delete at start to fail")
	}
	if level.InsertFilterText("") {
		t.Fatal("expected empty insert to fail")
	}
	if !level.ClearFilter() || level.Filter != "" {
		t.Fatalf("expected filter cleared, got %q", level.Filter)
	}
	if level.ClearFilter() {
		t.Fatal("expected clearing an empty filter to report no change")
	}
}

func TestInsertFilterTextKeepsMultibyteRunes(t *testing.T) {
	level := newTestLevel("Zürich")
	level.InsertFilterText("zü")
	level.InsertFilterText("r")
	if level.Filter != "zür" || level.FilterCursor != 3 {
		t.Fatalf("unexpected filter state %q/%d", level.Filter, level.FilterCursor)
	}
	if len(level.Items) != 1 {
		t.Fatalf("expected Zürich to match, got %#v", level.Items)
	}
}

func TestFilterCursorNavigation(t *testing.T) {
	level := newTestLevel("one", "two")
	level.SetFilter("one two", len("one two"))

	if !level.MoveFilterCursorWordBackward() || level.FilterCursor != 4 {
		t.Fatalf("expected caret at 4, got %d", level.FilterCursor)
	}
	if !level.MoveFilterCursorWordForward() || level.FilterCursor != len("one two") {
		t.Fatalf("expected caret restored to end, got %d", level.FilterCursor)
	}
	if !level.MoveFilterCursorRuneBackward() || level.FilterCursor != len("one two")-1 {
		t.Fatalf("expected caret len-1, got %d", level.FilterCursor)
	}
	if !level.MoveFilterCursorRuneForward() || level.FilterCursor != len("one two") {
		t.Fatalf("expected caret at end, got %d", level.FilterCursor)
	}
	if level.MoveFilterCursorRuneForward() {
		t.Fatal("expected no movement past the end")
	}
	if !level.MoveFilterCursorStart() || level.FilterCursor != 0 {
		t.Fatalf("expected caret at 0, got %d", level.FilterCursor)
	}
	if level.MoveFilterCursorRuneBackward() {
		t.Fatal("expected no movement before the start")
	}
	if !level.MoveFilterCursorEnd() {
		t.Fatal("expected move back to end")
	}
}

func TestFilterResultsOrdersByTitle(t *testing.T) {
	rs := search.ResultSet{
		{ID: "3", Title: "Cathedral"},
		{ID: "1", Title: "cat"},
		{ID: "2", Title: "Dog"},
		{ID: "4", Title: "Catalan"},
	}
	got := FilterResults(rs, "cat")
	want := search.ResultSet{
		{ID: "1", Title: "cat"},
		{ID: "4", Title: "Catalan"},
		{ID: "3", Title: "Cathedral"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected filter result %#v", got)
	}
	if rs[0].ID != "3" {
		t.Fatal("expected input slice left in server order")
	}

	all := FilterResults(rs, "  ")
	if len(all) != 4 || all[0].Title != "cat" || all[3].Title != "Dog" {
		t.Fatalf("expected every record in title order, got %#v", all)
	}
	if got := FilterResults(nil, "x"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
}

func TestFilterResultsFallsBackToSubstringOnID(t *testing.T) {
	rs := search.ResultSet{{ID: "Q42", Title: "Douglas Adams"}, {ID: "Q1", Title: "Universe"}}
	got := FilterResults(rs, "q42")
	if len(got) != 1 || got[0].ID != "Q42" {
		t.Fatalf("expected id substring match, got %#v", got)
	}
	if len(FilterResults(rs, "nomatch")) != 0 {
		t.Fatal("expected empty results when nothing matches")
	}
}

func TestBestMatchIndex(t *testing.T) {
	rs := search.ResultSet{
		{ID: "one", Title: "First"},
		{ID: "two", Title: "Second"},
		{ID: "three", Title: "Third"},
	}
	if idx := BestMatchIndex(rs, "Second"); idx != 1 {
		t.Fatalf("expected exact title match index 1, got %d", idx)
	}
	if idx := BestMatchIndex(rs, "two"); idx != 1 {
		t.Fatalf("expected id match index 1, got %d", idx)
	}
	if idx := BestMatchIndex(rs, "th"); idx != 2 {
		t.Fatalf("expected prefix match index 2, got %d", idx)
	}
	if idx := BestMatchIndex(rs, "zzz"); idx != 0 {
		t.Fatalf("expected fallback index 0, got %d", idx)
	}
	if idx := BestMatchIndex(nil, "anything"); idx != -1 {
		t.Fatalf("expected -1 for empty slice, got %d", idx)
	}
}
