package state

import (
	"github.com/atomicstack/chsearch/internal/logging/events"
	"github.com/atomicstack/chsearch/internal/search"
)

// MoveCursorUp moves the highlight one row up.
func (l *Level) MoveCursorUp() bool {
	return l.moveCursorBy(-1)
}

// MoveCursorDown moves the highlight one row down.
func (l *Level) MoveCursorDown() bool {
	return l.moveCursorBy(1)
}

// MoveCursorHome jumps to the first row.
func (l *Level) MoveCursorHome() bool {
	return l.moveCursorTo(0)
}

// MoveCursorEnd jumps to the last row.
func (l *Level) MoveCursorEnd() bool {
	return l.moveCursorTo(len(l.Items) - 1)
}

// MoveCursorPageUp moves up by one page of maxVisible rows.
func (l *Level) MoveCursorPageUp(maxVisible int) bool {
	return l.moveCursorBy(-l.pageSize(maxVisible))
}

// MoveCursorPageDown moves down by one page of maxVisible rows.
func (l *Level) MoveCursorPageDown(maxVisible int) bool {
	return l.moveCursorBy(l.pageSize(maxVisible))
}

func (l *Level) moveCursorBy(delta int) bool {
	start := l.Cursor
	if start < 0 {
		start = 0
		if delta > 0 {
			delta--
		}
	}
	return l.moveCursorTo(start + delta)
}

func (l *Level) moveCursorTo(target int) bool {
	n := len(l.Items)
	if n == 0 {
		l.Cursor = 0
		return false
	}
	target = clamp(target, 0, n-1)
	old := l.Cursor
	l.Cursor = target
	if old != l.Cursor {
		events.UI.Cursor(l.Cursor)
		return true
	}
	return false
}

func (l *Level) pageSize(maxVisible int) int {
	total := len(l.Items)
	if maxVisible <= 0 || maxVisible > total {
		maxVisible = total
	}
	if maxVisible < 1 {
		return 1
	}
	return maxVisible
}

// EnsureCursorVisible scrolls the viewport so the cursor row is on screen.
func (l *Level) EnsureCursorVisible(maxVisible int) {
	n := len(l.Items)
	if n == 0 {
		l.Cursor = 0
		l.ViewportOffset = 0
		return
	}
	l.Cursor = clamp(l.Cursor, 0, n-1)
	if maxVisible <= 0 {
		l.ViewportOffset = 0
		return
	}
	maxOffset := n - maxVisible
	if maxOffset < 0 {
		maxOffset = 0
	}
	offset := clamp(l.ViewportOffset, 0, maxOffset)
	switch {
	case l.Cursor < offset:
		offset = l.Cursor
	case l.Cursor > offset+maxVisible-1:
		offset = clamp(l.Cursor-maxVisible+1, 0, maxOffset)
	}
	l.ViewportOffset = offset
}

// Window returns the slice of Items visible in a viewport of maxVisible rows.
func (l *Level) Window(maxVisible int) (search.ResultSet, int) {
	if maxVisible <= 0 || maxVisible >= len(l.Items) {
		return l.Items, 0
	}
	start := clamp(l.ViewportOffset, 0, len(l.Items)-maxVisible)
	return l.Items[start : start+maxVisible], start
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
