package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/chsearch/internal/logging/events"
	"github.com/atomicstack/chsearch/internal/search"
)

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch keyMsg.String() {
	case "ctrl+c", "esc":
		return m.quit()
	case "tab", "shift+tab":
		return m.toggleFocus()
	case "ctrl+@", "ctrl+ ":
		return m.focusPromptAndNotify()
	case "ctrl+s":
		return m.submitSelection()
	case "enter":
		return m.handleEnterKey()
	case "up", "ctrl+p":
		m.moveCursor(m.list.MoveCursorUp)
		return nil
	case "down", "ctrl+n":
		m.moveCursor(m.list.MoveCursorDown)
		return nil
	case "pgup":
		m.moveCursor(func() bool { return m.list.MoveCursorPageUp(m.maxVisibleItems()) })
		return nil
	case "pgdown":
		m.moveCursor(func() bool { return m.list.MoveCursorPageDown(m.maxVisibleItems()) })
		return nil
	case "home":
		m.moveCursor(m.list.MoveCursorHome)
		return nil
	case "end":
		m.moveCursor(m.list.MoveCursorEnd)
		return nil
	}
	if handled, cmd := m.handleTextInput(keyMsg); handled {
		return cmd
	}
	if m.focus == focusList && keyMsg.Type == tea.KeySpace {
		m.list.ToggleCurrentSelection()
	}
	return nil
}

func (m *Model) moveCursor(move func() bool) {
	move()
	m.syncViewport()
}

func (m *Model) syncViewport() {
	m.list.EnsureCursorVisible(m.maxVisibleItems())
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.focus == focusPrompt {
		m.focus = focusList
		m.filterCursor.Blur()
		events.UI.Focus(false)
		return nil
	}
	return m.focusPrompt()
}

func (m *Model) focusPrompt() tea.Cmd {
	if m.focus == focusPrompt {
		return nil
	}
	m.focus = focusPrompt
	events.UI.Focus(true)
	if cmd := m.filterCursor.Focus(); cmd != nil && m.cursorBlink {
		return cmd
	}
	return nil
}

// focusPromptAndNotify mirrors a click on the prompt: focus moves there and,
// when the prompt is empty, suggestions are fetched.
func (m *Model) focusPromptAndNotify() tea.Cmd {
	return tea.Batch(m.focusPrompt(), m.ctrl.NotifyFocusClick())
}

func (m *Model) handleEnterKey() tea.Cmd {
	if m.submitting {
		return nil
	}
	item, ok := m.list.Choose()
	if !ok {
		return nil
	}
	if m.kind == search.KindCategory {
		chosen := item
		m.result.Chosen = &chosen
		return m.quit()
	}
	m.list.ToggleSelection(item)
	return nil
}

func (m *Model) handleMouseMsg(msg tea.Msg) tea.Cmd {
	ev, ok := msg.(tea.MouseMsg)
	if !ok {
		return nil
	}
	switch ev.Button {
	case tea.MouseButtonWheelUp:
		m.moveCursor(m.list.MoveCursorUp)
		return nil
	case tea.MouseButtonWheelDown:
		m.moveCursor(m.list.MoveCursorDown)
		return nil
	case tea.MouseButtonLeft:
	default:
		return nil
	}
	if ev.Action != tea.MouseActionPress {
		return nil
	}
	if ev.Y == m.promptRow {
		return m.focusPromptAndNotify()
	}
	row := ev.Y - m.listRow
	if m.listRow < 0 || row < 0 {
		return nil
	}
	_, start := m.list.Window(m.maxVisibleItems())
	idx := start + row
	if idx >= len(m.list.Items) {
		return nil
	}
	m.list.Cursor = idx
	events.UI.Cursor(idx)
	if m.focus != focusList {
		m.focus = focusList
		m.filterCursor.Blur()
		events.UI.Focus(false)
	}
	return nil
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	resize, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	if !m.fixedWidth {
		m.width = resize.Width
	}
	if !m.fixedHeight {
		m.height = resize.Height
	}
	m.syncViewport()
	return nil
}
