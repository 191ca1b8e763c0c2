package ui

import (
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m *Model) updateFilterCursorModel(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.filterCursor, cmd = m.filterCursor.Update(msg)
	return cmd
}

func (m *Model) noteFilterCursorChange(before int) {
	if before != m.list.FilterCursorPos() {
		m.filterCursorDirty = true
	}
}

// handleTextInput applies prompt editing keys. Edits that change the text are
// reported to the controller, which decides whether a request goes out.
func (m *Model) handleTextInput(msg tea.KeyMsg) (bool, tea.Cmd) {
	if m.focus != focusPrompt || m.submitting {
		return false, nil
	}
	l := m.list
	before := l.FilterCursorPos()
	edited := false
	moved := false

	switch msg.String() {
	case "ctrl+u":
		edited = l.ClearFilter()
	case "ctrl+w", "alt+backspace":
		edited = l.DeleteFilterWordBackward()
	case "ctrl+a":
		moved = l.MoveFilterCursorStart()
	case "ctrl+e":
		moved = l.MoveFilterCursorEnd()
	case "alt+b":
		moved = l.MoveFilterCursorWordBackward()
	case "alt+f":
		moved = l.MoveFilterCursorWordForward()
	default:
		switch msg.Type {
		case tea.KeyBackspace, tea.KeyCtrlH:
			edited = l.DeleteFilterRuneBackward()
		case tea.KeySpace:
			edited = l.InsertFilterText(" ")
		case tea.KeyRunes:
			if msg.Alt || !printable(msg.Runes) {
				return false, nil
			}
			edited = l.InsertFilterText(string(msg.Runes))
		case tea.KeyLeft:
			moved = l.MoveFilterCursorRuneBackward()
		case tea.KeyRight:
			moved = l.MoveFilterCursorRuneForward()
		default:
			return false, nil
		}
	}

	m.noteFilterCursorChange(before)
	if moved {
		return true, nil
	}
	if !edited {
		return false, nil
	}
	m.errMsg = ""
	m.forceClearInfo()
	m.syncViewport()
	return true, m.ctrl.NotifyInput()
}

func printable(runes []rune) bool {
	if len(runes) == 0 {
		return false
	}
	for _, r := range runes {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

func (m *Model) filterPrompt() string {
	render := func(style *lipgloss.Style, value string) string {
		if style == nil || value == "" {
			return value
		}
		return style.Render(value)
	}
	prompt := "» "
	promptStyle := styles.FilterPrompt
	if m.focus != focusPrompt && styles.FilterPromptBlurred != nil {
		promptStyle = styles.FilterPromptBlurred
	}
	prompt = render(promptStyle, prompt)

	if styles.Filter != nil {
		m.filterCursor.TextStyle = styles.Filter.Copy()
	} else {
		m.filterCursor.TextStyle = lipgloss.Style{}
	}

	text := m.list.Filter
	if text == "" {
		placeholder := []rune("(type to search " + m.kindLabel() + ")")
		if styles.FilterPlaceholder != nil {
			m.filterCursor.TextStyle = styles.FilterPlaceholder.Copy()
		}
		if m.focus != focusPrompt {
			return prompt + render(styles.FilterPlaceholder, string(placeholder))
		}
		caret := m.renderFilterCursor(string(placeholder[0]))
		return prompt + caret + render(styles.FilterPlaceholder, string(placeholder[1:]))
	}

	runes := []rune(text)
	pos := m.list.FilterCursorPos()
	if m.focus != focusPrompt {
		return prompt + render(styles.Filter, text)
	}
	head := render(styles.Filter, string(runes[:pos]))
	caretRune := " "
	tail := ""
	if pos < len(runes) {
		caretRune = string(runes[pos])
		tail = render(styles.Filter, string(runes[pos+1:]))
	}
	return prompt + head + m.renderFilterCursor(caretRune) + tail
}

func (m *Model) renderFilterCursor(char string) string {
	if char == "" {
		char = " "
	}
	m.filterCursor.SetChar(char)
	base := m.filterCursor.TextStyle.Copy().Inline(true)
	if m.filterCursor.Blink {
		return base.Render(char)
	}
	if styles.Cursor != nil {
		return base.Inherit(styles.Cursor.Copy().Inline(true)).Render(char)
	}
	return base.Reverse(true).Render(char)
}
