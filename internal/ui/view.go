package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/atomicstack/chsearch/internal/format/table"
	"github.com/atomicstack/chsearch/internal/search"
)

const (
	maxSelectionLines = 3
	footerText        = "↑/↓ move  enter choose  tab focus  ctrl+s submit  esc quit"
)

type styledLine struct {
	text          string
	style         *lipgloss.Style
	prefixStyle   *lipgloss.Style
	highlightFrom int
	raw           bool
}

// View implements tea.Model.
func (m *Model) View() string {
	lines := make([]styledLine, 0, 16)
	lines = append(lines, styledLine{text: m.header(), style: styles.Header})

	m.listRow = -1
	if m.listVisible() {
		m.syncViewport()
		rows, start := m.list.Window(m.maxVisibleItems())
		if len(rows) > 0 {
			m.listRow = len(lines)
		}
		lines = append(lines, m.itemLines(rows, start)...)
	} else if len(m.list.Full) == 0 {
		lines = append(lines, styledLine{text: "(no suggestions yet)", style: styles.Info})
	}
	lines = append(lines, m.selectionLines()...)
	if info := m.currentInfo(); info != "" {
		lines = append(lines, styledLine{}, styledLine{text: info, style: styles.Info})
	}
	if m.showFooter {
		lines = append(lines, styledLine{}, styledLine{text: footerText, style: styles.Footer})
	}
	lines = limitHeight(lines, m.height-2, m.width)
	lines = applyWidth(lines, m.width)

	bottom := applyWidth([]styledLine{m.statusLine(), {text: m.filterPrompt(), raw: true}}, m.width)
	m.promptRow = len(lines) + 1
	lines = append(lines, bottom...)
	return renderLines(lines)
}

func (m *Model) listVisible() bool {
	if len(m.list.Items) == 0 {
		return m.list.Filter != "" && len(m.list.Full) > 0
	}
	return m.list.Open || m.focus == focusList
}

func (m *Model) kindLabel() string {
	if m.kind == search.KindCategory {
		return "categories"
	}
	return "articles"
}

func (m *Model) header() string {
	h := m.list.Title
	if n := len(m.list.Full); n > 0 {
		h = fmt.Sprintf("%s · %d of %d", h, len(m.list.Items), n)
	}
	return h
}

func (m *Model) itemLines(rows search.ResultSet, start int) []styledLine {
	if len(rows) == 0 {
		return []styledLine{{text: fmt.Sprintf("No matches for %q", m.list.Filter), style: styles.Info}}
	}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		mark := ""
		if m.list.MultiSelect {
			mark = "[ ] "
			if m.list.IsSelected(r.ID) {
				mark = "[✓] "
			}
		}
		cells[i] = []string{"▌ " + mark + r.Title, m.countLabel(r.Count)}
	}
	formatted := table.FormatWidth(cells, []table.Alignment{table.AlignLeft, table.AlignRight}, 0, m.width)
	lines := make([]styledLine, len(formatted))
	for i, text := range formatted {
		lineStyle := styles.Item
		prefixStyle := styles.ItemIndicator
		if start+i == m.list.Cursor {
			lineStyle = styles.SelectedItem
			prefixStyle = styles.SelectedItemIndicator
		}
		if m.width > 0 {
			if pad := m.width - lipgloss.Width(text); pad > 0 {
				text += strings.Repeat(" ", pad)
			}
		}
		lines[i] = styledLine{text: text, style: lineStyle, prefixStyle: prefixStyle, highlightFrom: 1}
	}
	return lines
}

func (m *Model) countLabel(n int) string {
	switch {
	case m.kind == search.KindCategory && n == 1:
		return "1 page"
	case m.kind == search.KindCategory:
		return fmt.Sprintf("%d pages", n)
	case n == 1:
		return "1 snippet"
	default:
		return fmt.Sprintf("%d snippets", n)
	}
}

func (m *Model) selectionLines() []styledLine {
	if !m.list.MultiSelect {
		return nil
	}
	items := m.list.SelectedItems()
	if len(items) == 0 {
		return nil
	}
	articles, snippets := m.list.SelectionSummary()
	lines := []styledLine{
		{},
		{text: selectionSummary(articles, snippets), style: styles.SelectionTitle},
	}
	for i, item := range items {
		if i == maxSelectionLines {
			lines = append(lines, styledLine{text: fmt.Sprintf("  … and %d more", len(items)-i), style: styles.SelectionBody})
			break
		}
		lines = append(lines, styledLine{text: "  • " + item.Title, style: styles.SelectionBody})
	}
	return lines
}

func selectionSummary(articles, snippets int) string {
	a := "articles"
	if articles == 1 {
		a = "article"
	}
	s := "snippets"
	if snippets == 1 {
		s = "snippet"
	}
	return fmt.Sprintf("Selected %d %s, %d %s", articles, a, snippets, s)
}

func (m *Model) statusLine() styledLine {
	switch {
	case m.errMsg != "":
		return styledLine{text: "Error: " + m.errMsg, style: styles.Error}
	case m.indicator.Active():
		return styledLine{text: m.indicator.View() + " " + styles.Status.Render("searching…"), raw: true}
	}
	return styledLine{}
}

func (m *Model) maxVisibleItems() int {
	if m.height <= 0 {
		return -1
	}
	used := 3 // header, status line, prompt
	if m.list.MultiSelect {
		if n := len(m.list.SelectionOrder()); n > 0 {
			used += 2
			if n > maxSelectionLines {
				used += maxSelectionLines + 1
			} else {
				used += n
			}
		}
	}
	if info := m.currentInfo(); info != "" {
		used += 2
	}
	if m.showFooter {
		used += 2
	}
	remain := m.height - used
	if remain < 1 {
		return 1
	}
	return remain
}

func (m *Model) setInfo(message string) {
	m.infoMsg = message
	m.infoExpire = time.Now().Add(5 * time.Second)
}

func (m *Model) forceClearInfo() {
	m.infoMsg = ""
	m.infoExpire = time.Time{}
}

func (m *Model) currentInfo() string {
	if m.infoMsg != "" && !m.infoExpire.IsZero() && time.Now().After(m.infoExpire) {
		m.forceClearInfo()
	}
	return m.infoMsg
}

func limitHeight(lines []styledLine, height, width int) []styledLine {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	if height == 1 {
		return []styledLine{{text: truncateText("…", width)}}
	}
	trimmed := make([]styledLine, 0, height)
	trimmed = append(trimmed, lines[:height-1]...)
	return append(trimmed, styledLine{text: truncateText("…", width)})
}

func applyWidth(lines []styledLine, width int) []styledLine {
	if width <= 0 {
		return lines
	}
	result := make([]styledLine, len(lines))
	for i, line := range lines {
		if line.raw {
			if lipgloss.Width(line.text) > width {
				line.text = truncate.StringWithTail(line.text, uint(width-1), "…")
			}
		} else {
			line.text = truncateText(line.text, width)
		}
		result[i] = line
	}
	return result
}

func renderLines(lines []styledLine) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		text := line.text
		if line.raw {
			out[i] = text
			continue
		}
		runes := []rune(text)
		if line.highlightFrom > 0 && line.highlightFrom < len(runes) {
			head := string(runes[:line.highlightFrom])
			tail := string(runes[line.highlightFrom:])
			if line.prefixStyle != nil {
				head = line.prefixStyle.Render(head)
			}
			if line.style != nil {
				tail = line.style.Render(tail)
			}
			text = head + tail
		} else if line.style != nil {
			text = line.style.Render(text)
		}
		out[i] = text
	}
	return strings.Join(out, "\n")
}

func truncateText(text string, width int) string {
	if width <= 0 || lipgloss.Width(text) <= width {
		return text
	}
	if width == 1 {
		return truncate.String(text, 1)
	}
	return truncate.StringWithTail(text, uint(width), "…")
}
