package theme

import "github.com/charmbracelet/lipgloss"

// Styles describes the Lip Gloss styles shared across the picker.
type Styles struct {
	Header                *lipgloss.Style
	Item                  *lipgloss.Style
	ItemIndicator         *lipgloss.Style
	SelectedItemIndicator *lipgloss.Style
	SelectedItem          *lipgloss.Style
	Error                 *lipgloss.Style
	Info                  *lipgloss.Style
	Status                *lipgloss.Style
	Spinner               *lipgloss.Style
	Footer                *lipgloss.Style
	Filter                *lipgloss.Style
	FilterPrompt          *lipgloss.Style
	FilterPromptBlurred   *lipgloss.Style
	FilterPlaceholder     *lipgloss.Style
	Cursor                *lipgloss.Style
	SelectionTitle        *lipgloss.Style
	SelectionBody         *lipgloss.Style
}

var defaultStyles = Styles{
	Header:                ptr(lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)),
	Item:                  ptr(lipgloss.NewStyle().Foreground(lipgloss.Color("249"))),
	ItemIndicator:         ptr(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))),
	SelectedItemIndicator: ptr(lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Background(lipgloss.Color("238"))),
	SelectedItem:          ptr(lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("238")).Bold(true)),
	Error:                 ptr(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)),
	Info:                  ptr(lipgloss.NewStyle().Foreground(lipgloss.Color("249"))),
	Status:                ptr(lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)),
	Spinner:               ptr(lipgloss.NewStyle().Foreground(lipgloss.Color("33"))),
	Footer:                ptr(lipgloss.NewStyle().Foreground(lipgloss.Color("241"))),
	Filter:                ptr(lipgloss.NewStyle().Foreground(lipgloss.Color("252"))),
	FilterPrompt:          ptr(lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true)),
	FilterPromptBlurred:   ptr(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))),
	FilterPlaceholder:     ptr(lipgloss.NewStyle().Foreground(lipgloss.Color("241"))),
	Cursor:                ptr(lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("33"))),
	SelectionTitle:        ptr(lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)),
	SelectionBody:         ptr(lipgloss.NewStyle().Foreground(lipgloss.Color("250"))),
}

// Default exposes the standard style set.
func Default() *Styles {
	return &defaultStyles
}

func ptr(style lipgloss.Style) *lipgloss.Style {
	return &style
}
