package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// indicator is the loading spinner driven by the search controller. Ticks
// arriving while it is stopped are dropped, which ends the animation chain.
type indicator struct {
	spinner spinner.Model
	active  bool
}

func newIndicator() *indicator {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	if styles.Spinner != nil {
		s.Style = styles.Spinner.Copy()
	}
	return &indicator{spinner: s}
}

func (i *indicator) Start() tea.Cmd {
	i.active = true
	return i.spinner.Tick
}

func (i *indicator) Stop() {
	i.active = false
}

func (i *indicator) Active() bool {
	return i.active
}

func (i *indicator) update(msg spinner.TickMsg) tea.Cmd {
	if !i.active {
		return nil
	}
	var cmd tea.Cmd
	i.spinner, cmd = i.spinner.Update(msg)
	return cmd
}

func (i *indicator) View() string {
	if !i.active {
		return ""
	}
	return i.spinner.View()
}

func (m *Model) handleSpinnerTickMsg(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(spinner.TickMsg)
	if !ok {
		return nil
	}
	return m.indicator.update(tick)
}
