package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/chsearch/internal/logging"
	"github.com/atomicstack/chsearch/internal/search"
	"github.com/atomicstack/chsearch/internal/ui/command"
)

const submitCommandID = "snippets"

type snippetsLoadedMsg struct {
	snippets map[string][]string
}

// submitSelection resolves the snippets of every selected article through the
// command bus. The picker quits once they arrive.
func (m *Model) submitSelection() tea.Cmd {
	if m.kind != search.KindArticle || m.submitting {
		return nil
	}
	ids := m.ctrl.SelectedIDs()
	if len(ids) == 0 {
		m.errMsg = "no articles selected"
		return nil
	}
	if m.snippets == nil {
		m.result.Selected = m.list.SelectedItems()
		return m.quit()
	}
	m.submitting = true
	m.errMsg = ""
	m.setInfo(fmt.Sprintf("Fetching snippets for %d articles…", len(ids)))
	fetcher := m.snippets
	return m.bus.Execute(context.Background(), command.Request{
		ID:    submitCommandID,
		Label: "fetch snippets",
		Handler: func(ctx context.Context) (tea.Msg, error) {
			snippets, err := fetcher.SnippetsInArticles(ctx, ids)
			if err != nil {
				return nil, err
			}
			return snippetsLoadedMsg{snippets: snippets}, nil
		},
	})
}

func (m *Model) handleCommandResultMsg(msg tea.Msg) tea.Cmd {
	res, ok := msg.(command.Result)
	if !ok || res.ID != submitCommandID {
		return nil
	}
	m.submitting = false
	m.forceClearInfo()
	if res.Err != nil {
		logging.Error(res.Err)
		m.errMsg = submitErrorText(res.Err)
		return nil
	}
	loaded, _ := res.Msg.(snippetsLoadedMsg)
	m.result.Selected = m.list.SelectedItems()
	m.result.Snippets = loaded.snippets
	return m.quit()
}

func submitErrorText(err error) string {
	var httpErr *search.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return fmt.Sprintf("snippet lookup failed (%d)", httpErr.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return "snippet lookup timed out"
	default:
		return err.Error()
	}
}
