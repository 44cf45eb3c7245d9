package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// openHistory switches to the history list, reloading it from the store
func (m *Model) openHistory() tea.Cmd {
	m.state = StateHistory
	m.refreshHistory()
	return nil
}

// refreshHistory applies the current search query to the stored list
func (m *Model) refreshHistory() {
	m.listView.SetItems(m.session.History().Search(m.search.Value()))
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, m.keys.Quit):
		return m, m.quit()
	case keyMatches(msg, m.keys.Up):
		m.listView.MoveCursor(-1)
	case keyMatches(msg, m.keys.Down):
		m.listView.MoveCursor(1)
	case keyMatches(msg, m.keys.PageUp):
		m.listView.MoveCursor(-min(m.listView.visibleRows, m.listView.Cursor()))
	case keyMatches(msg, m.keys.PageDown):
		m.listView.MoveCursor(min(m.listView.visibleRows, m.listView.Len()-1-m.listView.Cursor()))
	case keyMatches(msg, m.keys.Search):
		m.searching = true
		m.statusMessage = ""
		return m, m.search.Focus()
	case keyMatches(msg, m.keys.Enter):
		item := m.listView.GetItem(m.listView.Cursor())
		if item == nil {
			return m, nil
		}
		if _, err := m.session.SelectHistoryItem(item.ID); err != nil {
			m.statusMessage = err.Error()
			m.refreshHistory()
			return m, nil
		}
		m.showResult(StateHistory)
	case keyMatches(msg, m.keys.Delete):
		item := m.listView.GetItem(m.listView.Cursor())
		if item == nil {
			return m, nil
		}
		m.session.DeleteHistoryItem(item.ID)
		m.statusMessage = "Deleted " + Truncate(item.Verdict, 40)
		m.refreshHistory()
	case keyMatches(msg, m.keys.Clear):
		if m.session.History().Len() > 0 {
			m.state = StateConfirmClear
		}
	case keyMatches(msg, m.keys.New):
		return m, m.openInput(InputValues{})
	case keyMatches(msg, m.keys.Back):
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.refreshHistory()
			return m, nil
		}
		m.statusMessage = ""
		m.state = StateHome
	case keyMatches(msg, m.keys.CycleTheme):
		m.cycleTheme()
	}
	return m, nil
}

// handleSearchKeys edits the search query; the list filters as you type
func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, m.quit()
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.refreshHistory()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.refreshHistory()
	return m, cmd
}

func (m *Model) historyView() string {
	total := m.session.History().Len()
	count := fmt.Sprintf("%d saved", total)
	if m.listView.Len() > 0 {
		count = fmt.Sprintf("%d/%d", m.listView.Cursor()+1, m.listView.Len())
		if m.listView.Len() != total {
			count += fmt.Sprintf(" of %d", total)
		}
	}
	header := m.headerBar("TruthGuard · History", count)

	searchLine := m.styles.HelpDesc.Render("  / to search")
	if m.searching || m.search.Value() != "" {
		searchLine = "  " + m.search.View()
	}

	var list string
	switch {
	case total == 0:
		list = m.styles.Normal.Render("  No analyses yet. Press n to check something.")
	case m.listView.Len() == 0:
		list = m.styles.Normal.Render(fmt.Sprintf("  Nothing matches %q", m.search.Value()))
	default:
		list = m.listView.View()
	}

	detail := ""
	if m.listView.Len() > 0 {
		if detailContent := m.listView.DetailView(m.width, m.styles); detailContent != "" {
			divW := m.width - 1
			if divW < 1 {
				divW = 1
			}
			divider := m.styles.HelpSep.Render(strings.Repeat("─", divW))
			detail = divider + "\n" + detailContent
		}
	}

	var statusLine string
	if m.statusMessage != "" {
		statusLine = m.styles.Help.Render("  " + m.statusMessage)
	}

	var footer string
	switch {
	case m.showHelp:
		footer = m.renderFullHelp()
	case m.searching:
		footer = m.styles.FooterBar.Width(m.width - 1).Render(m.renderHelpLine([]helpEntry{
			{"enter", "done"},
			{"esc", "clear"},
		}))
	default:
		footer = m.styles.FooterBar.Width(m.width - 1).Render(m.renderHelpLine([]helpEntry{
			{"j/k", "navigate"},
			{"enter", "view"},
			{"/", "search"},
			{"d", "delete"},
			{"C", "clear all"},
			{"n", "new"},
			{"esc", "back"},
			{"?", "help"},
		}))
	}

	parts := []string{header, searchLine, "", list}
	if detail != "" {
		parts = append(parts, detail)
	}
	if statusLine != "" {
		parts = append(parts, statusLine)
	}
	parts = append(parts, footer)

	return m.padToHeight(strings.Join(parts, "\n"))
}
