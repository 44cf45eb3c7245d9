package ui

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mcao2/truthguard/internal/analysis"
	"github.com/mcao2/truthguard/internal/app"
	"github.com/mcao2/truthguard/internal/history"
	"github.com/mcao2/truthguard/internal/render"
)

// header(2) + status(1) + footer(2)
const resultChromeHeight = 5

func (m *Model) contentWidth() int {
	w := m.width - 4
	if m.width == 0 {
		w = 76
	}
	if w < 30 {
		w = 30
	}
	return w
}

func (m *Model) bodyHeight() int {
	h := m.height - resultChromeHeight
	if m.height == 0 {
		h = 20
	}
	if h < 3 {
		h = 3
	}
	return h
}

func (m *Model) wrap(style lipgloss.Style, text string) []string {
	return strings.Split(style.Width(m.contentWidth()).Render(text), "\n")
}

// resultLines renders the scrollable body of the result view
func (m *Model) resultLines(item history.Item) []string {
	res := item.Result
	width := m.contentWidth()

	var lines []string
	lines = append(lines,
		m.styles.RiskBadge(res.RiskLevel)+"  "+lipgloss.NewStyle().Bold(true).Render(res.Verdict),
		"",
	)

	bar := progress.New(
		progress.WithSolidFill(m.styles.RiskColor(res.RiskLevel)),
		progress.WithoutPercentage(),
		progress.WithWidth(width-10),
	)
	lines = append(lines, bar.ViewAs(float64(res.Score)/100)+fmt.Sprintf("  %d/100", res.Score), "")

	label := "Explanation"
	if m.simple && res.SimplifiedExplanation != "" {
		label = "In simple terms"
	}
	lines = append(lines, m.styles.Section.Render(label))
	lines = append(lines, m.wrap(m.styles.Normal, res.ExplanationFor(m.simple))...)
	lines = append(lines, "")

	segments := analysis.Highlight(item.OriginalText, res.SuspiciousPhrases)
	if item.OriginalText != "" || item.HasImage() {
		lines = append(lines, m.styles.Section.Render("Analyzed content"))
		if item.HasImage() {
			lines = append(lines, m.styles.Help.Render("[image attached]"))
		}
		if item.OriginalText != "" {
			marked := render.MarkSuspicious(segments, func(s string) string {
				return m.styles.Suspicious.Render(s)
			})
			lines = append(lines, m.wrap(lipgloss.NewStyle(), marked)...)
		}
		lines = append(lines, "")
	}

	if len(res.SuspiciousPhrases) > 0 {
		header := "Suspicious phrases"
		if n := analysis.SuspiciousCount(segments); n > 0 {
			header = fmt.Sprintf("Suspicious phrases (%d found in text)", n)
		}
		lines = append(lines, m.styles.Section.Render(header))
		chips := make([]string, 0, len(res.SuspiciousPhrases))
		for _, p := range res.SuspiciousPhrases {
			chips = append(chips, m.styles.Suspicious.Render(p))
		}
		lines = append(lines, m.wrap(lipgloss.NewStyle(), strings.Join(chips, "  "))...)
		lines = append(lines, "")
	}

	if len(res.VerificationSources) > 0 {
		lines = append(lines, m.styles.Section.Render("Verify with"))
		for i, src := range res.VerificationSources {
			line := fmt.Sprintf("%d. %s", i+1, src.Name)
			if src.URL != "" {
				line += "  " + m.styles.Link.Render(src.URL)
			}
			lines = append(lines, Truncate(line, width))
		}
		lines = append(lines, "")
	}

	if len(res.Tips) > 0 {
		lines = append(lines, m.styles.Section.Render("Safety tips"))
		for _, tip := range res.Tips {
			lines = append(lines, m.wrap(m.styles.Normal, "• "+tip)...)
		}
	}

	return lines
}

func (m *Model) resultView() string {
	item, ok := m.session.Current()
	if !ok {
		return m.padToHeight(m.styles.Normal.Render("  Nothing to show"))
	}

	mode := "detailed"
	if m.simple {
		mode = "simple"
	}
	header := m.headerBar("TruthGuard · Result", item.Timestamp.Local().Format("Jan 2 15:04")+" · "+mode)

	lines := m.resultLines(item)
	height := m.bodyHeight()
	start := m.scroll
	if start > len(lines) {
		start = len(lines)
	}
	end := start + height
	if end > len(lines) {
		end = len(lines)
	}
	body := make([]string, 0, height)
	for _, line := range lines[start:end] {
		body = append(body, "  "+line)
	}
	for len(body) < height {
		body = append(body, "")
	}

	statusLine := ""
	if m.statusMessage != "" {
		statusLine = m.styles.Help.Render("  " + m.statusMessage)
	}

	var footer string
	if m.showHelp {
		footer = m.renderFullHelp()
	} else {
		entries := []helpEntry{
			{"j/k", "scroll"},
			{"s", "simple/detailed"},
		}
		if m.sharer != nil {
			entries = append(entries, helpEntry{"c", "share"})
		}
		if len(item.VerificationSources) > 0 {
			entries = append(entries, helpEntry{"1-9/o", "open source"})
		}
		entries = append(entries, helpEntry{"n", "new"}, helpEntry{"esc", "back"}, helpEntry{"?", "help"})
		footer = m.styles.FooterBar.Width(m.width - 1).Render(m.renderHelpLine(entries))
	}

	content := strings.Join([]string{header, strings.Join(body, "\n"), statusLine, footer}, "\n")
	return m.padToHeight(content)
}

func (m *Model) clampScroll() {
	item, ok := m.session.Current()
	if !ok || m.state != StateResult {
		m.scroll = 0
		return
	}
	maxScroll := len(m.resultLines(item)) - m.bodyHeight()
	if maxScroll < 0 {
		maxScroll = 0
	}
	if m.scroll > maxScroll {
		m.scroll = maxScroll
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item, _ := m.session.Current()

	switch {
	case keyMatches(msg, m.keys.Quit):
		return m, m.quit()
	case keyMatches(msg, m.keys.Up):
		m.scroll--
	case keyMatches(msg, m.keys.Down):
		m.scroll++
	case keyMatches(msg, m.keys.PageUp):
		m.scroll -= m.bodyHeight()
	case keyMatches(msg, m.keys.PageDown):
		m.scroll += m.bodyHeight()
	case keyMatches(msg, m.keys.Simple):
		m.simple = !m.simple
		m.cfg.SimpleExplanations = m.simple
		m.saveConfig()
	case keyMatches(msg, m.keys.Share):
		m.share()
	case keyMatches(msg, m.keys.Open):
		m.openSources(item.VerificationSources)
	case keyMatches(msg, m.keys.New):
		m.session.Reset()
		return m, m.openInput(InputValues{})
	case keyMatches(msg, m.keys.Back):
		m.session.Reset()
		m.statusMessage = ""
		if m.resultBack == StateHistory {
			return m, m.openHistory()
		}
		m.state = StateHome
		return m, nil
	default:
		if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			n := int(s[0] - '0')
			if n <= len(item.VerificationSources) {
				m.openSources(item.VerificationSources[n-1 : n])
			}
		}
	}

	m.clampScroll()
	return m, nil
}

func (m *Model) share() {
	err := m.session.ShareCurrent(m.sharer)
	switch {
	case err == nil:
		m.statusMessage = "Copied to clipboard!"
	case errors.Is(err, app.ErrShareUnavailable):
		m.statusMessage = "Sharing is not available on this system"
	default:
		log.Printf("share failed err=%v", err)
		m.statusMessage = "Could not copy to clipboard"
	}
}

func (m *Model) openSources(sources []analysis.VerificationSource) {
	opened := 0
	for _, src := range sources {
		if !strings.HasPrefix(src.URL, "https://") && !strings.HasPrefix(src.URL, "http://") {
			continue
		}
		if err := openURL(src.URL); err != nil {
			log.Printf("open url failed url=%s err=%v", src.URL, err)
			continue
		}
		opened++
	}
	switch opened {
	case 0:
		m.statusMessage = "No link to open"
	case 1:
		m.statusMessage = "Opened 1 source in browser"
	default:
		m.statusMessage = fmt.Sprintf("Opened %d sources in browser", opened)
	}
}
