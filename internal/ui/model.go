package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mcao2/truthguard/internal/analysis"
	"github.com/mcao2/truthguard/internal/app"
	"github.com/mcao2/truthguard/internal/config"
)

type State int

const (
	StateHome State = iota
	StateInput
	StateAnalyzing
	StateResult
	StateHistory
	StateConfirmClear
	StateMessage
)

func (s State) String() string {
	switch s {
	case StateHome:
		return "Home"
	case StateInput:
		return "Input"
	case StateAnalyzing:
		return "Analyzing"
	case StateResult:
		return "Result"
	case StateHistory:
		return "History"
	case StateConfirmClear:
		return "ConfirmClear"
	case StateMessage:
		return "Message"
	default:
		return "Unknown"
	}
}

type Model struct {
	state  State
	width  int
	height int
	styles Styles
	keys   KeyMap

	themeIndex int
	showHelp   bool

	cfg      *config.Config
	session  *app.Session
	sharer   app.Sharer
	setupErr error

	input  *InputForm
	draft  InputValues
	ticket app.Ticket
	cancel context.CancelFunc

	// result view
	simple     bool
	scroll     int
	resultBack State

	listView  ListView
	search    textinput.Model
	searching bool

	spinner spinner.Model

	statusMessage string
	messageType   string
	messageNext   State
}

// Option configures a Model
type Option func(*Model)

// WithSharer sets the share capability. A nil sharer disables sharing.
func WithSharer(s app.Sharer) Option {
	return func(m *Model) {
		m.sharer = s
	}
}

// WithSetupError records why no analyzer could be built. Submitting then
// shows the error instead of calling the provider.
func WithSetupError(err error) Option {
	return func(m *Model) {
		m.setupErr = err
	}
}

// AnalysisDoneMsg carries the outcome of one remote call
type AnalysisDoneMsg struct {
	Ticket app.Ticket
	Result analysis.Result
	Err    error
}

func NewModel(cfg *config.Config, session *app.Session, opts ...Option) *Model {
	if cfg == nil {
		cfg = &config.Config{Theme: "default"}
	}

	themeNames := GetThemeNames()
	themeIndex := 0
	for i, name := range themeNames {
		if name == cfg.Theme {
			themeIndex = i
			break
		}
	}
	themeName := themeNames[themeIndex]

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(Themes[themeName].Primary))

	search := textinput.New()
	search.Placeholder = "search verdicts and previews"
	search.Prompt = "/ "
	search.CharLimit = 100

	m := &Model{
		state:      StateHome,
		styles:     NewStyles(Themes[themeName]),
		keys:       DefaultKeyMap(),
		themeIndex: themeIndex,
		cfg:        cfg,
		session:    session,
		simple:     cfg.SimpleExplanations,
		spinner:    s,
		search:     search,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.listView = NewListView(80, 24)
	m.listView.UpdateTableStyles(Themes[themeName])
	return m
}

func (m *Model) cycleTheme() {
	themeNames := GetThemeNames()
	m.themeIndex = (m.themeIndex + 1) % len(themeNames)
	newTheme := themeNames[m.themeIndex]
	m.styles = NewStyles(Themes[newTheme])
	m.listView.UpdateTableStyles(Themes[newTheme])
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(Themes[newTheme].Primary))

	m.cfg.Theme = newTheme
	m.saveConfig()
}

func (m *Model) saveConfig() {
	if err := m.cfg.Save(); err != nil {
		log.Printf("config save failed err=%v", err)
	}
}

func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.listView.SetWidthHeight(msg.Width, msg.Height)
		m.search.Width = msg.Width - 8
		if m.input != nil {
			m.input.form = m.input.form.WithWidth(formWidth(msg.Width))
		}
		m.clampScroll()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case AnalysisDoneMsg:
		return m.handleAnalysisDone(msg)

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	// huh and textinput need non-key messages too (cursor blink, etc.)
	switch m.state {
	case StateInput:
		if m.input != nil {
			return m, m.input.Update(msg)
		}
	case StateHistory:
		if m.searching {
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m *Model) View() string {
	var content string
	centered := true

	switch m.state {
	case StateHome:
		content = m.homeView()
	case StateInput:
		content = m.inputView()
	case StateAnalyzing:
		content = m.analyzingView()
	case StateResult:
		content = m.resultView()
		centered = false
	case StateHistory:
		content = m.historyView()
		centered = false
	case StateConfirmClear:
		content = m.confirmClearView()
	case StateMessage:
		content = m.messageView()
	default:
		return "Unknown state"
	}

	if centered && m.width > 0 && m.height > 0 {
		content = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}

	return content
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case StateInput:
		return m.handleInputKeys(msg)
	case StateMessage:
		return m.handleMessageKeys(msg)
	case StateHistory:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
	}

	switch {
	case keyMatches(msg, m.keys.ForceQuit):
		return m, m.quit()
	case keyMatches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}

	switch m.state {
	case StateHome:
		return m.handleHomeKeys(msg)
	case StateAnalyzing:
		return m.handleAnalyzingKeys(msg)
	case StateResult:
		return m.handleResultKeys(msg)
	case StateHistory:
		return m.handleHistoryKeys(msg)
	case StateConfirmClear:
		return m.handleConfirmClearKeys(msg)
	}

	return m, nil
}

func (m *Model) quit() tea.Cmd {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	return tea.Quit
}

func (m *Model) handleHomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, m.keys.Quit):
		return m, m.quit()
	case keyMatches(msg, m.keys.Enter):
		return m, m.openInput(m.draft)
	case keyMatches(msg, m.keys.New):
		return m, m.openInput(InputValues{})
	case keyMatches(msg, m.keys.History):
		return m, m.openHistory()
	case keyMatches(msg, m.keys.CycleTheme):
		m.cycleTheme()
	}
	return m, nil
}

// openInput shows the submission form prefilled with values
func (m *Model) openInput(values InputValues) tea.Cmd {
	if m.setupErr != nil {
		m.showMessage("error", "No AI provider is configured: "+m.setupErr.Error()+
			"\nRun `truthguard init` and edit "+config.Path(), StateHome)
		return nil
	}
	m.draft = values
	m.input = NewInputForm(values, m.width)
	m.state = StateInput
	return m.input.Init()
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, m.keys.ForceQuit):
		return m, m.quit()
	case msg.String() == "esc":
		m.draft = m.input.Values()
		m.input = nil
		m.state = StateHome
		return m, nil
	}

	cmd := m.input.Update(msg)
	if !m.input.Completed() {
		return m, cmd
	}

	// The form is done; its own submit command is not needed.
	values := m.input.Values()
	m.draft = values
	req, err := buildRequest(values)
	if err != nil {
		m.showMessage("error", err.Error(), StateInput)
		return m, nil
	}
	return m, m.submit(req)
}

// submit starts an analysis for req. Input that fails validation never
// reaches the provider.
func (m *Model) submit(req analysis.Request) tea.Cmd {
	ticket, err := m.session.StartAnalysis(req)
	switch {
	case errors.Is(err, analysis.ErrEmptyInput):
		m.showMessage("error", analysis.UserMessage(err), StateInput)
		return nil
	case errors.Is(err, app.ErrBusy):
		m.statusMessage = "An analysis is already running"
		return nil
	case err != nil:
		m.showMessage("error", err.Error(), StateInput)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.ticket = ticket
	m.cancel = cancel
	m.input = nil
	m.state = StateAnalyzing
	m.statusMessage = ""

	session := m.session
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		result, err := session.Run(ctx, ticket)
		return AnalysisDoneMsg{Ticket: ticket, Result: result, Err: err}
	})
}

func (m *Model) handleAnalysisDone(msg AnalysisDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Ticket != m.ticket || m.state != StateAnalyzing {
		log.Printf("stale analysis result discarded ticket=%d", msg.Ticket)
		return m, nil
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	if msg.Err != nil {
		if m.session.ReceiveError(msg.Ticket, msg.Err) {
			m.showMessage("error", m.session.ErrorMessage(), StateInput)
		}
		return m, nil
	}

	if _, ok := m.session.ReceiveResult(msg.Ticket, msg.Result); ok {
		m.draft = InputValues{}
		m.showResult(StateHome)
	}
	return m, nil
}

func (m *Model) handleAnalyzingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, m.keys.Quit):
		return m, m.quit()
	case keyMatches(msg, m.keys.Back):
		m.abandon()
		return m, m.openInput(m.draft)
	}
	return m, nil
}

// abandon drops the in-flight request; its answer will be discarded
func (m *Model) abandon() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.session.Reset()
}

func (m *Model) showResult(back State) {
	m.state = StateResult
	m.resultBack = back
	m.scroll = 0
	m.statusMessage = ""
}

func (m *Model) showMessage(kind, text string, next State) {
	m.messageType = kind
	m.statusMessage = text
	m.messageNext = next
	m.state = StateMessage
}

func (m *Model) handleMessageKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if keyMatches(msg, m.keys.ForceQuit) {
		return m, m.quit()
	}

	if m.session.Phase() == app.PhaseError {
		m.session.DismissError()
	}
	m.statusMessage = ""

	switch m.messageNext {
	case StateInput:
		return m, m.openInput(m.draft)
	case StateHistory:
		return m, m.openHistory()
	default:
		m.state = m.messageNext
	}
	return m, nil
}

func (m *Model) homeView() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(m.styles.theme.Primary)).
		Render("  TruthGuard")
	tagline := m.styles.Help.Render("  Check text and images for scams, misinformation and AI fakes")

	themeLine := fmt.Sprintf("  🎨  %s", m.styles.Normal.Render("Theme: "+m.styles.theme.Name))

	mode := "detailed"
	if m.simple {
		mode = "simple"
	}
	modeLine := fmt.Sprintf("  💬  %s", m.styles.Normal.Render("Explanations: "+mode))

	historyLine := fmt.Sprintf("  🕘  %s", m.styles.Normal.Render(fmt.Sprintf("History: %d saved", m.session.History().Len())))

	content := lipgloss.JoinVertical(lipgloss.Left,
		"",
		title,
		tagline,
		"",
		themeLine,
		modeLine,
		historyLine,
		"",
	)

	if m.setupErr != nil {
		errLine := m.styles.Error.Render("  ⚠  No AI provider configured")
		content = lipgloss.JoinVertical(lipgloss.Left, content, errLine, "")
	}

	help := m.renderHelpLine([]helpEntry{
		{"enter", "analyze"},
		{"h", "history"},
		{"t", "theme"},
		{"q", "quit"},
	})

	card := m.styles.Card.Render(content)

	return lipgloss.JoinVertical(lipgloss.Center,
		"",
		card,
		"",
		help,
	)
}

func (m *Model) inputView() string {
	if m.input == nil {
		return ""
	}
	content := m.styles.Border.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.styles.Title.Render("New Analysis"),
			m.input.View(),
		),
	)
	help := m.renderHelpLine([]helpEntry{
		{"tab/enter", "next"},
		{"alt+enter", "newline"},
		{"esc", "back"},
	})
	return lipgloss.JoinVertical(lipgloss.Center, "", content, "", help)
}

func (m *Model) analyzingView() string {
	status := fmt.Sprintf("%s Asking the AI to check this content...", m.spinner.View())

	content := m.styles.Border.Render(
		lipgloss.JoinVertical(lipgloss.Center,
			m.styles.Title.Render("Analyzing"),
			"",
			m.styles.Normal.Render(status),
		),
	)

	help := m.renderHelpLine([]helpEntry{{"esc", "cancel"}})
	return lipgloss.JoinVertical(lipgloss.Center, "", content, "", help)
}

func (m *Model) confirmClearView() string {
	content := m.styles.Border.Render(
		lipgloss.JoinVertical(lipgloss.Center,
			m.styles.Title.Render("Clear History"),
			"",
			m.styles.Normal.Render(fmt.Sprintf("Delete all %d saved analyses?", m.session.History().Len())),
		),
	)

	help := m.renderHelpLine([]helpEntry{
		{"y", "confirm"},
		{"n", "cancel"},
	})

	return lipgloss.JoinVertical(lipgloss.Center, "", content, "", help)
}

func (m *Model) handleConfirmClearKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, m.keys.Confirm):
		m.session.ClearHistory()
		m.statusMessage = "History cleared"
		return m, m.openHistory()
	case keyMatches(msg, m.keys.Cancel):
		return m, m.openHistory()
	}
	return m, nil
}

func (m *Model) messageView() string {
	var icon, title string
	var titleStyle lipgloss.Style

	if m.messageType == "error" {
		icon = "✗"
		title = "Error"
		titleStyle = m.styles.Error
	} else {
		icon = "✓"
		title = "Success"
		titleStyle = m.styles.Success
	}

	content := m.styles.Border.Render(
		lipgloss.JoinVertical(lipgloss.Center,
			titleStyle.Render(icon+" "+title),
			"",
			m.styles.Normal.Render(m.statusMessage),
		),
	)

	help := m.renderHelpLine([]helpEntry{{"any key", "continue"}})
	return lipgloss.JoinVertical(lipgloss.Center, "", content, "", help)
}

// Help rendering

type helpEntry struct {
	key  string
	desc string
}

func (m *Model) renderHelpLine(entries []helpEntry) string {
	var parts []string
	sep := m.styles.HelpSep.Render(" · ")
	for _, e := range entries {
		parts = append(parts, m.styles.HelpKey.Render(e.key)+" "+m.styles.HelpDesc.Render(e.desc))
	}
	return strings.Join(parts, sep)
}

func (m *Model) renderFullHelp() string {
	sections := []struct {
		title   string
		entries []helpEntry
	}{
		{"Navigation", []helpEntry{
			{"j / ↓", "down"},
			{"k / ↑", "up"},
			{"pgdn / pgup", "page"},
			{"esc", "back"},
		}},
		{"Result", []helpEntry{
			{"s", "simple / detailed explanation"},
			{"c", "copy summary to clipboard"},
			{"1-9", "open source N in browser"},
			{"o", "open all sources"},
		}},
		{"History", []helpEntry{
			{"enter", "view analysis"},
			{"/", "search"},
			{"d", "delete"},
			{"C", "clear all"},
		}},
		{"General", []helpEntry{
			{"n", "new analysis"},
			{"t", "cycle theme"},
			{"?", "toggle this help"},
			{"q / ctrl+c", "quit"},
		}},
	}

	var lines []string
	for _, sec := range sections {
		lines = append(lines, m.styles.HelpKey.Render("  "+sec.title))
		for _, e := range sec.entries {
			lines = append(lines, fmt.Sprintf("    %s  %s",
				m.styles.HelpKey.Render(fmt.Sprintf("%-12s", e.key)),
				m.styles.HelpDesc.Render(e.desc),
			))
		}
	}

	return m.styles.FooterBar.Width(m.width - 1).Render(strings.Join(lines, "\n"))
}

// headerBar renders a left title and a right-aligned note
func (m *Model) headerBar(left, right string) string {
	headerLeft := m.styles.HelpKey.Render(left)
	headerRight := m.styles.HelpDesc.Render(right)
	gap := ""
	if m.width > 0 {
		if n := m.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight) - 4; n > 0 {
			gap = strings.Repeat(" ", n)
		}
	}
	return m.styles.HeaderBar.Width(m.width - 1).Render(headerLeft + gap + headerRight)
}

// padToHeight pads content to exactly m.height lines so the alternate
// screen repaints cleanly.
func (m *Model) padToHeight(content string) string {
	if m.height <= 0 {
		return content
	}
	rendered := strings.Split(content, "\n")
	for len(rendered) < m.height {
		rendered = append(rendered, "")
	}
	return strings.Join(rendered[:m.height], "\n")
}

func keyMatches(msg tea.KeyMsg, target key.Binding) bool {
	for _, k := range target.Keys() {
		if msg.String() == k {
			return true
		}
	}
	return false
}

func openURL(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		cmd = "open"
		args = []string{url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}
	return exec.Command(cmd, args...).Start()
}
