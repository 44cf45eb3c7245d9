package ui

import (
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/mcao2/truthguard/internal/analysis"
)

// Theme is a named color palette
type Theme struct {
	Name       string
	Primary    string
	Secondary  string
	Subtle     string
	Background string
	Text       string
	Muted      string
	Safe       string
	Suspicious string
	HighRisk   string
}

// Themes holds every built-in palette by name
var Themes = map[string]Theme{
	"default": {
		Name: "default", Primary: "#7D56F4", Secondary: "#04B575", Subtle: "#383838",
		Background: "#1A1A1A", Text: "#FAFAFA", Muted: "#737373",
		Safe: "#04B575", Suspicious: "#F5A623", HighRisk: "#FF4D4F",
	},
	"catppuccin": {
		Name: "catppuccin", Primary: "#CBA6F7", Secondary: "#94E2D5", Subtle: "#45475A",
		Background: "#1E1E2E", Text: "#CDD6F4", Muted: "#7F849C",
		Safe: "#A6E3A1", Suspicious: "#F9E2AF", HighRisk: "#F38BA8",
	},
	"dracula": {
		Name: "dracula", Primary: "#BD93F9", Secondary: "#8BE9FD", Subtle: "#44475A",
		Background: "#282A36", Text: "#F8F8F2", Muted: "#6272A4",
		Safe: "#50FA7B", Suspicious: "#F1FA8C", HighRisk: "#FF5555",
	},
	"nord": {
		Name: "nord", Primary: "#88C0D0", Secondary: "#81A1C1", Subtle: "#3B4252",
		Background: "#2E3440", Text: "#ECEFF4", Muted: "#4C566A",
		Safe: "#A3BE8C", Suspicious: "#EBCB8B", HighRisk: "#BF616A",
	},
	"gruvbox": {
		Name: "gruvbox", Primary: "#FE8019", Secondary: "#8EC07C", Subtle: "#3C3836",
		Background: "#282828", Text: "#EBDBB2", Muted: "#928374",
		Safe: "#B8BB26", Suspicious: "#FABD2F", HighRisk: "#FB4934",
	},
}

// GetThemeNames returns theme names with "default" first
func GetThemeNames() []string {
	names := make([]string, 0, len(Themes))
	for name := range Themes {
		if name != "default" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append([]string{"default"}, names...)
}

// Styles holds all the UI styles
type Styles struct {
	theme Theme

	Title      lipgloss.Style
	Normal     lipgloss.Style
	Help       lipgloss.Style
	Highlight  lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Border     lipgloss.Style
	Card       lipgloss.Style
	HelpKey    lipgloss.Style
	HelpDesc   lipgloss.Style
	HelpSep    lipgloss.Style
	HeaderBar  lipgloss.Style
	FooterBar  lipgloss.Style
	Section    lipgloss.Style
	Suspicious lipgloss.Style
	Link       lipgloss.Style
}

// NewStyles builds the style set for a theme
func NewStyles(theme Theme) Styles {
	return Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.Primary)).
			PaddingBottom(1),

		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Text)),

		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Muted)).
			Italic(true),

		Highlight: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.Secondary)),

		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(theme.Primary)).
			Foreground(lipgloss.Color(theme.Background)),

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.HighRisk)),

		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Safe)),

		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(theme.Primary)).
			Padding(1, 3),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(theme.Subtle)).
			Padding(0, 2),

		HelpKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.Primary)),

		HelpDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Muted)),

		HelpSep: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Subtle)),

		HeaderBar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color(theme.Subtle)).
			PaddingLeft(1),

		FooterBar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(lipgloss.Color(theme.Subtle)).
			PaddingLeft(1),

		Section: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.Secondary)),

		Suspicious: lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(lipgloss.Color(theme.HighRisk)),

		Link: lipgloss.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color(theme.Primary)),
	}
}

// DefaultStyles returns the default style set
func DefaultStyles() Styles {
	return NewStyles(Themes["default"])
}

// RiskColor returns the theme color for a risk level
func (s Styles) RiskColor(level analysis.RiskLevel) string {
	switch level {
	case analysis.RiskHigh:
		return s.theme.HighRisk
	case analysis.RiskSuspicious:
		return s.theme.Suspicious
	default:
		return s.theme.Safe
	}
}

// RiskBadge renders a colored risk label
func (s Styles) RiskBadge(level analysis.RiskLevel) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(s.theme.Background)).
		Background(lipgloss.Color(s.RiskColor(level))).
		Padding(0, 1).
		Render(level.Label())
}
