package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/mcao2/truthguard/internal/analysis"
	"github.com/mcao2/truthguard/internal/history"
)

// ListView is the history table. It renders rows itself instead of using
// the bubbles table viewport, whose YOffset handling breaks on resize.
type ListView struct {
	table       table.Model
	items       []history.Item
	cursor      int
	width       int
	height      int
	visibleRows int // number of data rows visible (excluding header)
	now         func() time.Time

	headerStyle   lipgloss.Style
	cellStyle     lipgloss.Style
	selectedStyle lipgloss.Style
	columns       []table.Column
}

func listColumns(width int) []table.Column {
	// Each cell has Padding(0,1): 5 columns = 10 extra, plus 2 safety margin
	fixedWidth := 12 + 5 + 14 + 24
	padding := 5*2 + 2
	previewWidth := width - fixedWidth - padding
	if previewWidth < 20 {
		previewWidth = 20
	}
	return []table.Column{
		{Title: "Risk", Width: 12},
		{Title: "Score", Width: 5},
		{Title: "When", Width: 14},
		{Title: "Verdict", Width: 24},
		{Title: "Preview", Width: previewWidth},
	}
}

// visibleRowsFor reserves space for header(2) + search(2) + detail pane(4) + status(1) + footer(3)
func visibleRowsFor(height int) int {
	rows := height - 12
	// table header (text + border)
	rows -= 2
	if rows < 3 {
		rows = 3
	}
	return rows
}

func NewListView(width, height int) ListView {
	columns := listColumns(width)
	visibleRows := visibleRowsFor(height)

	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(visibleRows+2),
		table.WithFocused(true),
	)

	return ListView{
		table:       t,
		width:       width,
		height:      height,
		visibleRows: visibleRows,
		now:         time.Now,
		headerStyle: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true),
		cellStyle: lipgloss.NewStyle().Padding(0, 1),
		selectedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")),
		columns: columns,
	}
}

// UpdateTableStyles updates the styles to match the current theme
func (lv *ListView) UpdateTableStyles(theme Theme) {
	lv.headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(theme.Subtle)).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color(theme.Primary))
	lv.selectedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Background)).
		Background(lipgloss.Color(theme.Primary))

	s := table.DefaultStyles()
	s.Header = lv.headerStyle
	s.Selected = lv.selectedStyle
	lv.table.SetStyles(s)
}

// SetItems replaces the rows, keeping the cursor in range
func (lv *ListView) SetItems(items []history.Item) {
	lv.items = items
	if lv.cursor >= len(items) {
		lv.cursor = len(items) - 1
	}
	if lv.cursor < 0 {
		lv.cursor = 0
	}
	lv.updateRows()
}

func (lv *ListView) updateRows() {
	now := lv.now()
	rows := make([]table.Row, len(lv.items))
	for i, item := range lv.items {
		rows[i] = table.Row{
			riskText(item),
			fmt.Sprintf("%3d", item.Score),
			humanize.RelTime(item.Timestamp, now, "ago", "from now"),
			item.Verdict,
			item.PreviewText,
		}
	}
	lv.table.SetRows(rows)
	if len(rows) > 0 {
		lv.table.SetCursor(lv.cursor)
	}
}

func riskText(item history.Item) string {
	icon := "🟢"
	switch item.RiskLevel {
	case analysis.RiskHigh:
		icon = "🔴"
	case analysis.RiskSuspicious:
		icon = "🟡"
	}
	return icon + " " + item.RiskLevel.Label()
}

func Truncate(s string, maxLen int) string {
	if runewidth.StringWidth(s) > maxLen {
		return runewidth.Truncate(s, maxLen, "…")
	}
	return s
}

// detailPaneHeight is the fixed number of lines the detail pane always occupies.
const detailPaneHeight = 4

// DetailView renders a detail pane for the item under the cursor, padded to a fixed height.
func (lv *ListView) DetailView(width int, styles Styles) string {
	item := lv.GetItem(lv.cursor)
	if item == nil {
		return ""
	}

	maxWidth := width - 4
	if maxWidth < 20 {
		maxWidth = 20
	}

	var lines []string
	lines = append(lines, styles.Highlight.Render(Truncate(item.Verdict, maxWidth)))
	lines = append(lines, styles.Help.Render(item.Timestamp.Local().Format("Mon Jan 2 2006 15:04")))

	var meta []string
	meta = append(meta, fmt.Sprintf("score %d/100", item.Score))
	if n := len(item.SuspiciousPhrases); n > 0 {
		meta = append(meta, fmt.Sprintf("%d suspicious phrase(s)", n))
	}
	if item.HasImage() {
		meta = append(meta, "image attached")
	}
	lines = append(lines, styles.Normal.Render(Truncate(strings.Join(meta, " · "), maxWidth)))

	if item.PreviewText != "" {
		lines = append(lines, styles.HelpDesc.Render(Truncate(item.PreviewText, maxWidth)))
	}

	for len(lines) < detailPaneHeight {
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func (lv ListView) Cursor() int {
	return lv.cursor
}

func (lv ListView) Len() int {
	return len(lv.items)
}

func (lv *ListView) SetCursor(pos int) {
	if pos >= 0 && pos < len(lv.items) {
		lv.cursor = pos
		lv.table.SetCursor(pos)
	}
}

func (lv *ListView) MoveCursor(delta int) {
	newPos := lv.cursor + delta
	if newPos >= 0 && newPos < len(lv.items) {
		lv.cursor = newPos
		lv.table.SetCursor(newPos)
	}
}

func (lv ListView) GetItem(index int) *history.Item {
	if index >= 0 && index < len(lv.items) {
		return &lv.items[index]
	}
	return nil
}

// renderCell renders a single cell value with the given column width.
func (lv *ListView) renderCell(value string, colWidth int) string {
	style := lipgloss.NewStyle().Width(colWidth).MaxWidth(colWidth).Inline(true)
	return lv.cellStyle.Render(style.Render(runewidth.Truncate(value, colWidth, "…")))
}

// View renders the table with our own scrolling logic
func (lv ListView) View() string {
	rows := lv.table.Rows()

	headerCells := make([]string, 0, len(lv.columns))
	for _, col := range lv.columns {
		style := lipgloss.NewStyle().Width(col.Width).MaxWidth(col.Width).Inline(true)
		cell := style.Render(runewidth.Truncate(col.Title, col.Width, "…"))
		headerCells = append(headerCells, lv.headerStyle.Render(lv.cellStyle.Render(cell)))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, headerCells...)

	visibleRows := lv.visibleRows
	if visibleRows <= 0 {
		visibleRows = 10
	}

	start := 0
	if lv.cursor >= visibleRows {
		start = lv.cursor - visibleRows + 1
	}
	end := start + visibleRows
	if end > len(rows) {
		end = len(rows)
		start = end - visibleRows
		if start < 0 {
			start = 0
		}
	}

	renderedRows := make([]string, 0, visibleRows)
	for i := start; i < end; i++ {
		cells := make([]string, 0, len(lv.columns))
		for ci, value := range rows[i] {
			cells = append(cells, lv.renderCell(value, lv.columns[ci].Width))
		}
		row := lipgloss.JoinHorizontal(lipgloss.Top, cells...)
		if i == lv.cursor {
			row = lv.selectedStyle.Render(row)
		}
		renderedRows = append(renderedRows, row)
	}

	for len(renderedRows) < visibleRows {
		renderedRows = append(renderedRows, "")
	}

	return header + "\n" + strings.Join(renderedRows, "\n")
}

func (lv *ListView) SetWidthHeight(width, height int) {
	lv.width = width
	lv.height = height
	lv.columns = listColumns(width)
	lv.visibleRows = visibleRowsFor(height)

	lv.table.SetHeight(lv.visibleRows + 2)
	lv.table.SetColumns(lv.columns)
}
