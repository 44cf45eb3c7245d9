package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/mcao2/truthguard/internal/analysis"
	"github.com/mcao2/truthguard/internal/history"
)

var listNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func historyItem(id, verdict string, score int) history.Item {
	return history.Item{
		ID:          id,
		Timestamp:   listNow.Add(-2 * time.Hour),
		PreviewText: "preview " + id,
		Result: analysis.Result{
			Score:     score,
			Verdict:   verdict,
			RiskLevel: analysis.RiskLevelForScore(score),
		},
	}
}

func newTestListView(items ...history.Item) ListView {
	lv := NewListView(100, 30)
	lv.now = func() time.Time { return listNow }
	lv.SetItems(items)
	return lv
}

func TestListView_SetItems(t *testing.T) {
	lv := newTestListView(historyItem("1", "Scam", 90), historyItem("2", "Fine", 10))

	if lv.Len() != 2 {
		t.Errorf("expected 2 items, got %d", lv.Len())
	}
	if item := lv.GetItem(0); item == nil || item.Verdict != "Scam" {
		t.Errorf("expected Scam first, got %+v", item)
	}

	row := lv.table.Rows()[0]
	if !strings.Contains(row[0], "High Risk") {
		t.Errorf("expected risk label in row, got %q", row[0])
	}
	if row[2] != "2 hours ago" {
		t.Errorf("expected relative time, got %q", row[2])
	}
}

func TestListView_SetItemsClampsCursor(t *testing.T) {
	lv := newTestListView(historyItem("1", "a", 1), historyItem("2", "b", 2), historyItem("3", "c", 3))
	lv.SetCursor(2)

	lv.SetItems([]history.Item{historyItem("1", "a", 1)})
	if lv.Cursor() != 0 {
		t.Errorf("expected cursor clamped to 0, got %d", lv.Cursor())
	}

	lv.SetItems(nil)
	if lv.Cursor() != 0 || lv.GetItem(0) != nil {
		t.Errorf("expected empty list, cursor %d", lv.Cursor())
	}
}

func TestRiskText(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{85, "🔴 High Risk"},
		{50, "🟡 Suspicious"},
		{5, "🟢 Safe"},
	}
	for _, tt := range tests {
		if got := riskText(historyItem("x", "v", tt.score)); got != tt.want {
			t.Errorf("riskText(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		max      int
		expected string
	}{
		{"Hello World", 5, "Hell…"},
		{"Hello", 10, "Hello"},
		{"こんにちは", 5, "こん…"},
	}

	for _, tt := range tests {
		got := Truncate(tt.input, tt.max)
		if got != tt.expected {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.expected)
		}
	}
}

func TestListView_SetWidthHeight(t *testing.T) {
	lv := newTestListView(historyItem("1", "Test", 10))

	lv.SetWidthHeight(120, 40)
	if lv.width != 120 {
		t.Errorf("expected width 120, got %d", lv.width)
	}
	if lv.height != 40 {
		t.Errorf("expected height 40, got %d", lv.height)
	}
	if lv.visibleRows != visibleRowsFor(40) {
		t.Errorf("expected %d visible rows, got %d", visibleRowsFor(40), lv.visibleRows)
	}
}

func TestListView_View(t *testing.T) {
	lv := newTestListView(historyItem("1", "Phishing attempt", 90))
	view := lv.View()
	for _, want := range []string{"Risk", "Verdict", "Phishing attempt", "preview 1"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestListView_ViewScrollsToCursor(t *testing.T) {
	var items []history.Item
	for i := 0; i < 40; i++ {
		items = append(items, historyItem(string(rune('a'+i%26))+"-item", "verdict", i))
	}
	lv := NewListView(100, 20)
	lv.now = func() time.Time { return listNow }
	lv.SetItems(items)
	lv.SetCursor(39)

	lines := strings.Split(lv.View(), "\n")
	// header text + border, then exactly visibleRows rows
	if len(lines) != 2+lv.visibleRows {
		t.Errorf("expected %d lines, got %d", 2+lv.visibleRows, len(lines))
	}
}

func TestListView_DetailView(t *testing.T) {
	item := historyItem("1", "Phishing attempt", 90)
	item.SuspiciousPhrases = []string{"act now"}
	lv := newTestListView(item)

	detail := lv.DetailView(100, DefaultStyles())
	if got := len(strings.Split(detail, "\n")); got != detailPaneHeight {
		t.Errorf("expected %d lines, got %d", detailPaneHeight, got)
	}
	for _, want := range []string{"Phishing attempt", "score 90/100", "1 suspicious phrase(s)"} {
		if !strings.Contains(detail, want) {
			t.Errorf("expected %q in detail:\n%s", want, detail)
		}
	}

	empty := newTestListView()
	if empty.DetailView(100, DefaultStyles()) != "" {
		t.Error("expected empty detail for empty list")
	}
}

func TestListView_GetItemOutOfBounds(t *testing.T) {
	lv := newTestListView(historyItem("1", "Test", 10))

	if item := lv.GetItem(-1); item != nil {
		t.Error("expected nil for negative index")
	}
	if item := lv.GetItem(5); item != nil {
		t.Error("expected nil for out-of-bounds index")
	}
}

func TestListView_CursorBoundary(t *testing.T) {
	lv := newTestListView(historyItem("1", "a", 1), historyItem("2", "b", 2))

	// SetCursor out of bounds should be ignored
	lv.SetCursor(10)
	if lv.Cursor() != 0 {
		t.Errorf("expected cursor 0 after out-of-bounds set, got %d", lv.Cursor())
	}

	lv.SetCursor(-1)
	if lv.Cursor() != 0 {
		t.Errorf("expected cursor 0 after negative set, got %d", lv.Cursor())
	}

	// MoveCursor out of bounds should be ignored
	lv.MoveCursor(-1)
	if lv.Cursor() != 0 {
		t.Errorf("expected cursor 0 after negative move, got %d", lv.Cursor())
	}

	lv.MoveCursor(5)
	if lv.Cursor() != 0 {
		t.Errorf("expected cursor 0 after large move, got %d", lv.Cursor())
	}

	lv.MoveCursor(1)
	if lv.Cursor() != 1 {
		t.Errorf("expected cursor 1, got %d", lv.Cursor())
	}
}
