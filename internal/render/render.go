package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/mcao2/truthguard/internal/analysis"
	"github.com/mcao2/truthguard/internal/history"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

const (
	gaugeWidth   = 20
	previewWidth = 48
	verdictWidth = 28
)

// ParseFormat validates a --format flag value
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text or json)", s)
	}
}

type Renderer interface {
	RenderAnalysis(w io.Writer, item history.Item, simple bool) error
	RenderHistory(w io.Writer, items []history.Item, now time.Time) error
}

func New(f Format) Renderer {
	switch f {
	case FormatJSON:
		return &jsonRenderer{}
	default:
		return &textRenderer{}
	}
}

// ShareText is the short summary handed to the share capability
func ShareText(result analysis.Result) string {
	return fmt.Sprintf(
		"TruthGuard AI Analysis Verdict: %s\nRisk: %s (%d/100)\n\nI used TruthGuard AI to verify this content before trusting it.",
		result.Verdict, result.RiskLevel.Label(), result.Score,
	)
}

// Gauge draws score as a fixed-width bar
func Gauge(score, width int) string {
	score = analysis.ClampScore(score)
	filled := score * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// MarkSuspicious joins segments, passing suspicious ones through mark
func MarkSuspicious(segments []analysis.Segment, mark func(string) string) string {
	var b strings.Builder
	for _, seg := range segments {
		if seg.Suspicious {
			b.WriteString(mark(seg.Text))
		} else {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

type jsonRenderer struct{}

type segmentJSON struct {
	Text       string `json:"text"`
	Suspicious bool   `json:"suspicious"`
}

type analysisJSON struct {
	history.Item
	Segments []segmentJSON `json:"segments,omitempty"`
}

func (r *jsonRenderer) RenderAnalysis(w io.Writer, item history.Item, _ bool) error {
	out := analysisJSON{Item: item}
	for _, seg := range analysis.Highlight(item.OriginalText, item.SuspiciousPhrases) {
		out.Segments = append(out.Segments, segmentJSON{Text: seg.Text, Suspicious: seg.Suspicious})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (r *jsonRenderer) RenderHistory(w io.Writer, items []history.Item, _ time.Time) error {
	if items == nil {
		items = []history.Item{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

type textRenderer struct{}

func (r *textRenderer) RenderAnalysis(w io.Writer, item history.Item, simple bool) error {
	res := item.Result

	fmt.Fprintf(w, "Verdict: %s\n", res.Verdict)
	fmt.Fprintf(w, "Risk:    %s  %s %d/100\n", res.RiskLevel.Label(), Gauge(res.Score, gaugeWidth), res.Score)

	label := "Explanation"
	if simple && res.SimplifiedExplanation != "" {
		label = "In simple terms"
	}
	fmt.Fprintf(w, "\n%s:\n%s\n", label, indent(res.ExplanationFor(simple)))

	if item.OriginalText != "" {
		segments := analysis.Highlight(item.OriginalText, res.SuspiciousPhrases)
		marked := MarkSuspicious(segments, func(s string) string { return "[[" + s + "]]" })
		fmt.Fprintf(w, "\nAnalyzed text (%d suspicious match(es) marked [[like this]]):\n%s\n",
			analysis.SuspiciousCount(segments), indent(marked))
	} else if item.HasImage() {
		fmt.Fprintf(w, "\nAnalyzed an image.\n")
	}

	if len(res.SuspiciousPhrases) > 0 {
		fmt.Fprintf(w, "\nSuspicious phrases:\n")
		for _, p := range res.SuspiciousPhrases {
			fmt.Fprintf(w, "  - %q\n", p)
		}
	}

	if len(res.VerificationSources) > 0 {
		fmt.Fprintf(w, "\nVerify with:\n")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for i, src := range res.VerificationSources {
			fmt.Fprintf(tw, "  %d.\t%s\t%s\n", i+1, src.Name, src.URL)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(res.Tips) > 0 {
		fmt.Fprintf(w, "\nSafety tips:\n")
		for i, tip := range res.Tips {
			fmt.Fprintf(w, "  %d. %s\n", i+1, tip)
		}
	}
	return nil
}

func (r *textRenderer) RenderHistory(w io.Writer, items []history.Item, now time.Time) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No history yet.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tRISK\tSCORE\tWHEN\tVERDICT\tPREVIEW\n")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			item.ID,
			item.RiskLevel,
			item.Score,
			humanize.RelTime(item.Timestamp, now, "ago", "from now"),
			runewidth.Truncate(item.Verdict, verdictWidth, "…"),
			runewidth.Truncate(item.PreviewText, previewWidth, "…"),
		)
	}
	return tw.Flush()
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
