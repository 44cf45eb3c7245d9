package analysis

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Segment is a slice of the original text, tagged when it matches a
// suspicious phrase.
type Segment struct {
	Text       string
	Suspicious bool
}

// Highlight splits text into plain and suspicious segments.
//
// Phrases match literally and case-insensitively. Where phrases compete at
// the same position the longest one wins; equal lengths keep list order.
// Concatenating the returned segments always yields text unchanged.
func Highlight(text string, phrases []string) []Segment {
	if text == "" {
		return nil
	}

	pattern := phrasePattern(phrases)
	if pattern == nil {
		return []Segment{{Text: text}}
	}

	var segments []Segment
	last := 0
	for _, loc := range pattern.FindAllStringIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		if loc[0] > last {
			segments = append(segments, classify(text[last:loc[0]], phrases))
		}
		segments = append(segments, classify(text[loc[0]:loc[1]], phrases))
		last = loc[1]
	}
	if last < len(text) {
		segments = append(segments, classify(text[last:], phrases))
	}

	return segments
}

// SuspiciousCount returns how many segments are marked suspicious
func SuspiciousCount(segments []Segment) int {
	n := 0
	for _, s := range segments {
		if s.Suspicious {
			n++
		}
	}
	return n
}

func classify(part string, phrases []string) Segment {
	for _, p := range phrases {
		if p != "" && strings.EqualFold(p, part) {
			return Segment{Text: part, Suspicious: true}
		}
	}
	return Segment{Text: part}
}

// phrasePattern builds one case-insensitive alternation over the escaped
// phrases, longest first. Returns nil when there is nothing to match.
func phrasePattern(phrases []string) *regexp.Regexp {
	seen := make(map[string]bool, len(phrases))
	usable := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if strings.TrimSpace(p) == "" {
			continue
		}
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		usable = append(usable, p)
	}
	if len(usable) == 0 {
		return nil
	}

	sort.SliceStable(usable, func(i, j int) bool {
		return utf8.RuneCountInString(usable[i]) > utf8.RuneCountInString(usable[j])
	})

	escaped := make([]string, len(usable))
	for i, p := range usable {
		escaped[i] = regexp.QuoteMeta(p)
	}

	re, err := regexp.Compile("(?i)(?:" + strings.Join(escaped, "|") + ")")
	if err != nil {
		return nil
	}
	return re
}
