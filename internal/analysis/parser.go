package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var codeBlockRegex = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// ParseResponse extracts the JSON object from an LLM reply and normalizes it
func ParseResponse(content string) (Result, error) {
	jsonStr := extractJSON(content)
	if jsonStr == "" {
		return Result{}, fmt.Errorf("%w: no JSON object found in response", ErrMalformedResponse)
	}

	dec := json.NewDecoder(strings.NewReader(jsonStr))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return Result{}, fmt.Errorf("%w: failed to parse analysis JSON: %v", ErrMalformedResponse, err)
	}

	return Normalize(raw)
}

// extractJSON finds the first JSON object in the content
func extractJSON(content string) string {
	// Prefer a fenced code block
	if matches := codeBlockRegex.FindStringSubmatch(content); len(matches) > 1 {
		trimmed := strings.TrimSpace(matches[1])
		if IsJSONObject(trimmed) {
			return trimmed
		}
	}

	startIdx := strings.Index(content, "{")
	if startIdx == -1 {
		return ""
	}

	// Find the matching closing brace, skipping braces inside strings
	depth := 0
	inString := false
	escaped := false
	for i := startIdx; i < len(content); i++ {
		c := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(content[startIdx : i+1])
			}
		}
	}

	return ""
}

// IsJSONObject checks if the string starts with { and ends with }
func IsJSONObject(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")
}
