package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

const (
	minScore = 0
	maxScore = 100
)

// Normalize validates a loosely typed provider payload and builds a Result.
//
// score, verdict, explanation and simplifiedExplanation are required.
// suspiciousPhrases, verificationSources and tips default to empty lists.
// The risk level is always derived from the (clamped) score; any riskLevel
// sent by the provider is ignored.
func Normalize(raw map[string]any) (Result, error) {
	if raw == nil {
		return Result{}, fmt.Errorf("%w: payload is not an object", ErrMalformedResponse)
	}

	score, err := parseScore(raw["score"])
	if err != nil {
		return Result{}, err
	}

	verdict, err := requiredString(raw, "verdict", false)
	if err != nil {
		return Result{}, err
	}
	explanation, err := requiredString(raw, "explanation", false)
	if err != nil {
		return Result{}, err
	}
	simplified, err := requiredString(raw, "simplifiedExplanation", true)
	if err != nil {
		return Result{}, err
	}

	phrases, err := stringList(raw, "suspiciousPhrases")
	if err != nil {
		return Result{}, err
	}
	tips, err := stringList(raw, "tips")
	if err != nil {
		return Result{}, err
	}
	sources, err := sourceList(raw, "verificationSources")
	if err != nil {
		return Result{}, err
	}

	return Result{
		Score:                 score,
		Verdict:               verdict,
		RiskLevel:             RiskLevelForScore(score),
		Explanation:           explanation,
		SimplifiedExplanation: simplified,
		SuspiciousPhrases:     phrases,
		VerificationSources:   sources,
		Tips:                  tips,
	}, nil
}

// ClampScore forces a score into [0,100].
func ClampScore(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

func parseScore(v any) (int, error) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: missing score", ErrMalformedResponse)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: score %q is not a number", ErrMalformedResponse, n.String())
		}
		f = parsed
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, fmt.Errorf("%w: score is %T, want number", ErrMalformedResponse, v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: score is not finite", ErrMalformedResponse)
	}
	if f > maxScore {
		return maxScore, nil
	}
	if f < minScore {
		return minScore, nil
	}
	return ClampScore(int(math.Round(f))), nil
}

func requiredString(raw map[string]any, key string, allowEmpty bool) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedResponse, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, want string", ErrMalformedResponse, key, v)
	}
	s = strings.TrimSpace(s)
	if s == "" && !allowEmpty {
		return "", fmt.Errorf("%w: empty %s", ErrMalformedResponse, key)
	}
	return s, nil
}

// stringList reads an optional array of strings. Absent or null yields an
// empty, non-nil slice so the result always encodes as [].
func stringList(raw map[string]any, key string) ([]string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return []string{}, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, want array", ErrMalformedResponse, key, v)
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is %T, want string", ErrMalformedResponse, key, i, item)
		}
		out = append(out, s)
	}
	return out, nil
}

// sourceList reads the optional verificationSources array. Entries without
// a name are dropped.
func sourceList(raw map[string]any, key string) ([]VerificationSource, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return []VerificationSource{}, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, want array", ErrMalformedResponse, key, v)
	}

	out := make([]VerificationSource, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is %T, want object", ErrMalformedResponse, key, i, item)
		}
		name, _ := obj["name"].(string)
		url, _ := obj["url"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, VerificationSource{Name: name, URL: strings.TrimSpace(url)})
	}
	return out, nil
}
