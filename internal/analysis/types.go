package analysis

// RiskLevel is the discrete classification derived from a score
type RiskLevel string

const (
	RiskSafe       RiskLevel = "SAFE"
	RiskSuspicious RiskLevel = "SUSPICIOUS"
	RiskHigh       RiskLevel = "HIGH_RISK"
)

const (
	suspiciousThreshold = 30
	highRiskThreshold   = 70
)

// RiskLevelForScore maps a 0-100 score onto a RiskLevel.
// Lower bounds are inclusive: 70 is HIGH_RISK, 30 is SUSPICIOUS.
func RiskLevelForScore(score int) RiskLevel {
	switch {
	case score >= highRiskThreshold:
		return RiskHigh
	case score >= suspiciousThreshold:
		return RiskSuspicious
	default:
		return RiskSafe
	}
}

func (r RiskLevel) String() string {
	return string(r)
}

// Label returns a human readable form of the risk level
func (r RiskLevel) Label() string {
	switch r {
	case RiskSafe:
		return "Safe"
	case RiskSuspicious:
		return "Suspicious"
	case RiskHigh:
		return "High Risk"
	default:
		return "Unknown"
	}
}

// VerificationSource is an external reference the user can check independently
type VerificationSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Result is the validated outcome of one analysis. It is built only by
// Normalize and is treated as read-only afterwards.
type Result struct {
	Score                 int                  `json:"score"`
	Verdict               string               `json:"verdict"`
	RiskLevel             RiskLevel            `json:"riskLevel"`
	Explanation           string               `json:"explanation"`
	SimplifiedExplanation string               `json:"simplifiedExplanation"`
	SuspiciousPhrases     []string             `json:"suspiciousPhrases"`
	VerificationSources   []VerificationSource `json:"verificationSources"`
	Tips                  []string             `json:"tips"`
}

// ExplanationFor returns the simplified or the detailed explanation.
// Falls back to the detailed one when the provider left the simple one empty.
func (r Result) ExplanationFor(simple bool) string {
	if simple && r.SimplifiedExplanation != "" {
		return r.SimplifiedExplanation
	}
	return r.Explanation
}
