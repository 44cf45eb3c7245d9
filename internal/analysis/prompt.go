package analysis

import "fmt"

// SystemPrompt is sent as the system instruction for every analysis
const SystemPrompt = "You are a world-class security and misinformation expert designed to help non-technical users. Be concise, empathetic, and clear. Return ONLY valid JSON."

// PromptTemplate is the user prompt; %s is the (truncated) submitted text
const PromptTemplate = `Analyze the following content (text and/or image) for fake news, misinformation, phishing attempts, or scam patterns.

If an image is provided:
1. Extract and analyze the text within the image (e.g. email screenshots, social media posts).
2. Analyze visual cues (fake logos, urgency buttons, formatting).

User Text Context: "%s"

---

**Output the following structure (JSON format):**

{
  "score": 0,
  "verdict": "A short verdict title like 'Likely Safe', 'Suspicious', or 'High Risk Scam'",
  "explanation": "A detailed professional explanation of the analysis",
  "simplifiedExplanation": "An 'Explain Like I'm 12' version of the explanation. Simple language, no jargon",
  "suspiciousPhrases": ["exact phrases copied from the content, e.g. 'act now', 'free money'"],
  "verificationSources": [
    {"name": "Source name", "url": "A generic URL to the source's home page or search page"}
  ],
  "tips": ["3-4 practical, actionable tips to verify the content or avoid the scam"]
}

---

**Rules:**
1. "score" is an integer from 0 to 100 indicating the likelihood of being fake or a scam. 0 is perfectly safe, 100 is definitely fake.
2. "suspiciousPhrases" must be copied verbatim from the content so they can be highlighted. Use an empty list if there are none.
3. "verificationSources" lists 2-3 trustworthy sources where the user can verify this info (e.g., Snopes, IRS.gov).

---

**Output Format:**
Return ONLY the JSON object. No additional text or commentary outside the JSON.`

// BuildPrompt renders the user prompt for a request
func BuildPrompt(req Request) string {
	return fmt.Sprintf(PromptTemplate, req.PromptText())
}
