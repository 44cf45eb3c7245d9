package analysis

import "errors"

var (
	// ErrEmptyInput means there was neither enough text nor an image to analyze.
	ErrEmptyInput = errors.New("please provide text or an image to analyze")

	// ErrMalformedResponse means the provider answered but the payload failed validation.
	ErrMalformedResponse = errors.New("malformed analysis response")

	// ErrProviderFailure means the remote call itself failed.
	ErrProviderFailure = errors.New("analysis provider failure")

	// ErrQuotaExceeded is wrapped alongside ErrProviderFailure on HTTP 429.
	ErrQuotaExceeded = errors.New("analysis provider quota exceeded")
)

// UserMessage maps an analysis error onto the text shown to the user.
// Provider and payload failures look the same from the outside.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyInput):
		return "Please provide at least 5 characters of text or an image to analyze."
	default:
		return "Failed to analyze content. Please try again later."
	}
}

// Kind returns a short tag for logging
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, ErrProviderFailure):
		return "provider_failure"
	default:
		return "unknown"
	}
}
