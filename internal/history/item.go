package history

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mcao2/truthguard/internal/analysis"
)

const (
	previewRunes      = 150
	imageOnlyPreview  = "[Image Analysis Request]"
	imagePreviewLabel = "[Image] "
)

// Item is one completed analysis kept in history
type Item struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	PreviewText  string    `json:"previewText"`
	OriginalText string    `json:"originalText,omitempty"`
	// ImageBase64 holds the attached image as a data URI
	ImageBase64 string `json:"imageBase64,omitempty"`

	analysis.Result
}

// NewID returns a time-ordered unique identifier
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewItem builds a history entry for a successful analysis
func NewItem(result analysis.Result, text string, image *analysis.Image, now time.Time) Item {
	return Item{
		ID:           NewID(),
		Timestamp:    now,
		PreviewText:  Preview(text, image != nil),
		OriginalText: text,
		ImageBase64:  image.DataURI(),
		Result:       result,
	}
}

// Preview shortens submitted text for list display
func Preview(text string, hasImage bool) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		if hasImage {
			return imageOnlyPreview
		}
		return ""
	}

	if utf8.RuneCountInString(text) > previewRunes {
		text = analysis.TruncateRunes(text, previewRunes) + "..."
	}
	if hasImage {
		return imagePreviewLabel + text
	}
	return text
}

// Image decodes the stored image, if any
func (i Item) Image() (*analysis.Image, error) {
	if i.ImageBase64 == "" {
		return nil, nil
	}
	img, err := analysis.ParseDataURI(i.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("history item %s: %w", i.ID, err)
	}
	return img, nil
}

// HasImage reports whether an image was part of the request
func (i Item) HasImage() bool {
	return i.ImageBase64 != ""
}
