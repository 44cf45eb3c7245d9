package analysis

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// MinTextLength is the minimum trimmed text length accepted without an image
	MinTextLength = 5
	// MaxPromptChars bounds how much of the text is sent to the provider
	MaxPromptChars = 5000
	// MaxImageBytes bounds attached images
	MaxImageBytes = 20 << 20
)

// Image is an attached image with its media type
type Image struct {
	MediaType string
	Data      []byte
}

// DataURI encodes the image as a data: URI
func (img *Image) DataURI() string {
	if img == nil {
		return ""
	}
	return "data:" + img.MediaType + ";base64," + img.Base64()
}

// Base64 returns the raw base64 payload without the data URI prefix
func (img *Image) Base64() string {
	if img == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(img.Data)
}

// Request is what the user submitted for analysis
type Request struct {
	Text  string
	Image *Image
}

// HasText reports whether the trimmed text is long enough to analyze on its own
func (r Request) HasText() bool {
	return utf8.RuneCountInString(strings.TrimSpace(r.Text)) >= MinTextLength
}

// Validate enforces the submission precondition. It must pass before any
// remote call is issued.
func (r Request) Validate() error {
	if !r.HasText() && r.Image == nil {
		return ErrEmptyInput
	}
	return nil
}

// PromptText returns the text prefix that is sent to the provider
func (r Request) PromptText() string {
	return TruncateRunes(r.Text, MaxPromptChars)
}

// TruncateRunes cuts s to at most n runes
func TruncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// LoadImage reads an image file and sniffs its media type
func LoadImage(path string) (*Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("image path %s is a directory", path)
	}
	if info.Size() > MaxImageBytes {
		return nil, fmt.Errorf("image is too large (%d bytes, max %d)", info.Size(), MaxImageBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return NewImage(data)
}

// NewImage wraps raw bytes, rejecting anything that is not an image
func NewImage(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image is empty")
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("image is too large (%d bytes, max %d)", len(data), MaxImageBytes)
	}

	mt := mimetype.Detect(data)
	mediaType := mt.String()
	if i := strings.Index(mediaType, ";"); i != -1 {
		mediaType = mediaType[:i]
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("unsupported file type %s: please attach an image (JPG, PNG, WEBP)", mediaType)
	}

	return &Image{MediaType: mediaType, Data: data}, nil
}

// ParseDataURI decodes a data:image/...;base64, URI back into an Image
func ParseDataURI(uri string) (*Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("data URI has no payload")
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, fmt.Errorf("data URI is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URI: %w", err)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("data URI is %s, not an image", mediaType)
	}
	return &Image{MediaType: mediaType, Data: data}, nil
}
