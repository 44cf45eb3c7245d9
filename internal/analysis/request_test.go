package analysis

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// smallest valid PNG header mimetype will recognise
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestRequestValidate(t *testing.T) {
	img := &Image{MediaType: "image/png", Data: pngHeader}
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{name: "empty", req: Request{}, wantErr: true},
		{name: "whitespace only", req: Request{Text: "   \n\t "}, wantErr: true},
		{name: "four characters", req: Request{Text: "  abcd  "}, wantErr: true},
		{name: "five characters", req: Request{Text: "abcde"}},
		{name: "five multibyte characters", req: Request{Text: "éééé€"}},
		{name: "image only", req: Request{Image: img}},
		{name: "short text with image", req: Request{Text: "hi", Image: img}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrEmptyInput) {
					t.Errorf("expected ErrEmptyInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("héllo", 2); got != "hé" {
		t.Errorf("TruncateRunes() = %q", got)
	}
	if got := TruncateRunes("abc", 10); got != "abc" {
		t.Errorf("TruncateRunes() = %q", got)
	}
	long := strings.Repeat("x", MaxPromptChars+1)
	if got := (Request{Text: long}).PromptText(); len(got) != MaxPromptChars {
		t.Errorf("expected prompt text of %d, got %d", MaxPromptChars, len(got))
	}
}

func TestNewImage(t *testing.T) {
	img, err := NewImage(pngHeader)
	if err != nil {
		t.Fatalf("NewImage failed: %v", err)
	}
	if img.MediaType != "image/png" {
		t.Errorf("expected image/png, got %q", img.MediaType)
	}

	if _, err := NewImage([]byte("just some text, not an image")); err == nil {
		t.Error("expected error for non-image data")
	}
	if _, err := NewImage(nil); err == nil {
		t.Error("expected error for empty data")
	}
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.png")
	if err := os.WriteFile(path, pngHeader, 0o600); err != nil {
		t.Fatal(err)
	}

	img, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if !bytes.Equal(img.Data, pngHeader) {
		t.Error("image data mismatch")
	}

	if _, err := LoadImage(dir); err == nil {
		t.Error("expected error for directory")
	}
	if _, err := LoadImage(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDataURIRoundTrip(t *testing.T) {
	img := &Image{MediaType: "image/png", Data: pngHeader}
	uri := img.DataURI()
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("unexpected data URI %q", uri)
	}

	back, err := ParseDataURI(uri)
	if err != nil {
		t.Fatalf("ParseDataURI failed: %v", err)
	}
	if back.MediaType != img.MediaType || !bytes.Equal(back.Data, img.Data) {
		t.Error("data URI did not survive the trip")
	}

	for _, bad := range []string{"image/png;base64,AAAA", "data:image/png;base64", "data:image/png,AAAA", "data:text/plain;base64,AAAA"} {
		if _, err := ParseDataURI(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
