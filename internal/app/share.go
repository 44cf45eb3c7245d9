package app

import (
	"errors"

	"github.com/atotto/clipboard"

	"github.com/mcao2/truthguard/internal/render"
)

// ShareTitle is the title passed to a Sharer
const ShareTitle = "TruthGuard Analysis"

// ErrShareUnavailable means no share capability is present
var ErrShareUnavailable = errors.New("sharing is not available")

// Sharer publishes a short summary somewhere the user can paste it
type Sharer interface {
	Share(title, text string) error
}

// ClipboardSharer copies the text to the system clipboard
type ClipboardSharer struct{}

func (ClipboardSharer) Share(_, text string) error {
	if clipboard.Unsupported {
		return ErrShareUnavailable
	}
	return clipboard.WriteAll(text)
}

// DefaultSharer returns the clipboard sharer, or nil when the platform has
// no clipboard tool.
func DefaultSharer() Sharer {
	if clipboard.Unsupported {
		return nil
	}
	return ClipboardSharer{}
}

// ShareCurrent shares the displayed result. A nil sharer is unavailable.
func (s *Session) ShareCurrent(sharer Sharer) error {
	if sharer == nil {
		return ErrShareUnavailable
	}
	item, ok := s.Current()
	if !ok {
		return ErrNotFound
	}
	return sharer.Share(ShareTitle, render.ShareText(item.Result))
}
