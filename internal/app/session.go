package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/mcao2/truthguard/internal/analysis"
	"github.com/mcao2/truthguard/internal/history"
)

var (
	// ErrBusy is returned when an analysis is already in flight
	ErrBusy = errors.New("an analysis is already in progress")
	// ErrNotFound is returned when a history id is unknown
	ErrNotFound = errors.New("history item not found")
	// ErrStale is returned by Run for a ticket that is no longer current
	ErrStale = errors.New("analysis request is no longer current")
)

// Phase is the coarse state of a Session
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAnalyzing
	PhaseResult
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseResult:
		return "result"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Ticket identifies one analysis attempt. Answers carrying an old ticket
// are discarded.
type Ticket uint64

// Session owns the application state: the displayed result, the in-flight
// request and the history. All transitions go through its methods.
type Session struct {
	mu       sync.Mutex
	analyzer analysis.Analyzer
	history  *history.Store
	now      func() time.Time

	phase   Phase
	seq     Ticket
	pending analysis.Request
	current history.Item
	err     error
}

// NewSession creates an idle session
func NewSession(analyzer analysis.Analyzer, store *history.Store) *Session {
	return &Session{
		analyzer: analyzer,
		history:  store,
		now:      time.Now,
	}
}

// Phase returns the current phase
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Current returns the displayed item while in PhaseResult
func (s *Session) Current() (history.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseResult {
		return history.Item{}, false
	}
	return s.current, true
}

// Err returns the failure while in PhaseError
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseError {
		return nil
	}
	return s.err
}

// ErrorMessage returns the user-facing text for the current failure
func (s *Session) ErrorMessage() string {
	return analysis.UserMessage(s.Err())
}

// History exposes the history store for listing and searching
func (s *Session) History() *history.Store {
	return s.history
}

// StartAnalysis validates req and moves to PhaseAnalyzing. The returned
// ticket must be handed to Run and then to ReceiveResult or ReceiveError.
func (s *Session) StartAnalysis(req analysis.Request) (Ticket, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseAnalyzing {
		return 0, ErrBusy
	}

	s.seq++
	s.phase = PhaseAnalyzing
	s.pending = req
	s.current = history.Item{}
	s.err = nil
	return s.seq, nil
}

// Run performs the remote call for ticket. It does not change state.
func (s *Session) Run(ctx context.Context, ticket Ticket) (analysis.Result, error) {
	s.mu.Lock()
	if !s.isCurrent(ticket) {
		s.mu.Unlock()
		return analysis.Result{}, ErrStale
	}
	req := s.pending
	s.mu.Unlock()

	return s.analyzer.Analyze(ctx, req)
}

// ReceiveResult records a successful analysis and appends it to history.
// It reports false when the ticket is stale and nothing changed.
func (s *Session) ReceiveResult(ticket Ticket, result analysis.Result) (history.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrent(ticket) {
		log.Printf("discarding stale analysis result ticket=%d current=%d", ticket, s.seq)
		return history.Item{}, false
	}

	item := history.NewItem(result, s.pending.Text, s.pending.Image, s.now())
	s.current = item
	s.phase = PhaseResult
	s.pending = analysis.Request{}

	if err := s.history.Append(item); err != nil {
		log.Printf("history append failed id=%s: %v", item.ID, err)
	}
	return item, true
}

// ReceiveError records a failed analysis. History is never touched.
// It reports false when the ticket is stale and nothing changed.
func (s *Session) ReceiveError(ticket Ticket, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrent(ticket) {
		log.Printf("discarding stale analysis error ticket=%d current=%d: %v", ticket, s.seq, err)
		return false
	}

	switch {
	case errors.Is(err, analysis.ErrMalformedResponse):
		log.Printf("malformed analysis response: %v", err)
	default:
		log.Printf("analysis failed kind=%s: %v", analysis.Kind(err), err)
	}

	s.phase = PhaseError
	s.err = err
	s.pending = analysis.Request{}
	return true
}

// Reset returns to idle, abandoning any in-flight analysis
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.phase = PhaseIdle
	s.pending = analysis.Request{}
	s.current = history.Item{}
	s.err = nil
}

// DismissError clears a displayed failure
func (s *Session) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseError {
		s.phase = PhaseIdle
		s.err = nil
	}
}

// SelectHistoryItem displays a past analysis. Any in-flight analysis is
// abandoned.
func (s *Session) SelectHistoryItem(id string) (history.Item, error) {
	item, ok := s.history.Get(id)
	if !ok {
		return history.Item{}, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.phase = PhaseResult
	s.pending = analysis.Request{}
	s.current = item
	s.err = nil
	return item, nil
}

// DeleteHistoryItem removes an item. Unknown ids are ignored.
func (s *Session) DeleteHistoryItem(id string) {
	if err := s.history.Remove(id); err != nil {
		log.Printf("history remove failed id=%s: %v", id, err)
	}
}

// ClearHistory removes every item
func (s *Session) ClearHistory() {
	if err := s.history.Clear(); err != nil {
		log.Printf("history clear failed: %v", err)
	}
}

// Analyze runs a full analysis synchronously
func (s *Session) Analyze(ctx context.Context, req analysis.Request) (history.Item, error) {
	ticket, err := s.StartAnalysis(req)
	if err != nil {
		return history.Item{}, err
	}

	result, err := s.Run(ctx, ticket)
	if err != nil {
		s.ReceiveError(ticket, err)
		return history.Item{}, err
	}

	item, ok := s.ReceiveResult(ticket, result)
	if !ok {
		return history.Item{}, ErrStale
	}
	return item, nil
}

func (s *Session) isCurrent(ticket Ticket) bool {
	return ticket == s.seq && s.phase == PhaseAnalyzing
}
