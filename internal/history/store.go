package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/mcao2/truthguard/internal/analysis"
)

const (
	// StorageKey is the key the whole history list is persisted under
	StorageKey = "truthguard_history"
	// MaxItems bounds the history length
	MaxItems = 50
)

// Store is the bounded, newest-first list of past analyses. Every mutation
// writes the full list through to Storage.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	items   []Item
}

// Open rehydrates the history from storage. Missing or unreadable data
// starts an empty history.
func Open(storage Storage) *Store {
	s := &Store{storage: storage}

	data, err := storage.Get(StorageKey)
	if errors.Is(err, ErrNotFound) {
		return s
	}
	if err != nil {
		log.Printf("history: failed to load, starting empty: %v", err)
		return s
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		log.Printf("history: discarding unreadable data: %v", err)
		return s
	}
	s.items = sanitize(items)
	return s
}

// sanitize drops entries without an id, keeps ids unique, re-derives risk
// levels from scores and enforces the length bound.
func sanitize(items []Item) []Item {
	seen := make(map[string]bool, len(items))
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ID == "" || seen[item.ID] {
			continue
		}
		seen[item.ID] = true

		item.Score = analysis.ClampScore(item.Score)
		item.RiskLevel = analysis.RiskLevelForScore(item.Score)
		if item.SuspiciousPhrases == nil {
			item.SuspiciousPhrases = []string{}
		}
		if item.VerificationSources == nil {
			item.VerificationSources = []analysis.VerificationSource{}
		}
		if item.Tips == nil {
			item.Tips = []string{}
		}
		out = append(out, item)
		if len(out) == MaxItems {
			break
		}
	}
	return out
}

// Append puts item at the front, evicting the oldest beyond MaxItems.
// The in-memory list is updated even when persisting fails.
func (s *Store) Append(item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Item, 0, min(len(s.items)+1, MaxItems))
	next = append(next, item)
	for _, existing := range s.items {
		if len(next) == MaxItems {
			break
		}
		if existing.ID == item.ID {
			continue
		}
		next = append(next, existing)
	}
	s.items = next
	return s.persist()
}

// Remove deletes the item with id. Unknown ids are a no-op.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx == -1 {
		return nil
	}
	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	return s.persist()
}

// Clear empties the history
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return s.persist()
}

// List returns a copy of the items, newest first
func (s *Store) List() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of items
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Get looks up an item by id
func (s *Store) Get(id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx == -1 {
		return Item{}, false
	}
	return s.items[idx], true
}

// Search filters by a case-insensitive substring of the preview text or
// verdict. An empty query returns everything.
func (s *Store) Search(query string) []Item {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.List()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Item
	for _, item := range s.items {
		if strings.Contains(strings.ToLower(item.PreviewText), query) ||
			strings.Contains(strings.ToLower(item.Verdict), query) {
			out = append(out, item)
		}
	}
	return out
}

// Close releases the underlying storage
func (s *Store) Close() error {
	return s.storage.Close()
}

func (s *Store) indexOf(id string) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persist() error {
	items := s.items
	if items == nil {
		items = []Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := s.storage.Set(StorageKey, data); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	return nil
}
