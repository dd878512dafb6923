package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultMaxSize = 100

// Entry records one commenting run.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	FilePath   string    `json:"file_path"`
	LanguageID string    `json:"language_id"`
	StartLine  int       `json:"start_line"`
	EndLine    int       `json:"end_line"`
	Original   string    `json:"original"`
	Commented  string    `json:"commented"`
	Author     string    `json:"author,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	Mode       string    `json:"mode,omitempty"`
}

// Store is a capped in-memory log, newest entry first. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	max     int
}

func NewStore(maxSize int) *Store {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Store{max: maxSize}
}

// Record adds e, assigning an ID and timestamp when missing, and evicts the
// oldest entries past the cap.
func (s *Store) Record(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]Entry{e}, s.entries...)
	s.truncate()
	return e
}

func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...)
}

// ForFile returns the entries for path, newest first.
func (s *Store) ForFile(path string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if e.FilePath == path {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}

// SetMaxSize changes the cap and drops the oldest entries that no longer fit.
// Non-positive sizes restore the default.
func (s *Store) SetMaxSize(n int) {
	if n <= 0 {
		n = DefaultMaxSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.max = n
	s.truncate()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) truncate() {
	if len(s.entries) > s.max {
		s.entries = s.entries[:s.max]
	}
}
