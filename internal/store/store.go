// Package store holds the volatile in-memory session state: the active
// document set and the structured spreadsheet side-store.
package store

import (
	"sync"
	"time"

	"docuchat/internal/spreadsheet"
)

// Document is one stored text entry, either a whole upload or a chunk of it.
type Document struct {
	ID        string
	Content   string
	Metadata  map[string]any
	Timestamp time.Time
}

// Store keeps at most one upload's worth of documents at a time: every new
// upload clears all prior entries before inserting its own. Insertion order
// is preserved for retrieval.
type Store struct {
	mu     sync.RWMutex
	docs   map[string]*Document
	order  []string
	sheets []spreadsheet.Sheet
}

func New() *Store {
	return &Store{docs: make(map[string]*Document)}
}

// Clear removes all document entries. The spreadsheet side-store is left in
// place; it is only replaced when a new spreadsheet is processed.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]*Document)
	s.order = nil
}

// Put inserts or overwrites one entry, timestamped at call time.
func (s *Store) Put(id, content string, metadata map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[id]; !exists {
		s.order = append(s.order, id)
	}
	s.docs[id] = &Document{
		ID:        id,
		Content:   content,
		Metadata:  metadata,
		Timestamp: time.Now(),
	}
}

// GetAll returns up to limit documents in insertion order. A limit of zero
// or less returns everything.
func (s *Store) GetAll(limit int) []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.order)
	if limit > 0 && limit < n {
		n = limit
	}
	docs := make([]*Document, 0, n)
	for _, id := range s.order[:n] {
		docs = append(docs, s.docs[id])
	}
	return docs
}

func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs) == 0
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// SetSheets replaces the structured spreadsheet side-store wholesale.
func (s *Store) SetSheets(sheets []spreadsheet.Sheet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets = sheets
}

// Sheets returns the records of the most recently processed spreadsheet, or
// nil if none has been processed.
func (s *Store) Sheets() []spreadsheet.Sheet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sheets
}
