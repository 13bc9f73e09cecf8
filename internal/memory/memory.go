// Package memory is the in-process record backend, used in tests and for
// credential-free runs.
package memory

import (
	"context"
	"sync"

	"adminsum/internal/core"
)

// Store keeps records newest-first in a mutex-guarded slice. Equal
// timestamps keep arrival order because new records are prepended.
type Store struct {
	mu    sync.Mutex
	items []core.Record
}

func New() *Store {
	return &Store{}
}

// Seed replaces the collection, for tests.
func (s *Store) Seed(records []core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]core.Record(nil), records...)
}

// FetchAll implements store.Lister.
func (s *Store) FetchAll(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record(nil), s.items...), nil
}

// Insert implements store.Writer.
func (s *Store) Insert(_ context.Context, r core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertSorted(r)
	return nil
}

// InsertMany implements store.Writer.
func (s *Store) InsertMany(_ context.Context, rs []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rs {
		s.insertSorted(r)
	}
	return nil
}

// insertSorted keeps the slice newest-first. A new record goes before any
// existing record with the same timestamp, so the latest arrival wins ties.
func (s *Store) insertSorted(r core.Record) {
	at := len(s.items)
	for i, existing := range s.items {
		if !existing.CreatedAt.After(r.CreatedAt) {
			at = i
			break
		}
	}
	s.items = append(s.items, core.Record{})
	copy(s.items[at+1:], s.items[at:])
	s.items[at] = r
}

// DeleteOne implements store.Deleter. A missing id is not an error.
func (s *Store) DeleteOne(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.items {
		if r.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

// DeleteBatch implements store.Deleter.
func (s *Store) DeleteBatch(_ context.Context, ids []string) error {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, r := range s.items {
		if _, gone := drop[r.ID]; !gone {
			kept = append(kept, r)
		}
	}
	s.items = kept
	return nil
}
