// Package memory provides an in-memory journal store for development and
// tests.
package memory

import (
	"context"
	"strconv"
	"sync"

	"salestree/internal/core"
	"salestree/internal/journal"
)

type Store struct {
	mu    sync.Mutex
	next  int
	items []core.Transaction
}

var _ journal.Store = (*Store)(nil)

func New() *Store {
	return &Store{next: 1}
}

// LoadAll returns a snapshot copy with gross amounts repaired.
func (s *Store) LoadAll(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.items))
	for i, t := range s.items {
		out[i] = t.Normalized()
	}
	return out, nil
}

func (s *Store) ReplaceAll(_ context.Context, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.ID == "" {
			t.ID = s.nextIDLocked()
		}
		s.items = append(s.items, t)
	}
	return nil
}

func (s *Store) Insert(_ context.Context, t core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextIDLocked()
	s.items = append(s.items, t)
	return t.ID, nil
}

func (s *Store) Update(_ context.Context, id string, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			t.ID = id
			s.items[i] = t
			return nil
		}
	}
	return journal.ErrNotFound
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return journal.ErrNotFound
}

func (s *Store) Get(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.items {
		if t.ID == id {
			return t.Normalized(), nil
		}
	}
	return core.Transaction{}, journal.ErrNotFound
}

func (s *Store) nextIDLocked() string {
	id := strconv.Itoa(s.next)
	s.next++
	return "mem:" + id
}
