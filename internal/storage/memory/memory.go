package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
)

// Store keeps every user collection in process memory. Data is lost on
// restart.
type Store struct {
	mu    sync.Mutex
	users map[string][]core.Transaction
}

func New() *Store {
	return &Store{users: make(map[string][]core.Transaction)}
}

// Load returns a copy of the stored collection.
func (s *Store) Load(_ context.Context, userID string) ([]core.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txs, ok := s.users[userID]
	if !ok {
		return nil, false, nil
	}
	return append([]core.Transaction{}, txs...), true, nil
}

// Save replaces the stored collection with a copy of txs.
func (s *Store) Save(_ context.Context, userID string, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = append([]core.Transaction{}, txs...)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Users returns the number of stored collections.
func (s *Store) Users() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
