package session

import (
	"sync"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/models"
)

// Store holds the pending topic selection per user. It is shared mutable
// state touched by concurrent update handlers, so every access goes through
// the mutex. Records live for the process lifetime; Take does not delete,
// so repeated resolution picks for the same topic reuse the record.
type Store struct {
	mu         sync.RWMutex
	selections map[int64]models.PendingSelection
}

func NewStore() *Store {
	return &Store{
		selections: make(map[int64]models.PendingSelection),
	}
}

// Put overwrites any prior record for the user. The record is stored by
// value, so a concurrent Put can never produce a partially-updated mix of
// two selections.
func (s *Store) Put(userID int64, sel models.PendingSelection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections[userID] = sel
}

// Take returns the user's current selection. The second result is false when
// there is none, which callers treat as an expired session.
func (s *Store) Take(userID int64) (models.PendingSelection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sel, ok := s.selections[userID]
	return sel, ok
}

func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selections, userID)
}
