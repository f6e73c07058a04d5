// internal/hearts/store.go
package hearts

import (
	"sync"

	"github.com/google/uuid"
)

// MatchStore holds every live match in memory, keyed by match ID. The store
// lock only guards the map; each match serializes its own mutations.
type MatchStore struct {
	mu      sync.Mutex
	matches map[uuid.UUID]*Match
}

func NewMatchStore() *MatchStore {
	return &MatchStore{
		matches: make(map[uuid.UUID]*Match),
	}
}

func (s *MatchStore) AddMatch(m *Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
}

func (s *MatchStore) GetMatch(id uuid.UUID) (*Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, exists := s.matches[id]
	return m, exists
}

func (s *MatchStore) DeleteMatch(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, id)
}

// Sweep removes every terminal match and returns how many were dropped.
func (s *MatchStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, m := range s.matches {
		m.Mu.Lock()
		terminal := m.Phase.Terminal()
		m.Mu.Unlock()
		if terminal {
			delete(s.matches, id)
			removed++
		}
	}
	return removed
}
