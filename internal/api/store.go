package api

import (
	"sync"

	"github.com/google/uuid"
)

// PoemStore keeps generated poems in memory for later retrieval.
type PoemStore struct {
	mu    sync.Mutex
	poems map[string]Poem
}

func NewPoemStore() *PoemStore {
	return &PoemStore{poems: make(map[string]Poem)}
}

func (s *PoemStore) Put(p Poem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poems[p.ID] = p
}

func (s *PoemStore) Get(id string) (Poem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.poems[id]
	return p, ok
}

func (s *PoemStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.poems[id]; !ok {
		return false
	}
	delete(s.poems, id)
	return true
}

func (s *PoemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.poems)
}

func newPoemID() string {
	return "poem_" + uuid.NewString()
}
