// Package history keeps per-sequence undo/redo stacks of annotation snapshots.
package history

import (
	"sync"

	"helixcanvas/pkg/domain"
)

type entry struct {
	past   [][]domain.Annotation
	future [][]domain.Annotation
}

// Store maps sequence ids to their edit history. Each call is atomic; callers
// must still serialize mutations that target the same sequence id.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewStore returns an empty history store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Record pushes the pre-mutation annotation list for sequenceID and clears its
// redo stack.
func (s *Store) Record(sequenceID string, before []domain.Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[sequenceID]
	if e == nil {
		e = &entry{}
		s.entries[sequenceID] = e
	}
	e.past = append(e.past, domain.CloneAnnotations(before))
	e.future = nil
}

// Undo pops the most recent snapshot, pushing current onto the redo stack.
// ok is false, and nothing changes, when there is nothing to undo.
func (s *Store) Undo(sequenceID string, current []domain.Annotation) (restored []domain.Annotation, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[sequenceID]
	if e == nil || len(e.past) == 0 {
		return nil, false
	}
	restored = e.past[len(e.past)-1]
	e.past = e.past[:len(e.past)-1]
	e.future = append(e.future, domain.CloneAnnotations(current))
	return domain.CloneAnnotations(restored), true
}

// Redo mirrors Undo using the redo stack.
func (s *Store) Redo(sequenceID string, current []domain.Annotation) (restored []domain.Annotation, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[sequenceID]
	if e == nil || len(e.future) == 0 {
		return nil, false
	}
	restored = e.future[len(e.future)-1]
	e.future = e.future[:len(e.future)-1]
	e.past = append(e.past, domain.CloneAnnotations(current))
	return domain.CloneAnnotations(restored), true
}

// Forget drops all history for sequenceID.
func (s *Store) Forget(sequenceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sequenceID)
}

// Depth reports the sizes of the undo and redo stacks.
func (s *Store) Depth(sequenceID string) (past, future int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.entries[sequenceID]; e != nil {
		return len(e.past), len(e.future)
	}
	return 0, 0
}
