package core

import (
	"context"
	"fmt"

	"helixcanvas/pkg/domain"
)

// annotationEdit applies mutate to the annotation list of a sequence and, once
// the transaction commits, records the previous list in the edit history.
// mutate reports whether it changed anything; unchanged lists are neither
// written nor recorded.
func (s *Service) annotationEdit(ctx context.Context, op, sequenceID string, mustExist bool, mutate func(current []domain.Annotation) ([]domain.Annotation, bool)) ([]domain.Annotation, error) {
	s.annotationMu.Lock()
	defer s.annotationMu.Unlock()

	var (
		before  []domain.Annotation
		after   []domain.Annotation
		changed bool
	)
	_, err := s.run(ctx, op, func(tx *recordingTx) (string, error) {
		seq, ok := tx.FindSequence(sequenceID)
		if !ok {
			if mustExist {
				return sequenceID, ErrNotFound{Entity: domain.EntitySequence, ID: sequenceID}
			}
			return sequenceID, nil
		}
		before = domain.CloneAnnotations(seq.Annotations)
		after, changed = mutate(domain.CloneAnnotations(seq.Annotations))
		if !changed {
			after = before
			return sequenceID, nil
		}
		_, err := tx.UpdateSequence(sequenceID, func(rec *domain.SequenceRecord) error {
			rec.Annotations = domain.CloneAnnotations(after)
			rec.UpdatedAt = s.clock.Now()
			return nil
		})
		return sequenceID, err
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.history.Record(sequenceID, before)
	}
	return after, nil
}

// AddAnnotations appends drafts to a sequence, assigning ids and timestamps.
func (s *Service) AddAnnotations(ctx context.Context, sequenceID string, drafts []domain.Annotation) ([]domain.Annotation, error) {
	return s.annotationEdit(ctx, OpAddAnnotations, sequenceID, true, func(current []domain.Annotation) ([]domain.Annotation, bool) {
		if len(drafts) == 0 {
			return current, false
		}
		now := s.clock.Now()
		for _, d := range drafts {
			d.SequenceID = sequenceID
			current = append(current, domain.NewAnnotation(d, now))
		}
		return current, true
	})
}

// ImportAnnotationsCSV parses content as an annotation table and appends the
// rows to the sequence.
func (s *Service) ImportAnnotationsCSV(ctx context.Context, sequenceID, content string) ([]domain.Annotation, error) {
	if _, ok := s.store.GetSequence(sequenceID); !ok {
		return nil, ErrNotFound{Entity: domain.EntitySequence, ID: sequenceID}
	}
	parsed, err := s.analysis.ParseAnnotationsCSV(ctx, content, sequenceID)
	if err != nil {
		return nil, fmt.Errorf("parse annotations: %w", err)
	}
	return s.annotationEdit(ctx, OpImportAnnotationsCSV, sequenceID, true, func(current []domain.Annotation) ([]domain.Annotation, bool) {
		if len(parsed) == 0 {
			return current, false
		}
		return append(current, parsed...), true
	})
}

// UpdateAnnotation replaces the annotation with the same id. Identity, owner
// and creation time are kept. Unknown sequences or annotations are ignored.
func (s *Service) UpdateAnnotation(ctx context.Context, sequenceID string, ann domain.Annotation) ([]domain.Annotation, error) {
	return s.annotationEdit(ctx, OpUpdateAnnotation, sequenceID, false, func(current []domain.Annotation) ([]domain.Annotation, bool) {
		for i, existing := range current {
			if existing.ID != ann.ID {
				continue
			}
			next := ann
			next.SequenceID = sequenceID
			next.CreatedAt = existing.CreatedAt
			next.UpdatedAt = s.clock.Now()
			if next.Color == "" {
				next.Color = existing.Color
			}
			if next.Strand == "" {
				next.Strand = existing.Strand
			}
			current[i] = next
			return current, true
		}
		return current, false
	})
}

// RemoveAnnotation drops an annotation by id. Unknown ids are ignored.
func (s *Service) RemoveAnnotation(ctx context.Context, sequenceID, annotationID string) ([]domain.Annotation, error) {
	return s.annotationEdit(ctx, OpRemoveAnnotation, sequenceID, false, func(current []domain.Annotation) ([]domain.Annotation, bool) {
		for i, existing := range current {
			if existing.ID == annotationID {
				return append(current[:i], current[i+1:]...), true
			}
		}
		return current, false
	})
}

// UndoAnnotations restores the previous annotation list of a sequence. It
// reports false when there is nothing to undo.
func (s *Service) UndoAnnotations(ctx context.Context, sequenceID string) ([]domain.Annotation, bool, error) {
	return s.travel(ctx, OpUndoAnnotations, sequenceID, true)
}

// RedoAnnotations reapplies the most recently undone annotation list.
func (s *Service) RedoAnnotations(ctx context.Context, sequenceID string) ([]domain.Annotation, bool, error) {
	return s.travel(ctx, OpRedoAnnotations, sequenceID, false)
}

func (s *Service) travel(ctx context.Context, op, sequenceID string, undo bool) ([]domain.Annotation, bool, error) {
	s.annotationMu.Lock()
	defer s.annotationMu.Unlock()

	seq, ok := s.store.GetSequence(sequenceID)
	if !ok {
		return nil, false, nil
	}
	current := domain.CloneAnnotations(seq.Annotations)
	step, back := s.history.Undo, s.history.Redo
	if !undo {
		step, back = s.history.Redo, s.history.Undo
	}
	restored, moved := step(sequenceID, current)
	if !moved {
		return current, false, nil
	}
	_, err := s.run(ctx, op, func(tx *recordingTx) (string, error) {
		_, err := tx.UpdateSequence(sequenceID, func(rec *domain.SequenceRecord) error {
			rec.Annotations = domain.CloneAnnotations(restored)
			rec.UpdatedAt = s.clock.Now()
			return nil
		})
		return sequenceID, err
	})
	if err != nil {
		back(sequenceID, restored)
		return nil, false, err
	}
	return restored, true, nil
}

// HistoryDepth reports how many undo and redo steps are available.
func (s *Service) HistoryDepth(sequenceID string) (past, future int) {
	return s.history.Depth(sequenceID)
}
