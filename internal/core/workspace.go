package core

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"helixcanvas/internal/alignment"
	"helixcanvas/internal/analysis"
	"helixcanvas/internal/formats"
	"helixcanvas/pkg/domain"
)

// ImportFile parses text according to the extension of name and stores every
// sequence and alignment it yields. The raw text is archived first when an
// archive is configured; archive failures are logged and do not fail the
// import.
func (s *Service) ImportFile(ctx context.Context, name, text string) (domain.ParsedFileResult, error) {
	parsed, err := s.analysis.ParseFile(ctx, name, text)
	if err != nil {
		s.logger.Error("parse failed", "file", name, "error", err)
		return domain.ParsedFileResult{}, fmt.Errorf("parse %s: %w", name, err)
	}
	if s.archive != nil {
		info, aerr := s.archive.Save(ctx, name, string(formats.DetectKind(name)), text)
		if aerr != nil {
			s.logger.Warn("archive import failed", "file", name, "error", aerr)
		} else {
			s.logger.Debug("archived import", "file", name, "key", info.Key)
		}
	}
	return s.storeParsed(ctx, name, parsed)
}

func (s *Service) storeParsed(ctx context.Context, name string, parsed domain.ParsedFileResult) (domain.ParsedFileResult, error) {
	out := domain.ParsedFileResult{
		Sequences:  make([]domain.SequenceRecord, 0, len(parsed.Sequences)),
		Alignments: make([]domain.AlignmentRecord, 0, len(parsed.Alignments)),
	}
	_, err := s.run(ctx, OpImportFile, func(tx *recordingTx) (string, error) {
		for i, seq := range parsed.Sequences {
			rec := domain.NewSequenceRecord(seq, s.clock.Now())
			if rec.Source == "" {
				rec.Source = name
			}
			// Pass-through records may omit fields every parser fills in.
			if rec.Type == "" {
				rec.Type = domain.SequenceDNA
			}
			if strings.TrimSpace(rec.Name) == "" {
				rec.Name = fmt.Sprintf("Sequence %d", i+1)
			}
			rec.Features = domain.SanitizeFeatures(rec.Features, rec.Length)
			stored, err := tx.PutSequence(rec)
			if err != nil {
				return name, err
			}
			out.Sequences = append(out.Sequences, stored)
		}
		for _, aln := range parsed.Alignments {
			stored, err := tx.CreateAlignment(alignment.WithConsensus(aln))
			if err != nil {
				return name, err
			}
			out.Alignments = append(out.Alignments, stored)
		}
		return name, nil
	})
	if err != nil {
		return domain.ParsedFileResult{}, err
	}
	s.logger.Info("imported file", "file", name, "sequences", len(out.Sequences), "alignments", len(out.Alignments))
	return out, nil
}

// ReplayArchive re-imports every archived file into the workspace without
// archiving it again. It returns the number of files replayed.
func (s *Service) ReplayArchive(ctx context.Context) (int, error) {
	if s.archive == nil {
		return 0, nil
	}
	infos, err := s.archive.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list archive: %w", err)
	}
	replayed := 0
	for _, info := range infos {
		text, name, err := s.archive.Load(ctx, info.Key)
		if err != nil {
			return replayed, fmt.Errorf("load %s: %w", info.Key, err)
		}
		parsed, err := s.analysis.ParseFile(ctx, name, text)
		if err != nil {
			return replayed, fmt.Errorf("parse %s: %w", info.Key, err)
		}
		if _, err := s.storeParsed(ctx, name, parsed); err != nil {
			return replayed, err
		}
		replayed++
	}
	return replayed, nil
}

// AddSequences upserts records by id: a record whose id is already stored
// replaces it, anything else is appended.
func (s *Service) AddSequences(ctx context.Context, records []domain.SequenceRecord) ([]domain.SequenceRecord, error) {
	out := make([]domain.SequenceRecord, 0, len(records))
	_, err := s.run(ctx, OpAddSequences, func(tx *recordingTx) (string, error) {
		var last string
		for _, r := range records {
			stored, err := tx.PutSequence(domain.NewSequenceRecord(r, s.clock.Now()))
			if err != nil {
				return last, err
			}
			last = stored.ID
			out = append(out, stored)
		}
		return last, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SequencePatch lists the fields of a sequence to overwrite. Nil fields keep
// their stored value.
type SequencePatch struct {
	Name        *string              `json:"name,omitempty"`
	Type        *domain.SequenceType `json:"type,omitempty"`
	Residues    *string              `json:"residues,omitempty"`
	Circular    *bool                `json:"circular,omitempty"`
	Features    *[]domain.Feature    `json:"features,omitempty"`
	Annotations *[]domain.Annotation `json:"annotations,omitempty"`
	Source      *string              `json:"source,omitempty"`
}

// UpdateSequence merges patch onto the stored record; the last writer wins.
// Features are clamped to the resulting length. A supplied annotation list
// is an annotation edit and can be undone like any other.
func (s *Service) UpdateSequence(ctx context.Context, id string, patch SequencePatch) (domain.SequenceRecord, error) {
	s.annotationMu.Lock()
	defer s.annotationMu.Unlock()

	var (
		out    domain.SequenceRecord
		before []domain.Annotation
	)
	_, err := s.run(ctx, OpUpdateSequence, func(tx *recordingTx) (string, error) {
		if _, ok := tx.FindSequence(id); !ok {
			return id, ErrNotFound{Entity: domain.EntitySequence, ID: id}
		}
		updated, err := tx.UpdateSequence(id, func(current *domain.SequenceRecord) error {
			before = domain.CloneAnnotations(current.Annotations)
			s.applyPatch(current, patch)
			return nil
		})
		out = updated
		return id, err
	})
	if err != nil {
		return domain.SequenceRecord{}, err
	}
	if patch.Annotations != nil && !slices.Equal(before, out.Annotations) {
		s.history.Record(id, before)
	}
	return out, nil
}

func (s *Service) applyPatch(rec *domain.SequenceRecord, patch SequencePatch) {
	now := s.clock.Now()
	if patch.Name != nil {
		rec.Name = *patch.Name
	}
	if patch.Type != nil {
		rec.Type = *patch.Type
	}
	if patch.Residues != nil {
		rec.Residues = domain.NormalizeResidues(*patch.Residues)
		rec.Length = len(rec.Residues)
	}
	if patch.Circular != nil {
		rec.Circular = *patch.Circular
	}
	if patch.Source != nil {
		rec.Source = *patch.Source
	}
	if patch.Features != nil {
		rec.Features = append([]domain.Feature{}, (*patch.Features)...)
	}
	rec.Features = domain.SanitizeFeatures(rec.Features, rec.Length)
	if patch.Annotations != nil {
		anns := make([]domain.Annotation, 0, len(*patch.Annotations))
		for _, a := range *patch.Annotations {
			if a.ID == "" {
				a = domain.NewAnnotation(a, now)
			}
			a.SequenceID = rec.ID
			anns = append(anns, a)
		}
		rec.Annotations = anns
	}
	rec.UpdatedAt = now
}

// ImportFeaturesGFF appends the GFF3 features in content to a sequence.
// Coordinates are clamped to the sequence and features left empty by the
// clamp are dropped. It returns the features that were kept.
func (s *Service) ImportFeaturesGFF(ctx context.Context, sequenceID, content string) ([]domain.Feature, error) {
	if _, ok := s.store.GetSequence(sequenceID); !ok {
		return nil, ErrNotFound{Entity: domain.EntitySequence, ID: sequenceID}
	}
	parsed, err := s.analysis.ParseGFF(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("parse gff: %w", err)
	}
	var kept []domain.Feature
	_, err = s.run(ctx, OpImportFeaturesGFF, func(tx *recordingTx) (string, error) {
		if _, ok := tx.FindSequence(sequenceID); !ok {
			return sequenceID, ErrNotFound{Entity: domain.EntitySequence, ID: sequenceID}
		}
		_, err := tx.UpdateSequence(sequenceID, func(rec *domain.SequenceRecord) error {
			kept = domain.SanitizeFeatures(parsed, rec.Length)
			rec.Features = append(rec.Features, kept...)
			return nil
		})
		return sequenceID, err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("imported features", "sequence", sequenceID, "parsed", len(parsed), "kept", len(kept))
	return kept, nil
}

// RemoveSequence deletes the record, its bookmarks and its annotation history.
func (s *Service) RemoveSequence(ctx context.Context, id string) error {
	s.annotationMu.Lock()
	defer s.annotationMu.Unlock()
	_, err := s.run(ctx, OpRemoveSequence, func(tx *recordingTx) (string, error) {
		if _, ok := tx.FindSequence(id); !ok {
			return id, ErrNotFound{Entity: domain.EntitySequence, ID: id}
		}
		return id, tx.DeleteSequence(id)
	})
	if err != nil {
		return err
	}
	s.history.Forget(id)
	return nil
}

// GetSequence returns the stored record.
func (s *Service) GetSequence(id string) (domain.SequenceRecord, bool) {
	return s.store.GetSequence(id)
}

// ListSequences returns every stored sequence in insertion order.
func (s *Service) ListSequences() []domain.SequenceRecord {
	return s.store.ListSequences()
}

// AddAlignment stores rec with a freshly computed consensus.
func (s *Service) AddAlignment(ctx context.Context, rec domain.AlignmentRecord) (domain.AlignmentRecord, error) {
	var out domain.AlignmentRecord
	_, err := s.run(ctx, OpAddAlignment, func(tx *recordingTx) (string, error) {
		created, err := tx.CreateAlignment(alignment.WithConsensus(rec))
		out = created
		return created.ID, err
	})
	if err != nil {
		return domain.AlignmentRecord{}, err
	}
	return out, nil
}

// UpdateAlignment replaces the stored alignment and recomputes its consensus.
func (s *Service) UpdateAlignment(ctx context.Context, rec domain.AlignmentRecord) (domain.AlignmentRecord, error) {
	var out domain.AlignmentRecord
	_, err := s.run(ctx, OpUpdateAlignment, func(tx *recordingTx) (string, error) {
		if _, ok := tx.FindAlignment(rec.ID); !ok {
			return rec.ID, ErrNotFound{Entity: domain.EntityAlignment, ID: rec.ID}
		}
		updated, err := tx.UpdateAlignment(rec.ID, func(current *domain.AlignmentRecord) error {
			next := alignment.WithConsensus(domain.CloneAlignment(rec))
			next.CreatedAt = current.CreatedAt
			next.UpdatedAt = s.clock.Now()
			*current = next
			return nil
		})
		out = updated
		return rec.ID, err
	})
	if err != nil {
		return domain.AlignmentRecord{}, err
	}
	return out, nil
}

// MutateAlignmentResidue sets a single residue of one row. An unknown
// alignment, row or column leaves the store untouched and returns the record
// as stored (zero when the alignment is unknown).
func (s *Service) MutateAlignmentResidue(ctx context.Context, alignmentID, sequenceID string, column int, residue byte) (domain.AlignmentRecord, error) {
	var out domain.AlignmentRecord
	_, err := s.run(ctx, OpMutateAlignmentResidue, func(tx *recordingTx) (string, error) {
		current, ok := tx.FindAlignment(alignmentID)
		if !ok {
			return alignmentID, nil
		}
		mutated := alignment.MutateResidue(current, sequenceID, column, residue, s.clock.Now())
		if mutated.UpdatedAt.Equal(current.UpdatedAt) && mutated.Consensus == current.Consensus && sameRows(mutated, current) {
			out = current
			return alignmentID, nil
		}
		updated, err := tx.UpdateAlignment(alignmentID, func(rec *domain.AlignmentRecord) error {
			*rec = mutated
			return nil
		})
		out = updated
		return alignmentID, err
	})
	if err != nil {
		return domain.AlignmentRecord{}, err
	}
	return out, nil
}

func sameRows(a, b domain.AlignmentRecord) bool {
	if len(a.Sequences) != len(b.Sequences) {
		return false
	}
	for i := range a.Sequences {
		if a.Sequences[i].Residues != b.Sequences[i].Residues {
			return false
		}
	}
	return true
}

// RemoveAlignment deletes an alignment.
func (s *Service) RemoveAlignment(ctx context.Context, id string) error {
	_, err := s.run(ctx, OpRemoveAlignment, func(tx *recordingTx) (string, error) {
		if _, ok := tx.FindAlignment(id); !ok {
			return id, ErrNotFound{Entity: domain.EntityAlignment, ID: id}
		}
		return id, tx.DeleteAlignment(id)
	})
	return err
}

// GetAlignment returns the stored alignment.
func (s *Service) GetAlignment(id string) (domain.AlignmentRecord, bool) {
	return s.store.GetAlignment(id)
}

// ListAlignments returns every stored alignment in insertion order.
func (s *Service) ListAlignments() []domain.AlignmentRecord {
	return s.store.ListAlignments()
}

// AddBookmark marks a position on an existing sequence.
func (s *Service) AddBookmark(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	var out domain.Bookmark
	_, err := s.run(ctx, OpAddBookmark, func(tx *recordingTx) (string, error) {
		if _, ok := tx.FindSequence(b.SequenceID); !ok {
			return b.ID, ErrNotFound{Entity: domain.EntitySequence, ID: b.SequenceID}
		}
		created, err := tx.CreateBookmark(b)
		out = created
		return created.ID, err
	})
	if err != nil {
		return domain.Bookmark{}, err
	}
	return out, nil
}

// RemoveBookmark deletes a bookmark.
func (s *Service) RemoveBookmark(ctx context.Context, id string) error {
	_, err := s.run(ctx, OpRemoveBookmark, func(tx *recordingTx) (string, error) {
		found := false
		for _, b := range tx.Snapshot().ListBookmarks() {
			if b.ID == id {
				found = true
				break
			}
		}
		if !found {
			return id, ErrNotFound{Entity: domain.EntityBookmark, ID: id}
		}
		return id, tx.DeleteBookmark(id)
	})
	return err
}

// ListBookmarks returns bookmarks, filtered to one sequence when sequenceID is set.
func (s *Service) ListBookmarks(sequenceID string) []domain.Bookmark {
	all := s.store.ListBookmarks()
	if sequenceID == "" {
		return all
	}
	out := make([]domain.Bookmark, 0, len(all))
	for _, b := range all {
		if b.SequenceID == sequenceID {
			out = append(out, b)
		}
	}
	return out
}

// Search finds query in the residues of a sequence.
func (s *Service) Search(ctx context.Context, sequenceID, query string, regex bool) ([]analysis.Match, error) {
	var residues string
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		seq, ok := v.FindSequence(sequenceID)
		if !ok {
			return ErrNotFound{Entity: domain.EntitySequence, ID: sequenceID}
		}
		residues = seq.Residues
		return nil
	})
	if err != nil {
		return nil, err
	}
	return analysis.Search(residues, query, regex)
}

// Export formats.
const (
	ExportFASTA   = "fasta"
	ExportGenBank = "genbank"
	ExportClustal = "clustal"
)

// UnsupportedExportError reports an export format that does not apply to the
// requested record.
type UnsupportedExportError struct {
	Entity domain.EntityType
	Format string
}

func (e UnsupportedExportError) Error() string {
	return fmt.Sprintf("cannot export %s as %q", e.Entity, e.Format)
}

// Export renders a sequence (fasta, genbank) or an alignment (fasta, clustal)
// by id.
func (s *Service) Export(ctx context.Context, id, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFASTA
	}
	var out string
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		if seq, ok := v.FindSequence(id); ok {
			switch format {
			case ExportFASTA:
				out = formats.ExportFasta(seq)
			case ExportGenBank:
				out = formats.ExportGenBank(seq)
			default:
				return UnsupportedExportError{Entity: domain.EntitySequence, Format: format}
			}
			return nil
		}
		if aln, ok := v.FindAlignment(id); ok {
			switch format {
			case ExportFASTA:
				out = formats.ExportAlignmentFasta(aln)
			case ExportClustal:
				out = formats.ExportAlignmentClustal(aln)
			default:
				return UnsupportedExportError{Entity: domain.EntityAlignment, Format: format}
			}
			return nil
		}
		return ErrNotFound{Entity: domain.EntitySequence, ID: id}
	})
	return out, err
}

// ExportSequences renders the named sequences, or every sequence when ids is
// empty, as multi-FASTA.
func (s *Service) ExportSequences(ctx context.Context, ids []string) (string, error) {
	var selected []domain.SequenceRecord
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		if len(ids) == 0 {
			selected = v.ListSequences()
			return nil
		}
		for _, id := range ids {
			seq, ok := v.FindSequence(id)
			if !ok {
				return ErrNotFound{Entity: domain.EntitySequence, ID: id}
			}
			selected = append(selected, seq)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return formats.ExportMultiFasta(selected), nil
}
