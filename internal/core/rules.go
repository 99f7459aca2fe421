package core

import (
	"context"
	"fmt"
	"strings"

	"helixcanvas/pkg/domain"
)

// Rule names registered by NewDefaultRulesEngine.
const (
	RuleSequenceIdentity = "sequence_identity"
	RuleAlignmentWidth   = "alignment_width"
	RuleAnnotationBounds = "annotation_bounds"
)

// NewDefaultRulesEngine returns an engine with the workspace integrity rules.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(sequenceIdentityRule{})
	engine.Register(alignmentWidthRule{})
	engine.Register(annotationBoundsRule{})
	return engine
}

// sequenceIdentityRule blocks sequences that cannot be addressed by name or
// carry an alphabet outside DNA, RNA and Protein.
type sequenceIdentityRule struct{}

func (sequenceIdentityRule) Name() string { return RuleSequenceIdentity }

func (r sequenceIdentityRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for _, seq := range changedSequences(changes) {
		if strings.TrimSpace(seq.Name) == "" {
			res.Violations = append(res.Violations, domain.Violation{
				Rule: r.Name(), Severity: domain.SeverityBlock, Entity: domain.EntitySequence, EntityID: seq.ID,
				Message: "sequence name is required",
			})
		}
		if !seq.Type.Valid() {
			res.Violations = append(res.Violations, domain.Violation{
				Rule: r.Name(), Severity: domain.SeverityBlock, Entity: domain.EntitySequence, EntityID: seq.ID,
				Message: fmt.Sprintf("unknown sequence type %q", seq.Type),
			})
		}
	}
	return res, nil
}

// alignmentWidthRule warns when aligned rows differ in length.
type alignmentWidthRule struct{}

func (alignmentWidthRule) Name() string { return RuleAlignmentWidth }

func (r alignmentWidthRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for _, change := range changes {
		if change.Entity != domain.EntityAlignment || change.Action == domain.ActionDelete {
			continue
		}
		aln, ok := change.After.(domain.AlignmentRecord)
		if !ok {
			continue
		}
		width := aln.Width()
		for _, row := range aln.Sequences {
			if len(row.Residues) != width {
				res.Violations = append(res.Violations, domain.Violation{
					Rule: r.Name(), Severity: domain.SeverityWarn, Entity: domain.EntityAlignment, EntityID: aln.ID,
					Message: fmt.Sprintf("row %q has %d columns, expected %d", row.Name, len(row.Residues), width),
				})
			}
		}
	}
	return res, nil
}

// annotationBoundsRule warns when an annotation range is empty or falls
// outside its sequence.
type annotationBoundsRule struct{}

func (annotationBoundsRule) Name() string { return RuleAnnotationBounds }

func (r annotationBoundsRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for _, seq := range changedSequences(changes) {
		for _, a := range seq.Annotations {
			if a.Start < 0 || a.End > seq.Length || a.Start >= a.End {
				res.Violations = append(res.Violations, domain.Violation{
					Rule: r.Name(), Severity: domain.SeverityWarn, Entity: domain.EntitySequence, EntityID: seq.ID,
					Message: fmt.Sprintf("annotation %q [%d,%d) outside sequence of length %d", a.Name, a.Start, a.End, seq.Length),
				})
			}
		}
	}
	return res, nil
}

func changedSequences(changes []domain.Change) []domain.SequenceRecord {
	var out []domain.SequenceRecord
	for _, change := range changes {
		if change.Entity != domain.EntitySequence || change.Action == domain.ActionDelete {
			continue
		}
		if seq, ok := change.After.(domain.SequenceRecord); ok {
			out = append(out, seq)
		}
	}
	return out
}
