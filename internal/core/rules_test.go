package core

import (
	"context"
	"testing"

	"helixcanvas/pkg/domain"
)

func TestDefaultRulesEngineRegistersRules(t *testing.T) {
	rules := NewDefaultRulesEngine().Rules()
	want := []string{RuleSequenceIdentity, RuleAlignmentWidth, RuleAnnotationBounds}
	if len(rules) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(rules))
	}
	for i, name := range want {
		if rules[i].Name() != name {
			t.Fatalf("rule %d: expected %s, got %s", i, name, rules[i].Name())
		}
	}
}

func TestSequenceIdentityRule(t *testing.T) {
	cases := []struct {
		name string
		seq  domain.SequenceRecord
		want int
	}{
		{"valid", domain.SequenceRecord{Name: "a", Type: domain.SequenceDNA}, 0},
		{"blank name", domain.SequenceRecord{Name: "  ", Type: domain.SequenceRNA}, 1},
		{"bad type", domain.SequenceRecord{Name: "a", Type: "XNA"}, 1},
		{"both", domain.SequenceRecord{}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			changes := []domain.Change{{Entity: domain.EntitySequence, Action: domain.ActionCreate, After: tc.seq}}
			res, err := sequenceIdentityRule{}.Evaluate(context.Background(), nil, changes)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if len(res.Violations) != tc.want {
				t.Fatalf("expected %d violations, got %+v", tc.want, res.Violations)
			}
			if tc.want > 0 && !res.HasBlocking() {
				t.Fatalf("identity violations must block")
			}
		})
	}

	deleted := []domain.Change{{Entity: domain.EntitySequence, Action: domain.ActionDelete, Before: domain.SequenceRecord{}}}
	if res, _ := (sequenceIdentityRule{}).Evaluate(context.Background(), nil, deleted); len(res.Violations) != 0 {
		t.Fatalf("deletes must be ignored")
	}
}

func TestAlignmentWidthRule(t *testing.T) {
	aln := pairAlignment()
	aln.Sequences = append(aln.Sequences, domain.AlignmentSequence{ID: "r3", Name: "short", Residues: "AC"})
	changes := []domain.Change{
		{Entity: domain.EntityAlignment, Action: domain.ActionUpdate, After: aln},
		{Entity: domain.EntityAlignment, Action: domain.ActionDelete, Before: aln},
		{Entity: domain.EntitySequence, Action: domain.ActionCreate, After: domain.SequenceRecord{}},
	}
	res, err := alignmentWidthRule{}.Evaluate(context.Background(), nil, changes)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Severity != domain.SeverityWarn {
		t.Fatalf("expected a single warning, got %+v", res.Violations)
	}
}

func TestAnnotationBoundsRule(t *testing.T) {
	seq := domain.SequenceRecord{Name: "s", Type: domain.SequenceDNA, Length: 10, Annotations: []domain.Annotation{
		{Name: "ok", Start: 0, End: 10},
		{Name: "negative", Start: -1, End: 2},
		{Name: "overflow", Start: 5, End: 11},
		{Name: "empty", Start: 3, End: 3},
	}}
	res, err := annotationBoundsRule{}.Evaluate(context.Background(), nil, []domain.Change{
		{Entity: domain.EntitySequence, Action: domain.ActionUpdate, After: seq},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 3 {
		t.Fatalf("expected 3 warnings, got %+v", res.Violations)
	}
	if res.HasBlocking() {
		t.Fatalf("bounds violations only warn")
	}
}

func TestAnnotationOutOfBoundsStillCommits(t *testing.T) {
	logger := &captureLogger{}
	svc := newTestService(t, WithLogger(logger))
	seq := mustAddSequence(t, svc, "s", "ACGT")
	out, err := svc.AddAnnotations(context.Background(), seq.ID, []domain.Annotation{{Name: "long", Start: 0, End: 40}})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(out) != 1 || logger.count("warn", "rule violation") != 1 {
		t.Fatalf("expected committed annotation with a warning")
	}
}
