// Package domain defines the persistent records, value types, and rule
// evaluation primitives shared by the helixcanvas workspace.
package domain

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// EntityType identifies the type of record stored in the workspace.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntitySequence identifies a sequence record.
	EntitySequence EntityType = "sequence"
	// EntityAlignment identifies an alignment record.
	EntityAlignment EntityType = "alignment"
	// EntityBookmark identifies a sequence bookmark.
	EntityBookmark EntityType = "bookmark"
)

// SequenceType is fixed when a record is created and never recomputed from content.
type SequenceType string

// Recognised sequence alphabets.
const (
	SequenceDNA     SequenceType = "DNA"
	SequenceRNA     SequenceType = "RNA"
	SequenceProtein SequenceType = "Protein"
)

// Valid reports whether t is one of the recognised alphabets.
func (t SequenceType) Valid() bool {
	switch t {
	case SequenceDNA, SequenceRNA, SequenceProtein:
		return true
	}
	return false
}

// Strand is the orientation of a feature or annotation.
type Strand string

// Strand values.
const (
	StrandPlus  Strand = "+"
	StrandMinus Strand = "-"
)

// ParseStrand maps the literal "-" to StrandMinus and everything else to StrandPlus.
func ParseStrand(raw string) Strand {
	if strings.TrimSpace(raw) == "-" {
		return StrandMinus
	}
	return StrandPlus
}

// DefaultAnnotationColor is applied to annotations created without a color.
const DefaultAnnotationColor = "#6e40aa"

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all persisted records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Feature is a biologically meaningful sub-range of a sequence. Coordinates are
// 0-based and half-open.
type Feature struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Strand Strand `json:"strand"`
	Color  string `json:"color,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// Annotation is a user-authored range owned by exactly one sequence.
type Annotation struct {
	ID         string    `json:"id"`
	SequenceID string    `json:"sequence_id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Strand     Strand    `json:"strand"`
	Color      string    `json:"color"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SequenceRecord is a named biological sequence.
type SequenceRecord struct {
	Base
	Name        string       `json:"name"`
	Type        SequenceType `json:"type"`
	Residues    string       `json:"residues"`
	Length      int          `json:"length"`
	Circular    bool         `json:"circular"`
	Features    []Feature    `json:"features"`
	Annotations []Annotation `json:"annotations"`
	Source      string       `json:"source,omitempty"`
}

// AlignmentSequence is one gap-padded row of an alignment.
type AlignmentSequence struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Residues string            `json:"residues"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// AlignmentFormat tags the text format an alignment was read from.
type AlignmentFormat string

// Supported alignment formats.
const (
	AlignmentFASTA     AlignmentFormat = "FASTA"
	AlignmentCLUSTAL   AlignmentFormat = "CLUSTAL"
	AlignmentMAF       AlignmentFormat = "MAF"
	AlignmentStockholm AlignmentFormat = "Stockholm"
)

// Supported reports whether f is one of the alignment formats the parsers accept.
func (f AlignmentFormat) Supported() bool {
	switch f {
	case AlignmentFASTA, AlignmentCLUSTAL, AlignmentMAF, AlignmentStockholm:
		return true
	}
	return false
}

// AlignmentType distinguishes two-row from many-row alignments.
type AlignmentType string

// Alignment types.
const (
	AlignmentPairwise AlignmentType = "pairwise"
	AlignmentMultiple AlignmentType = "multiple"
)

// AlignmentRecord groups equal-length aligned rows. Consensus is derived from
// Sequences and is only ever written by the alignment engine.
type AlignmentRecord struct {
	Base
	Name      string              `json:"name"`
	Format    AlignmentFormat     `json:"format"`
	Type      AlignmentType       `json:"type"`
	Sequences []AlignmentSequence `json:"sequences"`
	Consensus string              `json:"consensus,omitempty"`
}

// Width returns the residue length of the first row, which every row shares.
func (a AlignmentRecord) Width() int {
	if len(a.Sequences) == 0 {
		return 0
	}
	return len(a.Sequences[0].Residues)
}

// Bookmark marks a single position of a sequence.
type Bookmark struct {
	Base
	SequenceID string `json:"sequence_id"`
	Name       string `json:"name"`
	Position   int    `json:"position"`
	Color      string `json:"color"`
}

// ParsedFileResult is the output of file import.
type ParsedFileResult struct {
	Sequences  []SequenceRecord  `json:"sequences"`
	Alignments []AlignmentRecord `json:"alignments"`
}

// NewID returns a fresh random record identifier.
func NewID() string {
	return uuid.NewString()
}

// NormalizeResidues strips whitespace and uppercases.
func NormalizeResidues(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// NewSequenceRecord builds a record from partially populated params, normalizing
// residues and filling the identifier and timestamps when absent.
func NewSequenceRecord(params SequenceRecord, now time.Time) SequenceRecord {
	rec := params
	rec.Residues = NormalizeResidues(params.Residues)
	rec.Length = len(rec.Residues)
	if rec.ID == "" {
		rec.ID = NewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	if rec.Features == nil {
		rec.Features = []Feature{}
	}
	if rec.Annotations == nil {
		rec.Annotations = []Annotation{}
	}
	return rec
}

// SanitizeFeatures clamps coordinates into [0, length] and drops features whose
// clamped range is empty.
func SanitizeFeatures(features []Feature, length int) []Feature {
	out := make([]Feature, 0, len(features))
	for _, f := range features {
		if f.Start < 0 {
			f.Start = 0
		}
		if f.End > length {
			f.End = length
		}
		if f.End > f.Start {
			out = append(out, f)
		}
	}
	return out
}

// NewAnnotation assigns an identifier and timestamps to an annotation draft.
func NewAnnotation(input Annotation, now time.Time) Annotation {
	a := input
	a.ID = NewID()
	if a.Color == "" {
		a.Color = DefaultAnnotationColor
	}
	if a.Strand == "" {
		a.Strand = StrandPlus
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	return a
}

// CloneAnnotations returns an independent copy of the list. A nil input yields
// an empty, non-nil slice.
func CloneAnnotations(in []Annotation) []Annotation {
	out := make([]Annotation, len(in))
	copy(out, in)
	return out
}

// CloneSequence deep-copies the slice fields of a sequence record.
func CloneSequence(s SequenceRecord) SequenceRecord {
	cp := s
	cp.Features = make([]Feature, len(s.Features))
	copy(cp.Features, s.Features)
	cp.Annotations = CloneAnnotations(s.Annotations)
	return cp
}

// CloneAlignment deep-copies the rows of an alignment record.
func CloneAlignment(a AlignmentRecord) AlignmentRecord {
	cp := a
	cp.Sequences = make([]AlignmentSequence, len(a.Sequences))
	for i, row := range a.Sequences {
		if row.Metadata != nil {
			md := make(map[string]string, len(row.Metadata))
			for k, v := range row.Metadata {
				md[k] = v
			}
			row.Metadata = md
		}
		cp.Sequences[i] = row
	}
	return cp
}

// Change records a mutation captured within a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
