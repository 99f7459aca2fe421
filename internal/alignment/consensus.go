// Package alignment derives consensus and per-column statistics for aligned
// sequences and applies single-residue edits.
package alignment

import (
	"time"

	"helixcanvas/pkg/domain"
)

// Gap is the alignment placeholder residue.
const Gap = '-'

// residueAt returns the residue of row at column, or a gap past its end.
func residueAt(row domain.AlignmentSequence, column int) byte {
	if column < len(row.Residues) {
		return row.Residues[column]
	}
	return Gap
}

// tally counts residues in a column, remembering first-occurrence order.
type tally struct {
	order  []byte
	counts [256]int
}

func (t *tally) add(r byte) {
	if t.counts[r] == 0 {
		t.order = append(t.order, r)
	}
	t.counts[r]++
}

// best returns the most frequent residue. Ties go to a non-gap residue over the
// gap and otherwise to the residue seen first.
func (t *tally) best() byte {
	if len(t.order) == 0 {
		return Gap
	}
	winner := t.order[0]
	for _, r := range t.order[1:] {
		c, w := t.counts[r], t.counts[winner]
		if c > w || (c == w && winner == Gap && r != Gap) {
			winner = r
		}
	}
	return winner
}

func columnTally(rows []domain.AlignmentSequence, column int) *tally {
	t := &tally{}
	for _, row := range rows {
		t.add(residueAt(row, column))
	}
	return t
}

// Consensus returns the most frequent residue of every column. Its length
// equals the residue length of the first row.
func Consensus(rows []domain.AlignmentSequence) string {
	if len(rows) == 0 {
		return ""
	}
	width := len(rows[0].Residues)
	out := make([]byte, width)
	for col := 0; col < width; col++ {
		out[col] = columnTally(rows, col).best()
	}
	return string(out)
}

// WithConsensus returns rec with its consensus recomputed from its rows.
func WithConsensus(rec domain.AlignmentRecord) domain.AlignmentRecord {
	rec.Consensus = Consensus(rec.Sequences)
	return rec
}

// MutateResidue replaces the residue at column in the row identified by
// sequenceID. Every other row is left untouched. An unknown id or an
// out-of-range column returns rec unchanged.
func MutateResidue(rec domain.AlignmentRecord, sequenceID string, column int, residue byte, now time.Time) domain.AlignmentRecord {
	target := -1
	for i, row := range rec.Sequences {
		if row.ID == sequenceID {
			target = i
			break
		}
	}
	if target < 0 || column < 0 || column >= len(rec.Sequences[target].Residues) {
		return rec
	}
	out := domain.CloneAlignment(rec)
	buf := []byte(out.Sequences[target].Residues)
	buf[column] = residue
	out.Sequences[target].Residues = string(buf)
	out.UpdatedAt = now
	return WithConsensus(out)
}
